package transport

import (
	"context"
	"errors"
	"fmt"
)

// ErrClosed is returned by a transport that has already been closed.
var ErrClosed = errors.New("transport closed")

// Transport exchanges XML documents with a UCS Manager appliance.  Every
// request gets exactly one reply; there is no pipelining.
type Transport interface {
	// Exchange sends req and returns the raw reply body.
	Exchange(ctx context.Context, req []byte) ([]byte, error)
	Close() error
}

// StatusError is returned when the appliance answers with a non-2xx HTTP
// status.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected http status: %s", e.Status)
}
