// Package http implements the UCS Manager XML API transport: every request is
// POSTed as an XML document to a single endpoint on the appliance.
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/griddynamics/goucsm/transport"
)

// DefaultPath is the XML API endpoint on the appliance.
const DefaultPath = "/nuova"

// Transport posts XML documents to a UCS Manager over HTTP or HTTPS.
type Transport struct {
	client   *http.Client
	endpoint string

	mu      sync.Mutex
	in, out io.Writer
	closed  bool

	// serializes captures of concurrent exchanges
	capMu sync.Mutex
}

// Dial returns a Transport for the appliance at host.  IPv6 addresses may be
// given with or without brackets.  A port of 0 uses the scheme default.  When secure is set the requests go over TLS using config
// (nil means the Go defaults).
func Dial(host string, port int, secure bool, config *tls.Config) (*Transport, error) {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	bare := strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	switch {
	case port > 0:
		host = net.JoinHostPort(bare, strconv.Itoa(port))
	case strings.Contains(bare, ":"):
		host = "[" + bare + "]"
	}

	client := &http.Client{}
	if secure && config != nil {
		client.Transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: config,
		}
	}
	return NewTransport(scheme+"://"+host+DefaultPath, client)
}

// NewTransport takes a full endpoint URL and an already configured client and
// returns a new Transport.  An endpoint without a path is completed with
// DefaultPath.  A nil client gets a fresh http.Client.
func NewTransport(endpoint string, client *http.Client) (*Transport, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultPath
	}

	if client == nil {
		client = &http.Client{}
	}

	return &Transport{
		client:   client,
		endpoint: u.String(),
	}, nil
}

// Endpoint returns the URL requests are posted to.
func (t *Transport) Endpoint() string { return t.endpoint }

// DebugCapture copies all incoming replies to in and all outgoing requests to
// out, prefixed with "<< " and ">> " respectively.  Either may be nil.
func (t *Transport) DebugCapture(in io.Writer, out io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.in, t.out = nil, nil
	if in != nil {
		t.in = transport.NewPrefixWriter(in, "<< ")
	}
	if out != nil {
		t.out = transport.NewPrefixWriter(out, ">> ")
	}
}

// Exchange posts req to the endpoint and returns the reply body.  Replies with
// a non-2xx status are returned as a *transport.StatusError.
func (t *Transport) Exchange(ctx context.Context, req []byte) ([]byte, error) {
	t.mu.Lock()
	closed, in, out := t.closed, t.in, t.out
	t.mu.Unlock()

	if closed {
		return nil, transport.ErrClosed
	}

	if out != nil {
		t.capture(out, req)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(req))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/xml")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read reply: %w", err)
	}

	if in != nil {
		t.capture(in, body)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &transport.StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
		}
	}

	return body, nil
}

// Close releases idle connections.  Exchanges after Close fail with
// transport.ErrClosed.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	t.client.CloseIdleConnections()
	return nil
}

func (t *Transport) capture(w io.Writer, msg []byte) {
	t.capMu.Lock()
	defer t.capMu.Unlock()

	// capture errors are ignored.
	_, _ = w.Write(msg)
	if len(msg) == 0 || msg[len(msg)-1] != '\n' {
		_, _ = w.Write([]byte("\n"))
	}
}
