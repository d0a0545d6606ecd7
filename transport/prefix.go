package transport

import (
	"bytes"
	"io"
)

// Prefixer is an io.Writer that prefixes every line written through it.  It is
// used to capture the wire traffic of a transport.
type Prefixer struct {
	prefix string
	writer io.Writer
	nl     bool
	buf    bytes.Buffer // reuse buffer to save allocations
}

// NewPrefixWriter returns a Prefixer that forwards all writes to writer with
// every line prefixed by prefix.
func NewPrefixWriter(writer io.Writer, prefix string) *Prefixer {
	return &Prefixer{prefix: prefix, writer: writer, nl: true}
}

func (pf *Prefixer) Write(payload []byte) (int, error) {
	pf.buf.Reset()

	for _, b := range payload {
		if pf.nl {
			pf.buf.WriteString(pf.prefix)
			pf.nl = false
		}

		pf.buf.WriteByte(b)

		// don't emit the prefix right after a newline as it may be the last
		// byte of the stream.
		if b == '\n' {
			pf.nl = true
		}
	}

	n, err := pf.writer.Write(pf.buf.Bytes())
	if err != nil {
		// never return more than original length to satisfy io.Writer
		if n > len(payload) {
			n = len(payload)
		}
		return n, err
	}

	return len(payload), nil
}
