package inttest

import (
	"bytes"
	"os"
	"strconv"
	"testing"
)

// logWriter sends every complete line written to it to the test log.
type logWriter struct {
	t      *testing.T
	prefix string
	buf    bytes.Buffer
}

func newLogWriter(prefix string, t *testing.T) *logWriter {
	return &logWriter{
		t:      t,
		prefix: prefix,
	}
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf.Write(bytes.ReplaceAll(p, []byte("\r"), nil))
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := w.buf.Next(i + 1)
		w.t.Log(w.prefix, string(line[:i]))
	}
	return len(p), nil
}

// Close flushes a trailing partial line.
func (w *logWriter) Close() error {
	if w.buf.Len() > 0 {
		w.t.Log(w.prefix, w.buf.String())
		w.buf.Reset()
	}
	return nil
}

// dut describes the appliance under test.
type dut struct {
	host     string
	port     int
	secure   bool
	user     string
	password string
}

// dutFromEnv reads the appliance under test from the environment, skipping
// the test when UCSM_DUT_ADDR is not set.
func dutFromEnv(t *testing.T) dut {
	t.Helper()

	d := dut{
		host:     os.Getenv("UCSM_DUT_ADDR"),
		user:     os.Getenv("UCSM_DUT_USER"),
		password: os.Getenv("UCSM_DUT_PASS"),
	}
	if d.host == "" {
		t.Skip("UCSM_DUT_ADDR not set, skipping test")
	}
	if d.user == "" || d.password == "" {
		t.Fatal("UCSM_DUT_ADDR set but UCSM_DUT_USER or UCSM_DUT_PASS is not set")
	}

	if p := os.Getenv("UCSM_DUT_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			t.Fatalf("invalid UCSM_DUT_PORT %q: %v", p, err)
		}
		d.port = port
	}
	d.secure, _ = strconv.ParseBool(os.Getenv("UCSM_DUT_SECURE"))
	return d
}
