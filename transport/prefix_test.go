package transport

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixWriter(t *testing.T) {
	tt := []struct {
		name   string
		writes []string
		want   string
	}{
		{"single line", []string{"<aaaLogin/>\n"}, ">> <aaaLogin/>\n"},
		{"multi line", []string{"<a>\n<b/>\n</a>\n"}, ">> <a>\n>> <b/>\n>> </a>\n"},
		{"no trailing prefix", []string{"foo\n", "bar"}, ">> foo\n>> bar"},
		{"split write", []string{"fo", "o\nbar\n"}, ">> foo\n>> bar\n"},
		{"empty", []string{""}, ""},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewPrefixWriter(&buf, ">> ")
			for _, s := range tc.writes {
				n, err := w.Write([]byte(s))
				assert.NoError(t, err)
				assert.Equal(t, len(s), n)
			}
			assert.Equal(t, tc.want, buf.String())
		})
	}
}
