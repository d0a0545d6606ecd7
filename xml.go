package ucsm

import (
	"encoding/xml"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Params are the attributes of a request element, keyed by their wire name.
type Params map[string]string

// writeAttrs renders attrs as ` key="value"` pairs sorted by key.
func writeAttrs(buf *strings.Builder, attrs map[string]string) {
	keys := maps.Keys(attrs)
	slices.Sort(keys)
	for _, k := range keys {
		buf.WriteByte(' ')
		buf.WriteString(k)
		buf.WriteString(`="`)
		buf.WriteString(escapeXML(attrs[k]))
		buf.WriteByte('"')
	}
}

// escapeXML escapes input for use inside a double quoted attribute value.
func escapeXML(input string) string {
	buf := &strings.Builder{}
	// writes to a strings.Builder never fail
	_ = xml.EscapeText(buf, []byte(input))
	return buf.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
