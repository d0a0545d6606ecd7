package ucsm

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
)

// Element is a parsed XML element of a reply.  Text and comments are not kept;
// the XML API carries all of its data in attributes.
type Element struct {
	Name     string
	Attrs    []xml.Attr
	Children []*Element
}

// Attr returns the value of the named attribute.  Prefixed attributes are
// named "prefix:local".
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if qualifiedName(a.Name) == name {
			return a.Value, true
		}
	}
	return "", false
}

// Find returns the first descendant of e (in document order) with the given
// name, or nil.
func (e *Element) Find(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
		if found := c.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// qualifiedName returns the name as written in the document.  Replies are
// decoded without namespace resolution, so Space holds the raw prefix.
func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// renderRequest formats a request document.  Without a body the element is
// self-closed, otherwise the body fragments are placed on their own lines.
func renderRequest(method string, params Params, body ...string) string {
	var buf strings.Builder
	buf.WriteByte('<')
	buf.WriteString(method)
	writeAttrs(&buf, params)

	if len(body) == 0 {
		buf.WriteString("/>")
		return buf.String()
	}

	buf.WriteString(">\n")
	buf.WriteString(strings.Join(body, "\n"))
	buf.WriteString("\n</")
	buf.WriteString(method)
	buf.WriteByte('>')
	return buf.String()
}

// ParseResponse parses a reply body into an element tree.  Malformed or empty
// documents result in a *FatalError wrapping ErrMalformedReply.
func ParseResponse(data []byte) (*Element, error) {
	const op = "parse reply"

	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		root  *Element
		stack []*Element
	)
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			if len(stack) > 0 {
				return nil, malformed(op, "unclosed element <%s>", stack[len(stack)-1].Name)
			}
			break
		}
		if err != nil {
			return nil, malformed(op, "%v", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Name:  qualifiedName(t.Name),
				Attrs: append([]xml.Attr(nil), t.Attr...),
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, malformed(op, "multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			name := qualifiedName(t.Name)
			if len(stack) == 0 || stack[len(stack)-1].Name != name {
				return nil, malformed(op, "unexpected end element </%s>", name)
			}
			stack = stack[:len(stack)-1]
		}
	}

	if root == nil {
		return nil, malformed(op, "empty document")
	}
	return root, nil
}

// checkError returns a *ResponseError if the root element of a reply carries
// an errorCode.
func checkError(method string, root *Element) error {
	code, ok := root.Attr("errorCode")
	if !ok {
		return nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return malformed(method, "invalid errorCode %q", code)
	}

	descr, _ := root.Attr("errorDescr")
	return &ResponseError{
		Method:      method,
		Code:        n,
		Description: descr,
	}
}

// wrapper finds the named wrapper element.  Its absence means the reply does
// not follow the grammar of the method.
func wrapper(method string, root *Element, name string) (*Element, error) {
	w := root.Find(name)
	if w == nil {
		return nil, malformed(method, "no %s element in reply", name)
	}
	return w, nil
}

// outConfig returns the single object of an outConfig section, or nil when
// the section is empty.
func outConfig(method string, root *Element) (*ManagedObject, error) {
	w, err := wrapper(method, root, "outConfig")
	if err != nil {
		return nil, err
	}
	if len(w.Children) == 0 {
		return nil, nil
	}
	return newManagedObject(w.Children[0], nil), nil
}

// outConfigs returns the objects of an outConfigs section.
func outConfigs(method string, root *Element) ([]*ManagedObject, error) {
	return wrappedObjects(method, root, "outConfigs")
}

func wrappedObjects(method string, root *Element, name string) ([]*ManagedObject, error) {
	w, err := wrapper(method, root, name)
	if err != nil {
		return nil, err
	}
	objs := make([]*ManagedObject, 0, len(w.Children))
	for _, c := range w.Children {
		objs = append(objs, newManagedObject(c, nil))
	}
	return objs, nil
}

// outUnresolved returns the DNs listed in an outUnresolved section.
func outUnresolved(method string, root *Element) ([]string, error) {
	w, err := wrapper(method, root, "outUnresolved")
	if err != nil {
		return nil, err
	}

	dns := make([]string, 0, len(w.Children))
	for _, c := range w.Children {
		if c.Name != "dn" {
			continue
		}
		v, ok := c.Attr("value")
		if !ok {
			return nil, malformed(method, "unresolved dn without value")
		}
		dns = append(dns, v)
	}
	return dns, nil
}

// outDns returns the DNs listed in an outDns section.
func outDns(method string, root *Element) ([]string, error) {
	w, err := wrapper(method, root, "outDns")
	if err != nil {
		return nil, err
	}

	dns := make([]string, 0, len(w.Children))
	for _, c := range w.Children {
		v, ok := c.Attr("value")
		if !ok {
			return nil, malformed(method, "%s without value in outDns", c.Name)
		}
		dns = append(dns, v)
	}
	return dns, nil
}

// requireAttr returns the named attribute of el or a malformed reply error.
func requireAttr(method string, el *Element, name string) (string, error) {
	v, ok := el.Attr(name)
	if !ok {
		return "", malformed(method, "reply has no %s attribute", name)
	}
	return v, nil
}
