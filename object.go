package ucsm

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ManagedObject is a generic managed object of the appliance: a class name, a
// bag of string attributes and child objects.  The client knows nothing about
// the hundreds of classes the appliance defines.
type ManagedObject struct {
	ClassName  string
	Attributes map[string]string
	Children   []*ManagedObject

	parent *ManagedObject
	fields map[string]string
}

// NewManagedObject returns an empty object of the given class, typically used
// as a configuration payload for ConfMo and friends.
func NewManagedObject(className string) *ManagedObject {
	return &ManagedObject{
		ClassName:  className,
		Attributes: make(map[string]string),
	}
}

func newManagedObject(el *Element, parent *ManagedObject) *ManagedObject {
	mo := &ManagedObject{
		ClassName:  el.Name,
		Attributes: make(map[string]string, len(el.Attrs)),
		Children:   make([]*ManagedObject, 0, len(el.Children)),
		parent:     parent,
	}
	for _, a := range el.Attrs {
		mo.Attributes[qualifiedName(a.Name)] = a.Value
	}
	for _, c := range el.Children {
		mo.Children = append(mo.Children, newManagedObject(c, mo))
	}
	return mo
}

// Parent returns the object this one was nested in, or nil for roots.
func (mo *ManagedObject) Parent() *ManagedObject { return mo.parent }

// Get returns the named attribute.  Attributes received from the appliance
// take precedence over fields set with SetField.
func (mo *ManagedObject) Get(name string) (string, error) {
	if v, ok := mo.Attributes[name]; ok {
		return v, nil
	}
	if v, ok := mo.fields[name]; ok {
		return v, nil
	}
	return "", &MissingAttributeError{Class: mo.ClassName, Name: name}
}

// Set sets an attribute.  Attributes are sent to the appliance by XML.
func (mo *ManagedObject) Set(name, value string) {
	if mo.Attributes == nil {
		mo.Attributes = make(map[string]string)
	}
	mo.Attributes[name] = value
}

// SetField sets a local field.  Fields are visible through Get but are never
// sent to the appliance.
func (mo *ManagedObject) SetField(name, value string) {
	if mo.fields == nil {
		mo.fields = make(map[string]string)
	}
	mo.fields[name] = value
}

// DN returns the dn attribute or an empty string.
func (mo *ManagedObject) DN() string {
	return mo.Attributes["dn"]
}

// AddChild appends child and makes mo its parent.
func (mo *ManagedObject) AddChild(child *ManagedObject) {
	child.parent = mo
	mo.Children = append(mo.Children, child)
}

// FindChildren returns the direct children of the given class.
func (mo *ManagedObject) FindChildren(className string) []*ManagedObject {
	var found []*ManagedObject
	for _, c := range mo.Children {
		if c.ClassName == className {
			found = append(found, c)
		}
	}
	return found
}

// Copy returns a deep copy of mo.  The copy has no parent.
func (mo *ManagedObject) Copy() *ManagedObject {
	return mo.copyWithParent(nil)
}

func (mo *ManagedObject) copyWithParent(parent *ManagedObject) *ManagedObject {
	cp := &ManagedObject{
		ClassName:  mo.ClassName,
		Attributes: maps.Clone(mo.Attributes),
		Children:   make([]*ManagedObject, 0, len(mo.Children)),
		parent:     parent,
		fields:     maps.Clone(mo.fields),
	}
	if cp.Attributes == nil {
		cp.Attributes = make(map[string]string)
	}
	for _, c := range mo.Children {
		cp.Children = append(cp.Children, c.copyWithParent(cp))
	}
	return cp
}

// XML renders the object as a self-closed element carrying its attributes.
// Children are not rendered.
func (mo *ManagedObject) XML() string {
	var buf strings.Builder
	buf.WriteByte('<')
	buf.WriteString(mo.ClassName)
	writeAttrs(&buf, mo.Attributes)
	buf.WriteString("/>")
	return buf.String()
}

// String returns the class name followed by one "name: value" line per
// attribute.
func (mo *ManagedObject) String() string {
	var buf strings.Builder
	buf.WriteString(mo.ClassName)

	keys := maps.Keys(mo.Attributes)
	slices.Sort(keys)
	for _, k := range keys {
		buf.WriteString("\n")
		buf.WriteString(k)
		buf.WriteString(": ")
		buf.WriteString(mo.Attributes[k])
	}
	return buf.String()
}
