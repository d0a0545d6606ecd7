package ucsm

import (
	"fmt"
	"strings"
)

// FilterOp is the tag of a property filter on the wire.
type FilterOp string

const (
	OpEqual          FilterOp = "eq"
	OpNotEqual       FilterOp = "ne"
	OpGreater        FilterOp = "gt"
	OpGreaterOrEqual FilterOp = "ge"
	OpLess           FilterOp = "lt"
	OpLessOrEqual    FilterOp = "le"
	OpWildcard       FilterOp = "wcard"
	OpAnyBit         FilterOp = "anybit"
	OpAllBit         FilterOp = "allbit"
)

// ComposeOp is the tag of a boolean composition on the wire.
type ComposeOp string

const (
	OpAnd ComposeOp = "and"
	OpOr  ComposeOp = "or"
	OpNot ComposeOp = "not"
)

// Filter is a server side predicate over managed object properties.  It is
// implemented by *PropertyFilter and *ComposeFilter only.
type Filter interface {
	// XML renders the filter in the appliance's filter grammar.
	XML() string
	filter()
}

// Attribute identifies a property of a managed object class, e.g.
// Attr("computeBlade", "numOfCpus").  Its methods build property filters.
type Attribute struct {
	Class    string
	Property string
}

// Attr returns the Attribute for the property of class.
func Attr(class, property string) Attribute {
	return Attribute{Class: class, Property: property}
}

func (a Attribute) filter(op FilterOp, value string) *PropertyFilter {
	return &PropertyFilter{
		Class:    a.Class,
		Property: a.Property,
		Op:       op,
		Value:    value,
	}
}

func (a Attribute) Eq(v any) *PropertyFilter { return a.filter(OpEqual, fmt.Sprint(v)) }
func (a Attribute) Ne(v any) *PropertyFilter { return a.filter(OpNotEqual, fmt.Sprint(v)) }
func (a Attribute) Gt(v any) *PropertyFilter { return a.filter(OpGreater, fmt.Sprint(v)) }
func (a Attribute) Ge(v any) *PropertyFilter { return a.filter(OpGreaterOrEqual, fmt.Sprint(v)) }
func (a Attribute) Lt(v any) *PropertyFilter { return a.filter(OpLess, fmt.Sprint(v)) }
func (a Attribute) Le(v any) *PropertyFilter { return a.filter(OpLessOrEqual, fmt.Sprint(v)) }

// Wildcard matches the property against a pattern.
func (a Attribute) Wildcard(pattern string) *PropertyFilter {
	return a.filter(OpWildcard, pattern)
}

// AnyBit matches if any of the bits is set in a bitmask property.  Bits may be
// given one by one or as a single comma separated string.
func (a Attribute) AnyBit(bits ...string) *PropertyFilter {
	return a.filter(OpAnyBit, strings.Join(bits, ","))
}

// AllBit matches if all of the bits are set in a bitmask property.
func (a Attribute) AllBit(bits ...string) *PropertyFilter {
	return a.filter(OpAllBit, strings.Join(bits, ","))
}

// PropertyFilter compares one property of a class against a value.
type PropertyFilter struct {
	Class    string
	Property string
	Op       FilterOp
	Value    string
}

func (*PropertyFilter) filter() {}

func (f *PropertyFilter) XML() string {
	return fmt.Sprintf(`<%s class="%s" property="%s" value="%s"/>`,
		f.Op, escapeXML(f.Class), escapeXML(f.Property), escapeXML(f.Value))
}

func (f *PropertyFilter) String() string { return f.XML() }

// ComposeFilter combines filters with a boolean operator.
type ComposeFilter struct {
	Op       ComposeOp
	Operands []Filter
}

func (*ComposeFilter) filter() {}

func (f *ComposeFilter) XML() string {
	parts := make([]string, 0, len(f.Operands))
	for _, o := range f.Operands {
		parts = append(parts, o.XML())
	}
	return fmt.Sprintf("<%s>\n%s\n</%s>", f.Op, strings.Join(parts, "\n"), f.Op)
}

func (f *ComposeFilter) String() string { return f.XML() }

// And returns the conjunction of the filters.  Operands that are themselves
// conjunctions are flattened into the result.
func And(a, b Filter, more ...Filter) (*ComposeFilter, error) {
	return compose(OpAnd, append([]Filter{a, b}, more...))
}

// Or returns the disjunction of the filters.  Operands that are themselves
// disjunctions are flattened into the result.
func Or(a, b Filter, more ...Filter) (*ComposeFilter, error) {
	return compose(OpOr, append([]Filter{a, b}, more...))
}

// Not negates f.
func Not(f Filter) (*ComposeFilter, error) {
	if err := checkFilter(f); err != nil {
		return nil, err
	}
	return &ComposeFilter{Op: OpNot, Operands: []Filter{f}}, nil
}

func compose(op ComposeOp, operands []Filter) (*ComposeFilter, error) {
	cf := &ComposeFilter{Op: op}
	for _, o := range operands {
		if err := checkFilter(o); err != nil {
			return nil, err
		}
		if inner, ok := o.(*ComposeFilter); ok && inner.Op == op {
			cf.Operands = append(cf.Operands, inner.Operands...)
			continue
		}
		cf.Operands = append(cf.Operands, o)
	}
	return cf, nil
}

func checkFilter(f Filter) error {
	switch v := f.(type) {
	case *PropertyFilter:
		if v != nil {
			return nil
		}
	case *ComposeFilter:
		if v != nil {
			return nil
		}
	}
	return &TypeMismatchError{Value: f}
}

// FilterXML wraps f in the inFilter element expected by the resolve methods.
func FilterXML(f Filter) string {
	return "<inFilter>\n" + f.XML() + "\n</inFilter>"
}
