package cmd

import (
	"fmt"
	"io"

	ucsm "github.com/griddynamics/goucsm"
)

// printObjects prints objs separated by blank lines, or one "class: dn" line
// per object when onlyDn is set.  Children are printed after their parent
// when hierarchical is set.
func printObjects(w io.Writer, objs []*ucsm.ManagedObject, onlyDn, hierarchical bool) {
	for i, mo := range objs {
		if i > 0 && !onlyDn {
			fmt.Fprintln(w)
		}
		printObject(w, mo, onlyDn, hierarchical)
	}
}

func printObject(w io.Writer, mo *ucsm.ManagedObject, onlyDn, hierarchical bool) {
	if mo == nil {
		fmt.Fprintln(w, "Object not found")
		return
	}

	switch {
	case !onlyDn:
		fmt.Fprintln(w, mo.String())
	case mo.DN() == "":
		fmt.Fprintf(w, "%s object has no DN\n", mo.ClassName)
	default:
		fmt.Fprintf(w, "%s: %s\n", mo.ClassName, mo.DN())
	}

	if !hierarchical || len(mo.Children) == 0 {
		return
	}
	if !onlyDn {
		fmt.Fprintln(w)
	}
	printObjects(w, mo.Children, onlyDn, hierarchical)
}

func printUnresolved(w io.Writer, dns []string) {
	for _, dn := range dns {
		fmt.Fprintf(w, "unresolved: %s\n", dn)
	}
}
