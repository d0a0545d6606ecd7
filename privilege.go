package ucsm

import (
	"strings"

	"golang.org/x/exp/slices"
)

// Well known privileges returned in outPriv.
const (
	PrivAdmin    = "admin"
	PrivReadOnly = "read-only"
)

// privilegeSet keeps the privileges granted to a session in the order the
// appliance listed them.
type privilegeSet struct {
	list []string
	set  map[string]struct{}
}

func newPrivilegeSet(privileges ...string) privilegeSet {
	ps := privilegeSet{
		set: make(map[string]struct{}),
	}
	ps.Add(privileges...)
	return ps
}

// parsePrivileges splits the comma separated outPriv attribute.
func parsePrivileges(s string) privilegeSet {
	var privs []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			privs = append(privs, p)
		}
	}
	return newPrivilegeSet(privs...)
}

func (ps *privilegeSet) Add(privileges ...string) {
	for _, p := range privileges {
		if _, ok := ps.set[p]; ok {
			continue
		}
		ps.set[p] = struct{}{}
		ps.list = append(ps.list, p)
	}
}

func (ps privilegeSet) Has(p string) bool {
	_, ok := ps.set[p]
	return ok
}

func (ps privilegeSet) All() []string {
	return slices.Clone(ps.list)
}
