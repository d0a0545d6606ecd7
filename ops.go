package ucsm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

func filterBody(f Filter) ([]string, error) {
	if f == nil {
		return nil, nil
	}
	if err := checkFilter(f); err != nil {
		return nil, err
	}
	return []string{FilterXML(f)}, nil
}

// valueList renders `<wrapper>` holding one `<elem value="..."/>` per value.
func valueList(wrapper, elem string, values []string) string {
	var buf strings.Builder
	buf.WriteString("<" + wrapper + ">\n")
	for i, v := range values {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, `<%s value="%s"/>`, elem, escapeXML(v))
	}
	buf.WriteString("\n</" + wrapper + ">")
	return buf.String()
}

func configPairs(method string, configs map[string]*ManagedObject) (string, error) {
	keys := maps.Keys(configs)
	slices.Sort(keys)

	pairs := make([]string, 0, len(keys))
	for _, dn := range keys {
		cfg := configs[dn]
		if cfg == nil {
			return "", fmt.Errorf("ucsm: %s: nil config for %q", method, dn)
		}
		pairs = append(pairs, fmt.Sprintf(`<pair key="%s">%s</pair>`, escapeXML(dn), cfg.XML()))
	}
	return "<inConfigs>" + strings.Join(pairs, "\n") + "</inConfigs>", nil
}

func dedup(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ResolveChildren returns the children of dn, optionally restricted to
// classID and filter.
func (s *Session) ResolveChildren(ctx context.Context, classID, dn string, hierarchical bool, filter Filter) ([]*ManagedObject, error) {
	const method = "configResolveChildren"

	body, err := filterBody(filter)
	if err != nil {
		return nil, err
	}

	root, err := s.Call(ctx, method, Params{
		"classId":        classID,
		"inDn":           dn,
		"inHierarchical": yesNo(hierarchical),
	}, body...)
	if err != nil {
		return nil, err
	}
	return outConfigs(method, root)
}

// ResolveClass returns all objects of classID matching filter.
func (s *Session) ResolveClass(ctx context.Context, classID string, filter Filter, hierarchical bool) ([]*ManagedObject, error) {
	const method = "configResolveClass"

	body, err := filterBody(filter)
	if err != nil {
		return nil, err
	}

	root, err := s.Call(ctx, method, Params{
		"classId":        classID,
		"inHierarchical": yesNo(hierarchical),
	}, body...)
	if err != nil {
		return nil, err
	}
	return outConfigs(method, root)
}

// ResolveClasses returns all objects of the given classes.
func (s *Session) ResolveClasses(ctx context.Context, classIDs []string, hierarchical bool) ([]*ManagedObject, error) {
	const method = "configResolveClasses"

	root, err := s.Call(ctx, method, Params{
		"inHierarchical": yesNo(hierarchical),
	}, valueList("inIds", "id", classIDs))
	if err != nil {
		return nil, err
	}
	return outConfigs(method, root)
}

// ResolveDn returns the object at dn, or nil if there is none.
func (s *Session) ResolveDn(ctx context.Context, dn string, hierarchical bool) (*ManagedObject, error) {
	const method = "configResolveDn"

	root, err := s.Call(ctx, method, Params{
		"dn":             dn,
		"inHierarchical": yesNo(hierarchical),
	})
	if err != nil {
		return nil, err
	}
	return outConfig(method, root)
}

// ResolveDns resolves several DNs at once.  Every distinct DN ends up either
// in resolved or in unresolved.
func (s *Session) ResolveDns(ctx context.Context, dns []string, hierarchical bool) (resolved []*ManagedObject, unresolved []string, err error) {
	const method = "configResolveDns"

	root, err := s.Call(ctx, method, Params{
		"inHierarchical": yesNo(hierarchical),
	}, valueList("inDns", "dn", dedup(dns)))
	if err != nil {
		return nil, nil, err
	}

	resolved, err = outConfigs(method, root)
	if err != nil {
		return nil, nil, err
	}
	unresolved, err = outUnresolved(method, root)
	if err != nil {
		return nil, nil, err
	}
	return resolved, unresolved, nil
}

// ResolveParent returns the parent of dn, or nil if there is none.
func (s *Session) ResolveParent(ctx context.Context, dn string, hierarchical bool) (*ManagedObject, error) {
	const method = "configResolveParent"

	root, err := s.Call(ctx, method, Params{
		"dn":             dn,
		"inHierarchical": yesNo(hierarchical),
	})
	if err != nil {
		return nil, err
	}
	return outConfig(method, root)
}

// FindDnsByClassID returns the DNs of all objects of classID matching filter.
func (s *Session) FindDnsByClassID(ctx context.Context, classID string, filter Filter) ([]string, error) {
	const method = "configFindDnsByClassId"

	body, err := filterBody(filter)
	if err != nil {
		return nil, err
	}

	root, err := s.Call(ctx, method, Params{
		"classId": classID,
	}, body...)
	if err != nil {
		return nil, err
	}
	return outDns(method, root)
}

// ConfMo applies config to the object at dn and returns the resulting object.
func (s *Session) ConfMo(ctx context.Context, config *ManagedObject, dn string, hierarchical bool) (*ManagedObject, error) {
	const method = "configConfMo"

	if config == nil {
		return nil, fmt.Errorf("ucsm: %s: nil config", method)
	}

	root, err := s.Call(ctx, method, Params{
		"dn":             dn,
		"inHierarchical": yesNo(hierarchical),
	}, "<inConfig>"+config.XML()+"</inConfig>")
	if err != nil {
		return nil, err
	}
	return outConfig(method, root)
}

// ConfMos applies a batch of configurations keyed by DN and returns the
// resulting objects keyed the same way.
func (s *Session) ConfMos(ctx context.Context, configs map[string]*ManagedObject) (map[string]*ManagedObject, error) {
	const method = "configConfMos"

	body, err := configPairs(method, configs)
	if err != nil {
		return nil, err
	}

	root, err := s.Call(ctx, method, Params{}, body)
	if err != nil {
		return nil, err
	}

	pairs, err := outConfigs(method, root)
	if err != nil {
		return nil, err
	}
	return unpair(method, pairs)
}

// unpair turns `<pair key="dn"><obj/></pair>` objects into a map.
func unpair(method string, pairs []*ManagedObject) (map[string]*ManagedObject, error) {
	res := make(map[string]*ManagedObject, len(pairs))
	for _, p := range pairs {
		if p.ClassName != "pair" {
			return nil, malformed(method, "non-pair object %s in outConfigs", p.ClassName)
		}
		key, ok := p.Attributes["key"]
		if !ok {
			return nil, malformed(method, "pair without key")
		}
		if len(p.Children) == 0 {
			return nil, malformed(method, "pair %q without value", key)
		}
		mo := p.Children[0]
		mo.parent = nil
		res[key] = mo
	}
	return res, nil
}

// ConfMoGroup applies one config to all of dns.  The appliance performs the
// fan-out.
func (s *Session) ConfMoGroup(ctx context.Context, dns []string, config *ManagedObject, hierarchical bool) ([]*ManagedObject, error) {
	const method = "configConfMoGroup"

	if config == nil {
		return nil, fmt.Errorf("ucsm: %s: nil config", method)
	}

	root, err := s.Call(ctx, method, Params{
		"inHierarchical": yesNo(hierarchical),
	}, "<inConfig>"+config.XML()+"</inConfig>", valueList("inDns", "dn", dns))
	if err != nil {
		return nil, err
	}
	return outConfigs(method, root)
}

// Impact is the result of EstimateImpact.
type Impact struct {
	Ackables    []*ManagedObject
	OldAckables []*ManagedObject
	Affected    []*ManagedObject
	OldAffected []*ManagedObject
}

// EstimateImpact asks the appliance what applying configs would affect,
// without applying them.
func (s *Session) EstimateImpact(ctx context.Context, configs map[string]*ManagedObject) (*Impact, error) {
	const method = "configEstimateImpact"

	body, err := configPairs(method, configs)
	if err != nil {
		return nil, err
	}

	root, err := s.Call(ctx, method, Params{}, body)
	if err != nil {
		return nil, err
	}

	var impact Impact
	for _, sec := range []struct {
		name string
		dst  *[]*ManagedObject
	}{
		{"outAckables", &impact.Ackables},
		{"outOldAckables", &impact.OldAckables},
		{"outAffected", &impact.Affected},
		{"outOldAffected", &impact.OldAffected},
	} {
		objs, err := wrappedObjects(method, root, sec.name)
		if err != nil {
			return nil, err
		}
		*sec.dst = objs
	}
	return &impact, nil
}
