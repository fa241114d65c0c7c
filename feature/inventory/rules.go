package inventory

import (
	"sort"

	"policy-agent/feature/source/models"
	"policy-agent/feature/target"
)

// ReconcileRules computes the corrective rule sets for one security group's
// firewall section.
//
// existing holds the target-store rules of the section keyed by rule id;
// authoritative is the source store's rule list; refs is the owning group's
// resolved target triple; remoteRefs maps source group ids to their address
// set references for remote group resolution.
//
// Rules are immutable once created except for the disabled flag: an existing
// enabled rule that matches an authoritative id is already correct and
// appears in neither set. A disabled rule cannot be toggled back on, so a
// disabled match is recreated: it lands in both the delete set and the add
// set. Whatever remains unmatched in existing is orphaned within the section
// and deleted. Authoritative rules missing mandatory fields are skipped and
// reported so siblings proceed.
func ReconcileRules(
	existing map[string]target.RuleMeta,
	authoritative []models.SecurityGroupRule,
	refs target.SecurityGroupRefs,
	remoteRefs map[string]string,
) (add []target.FirewallRule, del []string, skipped []string) {
	remaining := make(map[string]target.RuleMeta, len(existing))
	for id, meta := range existing {
		remaining[id] = meta
	}

	for _, rule := range authoritative {
		if meta, ok := remaining[rule.ID]; ok && !meta.Disabled {
			// Already correct; keep it out of the delete set.
			delete(remaining, rule.ID)
			continue
		}

		if rule.Direction == "" || rule.Ethertype == "" {
			skipped = append(skipped, rule.ID)
			continue
		}

		add = append(add, projectRule(rule, refs, remoteRefs))
	}

	for id := range remaining {
		del = append(del, id)
	}
	sort.Strings(del)

	return add, del, skipped
}

// projectRule turns an authoritative rule into its target-shape spec,
// substituting the owning group's references. A remote group with a known
// address set gets that reference; an unknown one passes through unresolved,
// signalling the remote group has not been created yet.
func projectRule(rule models.SecurityGroupRule, refs target.SecurityGroupRefs, remoteRefs map[string]string) target.FirewallRule {
	spec := target.FirewallRule{
		ID:            rule.ID,
		Direction:     rule.Direction,
		Ethertype:     rule.Ethertype,
		LocalGroupRef: refs.AddressSetID,
		ApplyToRef:    refs.PolicyGroupID,
	}
	if rule.Protocol != nil {
		spec.Protocol = *rule.Protocol
	}
	if rule.PortRangeMin != nil {
		spec.PortRangeMin = *rule.PortRangeMin
	}
	if rule.PortRangeMax != nil {
		spec.PortRangeMax = *rule.PortRangeMax
	}
	if rule.RemoteIPPrefix != nil {
		spec.RemoteIPPrefix = *rule.RemoteIPPrefix
	}
	if rule.RemoteGroupID != nil {
		if ref, ok := remoteRefs[*rule.RemoteGroupID]; ok {
			spec.RemoteGroupRef = ref
		} else {
			spec.RemoteGroupRef = *rule.RemoteGroupID
		}
	}
	return spec
}
