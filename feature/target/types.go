package target

// Kind identifies an object kind whose revisions can be listed.
type Kind string

const (
	KindAddressSet Kind = "address-set"
	KindQosProfile Kind = "qos-profile"
	KindPort       Kind = "port"
)

// SecurityGroupRefs is the resolved triple of target-store objects backing
// one source security group.
type SecurityGroupRefs struct {
	// AddressSetID holds the group's member addresses and is what rules of
	// other groups reference as remote group.
	AddressSetID string `json:"address_set_id"`
	// PolicyGroupID is the grouping object firewall rules apply to.
	PolicyGroupID string `json:"policy_group_id"`
	// SectionID is the firewall section holding the group's rules.
	SectionID string `json:"section_id"`
}

// FirewallRule is the target-shape spec of one security group rule.
type FirewallRule struct {
	ID             string `json:"id"`
	Direction      string `json:"direction"`
	Ethertype      string `json:"ethertype"`
	Protocol       string `json:"protocol,omitempty"`
	PortRangeMin   int    `json:"port_range_min,omitempty"`
	PortRangeMax   int    `json:"port_range_max,omitempty"`
	LocalGroupRef  string `json:"local_group_ref"`
	ApplyToRef     string `json:"apply_to_ref"`
	RemoteGroupRef string `json:"remote_group_ref,omitempty"`
	RemoteIPPrefix string `json:"remote_ip_prefix,omitempty"`
}

// RuleMeta carries the per-rule metadata the reconciler needs.
type RuleMeta struct {
	Revision string `json:"revision"`
	Disabled bool   `json:"disabled"`
}

// QosRule is a single QoS profile rule: either a DSCP marking rule or a
// direction-scoped bandwidth limit.
type QosRule struct {
	DSCPMark     *int   `json:"dscp_mark,omitempty"`
	Direction    string `json:"direction,omitempty"`
	MaxKbps      int    `json:"max_kbps,omitempty"`
	MaxBurstKbps int    `json:"max_burst_kbps,omitempty"`
}

// AddressBinding pairs an IP with the MAC allowed to use it on a port.
type AddressBinding struct {
	IPAddress  string `json:"ip_address"`
	MACAddress string `json:"mac_address"`
}

// PortSpec is the target-shape port update.
type PortSpec struct {
	ID              string           `json:"id"`
	Revision        int64            `json:"revision"`
	SwitchID        string           `json:"switch_id,omitempty"`
	QosProfileID    string           `json:"qos_profile_id,omitempty"`
	SecurityGroups  []string         `json:"security_groups"`
	AddressBindings []AddressBinding `json:"address_bindings"`
}
