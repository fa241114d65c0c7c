package models

import "time"

// SecurityGroup is one authoritative security group row.
type SecurityGroup struct {
	ID             string    `gorm:"column:id;primaryKey"`
	RevisionNumber int64     `gorm:"column:revision_number"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (SecurityGroup) TableName() string { return "security_groups" }

// SecurityGroupRule is one authoritative rule row. Nullable columns map to
// pointers; the reconciler treats nil as "not constrained".
type SecurityGroupRule struct {
	ID              string  `gorm:"column:id;primaryKey"`
	SecurityGroupID string  `gorm:"column:security_group_id"`
	Direction       string  `gorm:"column:direction"`
	Ethertype       string  `gorm:"column:ethertype"`
	Protocol        *string `gorm:"column:protocol"`
	PortRangeMin    *int    `gorm:"column:port_range_min"`
	PortRangeMax    *int    `gorm:"column:port_range_max"`
	RemoteGroupID   *string `gorm:"column:remote_group_id"`
	RemoteIPPrefix  *string `gorm:"column:remote_ip_prefix"`
}

func (SecurityGroupRule) TableName() string { return "security_group_rules" }

// SecurityGroupTag is a capability tag attached to a security group.
type SecurityGroupTag struct {
	SecurityGroupID string `gorm:"column:security_group_id"`
	Tag             string `gorm:"column:tag"`
}

func (SecurityGroupTag) TableName() string { return "security_group_tags" }

// QosPolicy is one authoritative QoS policy row.
type QosPolicy struct {
	ID             string    `gorm:"column:id;primaryKey"`
	Name           string    `gorm:"column:name"`
	RevisionNumber int64     `gorm:"column:revision_number"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (QosPolicy) TableName() string { return "qos_policies" }

// QosBandwidthLimitRule is a direction-scoped bandwidth limit.
type QosBandwidthLimitRule struct {
	QosPolicyID  string `gorm:"column:qos_policy_id"`
	Direction    string `gorm:"column:direction"`
	MaxKbps      int    `gorm:"column:max_kbps"`
	MaxBurstKbps int    `gorm:"column:max_burst_kbps"`
}

func (QosBandwidthLimitRule) TableName() string { return "qos_bandwidth_limit_rules" }

// QosDscpMarkingRule is a DSCP marking rule.
type QosDscpMarkingRule struct {
	QosPolicyID string `gorm:"column:qos_policy_id"`
	DscpMark    int    `gorm:"column:dscp_mark"`
}

func (QosDscpMarkingRule) TableName() string { return "qos_dscp_marking_rules" }

// Port is one authoritative port row. VifDetails is an opaque JSON blob
// carrying, among other things, the segmentation id.
type Port struct {
	ID             string    `gorm:"column:id;primaryKey"`
	MACAddress     string    `gorm:"column:mac_address"`
	AdminStateUp   bool      `gorm:"column:admin_state_up"`
	Status         string    `gorm:"column:status"`
	QosPolicyID    *string   `gorm:"column:qos_policy_id"`
	RevisionNumber int64     `gorm:"column:revision_number"`
	BindingHostID  string    `gorm:"column:binding_host_id"`
	VifDetails     string    `gorm:"column:vif_details"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (Port) TableName() string { return "ports" }

// PortIPAllocation is one fixed IP of a port.
type PortIPAllocation struct {
	PortID    string `gorm:"column:port_id"`
	IPAddress string `gorm:"column:ip_address"`
	SubnetID  string `gorm:"column:subnet_id"`
}

func (PortIPAllocation) TableName() string { return "port_ip_allocations" }

// AllowedAddressPair is one extra IP/MAC pair allowed on a port.
type AllowedAddressPair struct {
	PortID     string `gorm:"column:port_id"`
	IPAddress  string `gorm:"column:ip_address"`
	MACAddress string `gorm:"column:mac_address"`
}

func (AllowedAddressPair) TableName() string { return "allowed_address_pairs" }

// PortSecurityGroupBinding links a port to a security group.
type PortSecurityGroupBinding struct {
	PortID          string `gorm:"column:port_id"`
	SecurityGroupID string `gorm:"column:security_group_id"`
}

func (PortSecurityGroupBinding) TableName() string { return "port_security_group_bindings" }
