package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"policy-agent/feature/source/models"

	"gorm.io/gorm"
)

// TagTCPStrict marks security groups requiring strict TCP state tracking.
const TagTCPStrict = "capability:tcp-strict"

// RequiredTables lists every inventory table the repository reads. Startup
// verifies these against the live schema.
var RequiredTables = []string{
	models.SecurityGroup{}.TableName(),
	models.SecurityGroupRule{}.TableName(),
	models.SecurityGroupTag{}.TableName(),
	models.QosPolicy{}.TableName(),
	models.QosBandwidthLimitRule{}.TableName(),
	models.QosDscpMarkingRule{}.TableName(),
	models.Port{}.TableName(),
	models.PortIPAllocation{}.TableName(),
	models.AllowedAddressPair{}.TableName(),
	models.PortSecurityGroupBinding{}.TableName(),
}

// RevisionTuple is one record of a paged revision scan.
type RevisionTuple struct {
	Key       string    `gorm:"column:id"`
	Revision  int64     `gorm:"column:revision_number"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// RevisionQuery pages through one object kind's change log, ascending by
// creation time.
type RevisionQuery func(ctx context.Context, limit int, createdAfter time.Time) ([]RevisionTuple, error)

// FixedIP is one fixed address of a port.
type FixedIP struct {
	IPAddress string
	SubnetID  string
}

// AddressPair is one allowed IP/MAC pair of a port.
type AddressPair struct {
	IPAddress  string
	MACAddress string
}

// PortDetails is everything the port handler needs to project a target spec.
type PortDetails struct {
	ID             string
	MACAddress     string
	AdminStateUp   bool
	Status         string
	QosPolicyID    string
	Revision       int64
	BindingHost    string
	SegmentationID *int
	FixedIPs       []FixedIP
	AllowedPairs   []AddressPair
	SecurityGroups []string
}

// Repository reads the inventory database.
type Repository struct {
	db *gorm.DB
}

// NewRepository wraps an inventory database connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SecurityGroupRevisions returns one page of security group revision tuples.
func (r *Repository) SecurityGroupRevisions(ctx context.Context, limit int, createdAfter time.Time) ([]RevisionTuple, error) {
	return r.revisionPage(ctx, &models.SecurityGroup{}, limit, createdAfter)
}

// QosPolicyRevisions returns one page of QoS policy revision tuples.
func (r *Repository) QosPolicyRevisions(ctx context.Context, limit int, createdAfter time.Time) ([]RevisionTuple, error) {
	return r.revisionPage(ctx, &models.QosPolicy{}, limit, createdAfter)
}

// PortRevisions returns one page of port revision tuples, limited to ports
// bound to the given host.
func (r *Repository) PortRevisions(host string) RevisionQuery {
	return func(ctx context.Context, limit int, createdAfter time.Time) ([]RevisionTuple, error) {
		var tuples []RevisionTuple
		err := r.db.WithContext(ctx).
			Model(&models.Port{}).
			Select("id", "revision_number", "created_at").
			Where("binding_host_id = ?", host).
			Where("created_at > ?", createdAfter).
			Order("created_at ASC").
			Limit(limit).
			Scan(&tuples).Error
		return tuples, err
	}
}

func (r *Repository) revisionPage(ctx context.Context, model any, limit int, createdAfter time.Time) ([]RevisionTuple, error) {
	var tuples []RevisionTuple
	err := r.db.WithContext(ctx).
		Model(model).
		Select("id", "revision_number", "created_at").
		Where("created_at > ?", createdAfter).
		Order("created_at ASC").
		Limit(limit).
		Scan(&tuples).Error
	return tuples, err
}

// SecurityGroupRevision returns the group's current revision number.
func (r *Repository) SecurityGroupRevision(ctx context.Context, id string) (int64, error) {
	var group models.SecurityGroup
	err := r.db.WithContext(ctx).
		Select("id", "revision_number").
		First(&group, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("security group %s not found", id)
	}
	return group.RevisionNumber, err
}

// RulesForSecurityGroup returns the authoritative rule list of one group.
func (r *Repository) RulesForSecurityGroup(ctx context.Context, id string) ([]models.SecurityGroupRule, error) {
	var rules []models.SecurityGroupRule
	err := r.db.WithContext(ctx).
		Where("security_group_id = ?", id).
		Find(&rules).Error
	return rules, err
}

// HasSecurityGroupTag reports whether the group carries the given tag.
func (r *Repository) HasSecurityGroupTag(ctx context.Context, id, tag string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SecurityGroupTag{}).
		Where("security_group_id = ? AND tag = ?", id, tag).
		Count(&count).Error
	return count > 0, err
}

// SecurityGroupMemberAddresses returns the deduplicated, sorted set of member
// addresses of a group: fixed IPs of its bound ports plus their allowed
// address pairs.
func (r *Repository) SecurityGroupMemberAddresses(ctx context.Context, id string) ([]string, error) {
	var fixed []string
	err := r.db.WithContext(ctx).
		Model(&models.PortIPAllocation{}).
		Select("port_ip_allocations.ip_address").
		Joins("JOIN port_security_group_bindings ON port_security_group_bindings.port_id = port_ip_allocations.port_id").
		Where("port_security_group_bindings.security_group_id = ?", id).
		Scan(&fixed).Error
	if err != nil {
		return nil, err
	}

	var pairs []string
	err = r.db.WithContext(ctx).
		Model(&models.AllowedAddressPair{}).
		Select("allowed_address_pairs.ip_address").
		Joins("JOIN port_security_group_bindings ON port_security_group_bindings.port_id = allowed_address_pairs.port_id").
		Where("port_security_group_bindings.security_group_id = ?", id).
		Scan(&pairs).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(fixed)+len(pairs))
	var addresses []string
	for _, ip := range append(fixed, pairs...) {
		if _, ok := seen[ip]; ok {
			continue
		}
		seen[ip] = struct{}{}
		addresses = append(addresses, ip)
	}
	sort.Strings(addresses)
	return addresses, nil
}

// QosPolicyByID returns one QoS policy row.
func (r *Repository) QosPolicyByID(ctx context.Context, id string) (*models.QosPolicy, error) {
	var policy models.QosPolicy
	err := r.db.WithContext(ctx).First(&policy, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("qos policy %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// QosPolicyRules returns the policy's bandwidth and DSCP rules.
func (r *Repository) QosPolicyRules(ctx context.Context, id string) ([]models.QosBandwidthLimitRule, []models.QosDscpMarkingRule, error) {
	var bwl []models.QosBandwidthLimitRule
	if err := r.db.WithContext(ctx).Where("qos_policy_id = ?", id).Find(&bwl).Error; err != nil {
		return nil, nil, err
	}
	var dscp []models.QosDscpMarkingRule
	if err := r.db.WithContext(ctx).Where("qos_policy_id = ?", id).Find(&dscp).Error; err != nil {
		return nil, nil, err
	}
	return bwl, dscp, nil
}

// PortDetails loads one port with its addresses and group bindings.
// Malformed vif_details is a contract violation of the source store and
// surfaces as an error so the single offending port is skipped.
func (r *Repository) PortDetails(ctx context.Context, id string) (*PortDetails, error) {
	var port models.Port
	err := r.db.WithContext(ctx).First(&port, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("port %s not found", id)
	}
	if err != nil {
		return nil, err
	}

	details := &PortDetails{
		ID:           port.ID,
		MACAddress:   port.MACAddress,
		AdminStateUp: port.AdminStateUp,
		Status:       port.Status,
		Revision:     port.RevisionNumber,
		BindingHost:  port.BindingHostID,
	}
	if port.QosPolicyID != nil {
		details.QosPolicyID = *port.QosPolicyID
	}

	if port.VifDetails != "" {
		var vif struct {
			SegmentationID *int `json:"segmentation_id"`
		}
		if err := json.Unmarshal([]byte(port.VifDetails), &vif); err != nil {
			return nil, fmt.Errorf("port %s: malformed vif_details: %w", id, err)
		}
		details.SegmentationID = vif.SegmentationID
	}

	var allocations []models.PortIPAllocation
	if err := r.db.WithContext(ctx).Where("port_id = ?", id).Find(&allocations).Error; err != nil {
		return nil, err
	}
	for _, a := range allocations {
		details.FixedIPs = append(details.FixedIPs, FixedIP{IPAddress: a.IPAddress, SubnetID: a.SubnetID})
	}

	var pairs []models.AllowedAddressPair
	if err := r.db.WithContext(ctx).Where("port_id = ?", id).Find(&pairs).Error; err != nil {
		return nil, err
	}
	for _, p := range pairs {
		details.AllowedPairs = append(details.AllowedPairs, AddressPair{IPAddress: p.IPAddress, MACAddress: p.MACAddress})
	}

	var bindings []models.PortSecurityGroupBinding
	if err := r.db.WithContext(ctx).Where("port_id = ?", id).Find(&bindings).Error; err != nil {
		return nil, err
	}
	for _, b := range bindings {
		details.SecurityGroups = append(details.SecurityGroups, b.SecurityGroupID)
	}

	return details, nil
}
