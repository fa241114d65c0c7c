package target

import (
	"context"
	"time"
)

// Client is the contract the synchronization engine consumes. Every
// operation is idempotent; revision-carrying updates fail with ErrConflict
// when the backend's revision advanced since it was read.
type Client interface {
	// ListRevisions returns the key -> revision map for one object kind.
	ListRevisions(ctx context.Context, kind Kind) (map[string]string, error)

	// ListAddressSets returns the source group id -> address set reference
	// map, used to resolve remote_group_id on rules.
	ListAddressSets(ctx context.Context) (map[string]string, error)

	// ListSectionRules returns the rules of one firewall section keyed by
	// rule id, each carrying its revision and disabled flag.
	ListSectionRules(ctx context.Context, sectionID string) (map[string]RuleMeta, error)

	// GetOrCreateSecurityGroup resolves the target triple for a source
	// security group, creating the address set, policy group and firewall
	// section on first sight.
	GetOrCreateSecurityGroup(ctx context.Context, id string) (SecurityGroupRefs, error)

	// UpdateSecurityGroupCapabilities propagates capability flags such as
	// strict TCP state tracking.
	UpdateSecurityGroupCapabilities(ctx context.Context, id string, tcpStrict bool) error

	// UpdateSecurityGroupMembers replaces the group's member address list.
	UpdateSecurityGroupMembers(ctx context.Context, id string, cidrs []string) error

	// UpdateSecurityGroupRules applies one atomic bulk rule update against
	// the group's source revision number.
	UpdateSecurityGroupRules(ctx context.Context, id string, revision int64, add []FirewallRule, del []string) error

	// DeleteSecurityGroup removes the group and its backing objects.
	DeleteSecurityGroup(ctx context.Context, id string) error

	// CreateQosProfile creates a QoS profile; ErrAlreadyExists is the
	// documented create-if-absent outcome.
	CreateQosProfile(ctx context.Context, id string, revision int64) error

	// UpdateQosProfile replaces the profile's rule set.
	UpdateQosProfile(ctx context.Context, id string, revision int64, rules []QosRule) error

	// DeleteQosProfile removes an orphaned profile.
	DeleteQosProfile(ctx context.Context, id string) error

	// UpdatePort creates or updates a port.
	UpdatePort(ctx context.Context, port PortSpec) error

	// DeletePort removes an orphaned port.
	DeletePort(ctx context.Context, id string) error

	// SwitchForSegment resolves the logical switch backing a segmentation id.
	SwitchForSegment(ctx context.Context, segmentationID int) (string, error)

	// GetMarker reads the named timestamp marker. ErrNotFound when the
	// marker object has never been written.
	GetMarker(ctx context.Context, name string) (time.Time, error)

	// SetMarker writes the named timestamp marker.
	SetMarker(ctx context.Context, name string, ts time.Time) error
}
