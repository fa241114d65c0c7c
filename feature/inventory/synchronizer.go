package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"policy-agent/core/locking"
	"policy-agent/core/runner"
	"policy-agent/feature/source"
	"policy-agent/feature/source/models"
	"policy-agent/feature/target"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// globalSyncLock serializes the pass decision across trigger threads. It is
// always the outermost lock; handlers only ever hold per-object keys.
const globalSyncLock = "AGENT_SYNCHRONIZATION_LOCK"

// Event kinds accepted from the change-notification channel.
const (
	EventSecurityGroup        = "security_group"
	EventSecurityGroupMembers = "security_group_members"
	EventSecurityGroupRules   = "security_group_rules"
	EventQosPolicy            = "qos_policy"
	EventPort                 = "port"
)

// SourceStore is the slice of the inventory database the engine consumes.
// *source.Repository is the production implementation.
type SourceStore interface {
	SecurityGroupRevisions(ctx context.Context, limit int, createdAfter time.Time) ([]source.RevisionTuple, error)
	QosPolicyRevisions(ctx context.Context, limit int, createdAfter time.Time) ([]source.RevisionTuple, error)
	PortRevisions(host string) source.RevisionQuery
	SecurityGroupRevision(ctx context.Context, id string) (int64, error)
	RulesForSecurityGroup(ctx context.Context, id string) ([]models.SecurityGroupRule, error)
	HasSecurityGroupTag(ctx context.Context, id, tag string) (bool, error)
	SecurityGroupMemberAddresses(ctx context.Context, id string) ([]string, error)
	QosPolicyByID(ctx context.Context, id string) (*models.QosPolicy, error)
	QosPolicyRules(ctx context.Context, id string) ([]models.QosBandwidthLimitRule, []models.QosDscpMarkingRule, error)
	PortDetails(ctx context.Context, id string) (*source.PortDetails, error)
}

// Status is the engine snapshot served by the status endpoint.
type Status struct {
	Active     int         `json:"active"`
	Passive    int         `json:"passive"`
	LastPass   string      `json:"last_pass,omitempty"`
	LastRun    time.Time   `json:"last_run,omitempty"`
	LastReport *PassReport `json:"last_report,omitempty"`
}

// Synchronizer orchestrates drift detection and corrective work for security
// groups, QoS policies and ports.
type Synchronizer struct {
	log       *zap.Logger
	cfg       Config
	repo      SourceStore
	client    target.Client
	runner    *runner.Runner
	locks     *locking.Manager
	timestamp *Timestamp
	archive   *ReportArchive

	// sf collapses concurrent sync triggers into one pass decision.
	sf singleflight.Group

	mu         sync.Mutex
	lastPass   string
	lastRun    time.Time
	lastReport *PassReport
}

// NewSynchronizer wires the engine. archive may be nil when report archiving
// is disabled.
func NewSynchronizer(
	cfg Config,
	log *zap.Logger,
	repo SourceStore,
	client target.Client,
	run *runner.Runner,
	locks *locking.Manager,
	archive *ReportArchive,
) *Synchronizer {
	return &Synchronizer{
		log:       log,
		cfg:       cfg,
		repo:      repo,
		client:    client,
		runner:    run,
		locks:     locks,
		timestamp: NewTimestamp(markerName, client, time.Duration(cfg.FullSyncIntervalSeconds)*time.Second),
		archive:   archive,
	}
}

// SyncInventory decides between a full and a shallow pass and submits the
// corrective work. It blocks only for the decision itself, never for the
// submitted work. A trigger arriving while the backlog is non-empty is
// skipped entirely rather than queueing a redundant pass.
func (s *Synchronizer) SyncInventory(ctx context.Context) error {
	_, err, _ := s.sf.Do("sync_inventory", func() (any, error) {
		handle := s.locks.Acquire(globalSyncLock)
		defer handle.Release()

		s.log.Info("Synchronization event pools",
			zap.Int("active", s.runner.Active()),
			zap.Int("passive", s.runner.Passive()),
		)

		if s.runner.Passive() > 0 {
			return nil, nil
		}

		if s.timestamp.HasExpired(ctx) {
			s.log.Info("Starting a full inventory synchronization")
			if err := s.syncFull(ctx); err != nil {
				return nil, err
			}
			return nil, s.timestamp.Update(ctx)
		}

		s.log.Info("Starting a shallow inventory synchronization")
		return nil, s.syncShallow(ctx)
	})
	return err
}

// OnEvent maps one change notification onto its per-object handler and
// submits every id at the highest priority.
func (s *Synchronizer) OnEvent(kind string, ids []string) error {
	var handler runner.Handler
	switch kind {
	case EventSecurityGroup:
		handler = s.SyncSecurityGroup
	case EventSecurityGroupMembers:
		handler = s.SecurityGroupMembersUpdated
	case EventSecurityGroupRules:
		handler = s.SecurityGroupRulesUpdated
	case EventQosPolicy:
		handler = s.SyncQos
	case EventPort:
		handler = s.SyncPort
	default:
		return fmt.Errorf("unknown event kind %q", kind)
	}
	s.runner.Run(runner.Highest, ids, handler)
	return nil
}

// Status returns a snapshot for the status endpoint.
func (s *Synchronizer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Active:     s.runner.Active(),
		Passive:    s.runner.Passive(),
		LastPass:   s.lastPass,
		LastRun:    s.lastRun,
		LastReport: s.lastReport,
	}
}

// syncFull re-derives the complete key universe from the source store and
// re-applies every object unconditionally; target-store orphans are ignored
// on purpose; the pass exists to recover from out-of-band corruption.
func (s *Synchronizer) syncFull(ctx context.Context) error {
	groups, err := FetchRevisions(ctx, s.repo.SecurityGroupRevisions, s.cfg.PageLimit)
	if err != nil {
		return fmt.Errorf("full sync: security groups: %w", err)
	}
	policies, err := FetchRevisions(ctx, s.repo.QosPolicyRevisions, s.cfg.PageLimit)
	if err != nil {
		return fmt.Errorf("full sync: qos policies: %w", err)
	}
	ports, err := FetchRevisions(ctx, s.repo.PortRevisions(s.cfg.Host), s.cfg.PageLimit)
	if err != nil {
		return fmt.Errorf("full sync: ports: %w", err)
	}

	s.runner.Run(runner.Higher, keys(groups), s.SyncSecurityGroup)
	s.runner.Run(runner.High, keys(policies), s.SyncQos)
	s.runner.Run(runner.Medium, keys(ports), s.SyncPort)

	s.recordPass("full", PassReport{
		Pass:      "full",
		StartedAt: time.Now().UTC(),
		Kinds: []KindReport{
			{Kind: "security_groups", Outdated: keys(groups)},
			{Kind: "qos_profiles", Outdated: keys(policies)},
			{Kind: "ports", Outdated: keys(ports)},
		},
	})
	return nil
}

// syncShallow diffs revisions per kind and submits corrective work at
// descending priority: group existence and membership land before rules
// (rules reference groups), which land before QoS and ports (ports reference
// both). Orphan removal runs below the corresponding updates.
func (s *Synchronizer) syncShallow(ctx context.Context) error {
	report := PassReport{Pass: "shallow", StartedAt: time.Now().UTC()}

	// Security groups
	outdatedSG, orphanedSG, err := s.diffKind(ctx, s.repo.SecurityGroupRevisions, target.KindAddressSet)
	if err != nil {
		return fmt.Errorf("shallow sync: security groups: %w", err)
	}
	// Groups must exist before any rule references them.
	s.runner.Run(runner.Higher, outdatedSG, s.SecurityGroupUpdated)
	s.runner.Run(runner.High, outdatedSG, s.SecurityGroupMembersUpdated)
	s.runner.Run(runner.Medium, outdatedSG, s.SecurityGroupRulesUpdated)
	s.runner.Run(runner.Low, orphanedSG, s.SecurityGroupDeleted)

	// QoS policies
	outdatedQos, orphanedQos, err := s.diffKind(ctx, s.repo.QosPolicyRevisions, target.KindQosProfile)
	if err != nil {
		return fmt.Errorf("shallow sync: qos policies: %w", err)
	}
	s.runner.Run(runner.Lower, outdatedQos, s.SyncQos)

	// Ports
	outdatedPorts, orphanedPorts, err := s.diffKind(ctx, s.repo.PortRevisions(s.cfg.Host), target.KindPort)
	if err != nil {
		return fmt.Errorf("shallow sync: ports: %w", err)
	}
	s.runner.Run(runner.Low, outdatedPorts, s.SyncPort)
	s.runner.Run(runner.Low, orphanedPorts, s.SyncPortOrphaned)

	report.Kinds = []KindReport{
		{Kind: "security_groups", Outdated: outdatedSG, Orphaned: orphanedSG},
		{Kind: "qos_profiles", Outdated: outdatedQos, Orphaned: orphanedQos},
		{Kind: "ports", Outdated: outdatedPorts, Orphaned: orphanedPorts},
	}
	for _, kind := range report.Kinds {
		s.log.Info("Synchronizing",
			zap.String("kind", kind.Kind),
			zap.Int("outdated", len(kind.Outdated)),
			zap.Int("orphaned", len(kind.Orphaned)),
			zap.Strings("outdated_keys", kind.Outdated),
			zap.Strings("orphaned_keys", kind.Orphaned),
		)
	}
	s.recordPass("shallow", report)
	return nil
}

func (s *Synchronizer) diffKind(ctx context.Context, query source.RevisionQuery, kind target.Kind) (outdated, orphaned []string, err error) {
	sourceRevs, err := FetchRevisions(ctx, query, s.cfg.PageLimit)
	if err != nil {
		return nil, nil, err
	}
	targetRevs, err := s.client.ListRevisions(ctx, kind)
	if err != nil {
		return nil, nil, err
	}
	o, p := Diff(sourceRevs, targetRevs)
	return o.ToSlice(), p.ToSlice(), nil
}

func (s *Synchronizer) recordPass(pass string, report PassReport) {
	s.mu.Lock()
	s.lastPass = pass
	s.lastRun = time.Now().UTC()
	s.lastReport = &report
	s.mu.Unlock()

	if s.archive != nil {
		s.archive.Store(context.Background(), report)
	}
}

// SecurityGroupUpdated ensures the group's backing objects exist and carry
// the source capabilities.
func (s *Synchronizer) SecurityGroupUpdated(ctx context.Context, id string) error {
	s.log.Debug("Updating security group", zap.String("id", id))
	handle := s.locks.Acquire(id)
	defer handle.Release()

	if _, err := s.client.GetOrCreateSecurityGroup(ctx, id); err != nil {
		return err
	}

	tcpStrict, err := s.repo.HasSecurityGroupTag(ctx, id, source.TagTCPStrict)
	if err != nil {
		return err
	}
	return s.client.UpdateSecurityGroupCapabilities(ctx, id, tcpStrict)
}

// SecurityGroupMembersUpdated replaces the group's member address list with
// the CIDRs derived from its bound ports.
func (s *Synchronizer) SecurityGroupMembersUpdated(ctx context.Context, id string) error {
	s.log.Debug("Updating security group members", zap.String("id", id))
	handle := s.locks.Acquire(id)
	defer handle.Release()

	if _, err := s.client.GetOrCreateSecurityGroup(ctx, id); err != nil {
		return err
	}

	addresses, err := s.repo.SecurityGroupMemberAddresses(ctx, id)
	if err != nil {
		return err
	}
	return s.client.UpdateSecurityGroupMembers(ctx, id, memberCIDRs(addresses))
}

// SecurityGroupRulesUpdated reconciles the group's firewall section against
// the authoritative rule list and applies the result as one bulk update at
// the group's current source revision.
func (s *Synchronizer) SecurityGroupRulesUpdated(ctx context.Context, id string) error {
	s.log.Debug("Updating security group rules", zap.String("id", id))
	handle := s.locks.Acquire(id)
	defer handle.Release()

	refs, err := s.client.GetOrCreateSecurityGroup(ctx, id)
	if err != nil {
		return err
	}

	remoteRefs, err := s.client.ListAddressSets(ctx)
	if err != nil {
		return err
	}

	existing, err := s.client.ListSectionRules(ctx, refs.SectionID)
	if err != nil {
		return err
	}

	authoritative, err := s.repo.RulesForSecurityGroup(ctx, id)
	if err != nil {
		return err
	}

	add, del, skipped := ReconcileRules(existing, authoritative, refs, remoteRefs)
	for _, ruleID := range skipped {
		s.log.Warn("Skipping malformed security group rule",
			zap.String("security_group", id),
			zap.String("rule", ruleID),
		)
	}

	revision, err := s.repo.SecurityGroupRevision(ctx, id)
	if err != nil {
		return err
	}

	return s.client.UpdateSecurityGroupRules(ctx, id, revision, add, del)
}

// SecurityGroupDeleted removes an orphaned group from the target store.
func (s *Synchronizer) SecurityGroupDeleted(ctx context.Context, id string) error {
	s.log.Debug("Removing orphaned security group", zap.String("id", id))
	handle := s.locks.Acquire(id)
	defer handle.Release()

	err := s.client.DeleteSecurityGroup(ctx, id)
	if errors.Is(err, target.ErrNotFound) {
		return nil
	}
	return err
}

// SyncSecurityGroup reconciles one group end to end. The three handlers each
// take the group lock in sequence, never nested.
func (s *Synchronizer) SyncSecurityGroup(ctx context.Context, id string) error {
	s.log.Debug("Synchronizing security group", zap.String("id", id))
	if err := s.SecurityGroupUpdated(ctx, id); err != nil {
		return err
	}
	if err := s.SecurityGroupMembersUpdated(ctx, id); err != nil {
		return err
	}
	return s.SecurityGroupRulesUpdated(ctx, id)
}

// SyncQos creates or updates one QoS profile from the source policy.
func (s *Synchronizer) SyncQos(ctx context.Context, id string) error {
	s.log.Debug("Synchronizing qos profile", zap.String("id", id))

	policy, err := s.repo.QosPolicyByID(ctx, id)
	if err != nil {
		return err
	}
	bwl, dscp, err := s.repo.QosPolicyRules(ctx, id)
	if err != nil {
		return err
	}

	var rules []target.QosRule
	for _, rule := range dscp {
		mark := rule.DscpMark
		rules = append(rules, target.QosRule{DSCPMark: &mark})
	}
	for _, rule := range bwl {
		rules = append(rules, target.QosRule{
			Direction:    rule.Direction,
			MaxKbps:      rule.MaxKbps,
			MaxBurstKbps: rule.MaxBurstKbps,
		})
	}

	handle := s.locks.Acquire(id)
	defer handle.Release()

	err = s.client.CreateQosProfile(ctx, id, policy.RevisionNumber)
	if err != nil && !errors.Is(err, target.ErrAlreadyExists) {
		return err
	}
	return s.client.UpdateQosProfile(ctx, id, policy.RevisionNumber, rules)
}

// SyncQosOrphaned removes an orphaned QoS profile from the target store.
func (s *Synchronizer) SyncQosOrphaned(ctx context.Context, id string) error {
	s.log.Debug("Removing orphaned qos profile", zap.String("id", id))
	handle := s.locks.Acquire(id)
	defer handle.Release()

	err := s.client.DeleteQosProfile(ctx, id)
	if errors.Is(err, target.ErrNotFound) {
		return nil
	}
	return err
}

// SyncPort projects one source port into the target store. Ports bound to
// another host are skipped; the owning agent reconciles them.
func (s *Synchronizer) SyncPort(ctx context.Context, id string) error {
	s.log.Debug("Synchronizing port", zap.String("id", id))

	details, err := s.repo.PortDetails(ctx, id)
	if err != nil {
		return err
	}
	if details.BindingHost != s.cfg.Host {
		s.log.Debug("Skipping port not bound to this agent",
			zap.String("id", id),
			zap.String("binding_host", details.BindingHost),
		)
		return nil
	}

	var switchID string
	if details.SegmentationID != nil {
		seg := *details.SegmentationID
		lockKey := segmentationLockKey(seg)
		segHandle := s.locks.Acquire(lockKey)
		switchID, err = s.client.SwitchForSegment(ctx, seg)
		segHandle.Release()
		if err != nil {
			return err
		}
	}

	bindings := make([]target.AddressBinding, 0, len(details.FixedIPs)+len(details.AllowedPairs))
	for _, fixed := range details.FixedIPs {
		bindings = append(bindings, target.AddressBinding{
			IPAddress:  fixed.IPAddress,
			MACAddress: details.MACAddress,
		})
	}
	for _, pair := range details.AllowedPairs {
		// The backend does not accept CIDRs as manual port bindings.
		if strings.Contains(pair.IPAddress, "/") {
			continue
		}
		bindings = append(bindings, target.AddressBinding{
			IPAddress:  pair.IPAddress,
			MACAddress: pair.MACAddress,
		})
	}

	handle := s.locks.Acquire(id)
	defer handle.Release()

	return s.client.UpdatePort(ctx, target.PortSpec{
		ID:              id,
		Revision:        details.Revision,
		SwitchID:        switchID,
		QosProfileID:    details.QosPolicyID,
		SecurityGroups:  details.SecurityGroups,
		AddressBindings: bindings,
	})
}

// SyncPortOrphaned removes an orphaned port from the target store.
func (s *Synchronizer) SyncPortOrphaned(ctx context.Context, id string) error {
	s.log.Debug("Removing orphaned port", zap.String("id", id))
	handle := s.locks.Acquire(id)
	defer handle.Release()

	err := s.client.DeletePort(ctx, id)
	if errors.Is(err, target.ErrNotFound) {
		return nil
	}
	return err
}

func segmentationLockKey(id int) string {
	return fmt.Sprintf("segmentation-id-%d", id)
}

// memberCIDRs normalizes member addresses to CIDR notation, leaving
// addresses that already carry a prefix untouched.
func memberCIDRs(addresses []string) []string {
	cidrs := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		switch {
		case strings.Contains(addr, "/"):
			cidrs = append(cidrs, addr)
		case strings.Contains(addr, ":"):
			cidrs = append(cidrs, addr+"/128")
		default:
			cidrs = append(cidrs, addr+"/32")
		}
	}
	return cidrs
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
