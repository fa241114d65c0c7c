package mocks

import (
	"context"
	"time"

	"policy-agent/feature/target"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of target.Client
type Client struct {
	mock.Mock
}

func (m *Client) ListRevisions(ctx context.Context, kind target.Kind) (map[string]string, error) {
	args := m.Called(ctx, kind)
	if revs, ok := args.Get(0).(map[string]string); ok {
		return revs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) ListAddressSets(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if refs, ok := args.Get(0).(map[string]string); ok {
		return refs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) ListSectionRules(ctx context.Context, sectionID string) (map[string]target.RuleMeta, error) {
	args := m.Called(ctx, sectionID)
	if rules, ok := args.Get(0).(map[string]target.RuleMeta); ok {
		return rules, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) GetOrCreateSecurityGroup(ctx context.Context, id string) (target.SecurityGroupRefs, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(target.SecurityGroupRefs), args.Error(1)
}

func (m *Client) UpdateSecurityGroupCapabilities(ctx context.Context, id string, tcpStrict bool) error {
	args := m.Called(ctx, id, tcpStrict)
	return args.Error(0)
}

func (m *Client) UpdateSecurityGroupMembers(ctx context.Context, id string, cidrs []string) error {
	args := m.Called(ctx, id, cidrs)
	return args.Error(0)
}

func (m *Client) UpdateSecurityGroupRules(ctx context.Context, id string, revision int64, add []target.FirewallRule, del []string) error {
	args := m.Called(ctx, id, revision, add, del)
	return args.Error(0)
}

func (m *Client) DeleteSecurityGroup(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Client) CreateQosProfile(ctx context.Context, id string, revision int64) error {
	args := m.Called(ctx, id, revision)
	return args.Error(0)
}

func (m *Client) UpdateQosProfile(ctx context.Context, id string, revision int64, rules []target.QosRule) error {
	args := m.Called(ctx, id, revision, rules)
	return args.Error(0)
}

func (m *Client) DeleteQosProfile(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Client) UpdatePort(ctx context.Context, port target.PortSpec) error {
	args := m.Called(ctx, port)
	return args.Error(0)
}

func (m *Client) DeletePort(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Client) SwitchForSegment(ctx context.Context, segmentationID int) (string, error) {
	args := m.Called(ctx, segmentationID)
	return args.String(0), args.Error(1)
}

func (m *Client) GetMarker(ctx context.Context, name string) (time.Time, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *Client) SetMarker(ctx context.Context, name string, ts time.Time) error {
	args := m.Called(ctx, name, ts)
	return args.Error(0)
}
