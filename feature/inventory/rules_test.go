package inventory

import (
	"testing"

	"policy-agent/feature/source/models"
	"policy-agent/feature/target"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRefs = target.SecurityGroupRefs{
	AddressSetID:  "as-local",
	PolicyGroupID: "pg-local",
	SectionID:     "sec-local",
}

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }

func authoritativeRule(id string) models.SecurityGroupRule {
	return models.SecurityGroupRule{
		ID:              id,
		SecurityGroupID: "sg-1",
		Direction:       "ingress",
		Ethertype:       "IPv4",
		Protocol:        strptr("tcp"),
		PortRangeMin:    intptr(80),
		PortRangeMax:    intptr(80),
	}
}

func TestReconcileRules_EnabledMatchIsNoop(t *testing.T) {
	existing := map[string]target.RuleMeta{
		"r-1": {Revision: "3", Disabled: false},
	}

	add, del, skipped := ReconcileRules(existing, []models.SecurityGroupRule{authoritativeRule("r-1")}, testRefs, nil)

	assert.Empty(t, add, "matching enabled rule must not be re-submitted")
	assert.Empty(t, del, "matching enabled rule must not be deleted")
	assert.Empty(t, skipped)
}

func TestReconcileRules_DisabledMatchIsRecreated(t *testing.T) {
	existing := map[string]target.RuleMeta{
		"r-1": {Revision: "3", Disabled: true},
	}

	add, del, _ := ReconcileRules(existing, []models.SecurityGroupRule{authoritativeRule("r-1")}, testRefs, nil)

	// A disabled rule cannot be toggled back on: delete and re-add.
	require.Len(t, add, 1)
	assert.Equal(t, "r-1", add[0].ID)
	assert.Equal(t, []string{"r-1"}, del)
}

func TestReconcileRules_MissingRuleIsAdded(t *testing.T) {
	add, del, _ := ReconcileRules(nil, []models.SecurityGroupRule{authoritativeRule("r-1")}, testRefs, nil)

	require.Len(t, add, 1)
	assert.Equal(t, "r-1", add[0].ID)
	assert.Equal(t, "as-local", add[0].LocalGroupRef)
	assert.Equal(t, "pg-local", add[0].ApplyToRef)
	assert.Equal(t, "tcp", add[0].Protocol)
	assert.Equal(t, 80, add[0].PortRangeMin)
	assert.Empty(t, del)
}

func TestReconcileRules_UnmatchedExistingIsDeleted(t *testing.T) {
	existing := map[string]target.RuleMeta{
		"stale-1": {Revision: "1"},
		"stale-2": {Revision: "2"},
	}

	add, del, _ := ReconcileRules(existing, nil, testRefs, nil)

	assert.Empty(t, add)
	assert.Equal(t, []string{"stale-1", "stale-2"}, del)
}

func TestReconcileRules_RemoteGroupResolved(t *testing.T) {
	rule := authoritativeRule("r-1")
	rule.RemoteGroupID = strptr("sg-remote")

	remoteRefs := map[string]string{"sg-remote": "as-remote"}
	add, _, _ := ReconcileRules(nil, []models.SecurityGroupRule{rule}, testRefs, remoteRefs)

	require.Len(t, add, 1)
	assert.Equal(t, "as-remote", add[0].RemoteGroupRef)
}

func TestReconcileRules_UnresolvedRemoteGroupPassesThrough(t *testing.T) {
	rule := authoritativeRule("r-1")
	rule.RemoteGroupID = strptr("sg-not-yet-created")

	add, _, _ := ReconcileRules(nil, []models.SecurityGroupRule{rule}, testRefs, map[string]string{})

	require.Len(t, add, 1)
	assert.Equal(t, "sg-not-yet-created", add[0].RemoteGroupRef,
		"unknown remote group id must pass through unchanged")
}

func TestReconcileRules_MalformedRuleSkipped(t *testing.T) {
	malformed := models.SecurityGroupRule{ID: "r-bad", SecurityGroupID: "sg-1"}

	add, del, skipped := ReconcileRules(nil, []models.SecurityGroupRule{malformed, authoritativeRule("r-ok")}, testRefs, nil)

	assert.Equal(t, []string{"r-bad"}, skipped)
	require.Len(t, add, 1, "siblings of a malformed rule must proceed")
	assert.Equal(t, "r-ok", add[0].ID)
	assert.Empty(t, del)
}

func TestReconcileRules_MixedSection(t *testing.T) {
	existing := map[string]target.RuleMeta{
		"keep":     {Disabled: false},
		"recreate": {Disabled: true},
		"stale":    {Disabled: false},
	}
	authoritative := []models.SecurityGroupRule{
		authoritativeRule("keep"),
		authoritativeRule("recreate"),
		authoritativeRule("new"),
	}

	add, del, _ := ReconcileRules(existing, authoritative, testRefs, nil)

	addIDs := make([]string, 0, len(add))
	for _, r := range add {
		addIDs = append(addIDs, r.ID)
	}
	assert.ElementsMatch(t, []string{"recreate", "new"}, addIDs)
	assert.Equal(t, []string{"recreate", "stale"}, del)
}
