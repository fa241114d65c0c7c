package inventory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"policy-agent/feature/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		source   map[string]string
		target   map[string]string
		outdated []string
		orphaned []string
	}{
		{
			name:     "mismatched and target-only keys",
			source:   map[string]string{"A": "1", "B": "2"},
			target:   map[string]string{"A": "1", "C": "9"},
			outdated: []string{"B"},
			orphaned: []string{"C"},
		},
		{
			name:     "missing in target counts as outdated",
			source:   map[string]string{"A": "1"},
			target:   map[string]string{},
			outdated: []string{"A"},
			orphaned: nil,
		},
		{
			name:     "revision drift",
			source:   map[string]string{"A": "2"},
			target:   map[string]string{"A": "1"},
			outdated: []string{"A"},
			orphaned: nil,
		},
		{
			name:     "in sync",
			source:   map[string]string{"A": "1", "B": "2"},
			target:   map[string]string{"A": "1", "B": "2"},
			outdated: nil,
			orphaned: nil,
		},
		{
			name:     "empty source orphans everything",
			source:   map[string]string{},
			target:   map[string]string{"A": "1", "B": "2"},
			outdated: nil,
			orphaned: []string{"A", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outdated, orphaned := Diff(tt.source, tt.target)
			assert.ElementsMatch(t, tt.outdated, outdated.ToSlice())
			assert.ElementsMatch(t, tt.orphaned, orphaned.ToSlice())
			assert.True(t, outdated.Intersect(orphaned).IsEmpty(),
				"outdated and orphaned must be disjoint")
		})
	}
}

func TestFetchRevisions_SinglePage(t *testing.T) {
	query := func(ctx context.Context, limit int, createdAfter time.Time) ([]source.RevisionTuple, error) {
		return []source.RevisionTuple{
			{Key: "sg-1", Revision: 4, CreatedAt: time.Now()},
			{Key: "sg-2", Revision: 7, CreatedAt: time.Now()},
		}, nil
	}

	revs, err := FetchRevisions(context.Background(), query, 100)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"sg-1": "4", "sg-2": "7"}, revs)
}

func TestFetchRevisions_PagesOnCreatedAt(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	var watermarks []time.Time

	query := func(ctx context.Context, limit int, createdAfter time.Time) ([]source.RevisionTuple, error) {
		watermarks = append(watermarks, createdAfter)
		if createdAfter.Before(base) {
			return []source.RevisionTuple{
				{Key: "a", Revision: 1, CreatedAt: base},
				{Key: "b", Revision: 2, CreatedAt: base.Add(time.Minute)},
			}, nil
		}
		// Short page terminates the scan.
		return []source.RevisionTuple{
			{Key: "c", Revision: 3, CreatedAt: base.Add(2 * time.Minute)},
		}, nil
	}

	revs, err := FetchRevisions(context.Background(), query, 2)
	require.NoError(t, err)
	assert.Len(t, revs, 3)
	require.Len(t, watermarks, 2)
	assert.Equal(t, base.Add(time.Minute), watermarks[1],
		"second page must be cursored on the last record of the first")
}

func TestFetchRevisions_QueryError(t *testing.T) {
	query := func(ctx context.Context, limit int, createdAfter time.Time) ([]source.RevisionTuple, error) {
		return nil, fmt.Errorf("connection lost")
	}

	_, err := FetchRevisions(context.Background(), query, 100)
	assert.Error(t, err)
}
