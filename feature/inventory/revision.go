package inventory

import (
	"context"
	"strconv"
	"time"

	"policy-agent/feature/source"

	mapset "github.com/deckarep/golang-set/v2"
)

// Diff compares the source and target revision maps. A key is outdated when
// the target misses it or carries a different revision token; orphaned when
// only the target has it. The two sets are always disjoint.
func Diff(sourceRevs, targetRevs map[string]string) (outdated, orphaned mapset.Set[string]) {
	outdated = mapset.NewSet[string]()
	orphaned = mapset.NewSet[string]()

	for key, rev := range sourceRevs {
		if targetRevs[key] != rev {
			outdated.Add(key)
		}
	}
	for key := range targetRevs {
		if _, ok := sourceRevs[key]; !ok {
			orphaned.Add(key)
		}
	}
	return outdated, orphaned
}

// FetchRevisions scans one object kind's change log into a key -> revision
// map. Pages are cursored on the created-at of the last record, so the scan
// completes even while the underlying table changes; an in-flight update may
// be read twice, which the idempotent handlers tolerate.
func FetchRevisions(ctx context.Context, query source.RevisionQuery, pageLimit int) (map[string]string, error) {
	revs := make(map[string]string)
	createdAfter := time.Unix(0, 0).UTC()

	for {
		page, err := query(ctx, pageLimit, createdAfter)
		if err != nil {
			return nil, err
		}
		for _, tuple := range page {
			revs[tuple.Key] = strconv.FormatInt(tuple.Revision, 10)
		}
		if len(page) < pageLimit {
			return revs, nil
		}
		createdAfter = page[len(page)-1].CreatedAt
	}
}
