// Package retention decides which snapshots survive garbage collection.
//
// The decision is recomputed from creation timestamps on every run; there
// is no persisted rotation state. Running the classifier twice over the
// same catalog yields the same result.
package retention

import (
	"sort"
	"time"

	"github.com/rollcat/zfs-autosnap/internal/catalog"
	"github.com/rollcat/zfs-autosnap/internal/policy"
)

// Result partitions a snapshot catalog into survivors and garbage. Every
// input snapshot lands in exactly one of the two sets, newest first.
type Result struct {
	Keep    []catalog.Snapshot
	Destroy []catalog.Snapshot

	// KeptBuckets counts the distinct time buckets retained per enabled
	// granularity, for status reporting.
	KeptBuckets map[policy.Granularity]int
}

// Classify evaluates the retention policy over a snapshot catalog at the
// given instant. It is a pure function: no clocks, no hidden state.
//
// For each enabled granularity, snapshots are walked newest to oldest and
// grouped into calendar buckets (policy.Granularity.Truncate). The newest
// snapshot of each bucket is that bucket's representative, and the
// representatives of the N most recent non-empty buckets are kept. A
// snapshot survives if any granularity keeps it, or if it is protected.
//
// now is the evaluation instant; buckets are counted over the snapshots
// themselves, and a snapshot created after now is taken at face value
// (clock skew is not corrected). Note that an older snapshot sharing a
// bucket with a newer arrival loses its representative status, so
// insertion can evict a previously kept snapshot. That is inherent to
// stateless bucketing.
func Classify(snapshots []catalog.Snapshot, p policy.Policy, now time.Time) Result {
	// Sort newest first, so when we consider which ones to retain, the
	// oldest come last and fall off the keep-set. Names break timestamp
	// ties to keep the walk deterministic.
	sorted := make([]catalog.Snapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Created.Equal(sorted[j].Created) {
			return sorted[i].Created.After(sorted[j].Created)
		}
		return sorted[i].Name < sorted[j].Name
	})

	keep := make(map[string]bool, len(sorted))
	kept := make(map[policy.Granularity]int, len(policy.Granularities))
	for _, g := range policy.Granularities {
		n := p.Count(g)
		if n == 0 {
			continue
		}
		buckets := 0
		var current time.Time
		for _, s := range sorted {
			b := g.Truncate(s.Created)
			if buckets > 0 && b.Equal(current) {
				// This bucket already has its representative.
				continue
			}
			current = b
			keep[s.Name] = true
			buckets++
			if buckets == n {
				break
			}
		}
		kept[g] = buckets
	}

	res := Result{KeptBuckets: kept}
	for _, s := range sorted {
		if s.Protected || keep[s.Name] {
			res.Keep = append(res.Keep, s)
		} else {
			res.Destroy = append(res.Destroy, s)
		}
	}
	return res
}
