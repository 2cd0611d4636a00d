// Package autosnap orchestrates the snap, gc and status operations over
// every managed dataset.
package autosnap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rollcat/zfs-autosnap/internal/catalog"
	"github.com/rollcat/zfs-autosnap/internal/logging"
	"github.com/rollcat/zfs-autosnap/internal/policy"
	"github.com/rollcat/zfs-autosnap/internal/retention"
	"github.com/rollcat/zfs-autosnap/internal/zfs"
)

// Storage is the slice of the zfs client the engine depends on.
type Storage interface {
	ListManagedDatasets(ctx context.Context) ([]zfs.Dataset, error)
	ListSnapshots(ctx context.Context, dataset string) ([]catalog.Snapshot, error)
	CreateSnapshot(ctx context.Context, dataset string, now time.Time) (string, error)
	DestroySnapshot(ctx context.Context, name string) error
}

// Engine runs the three operations. Datasets are processed independently
// and sequentially: a failure in one is recorded and the rest still run.
type Engine struct {
	storage Storage
	log     logging.Logger
	now     func() time.Time
}

// New creates an engine over the given storage client.
func New(storage Storage, log logging.Logger) *Engine {
	return &Engine{storage: storage, log: log, now: time.Now}
}

// WithNow overrides the evaluation clock; tests use this.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Snap creates one new snapshot per managed dataset. A dataset with a
// malformed policy is skipped and recorded, as are creation failures.
func (e *Engine) Snap(ctx context.Context, out io.Writer) (*Report, error) {
	datasets, err := e.storage.ListManagedDatasets(ctx)
	if err != nil {
		return nil, err
	}
	report := &Report{}
	for _, ds := range datasets {
		if _, err := policy.Parse(ds.Policy); err != nil {
			e.log.Warn("skipping dataset", "dataset", ds.Name, "error", err)
			report.record(ds.Name, "", err)
			continue
		}
		name, err := e.storage.CreateSnapshot(ctx, ds.Name, e.now())
		if err != nil {
			e.log.Error("snapshot failed", "dataset", ds.Name, "error", err)
			report.record(ds.Name, "", err)
			continue
		}
		fmt.Fprintf(out, "snapshot: %s\n", name)
	}
	return report, nil
}

// GC classifies every managed dataset's snapshots and destroys the ones
// that fall outside the retention policy. Classification for a dataset is
// complete before its first destroy call, so the decision set is fixed
// before any mutation begins. Destroy failures are recorded per snapshot
// and do not stop the run; nothing is retried.
func (e *Engine) GC(ctx context.Context, out io.Writer) (*Report, error) {
	datasets, err := e.storage.ListManagedDatasets(ctx)
	if err != nil {
		return nil, err
	}
	report := &Report{}
	now := e.now()
	for _, ds := range datasets {
		_, res, err := e.evaluate(ctx, ds, now)
		if err != nil {
			e.log.Warn("skipping dataset", "dataset", ds.Name, "error", err)
			report.record(ds.Name, "", err)
			continue
		}
		if len(res.Destroy) == 0 {
			continue
		}
		fmt.Fprintf(out, "delete: %s\n", humanize.IBytes(catalog.TotalUsed(res.Destroy)))
		for _, s := range res.Destroy {
			if s.Protected {
				// Classify never puts protected snapshots here, but a
				// protected snapshot must survive even a broken classifier.
				continue
			}
			fmt.Fprintf(out, "delete: %s\t%s\t%s\n",
				s.Name, s.Created.Format(time.RFC3339), humanize.IBytes(s.Used))
			if err := e.storage.DestroySnapshot(ctx, s.Name); err != nil {
				var safety *zfs.SafetyError
				if errors.As(err, &safety) {
					e.log.Error("destroy refused by safety guard", "snapshot", s.Name, "error", err)
				} else {
					e.log.Error("destroy failed", "snapshot", s.Name, "error", err)
				}
				report.record(ds.Name, s.Name, err)
			}
		}
	}
	return report, nil
}

// Status renders, per managed dataset, the policy in effect, the bucket
// counts, and what the next gc would destroy. It issues no mutating calls,
// so it is safe to run arbitrarily often.
func (e *Engine) Status(ctx context.Context, out io.Writer) (*Report, error) {
	datasets, err := e.storage.ListManagedDatasets(ctx)
	if err != nil {
		return nil, err
	}
	report := &Report{}
	now := e.now()
	for _, ds := range datasets {
		p, res, err := e.evaluate(ctx, ds, now)
		if err != nil {
			e.log.Warn("skipping dataset", "dataset", ds.Name, "error", err)
			report.record(ds.Name, "", err)
			continue
		}
		total := len(res.Keep) + len(res.Destroy)
		fmt.Fprintf(out, "%s: policy %s, %d snapshots, keep %d (%s), delete %d (%s)\n",
			ds.Name, ds.Policy, total,
			len(res.Keep), humanize.IBytes(catalog.TotalUsed(res.Keep)),
			len(res.Destroy), humanize.IBytes(catalog.TotalUsed(res.Destroy)))
		for _, g := range policy.Granularities {
			if n := p.Count(g); n > 0 {
				fmt.Fprintf(out, "  %s: %d/%d\n", g, res.KeptBuckets[g], n)
			}
		}
		for _, s := range res.Keep {
			if s.Protected {
				fmt.Fprintf(out, "  protected: %s\n", s.Name)
			}
		}
		for _, s := range res.Destroy {
			fmt.Fprintf(out, "  delete: %s\t%s\t%s\n",
				s.Name, s.Created.Format(time.RFC3339), humanize.IBytes(s.Used))
		}
	}
	return report, nil
}

// evaluate runs the catalog -> policy -> classifier pipeline for one
// dataset. Both gc and status share it; only gc acts on the result.
func (e *Engine) evaluate(ctx context.Context, ds zfs.Dataset, now time.Time) (policy.Policy, retention.Result, error) {
	p, err := policy.Parse(ds.Policy)
	if err != nil {
		return policy.Policy{}, retention.Result{}, err
	}
	snapshots, err := e.storage.ListSnapshots(ctx, ds.Name)
	if err != nil {
		return policy.Policy{}, retention.Result{}, err
	}
	return p, retention.Classify(snapshots, p, now), nil
}
