package autosnap

import "fmt"

// Failure is one recorded per-dataset or per-snapshot error.
type Failure struct {
	Dataset  string
	Snapshot string // empty for dataset-level failures
	Err      error
}

// Report aggregates the failures of one run. Datasets are independent, so
// a run keeps going past failures and reports them all at the end.
type Report struct {
	Failures []Failure
}

func (r *Report) record(dataset, snapshot string, err error) {
	r.Failures = append(r.Failures, Failure{Dataset: dataset, Snapshot: snapshot, Err: err})
}

// Err returns nil for a clean run, or a summary error that callers turn
// into a non-zero exit.
func (r *Report) Err() error {
	switch n := len(r.Failures); n {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("1 operation failed: %v", r.Failures[0].Err)
	default:
		return fmt.Errorf("%d operations failed, first: %v", n, r.Failures[0].Err)
	}
}
