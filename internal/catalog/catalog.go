// Package catalog normalizes raw zfs snapshot listings into Snapshot values.
package catalog

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Snapshot is one point-in-time capture of a dataset, as reported by the
// storage subsystem. The core never mutates a Snapshot, only classifies it.
type Snapshot struct {
	Name      string // full <dataset>@<snap> name
	Dataset   string
	Created   time.Time
	Used      uint64 // bytes referenced, informational only
	Protected bool   // the snapshot's own retention property is literally "-"
}

// Record is one raw snapshot row from `zfs list`, before validation.
type Record struct {
	Name     string
	Creation string // human-readable creation time
	Used     string // abbreviated size, e.g. "13G"
	Keep     string // the retention property value; "-" marks it protected
}

// Error reports snapshot metadata that could not be normalized. It fails
// the one dataset it belongs to; other datasets keep processing.
type Error struct {
	Dataset  string
	Snapshot string
	Err      error
}

func (e *Error) Error() string {
	if e.Snapshot == "" {
		return fmt.Sprintf("catalog %s: %v", e.Dataset, e.Err)
	}
	return fmt.Sprintf("catalog %s: snapshot %s: %v", e.Dataset, e.Snapshot, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// creationLayout matches `zfs list -o creation` output,
// e.g. "Sat Oct  2 09:59 2021". zfs prints local pool time with no zone
// marker; we interpret it as UTC, which is also the bucketing calendar.
const creationLayout = "Mon Jan _2 15:04 2006"

// Build validates raw records into the snapshot catalog for one dataset.
func Build(dataset string, records []Record) ([]Snapshot, error) {
	snapshots := make([]Snapshot, 0, len(records))
	for _, r := range records {
		created, err := time.ParseInLocation(creationLayout, r.Creation, time.UTC)
		if err != nil {
			return nil, &Error{Dataset: dataset, Snapshot: r.Name, Err: fmt.Errorf("parsing creation time %q: %w", r.Creation, err)}
		}
		snapshots = append(snapshots, Snapshot{
			Name:      r.Name,
			Dataset:   dataset,
			Created:   created,
			Used:      parseUsed(r.Used),
			Protected: r.Keep == "-",
		})
	}
	return snapshots, nil
}

// parseUsed converts zfs's abbreviated sizes to bytes. The zfs tool prints
// "13G" but means 13GiB, so the suffix is widened before parsing.
// Unparseable values degrade to zero: the size is cosmetic and must not
// fail a dataset's garbage collection.
func parseUsed(s string) uint64 {
	if s == "" || s == "-" {
		return 0
	}
	switch s[len(s)-1] {
	case 'K', 'M', 'G', 'T', 'P', 'E', 'Z':
		s += "iB"
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0
	}
	return n
}

// TotalUsed sums the reported sizes of a snapshot set.
func TotalUsed(snapshots []Snapshot) uint64 {
	var total uint64
	for _, s := range snapshots {
		total += s.Used
	}
	return total
}
