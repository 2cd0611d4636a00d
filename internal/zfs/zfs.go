// Package zfs talks to the storage subsystem through the zfs(1) command
// interface: list, get, set, snapshot and destroy.
package zfs

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rollcat/zfs-autosnap/internal/catalog"
	"github.com/rollcat/zfs-autosnap/internal/logging"
)

// DefaultProperty is the dataset property holding the retention policy.
// Setting it on a dataset puts the dataset under management; setting it to
// "-" on an individual snapshot protects that snapshot from gc.
const DefaultProperty = "at.rollc.at:snapkeep"

// Dataset is one managed filesystem or volume.
type Dataset struct {
	Name   string
	Policy string // raw retention property value, unparsed
}

// Client wraps the zfs command line tool. All calls are blocking,
// synchronous request/response; the caller's scheduler owns timing.
type Client struct {
	runner   Runner
	property string
	log      logging.Logger
}

// New returns a client invoking the given zfs binary.
func New(binary, property string, log logging.Logger) *Client {
	return NewWithRunner(execRunner{binary: binary}, property, log)
}

// NewWithRunner wires a custom runner; tests use this.
func NewWithRunner(r Runner, property string, log logging.Logger) *Client {
	if property == "" {
		property = DefaultProperty
	}
	return &Client{runner: r, property: property, log: log}
}

// Property returns the retention property key in use.
func (c *Client) Property() string { return c.property }

// ListManagedDatasets returns every filesystem and volume that carries the
// retention property. A dataset without the property (zfs reports "-") is
// unmanaged and skipped.
//
//	zfs get -H -t filesystem,volume -o name,value <property>
func (c *Client) ListManagedDatasets(ctx context.Context) ([]Dataset, error) {
	rows, err := c.read(ctx, "get", "-t", "filesystem,volume", "-o", "name,value", c.property)
	if err != nil {
		return nil, err
	}
	var datasets []Dataset
	for _, row := range rows {
		if len(row) != 2 {
			return nil, &SubsystemError{
				Args: []string{"get", c.property},
				Err:  fmt.Errorf("unexpected row %q", strings.Join(row, "\t")),
			}
		}
		if row[1] == "-" {
			continue
		}
		datasets = append(datasets, Dataset{Name: row[0], Policy: row[1]})
	}
	return datasets, nil
}

// ListSnapshots returns the normalized snapshot catalog for one dataset.
//
//	zfs list -H -t snapshot -d 1 <dataset> -o name,creation,used,<property>
func (c *Client) ListSnapshots(ctx context.Context, dataset string) ([]catalog.Snapshot, error) {
	rows, err := c.read(ctx, "list",
		"-t", "snapshot", "-d", "1",
		"-o", "name,creation,used,"+c.property,
		dataset)
	if err != nil {
		return nil, err
	}
	records := make([]catalog.Record, 0, len(rows))
	for _, row := range rows {
		if len(row) != 4 {
			return nil, &catalog.Error{
				Dataset: dataset,
				Err:     fmt.Errorf("unexpected zfs list row %q", strings.Join(row, "\t")),
			}
		}
		records = append(records, catalog.Record{
			Name:     row[0],
			Creation: row[1],
			Used:     row[2],
			Keep:     row[3],
		})
	}
	return catalog.Build(dataset, records)
}

// GetProperty reads one property value from a dataset or snapshot. ok is
// false when the property is unset (zfs reports "-").
func (c *Client) GetProperty(ctx context.Context, target, key string) (value string, ok bool, err error) {
	rows, err := c.read(ctx, "get", "-o", "value", key, target)
	if err != nil {
		return "", false, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", false, &SubsystemError{
			Args: []string{"get", key, target},
			Err:  errors.New("empty property output"),
		}
	}
	v := rows[0][0]
	if v == "-" {
		return "", false, nil
	}
	return v, true, nil
}

// SetProperty sets a property on a dataset or snapshot.
func (c *Client) SetProperty(ctx context.Context, target, key, value string) error {
	return c.do(ctx, "set", key+"="+value, target)
}

// CreateSnapshot takes one snapshot of the dataset, named after the
// creation instant. The name is for human diagnostics only; retention
// decisions never parse it.
func (c *Client) CreateSnapshot(ctx context.Context, dataset string, now time.Time) (string, error) {
	name := SnapshotName(dataset, now)
	if err := c.do(ctx, "snapshot", name); err != nil {
		return "", err
	}
	return name, nil
}

// SnapshotName builds the generated snapshot name for a creation instant,
// e.g. "tank/home@2021-10-02T09:59:00Z-autosnap".
func SnapshotName(dataset string, at time.Time) string {
	return dataset + "@" + at.UTC().Format("2006-01-02T15:04:05Z") + "-autosnap"
}

// snapshotNameRe is the structural form of a snapshot name: a dataset path,
// one "@", and a snapshot component.
var snapshotNameRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// IsSnapshotName reports whether name structurally identifies a snapshot.
func IsSnapshotName(name string) bool {
	return snapshotNameRe.MatchString(name)
}

// DestroySnapshot destroys one snapshot. zfs has a single destroy verb for
// everything it manages, so before issuing it we verify the name's
// structural form, independently of whatever classification produced it.
// A name that is not a snapshot name yields a SafetyError and no call.
func (c *Client) DestroySnapshot(ctx context.Context, name string) error {
	if !IsSnapshotName(name) {
		return &SafetyError{Name: name}
	}
	return c.do(ctx, "destroy", name)
}

// read runs a zfs query with -H and splits the tab-separated output.
func (c *Client) read(ctx context.Context, action string, args ...string) ([][]string, error) {
	argv := append([]string{action, "-H"}, args...)
	c.log.Debug("zfs read", "args", strings.Join(argv, " "))
	out, err := c.runner.Run(ctx, argv...)
	if err != nil {
		return nil, wrapErr(argv, err)
	}
	var rows [][]string
	for _, line := range strings.Split(string(out), "\n") {
		if line == "" {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	return rows, nil
}

// do runs a zfs invocation for its side effect.
func (c *Client) do(ctx context.Context, action string, args ...string) error {
	argv := append([]string{action}, args...)
	c.log.Debug("zfs do", "args", strings.Join(argv, " "))
	if _, err := c.runner.Run(ctx, argv...); err != nil {
		return wrapErr(argv, err)
	}
	return nil
}

func wrapErr(args []string, err error) error {
	var se *SubsystemError
	if errors.As(err, &se) {
		return err
	}
	return &SubsystemError{Args: args, Err: err}
}
