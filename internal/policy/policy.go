// Package policy parses and formats dataset retention policies.
//
// A policy string is a run of <unit><count> pairs, e.g. "h24d30w8m6y1":
// keep 24 hourly, 30 daily, 8 weekly, 6 monthly and 1 yearly snapshot.
// Units may appear in any order, at most once each; an omitted unit keeps
// nothing at that granularity.
package policy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Granularity is one retention time-scale. The set is closed: adding a
// granularity is a schema change, not configuration.
type Granularity int

const (
	Hourly Granularity = iota
	Daily
	Weekly
	Monthly
	Yearly
)

// Granularities lists every granularity, finest first. This is also the
// canonical unit order for Policy.String.
var Granularities = [...]Granularity{Hourly, Daily, Weekly, Monthly, Yearly}

func (g Granularity) String() string {
	switch g {
	case Hourly:
		return "hourly"
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	}
	return "unknown"
}

// Unit returns the policy-string unit letter for g.
func (g Granularity) Unit() byte {
	return "hdwmy"[g]
}

// Truncate returns the start of the bucket containing t. Buckets are
// half-open: an instant exactly on a boundary belongs to the bucket it
// starts. All bucketing is done in UTC; weeks start Monday 00:00 UTC,
// months and years at calendar starts.
func (g Granularity) Truncate(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case Hourly:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	case Daily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	case Weekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		sinceMonday := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -sinceMonday)
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Yearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// Policy holds how many buckets to keep per granularity. The zero value
// retains nothing beyond protected snapshots.
type Policy struct {
	Hourly  int
	Daily   int
	Weekly  int
	Monthly int
	Yearly  int
}

// Count returns the number of buckets to keep at granularity g.
func (p Policy) Count(g Granularity) int {
	switch g {
	case Hourly:
		return p.Hourly
	case Daily:
		return p.Daily
	case Weekly:
		return p.Weekly
	case Monthly:
		return p.Monthly
	case Yearly:
		return p.Yearly
	}
	return 0
}

func (p *Policy) set(g Granularity, n int) {
	switch g {
	case Hourly:
		p.Hourly = n
	case Daily:
		p.Daily = n
	case Weekly:
		p.Weekly = n
	case Monthly:
		p.Monthly = n
	case Yearly:
		p.Yearly = n
	}
}

// String renders the policy in canonical h,d,w,m,y order, skipping disabled
// granularities. The zero policy renders as the empty string.
func (p Policy) String() string {
	var b strings.Builder
	for _, g := range Granularities {
		if n := p.Count(g); n > 0 {
			b.WriteByte(g.Unit())
			b.WriteString(strconv.Itoa(n))
		}
	}
	return b.String()
}

// InvalidPolicyError reports a malformed policy string.
type InvalidPolicyError struct {
	Input  string
	Reason string
}

func (e *InvalidPolicyError) Error() string {
	return fmt.Sprintf("invalid retention policy %q: %s", e.Input, e.Reason)
}

// maxCount bounds a single granularity count; anything beyond this is a
// typo, not a retention schedule.
const maxCount = 100000

// Parse reads a retention policy string. The empty string is valid and
// parses to the zero policy. A repeated unit, an unknown unit, or a unit
// without a count is an InvalidPolicyError.
func Parse(s string) (Policy, error) {
	var p Policy
	var seen [len(Granularities)]bool
	for i := 0; i < len(s); {
		g, ok := granularityForUnit(s[i])
		if !ok {
			return Policy{}, &InvalidPolicyError{Input: s, Reason: fmt.Sprintf("unknown unit %q", s[i])}
		}
		if seen[g] {
			return Policy{}, &InvalidPolicyError{Input: s, Reason: fmt.Sprintf("unit %q repeated", s[i])}
		}
		seen[g] = true

		j := i + 1
		n := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			n = n*10 + int(s[j]-'0')
			if n > maxCount {
				return Policy{}, &InvalidPolicyError{Input: s, Reason: fmt.Sprintf("count for unit %q too large", s[i])}
			}
			j++
		}
		if j == i+1 {
			return Policy{}, &InvalidPolicyError{Input: s, Reason: fmt.Sprintf("unit %q has no count", s[i])}
		}
		p.set(g, n)
		i = j
	}
	return p, nil
}

func granularityForUnit(c byte) (Granularity, bool) {
	switch c {
	case 'h':
		return Hourly, true
	case 'd':
		return Daily, true
	case 'w':
		return Weekly, true
	case 'm':
		return Monthly, true
	case 'y':
		return Yearly, true
	}
	return 0, false
}
