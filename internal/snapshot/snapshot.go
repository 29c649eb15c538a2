// Package snapshot defines the snapshot record and the parsing and
// filtering logic applied to raw `zfs list` output.
//
// Snapshot names follow a fixed convention:
//
//	<dataset>@<YYYY>-<MM>-<DD>-<HHMM>-<SS>-<label>
//
// e.g. tank/gentoo/os@2020-08-13-2354-09-CHECKPOINT. Names that do not
// match the convention are skipped, not treated as errors.
package snapshot

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the fixed layout of the timestamp embedded in
// snapshot names, interpreted in local time.
const TimestampLayout = "2006-01-02-1504-05"

// DefaultCutoffDays is the age of the default cutoff when no explicit
// date is given.
const DefaultCutoffDays = 30

// DefaultBatchSize is the default number of snapshots destroyed per
// zfs invocation.
const DefaultBatchSize = 100

// suffixTokens is the exact number of hyphen-delimited tokens expected
// after the @ separator: year, month, day, time, seconds, label.
const suffixTokens = 6

// Snapshot is an immutable record of one point-in-time dataset copy,
// reconstructed from its name.
type Snapshot struct {
	Pool    string
	Dataset string
	Taken   time.Time
	Label   string

	// suffix caches "<timestamp>-<label>", the portion after the @.
	// It is derived once at construction and reused when building
	// batched destroy argument lists.
	suffix string
}

// New constructs a Snapshot and derives its name suffix.
func New(pool, dataset string, taken time.Time, label string) Snapshot {
	return Snapshot{
		Pool:    pool,
		Dataset: dataset,
		Taken:   taken,
		Label:   label,
		suffix:  taken.Format(TimestampLayout) + "-" + label,
	}
}

// FromDataset constructs a Snapshot, deriving the pool from the first
// path segment of the dataset.
func FromDataset(dataset string, taken time.Time, label string) Snapshot {
	pool, _, _ := strings.Cut(dataset, "/")
	return New(pool, dataset, taken, label)
}

// Suffix returns the cached "<timestamp>-<label>" name suffix.
func (s Snapshot) Suffix() string {
	return s.suffix
}

// Name returns the full snapshot name as zfs knows it.
func (s Snapshot) Name() string {
	return s.Dataset + "@" + s.suffix
}

// String implements fmt.Stringer.
func (s Snapshot) String() string {
	return s.Name()
}

// Equal reports whether two snapshots identify the same point-in-time
// copy. The suffix is derived from Taken and Label, so comparing the
// four semantic fields is sufficient.
func (s Snapshot) Equal(other Snapshot) bool {
	return s.Pool == other.Pool &&
		s.Dataset == other.Dataset &&
		s.Taken.Equal(other.Taken) &&
		s.Label == other.Label
}

// Stale reports whether the snapshot was taken strictly before cutoff.
// A snapshot taken exactly at the cutoff is not stale.
func (s Snapshot) Stale(cutoff time.Time) bool {
	return s.Taken.Before(cutoff)
}

// ParseTimestamp parses a timestamp string in TimestampLayout, in the
// local time zone.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}

// Parse converts one raw snapshot name into a Snapshot. It returns an
// error for names that do not match the naming convention; callers are
// expected to skip such names and keep going.
func Parse(raw string) (Snapshot, error) {
	parts := strings.Split(raw, "@")
	if len(parts) != 2 {
		return Snapshot{}, fmt.Errorf("expected exactly one @ separator in %q", raw)
	}

	dataset := parts[0]
	pool, _, _ := strings.Cut(dataset, "/")

	tokens := strings.Split(parts[1], "-")
	if len(tokens) != suffixTokens {
		return Snapshot{}, fmt.Errorf("expected %d name tokens after @, got %d in %q", suffixTokens, len(tokens), raw)
	}

	// year-month-day-time-seconds; the last token is the label.
	taken, err := ParseTimestamp(strings.Join(tokens[:suffixTokens-1], "-"))
	if err != nil {
		return Snapshot{}, fmt.Errorf("invalid timestamp in %q: %w", raw, err)
	}
	label := tokens[suffixTokens-1]

	return New(pool, dataset, taken, label), nil
}

// DefaultCutoff returns the cutoff used when no explicit date is
// configured: DefaultCutoffDays before now.
func DefaultCutoff(now time.Time) time.Time {
	return now.AddDate(0, 0, -DefaultCutoffDays)
}
