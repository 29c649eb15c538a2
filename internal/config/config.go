// Package config holds the validated run parameters for one pruning
// run and the optional defaults file they can be seeded from.
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/snapsweep/snapsweep/internal/snapshot"
	"github.com/snapsweep/snapsweep/internal/zfs"
)

// ValidationError describes one rejected run parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Options are the raw, unvalidated run parameters as collected from
// flags and the defaults file.
type Options struct {
	Pool         string
	Date         string // cutoff in snapshot.TimestampLayout, empty = default window
	ExcludeFile  string
	Label        string
	BatchSize    int
	NoConfirm    bool
	DryRun       bool
	ShowQueued   bool
	ShowExcluded bool
	ShowConfig   bool
}

// Config is the validated, immutable parameter bundle consumed by the
// pruning pipeline.
type Config struct {
	Pool         string
	Cutoff       time.Time
	ExcludeFile  string
	Label        string
	BatchSize    int
	NoConfirm    bool
	DryRun       bool
	ShowQueued   bool
	ShowExcluded bool
	ShowConfig   bool
}

// New validates opts and builds a Config. Exclude-file existence is
// checked through the communicator so the check lives with the rest of
// the storage IO.
func New(opts Options, comm zfs.Communicator) (*Config, error) {
	if opts.Pool == "" {
		return nil, ValidationError{Field: "pool", Message: "pool name is required (example: -p tank)"}
	}

	cutoff := snapshot.DefaultCutoff(time.Now())
	if opts.Date != "" {
		parsed, err := snapshot.ParseTimestamp(opts.Date)
		if err != nil {
			return nil, ValidationError{
				Field:   "date",
				Message: fmt.Sprintf("invalid cutoff date %q (example: 2017-09-26-1111-00)", opts.Date),
			}
		}
		cutoff = parsed
	}

	if opts.ExcludeFile != "" && !comm.ExcludeFileExists(opts.ExcludeFile) {
		return nil, ValidationError{
			Field:   "exclude-file",
			Message: fmt.Sprintf("file does not exist: %s", opts.ExcludeFile),
		}
	}

	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = snapshot.DefaultBatchSize
	}
	if batchSize < 0 {
		return nil, ValidationError{Field: "batch-size", Message: "batch size must be positive"}
	}

	return &Config{
		Pool:         opts.Pool,
		Cutoff:       cutoff,
		ExcludeFile:  opts.ExcludeFile,
		Label:        opts.Label,
		BatchSize:    batchSize,
		NoConfirm:    opts.NoConfirm,
		DryRun:       opts.DryRun,
		ShowQueued:   opts.ShowQueued,
		ShowExcluded: opts.ShowExcluded,
		ShowConfig:   opts.ShowConfig,
	}, nil
}

// Describe prints the active configuration. The full set is shown only
// with --show-config; the abridged form covers the fields that change
// what gets deleted.
func (c *Config) Describe(w io.Writer) {
	fmt.Fprintln(w, "Configuration")
	fmt.Fprintln(w, "----------------")
	fmt.Fprintf(w, "Pool: %s\n", c.Pool)
	fmt.Fprintf(w, "Cut Off Date: %s\n", c.Cutoff.Format(snapshot.TimestampLayout))
	fmt.Fprintf(w, "Exclude File: %s\n", c.ExcludeFile)
	fmt.Fprintf(w, "Label (Filter): %s\n", c.Label)
	if c.ShowConfig {
		fmt.Fprintf(w, "Batch Size: %d\n", c.BatchSize)
		fmt.Fprintf(w, "Ask For Confirmation: %t\n", !c.NoConfirm)
		fmt.Fprintf(w, "Dry Run: %t\n", c.DryRun)
		fmt.Fprintf(w, "Show Queued: %t\n", c.ShowQueued)
		fmt.Fprintf(w, "Show Excluded: %t\n", c.ShowExcluded)
	}
	fmt.Fprintln(w)
}
