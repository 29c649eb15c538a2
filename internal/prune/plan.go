// Package prune builds the deletion plan for one run and destroys the
// queued snapshots in capped, dataset-scoped batches.
package prune

import (
	"fmt"
	"io"
	"os"

	"github.com/snapsweep/snapsweep/internal/config"
	"github.com/snapsweep/snapsweep/internal/snapshot"
	"github.com/snapsweep/snapsweep/internal/zfs"
)

// Plan is the outcome of the selection pipeline: the snapshots queued
// for removal and the ones the exclude file protected.
type Plan struct {
	Queued   []snapshot.Snapshot
	Excluded []snapshot.Snapshot
}

// Report is the serializable form of a Plan, used for json/yaml output.
type Report struct {
	Pool          string   `json:"pool" yaml:"pool"`
	Label         string   `json:"label,omitempty" yaml:"label,omitempty"`
	Cutoff        string   `json:"cutoff" yaml:"cutoff"`
	Queued        []string `json:"queued" yaml:"queued"`
	Excluded      []string `json:"excluded" yaml:"excluded"`
	QueuedCount   int      `json:"queued_count" yaml:"queued_count"`
	ExcludedCount int      `json:"excluded_count" yaml:"excluded_count"`
}

// Report converts the plan into its serializable form.
func (p *Plan) Report(cfg *config.Config) Report {
	r := Report{
		Pool:          cfg.Pool,
		Label:         cfg.Label,
		Cutoff:        cfg.Cutoff.Format(snapshot.TimestampLayout),
		Queued:        make([]string, 0, len(p.Queued)),
		Excluded:      make([]string, 0, len(p.Excluded)),
		QueuedCount:   len(p.Queued),
		ExcludedCount: len(p.Excluded),
	}
	for _, s := range p.Queued {
		r.Queued = append(r.Queued, s.Name())
	}
	for _, s := range p.Excluded {
		r.Excluded = append(r.Excluded, s.Name())
	}
	return r
}

// Planner runs the selection pipeline: list, parse, filter by pool and
// label, filter by staleness, subtract exclusions.
type Planner struct {
	Comm zfs.Communicator

	// Log receives warnings about skipped, unparseable snapshot names.
	Log io.Writer
}

// NewPlanner returns a Planner warning to stderr.
func NewPlanner(comm zfs.Communicator) *Planner {
	return &Planner{Comm: comm, Log: os.Stderr}
}

// Plan computes the deletion plan for cfg. Exclusions are resolved
// first, then subtracted from the stale candidates, so an excluded
// snapshot survives no matter how old it is.
func (p *Planner) Plan(cfg *config.Config) (*Plan, error) {
	excluded, err := p.resolveExclusions(cfg)
	if err != nil {
		return nil, err
	}

	raw, err := p.Comm.ListSnapshots()
	if err != nil {
		return nil, err
	}

	candidates := snapshot.ForPool(p.parseAll(zfs.Lines(raw)), cfg.Pool, cfg.Label)
	stale := snapshot.Stale(candidates, cfg.Cutoff)

	return &Plan{
		Queued:   snapshot.Subtract(stale, excluded),
		Excluded: excluded,
	}, nil
}

// resolveExclusions reads and parses the exclude file, scoped by the
// same pool/label filter as the main run. An exclude entry for another
// pool or label has no effect on this run.
func (p *Planner) resolveExclusions(cfg *config.Config) ([]snapshot.Snapshot, error) {
	if cfg.ExcludeFile == "" {
		return nil, nil
	}

	raw, err := p.Comm.ReadExcludeFile(cfg.ExcludeFile)
	if err != nil {
		return nil, err
	}

	return snapshot.ForPool(p.parseAll(zfs.Lines(raw)), cfg.Pool, cfg.Label), nil
}

// parseAll parses raw snapshot names, warning about and skipping any
// that do not match the naming convention.
func (p *Planner) parseAll(lines []string) []snapshot.Snapshot {
	var parsed []snapshot.Snapshot
	for _, line := range lines {
		s, err := snapshot.Parse(line)
		if err != nil {
			if p.Log != nil {
				fmt.Fprintf(p.Log, "Skipping invalid snapshot name %q: %v\n", line, err)
			}
			continue
		}
		parsed = append(parsed, s)
	}
	return parsed
}
