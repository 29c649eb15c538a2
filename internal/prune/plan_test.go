package prune

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/snapsweep/snapsweep/internal/config"
	"github.com/snapsweep/snapsweep/internal/snapshot"
)

// fakeCommunicator is an in-memory stand-in for the zfs tooling.
type fakeCommunicator struct {
	listing    string
	listErr    error
	exclude    string
	excludeErr error
	destroyErr error

	batches []string
}

func (f *fakeCommunicator) ListSnapshots() (string, error) {
	return f.listing, f.listErr
}

func (f *fakeCommunicator) Destroy(batch string) error {
	if f.destroyErr != nil {
		return f.destroyErr
	}
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeCommunicator) ReadExcludeFile(path string) (string, error) {
	return f.exclude, f.excludeErr
}

func (f *fakeCommunicator) ExcludeFileExists(path string) bool {
	return true
}

func testConfig(t *testing.T, comm *fakeCommunicator, opts config.Options) *config.Config {
	t.Helper()
	cfg, err := config.New(opts, comm)
	if err != nil {
		t.Fatalf("config.New() error = %v", err)
	}
	return cfg
}

func quietPlanner(comm *fakeCommunicator) *Planner {
	return &Planner{Comm: comm, Log: io.Discard}
}

func names(snapshots []snapshot.Snapshot) []string {
	var out []string
	for _, s := range snapshots {
		out = append(out, s.Name())
	}
	return out
}

func TestPlanEndToEnd(t *testing.T) {
	comm := &fakeCommunicator{
		listing: "boot@2020-08-12-1237-49-CHECKPOINT\n" +
			"tank/os@2020-07-13-2354-09-CHECKPOINT\n" +
			"tank/os@2020-05-01-1100-00-CHECKPOINT\n" +
			"tank/home@2020-04-25-1300-15-CHECKPOINT\n" +
			"tank@2020-01-01-2354-09-CHECKPOINT\n",
		exclude: "tank/home@2020-04-25-1300-15-CHECKPOINT\n",
	}
	cfg := testConfig(t, comm, config.Options{
		Pool:        "tank",
		Date:        "2020-05-01-1200-00",
		ExcludeFile: "keep.txt",
	})

	plan, err := quietPlanner(comm).Plan(cfg)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	want := []string{
		"tank/os@2020-05-01-1100-00-CHECKPOINT",
		"tank@2020-01-01-2354-09-CHECKPOINT",
	}
	got := names(plan.Queued)
	if len(got) != len(want) {
		t.Fatalf("Plan() queued %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Plan() queued[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if len(plan.Excluded) != 1 || plan.Excluded[0].Name() != "tank/home@2020-04-25-1300-15-CHECKPOINT" {
		t.Errorf("Plan() excluded = %v", names(plan.Excluded))
	}
}

func TestPlanSkipsMalformedNames(t *testing.T) {
	comm := &fakeCommunicator{
		listing: "tank@lol\n" +
			"not-a-snapshot\n" +
			"tank@2020-01-01-2354-09-CHECKPOINT\n",
	}
	cfg := testConfig(t, comm, config.Options{Pool: "tank", Date: "2020-05-01-1200-00"})

	var warnings bytes.Buffer
	planner := &Planner{Comm: comm, Log: &warnings}

	plan, err := planner.Plan(cfg)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(plan.Queued) != 1 {
		t.Errorf("Plan() queued %v, want the single valid name", names(plan.Queued))
	}
	if !strings.Contains(warnings.String(), "tank@lol") {
		t.Errorf("Plan() warnings missing skipped name:\n%s", warnings.String())
	}
}

func TestPlanExclusionsScopedToPoolAndLabel(t *testing.T) {
	comm := &fakeCommunicator{
		listing: "tank/os@2020-01-01-1100-00-CHECKPOINT\n" +
			"tank/os@2020-01-02-1100-00-CHECKPOINT\n",
		// Entries for another pool and another label are out of scope
		// for this run and must not shrink the exclusion set's effect.
		exclude: "boot@2020-01-01-1100-00-CHECKPOINT\n" +
			"tank/os@2020-01-01-1100-00-HOURLY\n",
	}
	cfg := testConfig(t, comm, config.Options{
		Pool:        "tank",
		Label:       "CHECKPOINT",
		Date:        "2020-05-01-1200-00",
		ExcludeFile: "keep.txt",
	})

	plan, err := quietPlanner(comm).Plan(cfg)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if len(plan.Excluded) != 0 {
		t.Errorf("Plan() excluded = %v, want none (all entries out of scope)", names(plan.Excluded))
	}
	if len(plan.Queued) != 2 {
		t.Errorf("Plan() queued %v, want both tank/os snapshots", names(plan.Queued))
	}
}

func TestPlanExclusionWinsRegardlessOfStaleness(t *testing.T) {
	comm := &fakeCommunicator{
		listing: "tank/os@2020-01-01-1100-00-CHECKPOINT\n" +
			"tank/os@2020-08-01-1100-00-CHECKPOINT\n", // fresh
		exclude: "tank/os@2020-01-01-1100-00-CHECKPOINT\n" +
			"tank/os@2020-08-01-1100-00-CHECKPOINT\n",
	}
	cfg := testConfig(t, comm, config.Options{
		Pool:        "tank",
		Date:        "2020-05-01-1200-00",
		ExcludeFile: "keep.txt",
	})

	plan, err := quietPlanner(comm).Plan(cfg)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	for _, q := range plan.Queued {
		for _, e := range plan.Excluded {
			if q.Equal(e) {
				t.Errorf("Plan() queued excluded snapshot %s", q)
			}
		}
	}
	if len(plan.Queued) != 0 {
		t.Errorf("Plan() queued %v, want none", names(plan.Queued))
	}
}

func TestPlanListFailureIsFatal(t *testing.T) {
	comm := &fakeCommunicator{listErr: errors.New("cannot spawn zfs")}
	cfg := testConfig(t, comm, config.Options{Pool: "tank"})

	if _, err := quietPlanner(comm).Plan(cfg); err == nil {
		t.Error("Plan() = nil error when listing fails")
	}
}

func TestPlanExcludeReadFailureIsFatal(t *testing.T) {
	comm := &fakeCommunicator{
		listing:    "tank@2020-01-01-2354-09-CHECKPOINT\n",
		excludeErr: errors.New("permission denied"),
	}
	cfg := testConfig(t, comm, config.Options{Pool: "tank", ExcludeFile: "keep.txt"})

	if _, err := quietPlanner(comm).Plan(cfg); err == nil {
		t.Error("Plan() = nil error when exclude file read fails")
	}
}

func TestPlanReport(t *testing.T) {
	comm := &fakeCommunicator{
		listing: "tank@2020-01-01-2354-09-CHECKPOINT\n",
	}
	cfg := testConfig(t, comm, config.Options{Pool: "tank", Date: "2020-05-01-1200-00"})

	plan, err := quietPlanner(comm).Plan(cfg)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	report := plan.Report(cfg)
	if report.Pool != "tank" || report.Cutoff != "2020-05-01-1200-00" {
		t.Errorf("Report() = %+v", report)
	}
	if report.QueuedCount != 1 || len(report.Queued) != 1 {
		t.Errorf("Report() queued = %v (count %d), want 1", report.Queued, report.QueuedCount)
	}
	if report.Excluded == nil {
		t.Error("Report() Excluded should be an empty slice, not nil")
	}
}
