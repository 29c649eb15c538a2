package config

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/snapsweep/snapsweep/internal/snapshot"
)

// fakeCommunicator implements zfs.Communicator for validation tests.
type fakeCommunicator struct {
	excludeFiles map[string]bool
}

func (f *fakeCommunicator) ListSnapshots() (string, error) { return "", nil }
func (f *fakeCommunicator) Destroy(batch string) error     { return nil }
func (f *fakeCommunicator) ReadExcludeFile(path string) (string, error) {
	return "", nil
}
func (f *fakeCommunicator) ExcludeFileExists(path string) bool {
	return f.excludeFiles[path]
}

func TestNewRequiresPool(t *testing.T) {
	_, err := New(Options{}, &fakeCommunicator{})
	if err == nil {
		t.Fatal("New() = nil error without pool")
	}

	var verr ValidationError
	if !errors.As(err, &verr) || verr.Field != "pool" {
		t.Errorf("New() error = %v, want pool validation error", err)
	}
}

func TestNewParsesCutoffDate(t *testing.T) {
	cfg, err := New(Options{Pool: "tank", Date: "2020-05-01-1200-00"}, &fakeCommunicator{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := time.Date(2020, 5, 1, 12, 0, 0, 0, time.Local)
	if !cfg.Cutoff.Equal(want) {
		t.Errorf("Cutoff = %v, want %v", cfg.Cutoff, want)
	}
}

func TestNewRejectsBadCutoffDate(t *testing.T) {
	_, err := New(Options{Pool: "tank", Date: "2020/05/01"}, &fakeCommunicator{})
	if err == nil {
		t.Fatal("New() = nil error for malformed date")
	}

	var verr ValidationError
	if !errors.As(err, &verr) || verr.Field != "date" {
		t.Errorf("New() error = %v, want date validation error", err)
	}
}

func TestNewDefaultCutoffIsThirtyDays(t *testing.T) {
	cfg, err := New(Options{Pool: "tank"}, &fakeCommunicator{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := snapshot.DefaultCutoff(time.Now())
	if diff := cfg.Cutoff.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("Cutoff = %v, want about %v", cfg.Cutoff, want)
	}
}

func TestNewChecksExcludeFile(t *testing.T) {
	comm := &fakeCommunicator{excludeFiles: map[string]bool{"/etc/keep.txt": true}}

	if _, err := New(Options{Pool: "tank", ExcludeFile: "/etc/keep.txt"}, comm); err != nil {
		t.Errorf("New() error = %v for existing exclude file", err)
	}

	_, err := New(Options{Pool: "tank", ExcludeFile: "/etc/missing.txt"}, comm)
	if err == nil {
		t.Fatal("New() = nil error for missing exclude file")
	}
	var verr ValidationError
	if !errors.As(err, &verr) || verr.Field != "exclude-file" {
		t.Errorf("New() error = %v, want exclude-file validation error", err)
	}
}

func TestNewBatchSize(t *testing.T) {
	cfg, err := New(Options{Pool: "tank"}, &fakeCommunicator{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.BatchSize != snapshot.DefaultBatchSize {
		t.Errorf("BatchSize = %d, want default %d", cfg.BatchSize, snapshot.DefaultBatchSize)
	}

	if _, err := New(Options{Pool: "tank", BatchSize: -1}, &fakeCommunicator{}); err == nil {
		t.Error("New() = nil error for negative batch size")
	}
}

func TestDescribe(t *testing.T) {
	cfg, err := New(Options{Pool: "tank", Date: "2020-05-01-1200-00", Label: "CHECKPOINT"}, &fakeCommunicator{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var buf bytes.Buffer
	cfg.Describe(&buf)

	out := buf.String()
	for _, want := range []string{"Pool: tank", "Cut Off Date: 2020-05-01-1200-00", "Label (Filter): CHECKPOINT"} {
		if !strings.Contains(out, want) {
			t.Errorf("Describe() output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Batch Size:") {
		t.Error("Describe() printed full config without ShowConfig")
	}

	cfg.ShowConfig = true
	buf.Reset()
	cfg.Describe(&buf)
	if !strings.Contains(buf.String(), "Batch Size: 100") {
		t.Errorf("Describe() with ShowConfig missing batch size:\n%s", buf.String())
	}
}
