package prune

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/snapsweep/snapsweep/internal/snapshot"
	"github.com/snapsweep/snapsweep/internal/zfs"
)

// StrandedError reports snapshots left in the destroy queue after all
// datasets were processed. This cannot happen when the batching loop is
// correct; it exists as a defensive check on the algorithm itself.
type StrandedError struct {
	Snapshots []snapshot.Snapshot
}

func (e *StrandedError) Error() string {
	names := make([]string, 0, len(e.Snapshots))
	for _, s := range e.Snapshots {
		names = append(names, s.Name())
	}
	return fmt.Sprintf("%d snapshots were never flushed from the destroy queue (please file a bug report): %s",
		len(e.Snapshots), strings.Join(names, ", "))
}

// Destroyer deletes snapshots through the communicator. Batches never
// span datasets, because zfs accepts a comma-joined suffix list only
// for a single dataset, and batch size is capped: oversized destroy
// batches have been seen to lock up zfs, so batches are issued one at
// a time.
type Destroyer struct {
	Comm      zfs.Communicator
	BatchSize int

	// Out receives per-dataset headers and progress lines.
	Out io.Writer
}

// NewDestroyer returns a Destroyer reporting progress to stdout.
func NewDestroyer(comm zfs.Communicator, batchSize int) *Destroyer {
	return &Destroyer{Comm: comm, BatchSize: batchSize, Out: os.Stdout}
}

// Destroy deletes candidates and returns the snapshots that were
// deleted. Any destroy failure aborts the run immediately; already
// deleted batches are reflected in the returned slice.
func (d *Destroyer) Destroy(candidates []snapshot.Snapshot) ([]snapshot.Snapshot, error) {
	total := len(candidates)
	deleted := make([]snapshot.Snapshot, 0, total)
	var queue []snapshot.Snapshot

	flush := func(dataset string) error {
		if len(queue) == 0 {
			return nil
		}
		if err := d.Comm.Destroy(batchArgument(dataset, queue)); err != nil {
			return err
		}
		deleted = append(deleted, queue...)
		queue = queue[:0]
		percent := float64(len(deleted)) / float64(total) * 100
		fmt.Fprintf(d.Out, "Deleted | %6.2f%% <=> [%d/%d]\n", percent, len(deleted), total)
		return nil
	}

	for _, dataset := range datasets(candidates) {
		fmt.Fprintf(d.Out, "Cleaning snapshots for %s ...\n", dataset)

		for _, s := range candidates {
			if s.Dataset != dataset {
				continue
			}
			queue = append(queue, s)
			if len(queue) == d.BatchSize {
				if err := flush(dataset); err != nil {
					return deleted, err
				}
			}
		}

		// Final partial batch for this dataset.
		if err := flush(dataset); err != nil {
			return deleted, err
		}
		fmt.Fprintln(d.Out)
	}

	if len(queue) != 0 {
		return deleted, &StrandedError{Snapshots: queue}
	}
	return deleted, nil
}

// batchArgument builds the zfs destroy argument for one batch:
// dataset@suffix1,suffix2,...
func batchArgument(dataset string, batch []snapshot.Snapshot) string {
	suffixes := make([]string, 0, len(batch))
	for _, s := range batch {
		suffixes = append(suffixes, s.Suffix())
	}
	return dataset + "@" + strings.Join(suffixes, ",")
}

// datasets returns the distinct datasets among the candidates, sorted
// for deterministic batch order.
func datasets(candidates []snapshot.Snapshot) []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range candidates {
		if !seen[s.Dataset] {
			seen[s.Dataset] = true
			names = append(names, s.Dataset)
		}
	}
	sort.Strings(names)
	return names
}
