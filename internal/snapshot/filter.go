package snapshot

import "time"

// ForPool keeps snapshots belonging to pool. When label is non-empty
// the snapshot label must also match exactly; an empty label matches
// everything.
func ForPool(snapshots []Snapshot, pool, label string) []Snapshot {
	var kept []Snapshot
	for _, s := range snapshots {
		if s.Pool != pool {
			continue
		}
		if label != "" && s.Label != label {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// Stale keeps snapshots taken strictly before cutoff.
func Stale(snapshots []Snapshot, cutoff time.Time) []Snapshot {
	var kept []Snapshot
	for _, s := range snapshots {
		if s.Stale(cutoff) {
			kept = append(kept, s)
		}
	}
	return kept
}

// Subtract removes every snapshot from candidates that equals one of
// the excluded snapshots. All equal matches are removed, so the
// operation is idempotent.
func Subtract(candidates, excluded []Snapshot) []Snapshot {
	remaining := make([]Snapshot, 0, len(candidates))
	for _, c := range candidates {
		skip := false
		for _, e := range excluded {
			if c.Equal(e) {
				skip = true
				break
			}
		}
		if !skip {
			remaining = append(remaining, c)
		}
	}
	return remaining
}
