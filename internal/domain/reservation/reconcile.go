package reservation

import (
	"time"

	"github.com/google/uuid"
)

// StaleIDs picks out of a freshly fetched batch the oncoming reservations
// whose scheduled end lies strictly before now. These are the only records
// the time-driven sweep may rewrite; done and canceled reservations are sink
// states and are skipped entirely. Pure and idempotent: a batch that has
// already been reconciled yields an empty result.
func StaleIDs(now time.Time, batch []*Reservation) []uuid.UUID {
	var stale []uuid.UUID
	for _, r := range batch {
		if r.Status().SweepEligible() && r.EndsBefore(now) {
			stale = append(stale, r.ID())
		}
	}
	return stale
}

// ApplyLate rewrites the in-memory status of the identified stale records to
// late, mirroring the batch write the repository issues in the same
// transaction as the read.
func ApplyLate(now time.Time, batch []*Reservation, staleIDs []uuid.UUID) {
	if len(staleIDs) == 0 {
		return
	}
	ids := make(map[uuid.UUID]struct{}, len(staleIDs))
	for _, id := range staleIDs {
		ids[id] = struct{}{}
	}
	for _, r := range batch {
		if _, ok := ids[r.ID()]; ok {
			r.markLate(now)
		}
	}
}
