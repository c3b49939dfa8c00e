package progress

import (
	"time"

	"github.com/google/uuid"
)

// Event is one entry in a job's progress stream.
type Event struct {
	// Sequence orders events within a single job's stream. Strictly
	// increasing as delivered to any one subscriber; no ordering is
	// promised across jobs.
	Sequence uint64

	JobID uuid.UUID

	// ItemID is the item whose transition produced the event. Zero for
	// synthetic snapshot events.
	ItemID uuid.UUID

	// NewState is the item's state label after the transition (e.g.
	// "enriching", "asset_fallback_2", "committed"). For snapshot events
	// it is "snapshot".
	NewState string

	// PercentComplete is terminal items over total items, in [0, 1].
	PercentComplete float64

	// ETA is the linear extrapolation of remaining run time, recomputed
	// on every event. Zero while no item has finished yet.
	ETA time.Duration

	// TerminalCount and TotalCount are the aggregate counts backing
	// PercentComplete.
	TerminalCount int
	TotalCount    int

	// Snapshot marks the synthetic event sent to a subscriber on join.
	Snapshot bool

	EmittedAt time.Time
}
