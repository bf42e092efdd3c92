package appointment

import (
	"context"
	"time"

	"tutormarket/internal/db"
)

// Slot identifies one tutor time window for set-based overlap checks.
type Slot struct {
	TutorID     string
	StartAt     time.Time
	DurationMin int
}

// Repository answers overlap queries against confirmed bookings. Writes
// belong to the external settlement step; this engine only reads.
type Repository interface {
	// HasOverlap reports whether any scheduled or completed appointment
	// for the tutor overlaps [start, end).
	HasOverlap(ctx context.Context, tutorID string, start, end time.Time) (bool, error)
	// ListOverlapping returns, for a batch of candidate slots, the subset
	// whose window overlaps a scheduled or completed appointment.
	ListOverlapping(ctx context.Context, slots []Slot) ([]Slot, error)
}

// HasOverlapQ is HasOverlap against an arbitrary Queryer so hold
// acquisition can run the check inside its own transaction.
func HasOverlapQ(ctx context.Context, q db.Queryer, tutorID string, start, end time.Time) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1
	FROM appointments
	WHERE tutor_id = $1
	  AND status IN ('scheduled', 'completed')
	  AND start_at < $3
	  AND end_at > $2
)
`
	var exists bool
	err := q.QueryRow(ctx, query, tutorID, start, end).Scan(&exists)
	return exists, err
}
