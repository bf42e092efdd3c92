package hold

import (
	"context"
	"time"

	"tutormarket/internal/domain"
)

// AcquireInput describes one slot claim attempt.
type AcquireInput struct {
	Owner       domain.Identity
	TutorID     string
	CourseID    string
	StartAt     time.Time
	DurationMin int
	// ExpiresAt is now + TTL, computed by the caller from the injected clock.
	ExpiresAt time.Time
	// Now is the instant used to decide whether an existing hold is inert.
	Now time.Time
}

// Repository owns ephemeral slot hold rows. Acquisition is a single
// conditional write: conflict check and insert happen in one serializable
// transaction, never as separate round trips.
type Repository interface {
	// Acquire claims (tutor, start) for the owner, refreshing the row if
	// the owner already holds it or the previous hold expired. Returns
	// domain.ErrSlotUnavailable when a live hold belongs to a different
	// identity or a confirmed appointment overlaps the window.
	Acquire(ctx context.Context, in AcquireInput) (*domain.SlotHold, error)
	// Release deletes the owner's hold for the slot; absent rows are a no-op.
	Release(ctx context.Context, owner domain.Identity, tutorID string, startAt time.Time) error
	// Extend pushes the expiry of the owner's live hold forward.
	Extend(ctx context.Context, owner domain.Identity, tutorID string, startAt time.Time, expiresAt, now time.Time) error
	// Get returns the live hold for (tutor, start), if any.
	Get(ctx context.Context, tutorID string, startAt time.Time, now time.Time) (*domain.SlotHold, error)
	// DeleteExpired physically reaps inert rows. Correctness never depends
	// on it running; expired rows are ignored by every read.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
