package domain

import "time"

// Session durations are a closed enumeration of minutes.
const (
	Duration60  = 60
	Duration90  = 90
	Duration120 = 120
)

// ValidDuration reports whether d is one of the supported session lengths.
func ValidDuration(d int) bool {
	return d == Duration60 || d == Duration90 || d == Duration120
}

// SlotHold is a temporary claim on one (tutor, start) pair. At most one
// non-expired hold exists per pair system-wide; an expired hold is inert.
type SlotHold struct {
	ID          string    `json:"id"`
	Owner       Identity  `json:"-"`
	TutorID     string    `json:"tutorId"`
	CourseID    string    `json:"courseId"`
	StartAt     time.Time `json:"startAt"`
	DurationMin int       `json:"durationMin"`
	ExpiresAt   time.Time `json:"expiresAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EndAt is the exclusive end of the held window.
func (h SlotHold) EndAt() time.Time {
	return h.StartAt.Add(time.Duration(h.DurationMin) * time.Minute)
}

// Expired reports whether the hold is inert at the given instant.
func (h SlotHold) Expired(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}
