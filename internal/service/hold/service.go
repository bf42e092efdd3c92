package hold

import (
	"context"
	"errors"
	"time"

	"tutormarket/internal/clock"
	"tutormarket/internal/domain"
	"tutormarket/internal/repository/appointment"
	holdrepo "tutormarket/internal/repository/hold"
)

// Service grants, extends, and releases time-bounded claims on tutor slots.
// It is the sole gate against double-booking before payment.
type Service struct {
	repo  repo
	appts appointments
	clock clock.Clock
	ttl   time.Duration
}

type repo interface {
	Acquire(ctx context.Context, in holdrepo.AcquireInput) (*domain.SlotHold, error)
	Release(ctx context.Context, owner domain.Identity, tutorID string, startAt time.Time) error
	Extend(ctx context.Context, owner domain.Identity, tutorID string, startAt time.Time, expiresAt, now time.Time) error
	Get(ctx context.Context, tutorID string, startAt time.Time, now time.Time) (*domain.SlotHold, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type appointments interface {
	HasOverlap(ctx context.Context, tutorID string, start, end time.Time) (bool, error)
	ListOverlapping(ctx context.Context, slots []appointment.Slot) ([]appointment.Slot, error)
}

func New(r holdrepo.Repository, appts appointment.Repository, clk clock.Clock, ttl time.Duration) *Service {
	return &Service{repo: r, appts: appts, clock: clk, ttl: ttl}
}

// TryAcquire claims (tutor, start) for the owner for one TTL window.
// Conflicts with another identity's live hold or with a confirmed
// appointment fail with domain.ErrSlotUnavailable; they are reported,
// never retried.
func (s *Service) TryAcquire(ctx context.Context, owner domain.Identity, tutorID, courseID string, startAt time.Time, durationMin int) (*domain.SlotHold, error) {
	if !owner.Valid() {
		return nil, domain.ErrNotFound
	}
	if !domain.ValidDuration(durationMin) {
		return nil, domain.ErrInvalidDuration
	}
	now := s.clock.Now()
	return s.repo.Acquire(ctx, holdrepo.AcquireInput{
		Owner:       owner,
		TutorID:     tutorID,
		CourseID:    courseID,
		StartAt:     startAt,
		DurationMin: durationMin,
		ExpiresAt:   now.Add(s.ttl),
		Now:         now,
	})
}

// Release drops the owner's hold on the slot; releasing an absent hold is
// a no-op.
func (s *Service) Release(ctx context.Context, owner domain.Identity, tutorID string, startAt time.Time) error {
	return s.repo.Release(ctx, owner, tutorID, startAt)
}

// Extend pushes the hold's expiry forward by one TTL from now, keeping a
// shopper's reservation alive while they are active.
func (s *Service) Extend(ctx context.Context, owner domain.Identity, tutorID string, startAt time.Time) error {
	now := s.clock.Now()
	return s.repo.Extend(ctx, owner, tutorID, startAt, now.Add(s.ttl), now)
}

// ReapExpired physically deletes inert hold rows. Reads never depend on
// it; expired rows are ignored everywhere.
func (s *Service) ReapExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.clock.Now())
}

// Available reports whether the slot can be claimed right now: no
// confirmed appointment overlaps the window and no live hold exists on
// the slot key.
func (s *Service) Available(ctx context.Context, tutorID string, startAt time.Time, durationMin int) (bool, error) {
	if !domain.ValidDuration(durationMin) {
		return false, domain.ErrInvalidDuration
	}
	end := startAt.Add(time.Duration(durationMin) * time.Minute)
	booked, err := s.appts.HasOverlap(ctx, tutorID, startAt, end)
	if err != nil {
		return false, err
	}
	if booked {
		return false, nil
	}
	_, err = s.repo.Get(ctx, tutorID, startAt, s.clock.Now())
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// FilterUnavailable returns the subset of candidate slots that cannot be
// claimed: the appointment overlaps resolve in one set query, live holds
// are checked per remaining slot.
func (s *Service) FilterUnavailable(ctx context.Context, slots []appointment.Slot) ([]appointment.Slot, error) {
	for _, slot := range slots {
		if !domain.ValidDuration(slot.DurationMin) {
			return nil, domain.ErrInvalidDuration
		}
	}

	booked, err := s.appts.ListOverlapping(ctx, slots)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]map[time.Time]bool, len(booked))
	for _, slot := range booked {
		if taken[slot.TutorID] == nil {
			taken[slot.TutorID] = make(map[time.Time]bool)
		}
		taken[slot.TutorID][slot.StartAt.UTC()] = true
	}

	now := s.clock.Now()
	out := append([]appointment.Slot(nil), booked...)
	for _, slot := range slots {
		if taken[slot.TutorID][slot.StartAt.UTC()] {
			continue
		}
		_, err := s.repo.Get(ctx, slot.TutorID, slot.StartAt, now)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, slot)
	}
	return out, nil
}

// TTL exposes the configured hold lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }
