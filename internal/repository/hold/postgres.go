package hold

import (
	"context"
	"errors"
	"time"

	"tutormarket/internal/db"
	"tutormarket/internal/domain"
	"tutormarket/internal/repository/appointment"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// acquireSQL is the conditional upsert that makes acquisition atomic: the
// uniqueness constraint on (tutor_id, start_at) funnels concurrent claims
// into one row, and the WHERE clause only lets the write through when the
// existing hold is expired or already owned by the claimant. Zero rows back
// means a live hold belongs to someone else.
const acquireSQL = `
INSERT INTO slot_holds (user_id, session_id, tutor_id, course_id, start_at, duration_min, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (tutor_id, start_at) DO UPDATE
SET user_id      = EXCLUDED.user_id,
    session_id   = EXCLUDED.session_id,
    course_id    = EXCLUDED.course_id,
    duration_min = EXCLUDED.duration_min,
    expires_at   = EXCLUDED.expires_at
WHERE slot_holds.expires_at <= $8
   OR (slot_holds.user_id IS NOT DISTINCT FROM EXCLUDED.user_id
       AND slot_holds.session_id IS NOT DISTINCT FROM EXCLUDED.session_id)
RETURNING id::text, created_at
`

// AcquireQ runs the atomic claim against q, which may be a transaction
// shared with cart item writes so the hold/item pair commits together.
func AcquireQ(ctx context.Context, q db.Queryer, in AcquireInput) (*domain.SlotHold, error) {
	end := in.StartAt.Add(time.Duration(in.DurationMin) * time.Minute)
	booked, err := appointment.HasOverlapQ(ctx, q, in.TutorID, in.StartAt, end)
	if err != nil {
		return nil, err
	}
	if booked {
		return nil, domain.ErrSlotUnavailable
	}

	h := domain.SlotHold{
		Owner:       in.Owner,
		TutorID:     in.TutorID,
		CourseID:    in.CourseID,
		StartAt:     in.StartAt,
		DurationMin: in.DurationMin,
		ExpiresAt:   in.ExpiresAt,
	}
	err = q.QueryRow(ctx, acquireSQL,
		in.Owner.UserID,
		in.Owner.SessionID,
		in.TutorID,
		in.CourseID,
		in.StartAt,
		in.DurationMin,
		in.ExpiresAt,
		in.Now,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSlotUnavailable
		}
		return nil, err
	}
	return &h, nil
}

// ReleaseQ deletes the owner's hold for the slot within q.
func ReleaseQ(ctx context.Context, q db.Queryer, owner domain.Identity, tutorID string, startAt time.Time) error {
	const del = `
DELETE FROM slot_holds
WHERE tutor_id = $1
  AND start_at = $2
  AND user_id IS NOT DISTINCT FROM $3
  AND session_id IS NOT DISTINCT FROM $4
`
	_, err := q.Exec(ctx, del, tutorID, startAt, owner.UserID, owner.SessionID)
	return err
}

func (r *postgresRepo) Acquire(ctx context.Context, in AcquireInput) (*domain.SlotHold, error) {
	var h *domain.SlotHold
	err := db.InSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		h, err = AcquireQ(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (r *postgresRepo) Release(ctx context.Context, owner domain.Identity, tutorID string, startAt time.Time) error {
	return ReleaseQ(ctx, r.pool, owner, tutorID, startAt)
}

func (r *postgresRepo) Extend(ctx context.Context, owner domain.Identity, tutorID string, startAt time.Time, expiresAt, now time.Time) error {
	const q = `
UPDATE slot_holds
SET expires_at = $1
WHERE tutor_id = $2
  AND start_at = $3
  AND expires_at > $4
  AND user_id IS NOT DISTINCT FROM $5
  AND session_id IS NOT DISTINCT FROM $6
`
	cmd, err := r.pool.Exec(ctx, q, expiresAt, tutorID, startAt, now, owner.UserID, owner.SessionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Get(ctx context.Context, tutorID string, startAt time.Time, now time.Time) (*domain.SlotHold, error) {
	const q = `
SELECT id::text, user_id::text, session_id::text, tutor_id::text, course_id::text,
       start_at, duration_min, expires_at, created_at
FROM slot_holds
WHERE tutor_id = $1 AND start_at = $2 AND expires_at > $3
`
	var h domain.SlotHold
	err := r.pool.QueryRow(ctx, q, tutorID, startAt, now).Scan(
		&h.ID,
		&h.Owner.UserID,
		&h.Owner.SessionID,
		&h.TutorID,
		&h.CourseID,
		&h.StartAt,
		&h.DurationMin,
		&h.ExpiresAt,
		&h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (r *postgresRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM slot_holds WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
