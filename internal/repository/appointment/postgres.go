package appointment

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) HasOverlap(ctx context.Context, tutorID string, start, end time.Time) (bool, error) {
	return HasOverlapQ(ctx, r.pool, tutorID, start, end)
}

func (r *postgresRepo) ListOverlapping(ctx context.Context, slots []Slot) ([]Slot, error) {
	if len(slots) == 0 {
		return nil, nil
	}

	tutorIDs := make([]string, len(slots))
	starts := make([]time.Time, len(slots))
	durations := make([]int32, len(slots))
	for i, s := range slots {
		tutorIDs[i] = s.TutorID
		starts[i] = s.StartAt
		durations[i] = int32(s.DurationMin)
	}

	const q = `
SELECT s.tutor_id::text, s.start_at, s.duration_min
FROM unnest($1::uuid[], $2::timestamptz[], $3::int[]) AS s(tutor_id, start_at, duration_min)
WHERE EXISTS (
	SELECT 1
	FROM appointments a
	WHERE a.tutor_id = s.tutor_id
	  AND a.status IN ('scheduled', 'completed')
	  AND a.start_at < s.start_at + make_interval(mins => s.duration_min)
	  AND a.end_at > s.start_at
)
`
	rows, err := r.pool.Query(ctx, q, tutorIDs, starts, durations)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.TutorID, &s.StartAt, &s.DurationMin); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
