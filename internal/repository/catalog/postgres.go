package catalog

import (
	"context"
	"errors"

	"tutormarket/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	const q = `
SELECT id::text, title, student_rate_cad, active, created_at
FROM courses
WHERE id = $1
`
	var c domain.Course
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&c.ID,
		&c.Title,
		&c.StudentRateCad,
		&c.Active,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if !c.Active {
		return nil, domain.ErrInactive
	}
	return &c, nil
}

func (r *postgresRepo) GetTutor(ctx context.Context, id string) (*domain.Tutor, error) {
	const q = `
SELECT id::text, name, hourly_base_rate_cad, active, created_at
FROM tutors
WHERE id = $1
`
	var t domain.Tutor
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&t.ID,
		&t.Name,
		&t.HourlyBaseRateCad,
		&t.Active,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if !t.Active {
		return nil, domain.ErrInactive
	}
	return &t, nil
}

func (r *postgresRepo) ListCourses(ctx context.Context) ([]domain.Course, error) {
	const q = `
SELECT id::text, title, student_rate_cad, active, created_at
FROM courses
WHERE active
ORDER BY title ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Course
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.StudentRateCad, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
