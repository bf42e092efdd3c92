package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Fixed IDs keep the seed idempotent and give manual tests stable handles.
type courseSeed struct {
	ID          string
	Title       string
	StudentRate string
}

type tutorSeed struct {
	ID       string
	Name     string
	BaseRate string
}

type couponSeed struct {
	Code           string
	Type           string
	Value          string
	MaxRedemptions *int
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	courses := []courseSeed{
		{ID: "5f7b2d1a-0b7e-4a57-9e93-1c2b3a4d5e6f", Title: "Algebra II", StudentRate: "40.00"},
		{ID: "6a8c3e2b-1c8f-4b68-8fa4-2d3c4b5e6f70", Title: "AP Physics", StudentRate: "55.00"},
		{ID: "7b9d4f3c-2d90-4c79-9ab5-3e4d5c6f7081", Title: "French Conversation", StudentRate: "35.00"},
	}
	tutors := []tutorSeed{
		{ID: "90a1b2c3-d4e5-4f60-8172-839405a6b7c8", Name: "Priya Raman", BaseRate: "60.00"},
		{ID: "a1b2c3d4-e5f6-4071-8283-94a5b6c7d8e9", Name: "Marc Tremblay", BaseRate: "45.00"},
	}

	for _, c := range courses {
		if err := upsertCourse(ctx, pool, c); err != nil {
			return fmt.Errorf("upsert course %s: %w", c.Title, err)
		}
	}
	for _, tu := range tutors {
		if err := upsertTutor(ctx, pool, tu); err != nil {
			return fmt.Errorf("upsert tutor %s: %w", tu.Name, err)
		}
	}

	five := 5
	coupons := []couponSeed{
		{Code: "SUMMER10", Type: "percentage", Value: "10.00"},
		{Code: "WELCOME20", Type: "fixed", Value: "20.00", MaxRedemptions: &five},
	}
	for _, cp := range coupons {
		if err := upsertCoupon(ctx, pool, cp); err != nil {
			return fmt.Errorf("upsert coupon %s: %w", cp.Code, err)
		}
	}

	return nil
}

func upsertCourse(ctx context.Context, pool *pgxpool.Pool, c courseSeed) error {
	const q = `
INSERT INTO courses (id, title, student_rate_cad, active)
VALUES ($1, $2, $3, true)
ON CONFLICT (id) DO UPDATE
SET title = EXCLUDED.title,
    student_rate_cad = EXCLUDED.student_rate_cad,
    active = true
`
	_, err := pool.Exec(ctx, q, c.ID, c.Title, c.StudentRate)
	return err
}

func upsertTutor(ctx context.Context, pool *pgxpool.Pool, tu tutorSeed) error {
	const q = `
INSERT INTO tutors (id, name, hourly_base_rate_cad, active)
VALUES ($1, $2, $3, true)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    hourly_base_rate_cad = EXCLUDED.hourly_base_rate_cad,
    active = true
`
	_, err := pool.Exec(ctx, q, tu.ID, tu.Name, tu.BaseRate)
	return err
}

func upsertCoupon(ctx context.Context, pool *pgxpool.Pool, cp couponSeed) error {
	const q = `
INSERT INTO coupons (code, type, value, active, max_redemptions)
VALUES ($1, $2, $3, true, $4)
ON CONFLICT (code) DO UPDATE
SET type = EXCLUDED.type,
    value = EXCLUDED.value,
    active = true,
    max_redemptions = EXCLUDED.max_redemptions
`
	_, err := pool.Exec(ctx, q, cp.Code, cp.Type, cp.Value, cp.MaxRedemptions)
	return err
}
