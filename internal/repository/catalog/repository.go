package catalog

import (
	"context"

	"tutormarket/internal/domain"
)

// Repository provides read-only lookups of courses and tutors. The catalog
// is administered outside this engine; only rates and active flags matter
// here.
type Repository interface {
	GetCourse(ctx context.Context, id string) (*domain.Course, error)
	GetTutor(ctx context.Context, id string) (*domain.Tutor, error)
	ListCourses(ctx context.Context) ([]domain.Course, error)
}
