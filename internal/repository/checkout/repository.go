package checkout

import (
	"context"

	"tutormarket/internal/domain"
)

// Repository persists reservation snapshots keyed by payment reference.
// The snapshot row is the only channel through which the external
// settlement step learns which slots to convert into appointments.
type Repository interface {
	Save(ctx context.Context, snap domain.ReservationSnapshot) error
	GetByPaymentRef(ctx context.Context, paymentRef string) (*domain.ReservationSnapshot, error)
}
