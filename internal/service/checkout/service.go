package checkout

import (
	"context"

	"tutormarket/internal/clock"
	"tutormarket/internal/domain"
	"tutormarket/internal/pricing"
	checkoutrepo "tutormarket/internal/repository/checkout"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service snapshots a cart into an immutable handoff payload for the
// payment and settlement boundary. It never acquires or extends holds;
// callers keep holds alive with the cart's extend operation.
type Service struct {
	carts   cartViewer
	catalog catalogRepo
	coupons couponValidator
	repo    snapshotStore
	clock   clock.Clock
}

type cartViewer interface {
	View(ctx context.Context, owner domain.Identity) (*domain.Cart, error)
}

type catalogRepo interface {
	GetCourse(ctx context.Context, id string) (*domain.Course, error)
	GetTutor(ctx context.Context, id string) (*domain.Tutor, error)
}

type couponValidator interface {
	ValidateCode(ctx context.Context, code string) (*domain.Coupon, error)
}

type snapshotStore interface {
	Save(ctx context.Context, snap domain.ReservationSnapshot) error
	GetByPaymentRef(ctx context.Context, paymentRef string) (*domain.ReservationSnapshot, error)
}

func New(carts cartViewer, catalog catalogRepo, coupons couponValidator, repo checkoutrepo.Repository, clk clock.Clock) *Service {
	return &Service{carts: carts, catalog: catalog, coupons: coupons, repo: repo, clock: clk}
}

// Snapshot recomputes the full order from current catalog rates and the
// re-validated coupon, then persists the result under a fresh payment
// reference. Stored cart prices are quotes only; the snapshot is the
// authoritative price. A coupon that went invalid since attach fails the
// snapshot with the validator's reason.
func (s *Service) Snapshot(ctx context.Context, owner domain.Identity) (*domain.ReservationSnapshot, error) {
	if !owner.Valid() {
		return nil, domain.ErrNotFound
	}

	cart, err := s.carts.View(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	items := make([]domain.SnapshotItem, 0, len(cart.Items))
	lineTotals := make([]decimal.Decimal, 0, len(cart.Items))
	for _, item := range cart.Items {
		course, err := s.catalog.GetCourse(ctx, item.CourseID)
		if err != nil {
			return nil, err
		}
		tutor, err := s.catalog.GetTutor(ctx, item.TutorID)
		if err != nil {
			return nil, err
		}
		price, err := pricing.StudentPrice(course.StudentRateCad, item.DurationMin)
		if err != nil {
			return nil, err
		}
		earnings, err := pricing.TutorEarnings(tutor.HourlyBaseRateCad, item.DurationMin)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.SnapshotItem{
			CourseID:         item.CourseID,
			TutorID:          item.TutorID,
			StartAt:          item.StartAt,
			DurationMin:      item.DurationMin,
			PriceCad:         price,
			TutorEarningsCad: earnings,
		})
		lineTotals = append(lineTotals, price)
	}

	var couponType *domain.CouponType
	couponValue := decimal.Zero
	if cart.CouponCode != nil {
		c, err := s.coupons.ValidateCode(ctx, *cart.CouponCode)
		if err != nil {
			return nil, err
		}
		couponType = &c.Type
		couponValue = c.Value
	}

	subtotal, discount, total := pricing.OrderTotal(lineTotals, couponType, couponValue)

	snap := domain.ReservationSnapshot{
		PaymentRef:  "pay_" + uuid.NewString(),
		Owner:       owner,
		Items:       items,
		SubtotalCad: subtotal,
		CouponCode:  cart.CouponCode,
		DiscountCad: discount,
		TotalCad:    total,
		TotalCents:  pricing.Cents(total),
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.Save(ctx, snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetSnapshot retrieves a persisted snapshot for the settlement webhook.
func (s *Service) GetSnapshot(ctx context.Context, paymentRef string) (*domain.ReservationSnapshot, error) {
	return s.repo.GetByPaymentRef(ctx, paymentRef)
}
