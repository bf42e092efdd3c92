package cart

import (
	"context"
	"errors"
	"time"

	"tutormarket/internal/clock"
	"tutormarket/internal/domain"
	"tutormarket/internal/pricing"
	cartrepo "tutormarket/internal/repository/cart"

	"github.com/shopspring/decimal"
)

// Service owns the cart lifecycle: items backed 1:1 by slot holds, coupon
// attachment, lazy repair on read, and the guest-to-user merge.
type Service struct {
	repo    repo
	catalog catalogRepo
	coupons couponValidator
	clock   clock.Clock
	holdTTL time.Duration
}

type repo interface {
	GetOrCreate(ctx context.Context, owner domain.Identity) (*domain.Cart, error)
	GetWithItems(ctx context.Context, owner domain.Identity) (*domain.Cart, error)
	AddItem(ctx context.Context, in cartrepo.AddItemInput) (*domain.CartItem, error)
	AddItemsBatch(ctx context.Context, in cartrepo.BatchInput) (cartrepo.BatchResult, error)
	RemoveItem(ctx context.Context, owner domain.Identity, itemID string) error
	SetCoupon(ctx context.Context, owner domain.Identity, code *string) error
	PurgeUnavailable(ctx context.Context, owner domain.Identity, now time.Time) (int64, error)
	ExtendHolds(ctx context.Context, owner domain.Identity, expiresAt, now time.Time) (int64, error)
	MergeFromSession(ctx context.Context, sessionID, userID string) (cartrepo.MergeResult, error)
}

type catalogRepo interface {
	GetCourse(ctx context.Context, id string) (*domain.Course, error)
	GetTutor(ctx context.Context, id string) (*domain.Tutor, error)
}

type couponValidator interface {
	ValidateCode(ctx context.Context, code string) (*domain.Coupon, error)
}

func New(r cartrepo.Repository, catalog catalogRepo, coupons couponValidator, clk clock.Clock, holdTTL time.Duration) *Service {
	return &Service{repo: r, catalog: catalog, coupons: coupons, clock: clk, holdTTL: holdTTL}
}

// SessionInput is one requested tutoring session.
type SessionInput struct {
	TutorID     string    `json:"tutorId"`
	StartAt     time.Time `json:"startAt"`
	DurationMin int       `json:"durationMin"`
}

// AddItem prices the session from the catalog, then writes the hold and the
// cart item in one transaction.
func (s *Service) AddItem(ctx context.Context, owner domain.Identity, courseID string, session SessionInput) (*domain.CartItem, error) {
	if !owner.Valid() {
		return nil, domain.ErrNotFound
	}
	if !domain.ValidDuration(session.DurationMin) {
		return nil, domain.ErrInvalidDuration
	}

	course, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetTutor(ctx, session.TutorID); err != nil {
		return nil, err
	}

	price, err := pricing.StudentPrice(course.StudentRateCad, session.DurationMin)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	return s.repo.AddItem(ctx, cartrepo.AddItemInput{
		Owner:         owner,
		CourseID:      courseID,
		TutorID:       session.TutorID,
		StartAt:       session.StartAt,
		DurationMin:   session.DurationMin,
		UnitPriceCad:  price,
		HoldExpiresAt: now.Add(s.holdTTL),
		Now:           now,
	})
}

// AddItemsBatch adds several sessions of one course best-effort: duplicates
// and conflicting slots are skipped, the rest commit as one batch. The
// result reports both counts; callers must not assume every session landed.
func (s *Service) AddItemsBatch(ctx context.Context, owner domain.Identity, courseID string, sessions []SessionInput) (cartrepo.BatchResult, error) {
	if !owner.Valid() {
		return cartrepo.BatchResult{}, domain.ErrNotFound
	}

	course, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return cartrepo.BatchResult{}, err
	}

	batch := make([]cartrepo.BatchSession, 0, len(sessions))
	tutorSeen := make(map[string]struct{})
	for _, session := range sessions {
		if !domain.ValidDuration(session.DurationMin) {
			return cartrepo.BatchResult{}, domain.ErrInvalidDuration
		}
		if _, ok := tutorSeen[session.TutorID]; !ok {
			if _, err := s.catalog.GetTutor(ctx, session.TutorID); err != nil {
				return cartrepo.BatchResult{}, err
			}
			tutorSeen[session.TutorID] = struct{}{}
		}
		price, err := pricing.StudentPrice(course.StudentRateCad, session.DurationMin)
		if err != nil {
			return cartrepo.BatchResult{}, err
		}
		batch = append(batch, cartrepo.BatchSession{
			TutorID:      session.TutorID,
			StartAt:      session.StartAt,
			DurationMin:  session.DurationMin,
			UnitPriceCad: price,
		})
	}

	now := s.clock.Now()
	return s.repo.AddItemsBatch(ctx, cartrepo.BatchInput{
		Owner:         owner,
		CourseID:      courseID,
		Sessions:      batch,
		HoldExpiresAt: now.Add(s.holdTTL),
		Now:           now,
	})
}

// RemoveItem deletes the item and releases its hold together. Items that
// exist but belong to someone else read as not found.
func (s *Service) RemoveItem(ctx context.Context, owner domain.Identity, itemID string) error {
	if !owner.Valid() {
		return domain.ErrNotFound
	}
	return s.repo.RemoveItem(ctx, owner, itemID)
}

// AttachCoupon validates the code and records it on the cart. Redemption
// counting happens at settlement, not here, so the coupon is re-validated
// at checkout.
func (s *Service) AttachCoupon(ctx context.Context, owner domain.Identity, code string) (*domain.Coupon, error) {
	if !owner.Valid() {
		return nil, domain.ErrNotFound
	}
	c, err := s.coupons.ValidateCode(ctx, code)
	if err != nil {
		return nil, err
	}
	normalized := domain.NormalizeCouponCode(code)
	if err := s.repo.SetCoupon(ctx, owner, &normalized); err != nil {
		return nil, err
	}
	return c, nil
}

// DetachCoupon clears the cart's coupon reference.
func (s *Service) DetachCoupon(ctx context.Context, owner domain.Identity) error {
	if !owner.Valid() {
		return domain.ErrNotFound
	}
	return s.repo.SetCoupon(ctx, owner, nil)
}

// View returns the owner's cart after lazy repair: items whose slot was
// booked through another channel, or whose hold lapsed, are purged first so
// the displayed cart never offers an unbuyable slot.
func (s *Service) View(ctx context.Context, owner domain.Identity) (*domain.Cart, error) {
	if !owner.Valid() {
		return nil, domain.ErrNotFound
	}
	if _, err := s.repo.PurgeUnavailable(ctx, owner, s.clock.Now()); err != nil {
		return nil, err
	}
	cart, err := s.repo.GetWithItems(ctx, owner)
	if errors.Is(err, domain.ErrNotFound) {
		// Carts are created lazily on first access.
		return s.repo.GetOrCreate(ctx, owner)
	}
	return cart, err
}

// Totals computes display totals from the quoted item prices and the
// attached coupon. A coupon that has gone invalid since attach contributes
// no discount here; checkout surfaces the failure explicitly. Anything
// other than a coupon rejection is an infrastructure error and propagates.
func (s *Service) Totals(ctx context.Context, cart *domain.Cart) (subtotal, discount, total decimal.Decimal, err error) {
	lineTotals := make([]decimal.Decimal, len(cart.Items))
	for i, item := range cart.Items {
		lineTotals[i] = item.UnitPriceCad
	}

	var couponType *domain.CouponType
	couponValue := decimal.Zero
	if cart.CouponCode != nil {
		c, err := s.coupons.ValidateCode(ctx, *cart.CouponCode)
		switch {
		case err == nil:
			couponType = &c.Type
			couponValue = c.Value
		case couponRejected(err):
		default:
			return decimal.Zero, decimal.Zero, decimal.Zero, err
		}
	}
	subtotal, discount, total = pricing.OrderTotal(lineTotals, couponType, couponValue)
	return subtotal, discount, total, nil
}

// couponRejected reports whether the error is a coupon verdict rather than
// a failure to reach one.
func couponRejected(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrCouponInactive) ||
		errors.Is(err, domain.ErrCouponExpired) ||
		errors.Is(err, domain.ErrCouponLimitReached)
}

// ExtendAllHolds refreshes the TTL on every hold backing the caller's
// items; the UI calls this periodically while the shopper stays active.
func (s *Service) ExtendAllHolds(ctx context.Context, owner domain.Identity) (int64, error) {
	if !owner.Valid() {
		return 0, domain.ErrNotFound
	}
	now := s.clock.Now()
	return s.repo.ExtendHolds(ctx, owner, now.Add(s.holdTTL), now)
}

// MergeFromSession folds a guest session cart into the authenticated user's
// cart after login, with the same best-effort semantics as a batch add.
func (s *Service) MergeFromSession(ctx context.Context, sessionID, userID string) (cartrepo.MergeResult, error) {
	if sessionID == "" || userID == "" {
		return cartrepo.MergeResult{}, domain.ErrNotFound
	}
	return s.repo.MergeFromSession(ctx, sessionID, userID)
}
