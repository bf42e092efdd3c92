package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tutormarket/internal/clock"
	"tutormarket/internal/domain"

	"github.com/shopspring/decimal"
)

type stubCarts struct {
	cart *domain.Cart
	err  error
}

func (s *stubCarts) View(_ context.Context, _ domain.Identity) (*domain.Cart, error) {
	return s.cart, s.err
}

type stubCatalog struct {
	courses map[string]*domain.Course
	tutors  map[string]*domain.Tutor
}

func (s *stubCatalog) GetCourse(_ context.Context, id string) (*domain.Course, error) {
	if c, ok := s.courses[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubCatalog) GetTutor(_ context.Context, id string) (*domain.Tutor, error) {
	if t, ok := s.tutors[id]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

type stubCoupons struct {
	coupon *domain.Coupon
	err    error
}

func (s *stubCoupons) ValidateCode(_ context.Context, _ string) (*domain.Coupon, error) {
	return s.coupon, s.err
}

type stubStore struct {
	saved   *domain.ReservationSnapshot
	saveErr error
	stored  *domain.ReservationSnapshot
}

func (s *stubStore) Save(_ context.Context, snap domain.ReservationSnapshot) error {
	s.saved = &snap
	return s.saveErr
}

func (s *stubStore) GetByPaymentRef(_ context.Context, _ string) (*domain.ReservationSnapshot, error) {
	if s.stored == nil {
		return nil, domain.ErrNotFound
	}
	return s.stored, nil
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func testClock() *clock.Fixed {
	return &clock.Fixed{Time: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func filledCart() *domain.Cart {
	return &domain.Cart{
		ID: "cart",
		Items: []domain.CartItem{
			{
				ID:          "i1",
				CourseID:    "course",
				TutorID:     "tutor",
				StartAt:     time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC),
				DurationMin: 90,
				// Stale quote on purpose; the snapshot reprices.
				UnitPriceCad: dec("55"),
			},
		},
	}
}

func testCatalog() *stubCatalog {
	return &stubCatalog{
		courses: map[string]*domain.Course{"course": {ID: "course", StudentRateCad: dec("40"), Active: true}},
		tutors:  map[string]*domain.Tutor{"tutor": {ID: "tutor", HourlyBaseRateCad: dec("60"), Active: true}},
	}
}

func TestSnapshotRepricesFromCatalog(t *testing.T) {
	store := &stubStore{}
	svc := &Service{carts: &stubCarts{cart: filledCart()}, catalog: testCatalog(), coupons: &stubCoupons{}, repo: store, clock: testClock()}

	snap, err := svc.Snapshot(context.Background(), domain.UserIdentity("u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(snap.Items))
	}
	// $40/h course at 90 min: $60, not the stale $55 quote.
	if !snap.Items[0].PriceCad.Equal(dec("60")) {
		t.Fatalf("price = %s, want repriced 60", snap.Items[0].PriceCad)
	}
	if !snap.Items[0].TutorEarningsCad.Equal(dec("90")) {
		t.Fatalf("earnings = %s, want 90", snap.Items[0].TutorEarningsCad)
	}
	if !snap.SubtotalCad.Equal(dec("60")) || !snap.TotalCad.Equal(dec("60")) {
		t.Fatalf("subtotal=%s total=%s", snap.SubtotalCad, snap.TotalCad)
	}
	if snap.TotalCents != 6000 {
		t.Fatalf("total cents = %d, want 6000", snap.TotalCents)
	}
	if !strings.HasPrefix(snap.PaymentRef, "pay_") {
		t.Fatalf("payment ref %q missing prefix", snap.PaymentRef)
	}
	if store.saved == nil || store.saved.PaymentRef != snap.PaymentRef {
		t.Fatal("snapshot not persisted under its payment ref")
	}
}

func TestSnapshotAppliesCoupon(t *testing.T) {
	code := "SUMMER10"
	cart := filledCart()
	cart.CouponCode = &code
	coupons := &stubCoupons{coupon: &domain.Coupon{Code: code, Type: domain.CouponPercentage, Value: dec("10"), Active: true}}
	svc := &Service{carts: &stubCarts{cart: cart}, catalog: testCatalog(), coupons: coupons, repo: &stubStore{}, clock: testClock()}

	snap, err := svc.Snapshot(context.Background(), domain.UserIdentity("u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.DiscountCad.Equal(dec("6")) {
		t.Fatalf("discount = %s, want 6", snap.DiscountCad)
	}
	if !snap.TotalCad.Equal(dec("54")) {
		t.Fatalf("total = %s, want 54", snap.TotalCad)
	}
	if snap.TotalCents != 5400 {
		t.Fatalf("total cents = %d, want 5400", snap.TotalCents)
	}
}

func TestSnapshotEmptyCart(t *testing.T) {
	svc := &Service{carts: &stubCarts{cart: &domain.Cart{ID: "cart"}}, catalog: testCatalog(), coupons: &stubCoupons{}, repo: &stubStore{}, clock: testClock()}
	_, err := svc.Snapshot(context.Background(), domain.UserIdentity("u1"))
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestSnapshotInvalidCouponFails(t *testing.T) {
	code := "DEAD"
	cart := filledCart()
	cart.CouponCode = &code
	store := &stubStore{}
	svc := &Service{carts: &stubCarts{cart: cart}, catalog: testCatalog(), coupons: &stubCoupons{err: domain.ErrCouponLimitReached}, repo: store, clock: testClock()}

	_, err := svc.Snapshot(context.Background(), domain.UserIdentity("u1"))
	if !errors.Is(err, domain.ErrCouponLimitReached) {
		t.Fatalf("expected ErrCouponLimitReached, got %v", err)
	}
	if store.saved != nil {
		t.Fatal("failed snapshot must not be persisted")
	}
}

func TestSnapshotMissingCourseFails(t *testing.T) {
	catalog := testCatalog()
	delete(catalog.courses, "course")
	svc := &Service{carts: &stubCarts{cart: filledCart()}, catalog: catalog, coupons: &stubCoupons{}, repo: &stubStore{}, clock: testClock()}
	_, err := svc.Snapshot(context.Background(), domain.UserIdentity("u1"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetSnapshot(t *testing.T) {
	stored := &domain.ReservationSnapshot{PaymentRef: "pay_x", TotalCents: 5400}
	svc := &Service{repo: &stubStore{stored: stored}}
	got, err := svc.GetSnapshot(context.Background(), "pay_x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PaymentRef != "pay_x" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}
