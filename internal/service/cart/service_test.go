package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"tutormarket/internal/clock"
	"tutormarket/internal/domain"
	cartrepo "tutormarket/internal/repository/cart"

	"github.com/shopspring/decimal"
)

type stubRepo struct {
	cart           *domain.Cart
	cartErr        error
	addedItem      *domain.CartItem
	addItemErr     error
	lastAddInput   cartrepo.AddItemInput
	batchResult    cartrepo.BatchResult
	batchErr       error
	lastBatchInput cartrepo.BatchInput
	removeErr      error
	lastRemoveID   string
	lastCoupon     *string
	couponSet      bool
	purged         int64
	purgeCalls     int
	extended       int64
	lastExtendAt   time.Time
	mergeResult    cartrepo.MergeResult
	lastMergeSess  string
	lastMergeUser  string
}

func (s *stubRepo) GetOrCreate(_ context.Context, owner domain.Identity) (*domain.Cart, error) {
	if s.cart != nil {
		return s.cart, nil
	}
	return &domain.Cart{ID: "new-cart", Owner: owner}, nil
}

func (s *stubRepo) GetWithItems(_ context.Context, _ domain.Identity) (*domain.Cart, error) {
	if s.cartErr != nil {
		return nil, s.cartErr
	}
	return s.cart, nil
}

func (s *stubRepo) AddItem(_ context.Context, in cartrepo.AddItemInput) (*domain.CartItem, error) {
	s.lastAddInput = in
	return s.addedItem, s.addItemErr
}

func (s *stubRepo) AddItemsBatch(_ context.Context, in cartrepo.BatchInput) (cartrepo.BatchResult, error) {
	s.lastBatchInput = in
	return s.batchResult, s.batchErr
}

func (s *stubRepo) RemoveItem(_ context.Context, _ domain.Identity, itemID string) error {
	s.lastRemoveID = itemID
	return s.removeErr
}

func (s *stubRepo) SetCoupon(_ context.Context, _ domain.Identity, code *string) error {
	s.lastCoupon = code
	s.couponSet = true
	return nil
}

func (s *stubRepo) PurgeUnavailable(_ context.Context, _ domain.Identity, _ time.Time) (int64, error) {
	s.purgeCalls++
	return s.purged, nil
}

func (s *stubRepo) ExtendHolds(_ context.Context, _ domain.Identity, expiresAt, _ time.Time) (int64, error) {
	s.lastExtendAt = expiresAt
	return s.extended, nil
}

func (s *stubRepo) MergeFromSession(_ context.Context, sessionID, userID string) (cartrepo.MergeResult, error) {
	s.lastMergeSess = sessionID
	s.lastMergeUser = userID
	return s.mergeResult, nil
}

type stubCatalog struct {
	course    *domain.Course
	courseErr error
	tutor     *domain.Tutor
	tutorErr  error
}

func (s *stubCatalog) GetCourse(_ context.Context, _ string) (*domain.Course, error) {
	return s.course, s.courseErr
}

func (s *stubCatalog) GetTutor(_ context.Context, _ string) (*domain.Tutor, error) {
	return s.tutor, s.tutorErr
}

type stubCoupons struct {
	coupon   *domain.Coupon
	err      error
	lastCode string
}

func (s *stubCoupons) ValidateCode(_ context.Context, code string) (*domain.Coupon, error) {
	s.lastCode = code
	return s.coupon, s.err
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testClock() *clock.Fixed {
	return &clock.Fixed{Time: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func testCatalog() *stubCatalog {
	return &stubCatalog{
		course: &domain.Course{ID: "course", StudentRateCad: dec("40"), Active: true},
		tutor:  &domain.Tutor{ID: "tutor", HourlyBaseRateCad: dec("60"), Active: true},
	}
}

func newService(repo *stubRepo, catalog *stubCatalog, coupons *stubCoupons, clk clock.Clock) *Service {
	return &Service{repo: repo, catalog: catalog, coupons: coupons, clock: clk, holdTTL: 15 * time.Minute}
}

func TestAddItemPricesFromCatalog(t *testing.T) {
	repo := &stubRepo{addedItem: &domain.CartItem{ID: "item"}}
	clk := testClock()
	svc := newService(repo, testCatalog(), &stubCoupons{}, clk)

	start := clk.Time.Add(48 * time.Hour)
	item, err := svc.AddItem(context.Background(), domain.UserIdentity("u1"), "course", SessionInput{
		TutorID: "tutor", StartAt: start, DurationMin: 90,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID != "item" {
		t.Fatalf("unexpected item: %+v", item)
	}
	// $40/h course rate at 90 minutes quotes $60.
	if !repo.lastAddInput.UnitPriceCad.Equal(dec("60")) {
		t.Fatalf("unit price = %s, want 60", repo.lastAddInput.UnitPriceCad)
	}
	if !repo.lastAddInput.HoldExpiresAt.Equal(clk.Time.Add(15 * time.Minute)) {
		t.Fatalf("hold expiry = %v, want now+TTL", repo.lastAddInput.HoldExpiresAt)
	}
}

func TestAddItemInvalidDuration(t *testing.T) {
	svc := newService(&stubRepo{}, testCatalog(), &stubCoupons{}, testClock())
	_, err := svc.AddItem(context.Background(), domain.UserIdentity("u1"), "course", SessionInput{
		TutorID: "tutor", StartAt: time.Now(), DurationMin: 75,
	})
	if !errors.Is(err, domain.ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestAddItemInactiveCourse(t *testing.T) {
	catalog := testCatalog()
	catalog.course = nil
	catalog.courseErr = domain.ErrInactive
	svc := newService(&stubRepo{}, catalog, &stubCoupons{}, testClock())
	_, err := svc.AddItem(context.Background(), domain.UserIdentity("u1"), "course", SessionInput{
		TutorID: "tutor", StartAt: time.Now(), DurationMin: 60,
	})
	if !errors.Is(err, domain.ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestAddItemSlotConflictSurfaces(t *testing.T) {
	repo := &stubRepo{addItemErr: domain.ErrSlotUnavailable}
	svc := newService(repo, testCatalog(), &stubCoupons{}, testClock())
	_, err := svc.AddItem(context.Background(), domain.SessionIdentity("s1"), "course", SessionInput{
		TutorID: "tutor", StartAt: time.Now(), DurationMin: 60,
	})
	if !errors.Is(err, domain.ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestAddItemsBatchPricesEverySession(t *testing.T) {
	repo := &stubRepo{batchResult: cartrepo.BatchResult{Added: 3, Skipped: 2}}
	svc := newService(repo, testCatalog(), &stubCoupons{}, testClock())

	sessions := []SessionInput{
		{TutorID: "tutor", StartAt: time.Now(), DurationMin: 60},
		{TutorID: "tutor", StartAt: time.Now().Add(time.Hour), DurationMin: 90},
		{TutorID: "tutor", StartAt: time.Now().Add(2 * time.Hour), DurationMin: 120},
	}
	res, err := svc.AddItemsBatch(context.Background(), domain.UserIdentity("u1"), "course", sessions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Added != 3 || res.Skipped != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	got := repo.lastBatchInput.Sessions
	if len(got) != 3 {
		t.Fatalf("expected 3 priced sessions, got %d", len(got))
	}
	wantPrices := []string{"40", "60", "80"}
	for i, want := range wantPrices {
		if !got[i].UnitPriceCad.Equal(dec(want)) {
			t.Fatalf("session %d price = %s, want %s", i, got[i].UnitPriceCad, want)
		}
	}
}

func TestAddItemsBatchRejectsInvalidDuration(t *testing.T) {
	svc := newService(&stubRepo{}, testCatalog(), &stubCoupons{}, testClock())
	_, err := svc.AddItemsBatch(context.Background(), domain.UserIdentity("u1"), "course", []SessionInput{
		{TutorID: "tutor", StartAt: time.Now(), DurationMin: 45},
	})
	if !errors.Is(err, domain.ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestRemoveItemForwards(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo, testCatalog(), &stubCoupons{}, testClock())
	if err := svc.RemoveItem(context.Background(), domain.UserIdentity("u1"), "item-9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastRemoveID != "item-9" {
		t.Fatalf("remove not forwarded: %q", repo.lastRemoveID)
	}
}

func TestRemoveItemForeignReadsAsNotFound(t *testing.T) {
	repo := &stubRepo{removeErr: domain.ErrNotFound}
	svc := newService(repo, testCatalog(), &stubCoupons{}, testClock())
	err := svc.RemoveItem(context.Background(), domain.UserIdentity("u1"), "other-item")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAttachCouponNormalizesCode(t *testing.T) {
	repo := &stubRepo{}
	coupons := &stubCoupons{coupon: &domain.Coupon{ID: "c1", Code: "SUMMER10", Type: domain.CouponPercentage, Value: dec("10"), Active: true}}
	svc := newService(repo, testCatalog(), coupons, testClock())

	c, err := svc.AttachCoupon(context.Background(), domain.UserIdentity("u1"), "  summer10 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Code != "SUMMER10" {
		t.Fatalf("unexpected coupon: %+v", c)
	}
	if repo.lastCoupon == nil || *repo.lastCoupon != "SUMMER10" {
		t.Fatalf("stored code = %v, want SUMMER10", repo.lastCoupon)
	}
}

func TestAttachCouponInvalidNotStored(t *testing.T) {
	repo := &stubRepo{}
	coupons := &stubCoupons{err: domain.ErrCouponExpired}
	svc := newService(repo, testCatalog(), coupons, testClock())

	_, err := svc.AttachCoupon(context.Background(), domain.UserIdentity("u1"), "OLD")
	if !errors.Is(err, domain.ErrCouponExpired) {
		t.Fatalf("expected ErrCouponExpired, got %v", err)
	}
	if repo.couponSet {
		t.Fatal("invalid coupon must not be stored")
	}
}

func TestDetachCoupon(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo, testCatalog(), &stubCoupons{}, testClock())
	if err := svc.DetachCoupon(context.Background(), domain.UserIdentity("u1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.couponSet || repo.lastCoupon != nil {
		t.Fatal("expected coupon cleared")
	}
}

func TestViewRepairsBeforeReading(t *testing.T) {
	repo := &stubRepo{cart: &domain.Cart{ID: "cart", Items: []domain.CartItem{{ID: "i1"}}}}
	svc := newService(repo, testCatalog(), &stubCoupons{}, testClock())

	cart, err := svc.View(context.Background(), domain.UserIdentity("u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.purgeCalls != 1 {
		t.Fatalf("expected one repair pass, got %d", repo.purgeCalls)
	}
	if cart.ID != "cart" {
		t.Fatalf("unexpected cart: %+v", cart)
	}
}

func TestViewCreatesCartLazily(t *testing.T) {
	repo := &stubRepo{cartErr: domain.ErrNotFound}
	svc := newService(repo, testCatalog(), &stubCoupons{}, testClock())

	cart, err := svc.View(context.Background(), domain.SessionIdentity("s1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.ID != "new-cart" {
		t.Fatalf("expected lazily created cart, got %+v", cart)
	}
}

func TestTotalsWithCoupon(t *testing.T) {
	code := "SUMMER10"
	cart := &domain.Cart{
		CouponCode: &code,
		Items: []domain.CartItem{
			{UnitPriceCad: dec("60")},
		},
	}
	coupons := &stubCoupons{coupon: &domain.Coupon{Code: code, Type: domain.CouponPercentage, Value: dec("10"), Active: true}}
	svc := newService(&stubRepo{}, testCatalog(), coupons, testClock())

	subtotal, discount, total, err := svc.Totals(context.Background(), cart)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if !subtotal.Equal(dec("60")) || !discount.Equal(dec("6")) || !total.Equal(dec("54")) {
		t.Fatalf("got subtotal=%s discount=%s total=%s", subtotal, discount, total)
	}
}

func TestTotalsInvalidCouponNoDiscount(t *testing.T) {
	code := "DEAD"
	cart := &domain.Cart{
		CouponCode: &code,
		Items:      []domain.CartItem{{UnitPriceCad: dec("100")}},
	}
	coupons := &stubCoupons{err: domain.ErrCouponInactive}
	svc := newService(&stubRepo{}, testCatalog(), coupons, testClock())

	_, discount, total, err := svc.Totals(context.Background(), cart)
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if !discount.IsZero() || !total.Equal(dec("100")) {
		t.Fatalf("got discount=%s total=%s", discount, total)
	}
}

func TestTotalsCouponLookupFailure(t *testing.T) {
	code := "SUMMER10"
	cart := &domain.Cart{
		CouponCode: &code,
		Items:      []domain.CartItem{{UnitPriceCad: dec("100")}},
	}
	lookupErr := errors.New("validate coupon: connection refused")
	coupons := &stubCoupons{err: lookupErr}
	svc := newService(&stubRepo{}, testCatalog(), coupons, testClock())

	_, _, _, err := svc.Totals(context.Background(), cart)
	if !errors.Is(err, lookupErr) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestExtendAllHoldsUsesTTL(t *testing.T) {
	repo := &stubRepo{extended: 2}
	clk := testClock()
	svc := newService(repo, testCatalog(), &stubCoupons{}, clk)

	n, err := svc.ExtendAllHolds(context.Background(), domain.UserIdentity("u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("extended = %d, want 2", n)
	}
	if !repo.lastExtendAt.Equal(clk.Time.Add(15 * time.Minute)) {
		t.Fatalf("extend expiry = %v", repo.lastExtendAt)
	}
}

func TestMergeFromSessionForwards(t *testing.T) {
	repo := &stubRepo{mergeResult: cartrepo.MergeResult{Moved: 2, Skipped: 1}}
	svc := newService(repo, testCatalog(), &stubCoupons{}, testClock())

	res, err := svc.MergeFromSession(context.Background(), "sess-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Moved != 2 || res.Skipped != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if repo.lastMergeSess != "sess-1" || repo.lastMergeUser != "user-1" {
		t.Fatalf("merge args not forwarded")
	}
}
