package cart

import (
	"context"
	"time"

	"tutormarket/internal/domain"

	"github.com/shopspring/decimal"
)

// AddItemInput describes one slot being added to the owner's cart. The
// hold and the item are written in a single transaction; neither can exist
// without the other.
type AddItemInput struct {
	Owner        domain.Identity
	CourseID     string
	TutorID      string
	StartAt      time.Time
	DurationMin  int
	UnitPriceCad decimal.Decimal
	// HoldExpiresAt is now + TTL, from the caller's clock.
	HoldExpiresAt time.Time
	Now           time.Time
}

// BatchSession is one candidate session in a batch add.
type BatchSession struct {
	TutorID      string
	StartAt      time.Time
	DurationMin  int
	UnitPriceCad decimal.Decimal
}

// BatchInput describes a best-effort multi-session add for one course.
type BatchInput struct {
	Owner         domain.Identity
	CourseID      string
	Sessions      []BatchSession
	HoldExpiresAt time.Time
	Now           time.Time
}

// BatchResult reports partial success; callers must not assume every
// requested session was added.
type BatchResult struct {
	Added   int `json:"addedCount"`
	Skipped int `json:"skippedCount"`
}

// MergeResult reports how a guest cart was folded into a user cart.
type MergeResult struct {
	Moved   int `json:"movedCount"`
	Skipped int `json:"skippedCount"`
}

type Repository interface {
	// GetOrCreate returns the owner's cart, creating it lazily. Items are
	// not loaded.
	GetOrCreate(ctx context.Context, owner domain.Identity) (*domain.Cart, error)
	// GetWithItems returns the owner's cart and its items, or ErrNotFound.
	GetWithItems(ctx context.Context, owner domain.Identity) (*domain.Cart, error)
	// AddItem writes the hold and the cart item atomically. Fails with
	// domain.ErrDuplicateItem or domain.ErrSlotUnavailable.
	AddItem(ctx context.Context, in AddItemInput) (*domain.CartItem, error)
	// AddItemsBatch filters duplicates and conflicts set-wise, then commits
	// the surviving sessions (hold + item each) in one transaction.
	AddItemsBatch(ctx context.Context, in BatchInput) (BatchResult, error)
	// RemoveItem deletes the item and releases its hold in one transaction.
	// Items outside the owner's cart surface as ErrNotFound.
	RemoveItem(ctx context.Context, owner domain.Identity, itemID string) error
	// SetCoupon attaches (non-nil) or detaches (nil) a coupon code.
	SetCoupon(ctx context.Context, owner domain.Identity, code *string) error
	// PurgeUnavailable removes items whose hold is gone, expired, or owned
	// elsewhere, and items whose slot now overlaps a confirmed appointment,
	// releasing the paired holds in the same transaction.
	PurgeUnavailable(ctx context.Context, owner domain.Identity, now time.Time) (int64, error)
	// ExtendHolds refreshes the expiry of every hold backing the owner's
	// current items and returns how many were extended.
	ExtendHolds(ctx context.Context, owner domain.Identity, expiresAt, now time.Time) (int64, error)
	// MergeFromSession re-homes a guest session cart into the user's cart
	// with best-effort semantics: duplicate slots are dropped, everything
	// else (items, holds, coupon if the user has none) moves across.
	MergeFromSession(ctx context.Context, sessionID, userID string) (MergeResult, error)
}
