package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotItem is one line of a reservation snapshot, priced from current
// catalog rates at snapshot time.
type SnapshotItem struct {
	CourseID         string          `json:"courseId"`
	TutorID          string          `json:"tutorId"`
	StartAt          time.Time       `json:"startAt"`
	DurationMin      int             `json:"durationMin"`
	PriceCad         decimal.Decimal `json:"priceCad"`
	TutorEarningsCad decimal.Decimal `json:"tutorEarningsCad"`
}

// ReservationSnapshot is the immutable handoff payload for the payment and
// settlement boundary. It carries everything the settlement step needs to
// reconstruct appointments and order records without re-reading mutable
// cart state. PaymentRef is the idempotency key for settlement retries.
type ReservationSnapshot struct {
	PaymentRef  string          `json:"paymentRef"`
	Owner       Identity        `json:"-"`
	Items       []SnapshotItem  `json:"items"`
	SubtotalCad decimal.Decimal `json:"subtotalCad"`
	CouponCode  *string         `json:"couponCode,omitempty"`
	DiscountCad decimal.Decimal `json:"discountCad"`
	TotalCad    decimal.Decimal `json:"totalCad"`
	TotalCents  int64           `json:"totalCents"`
	CreatedAt   time.Time       `json:"createdAt"`
}
