package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is an owner-scoped collection of prospective bookings, created
// lazily on first access. Every item is shadowed 1:1 by a live SlotHold.
type Cart struct {
	ID         string     `json:"id"`
	Owner      Identity   `json:"-"`
	CouponCode *string    `json:"couponCode,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	Items      []CartItem `json:"items,omitempty"`
}

// CartItem is one prospective booking line. Quantity is always 1, so the
// line total equals the unit price captured at add-time.
type CartItem struct {
	ID           string          `json:"id"`
	CartID       string          `json:"cartId"`
	CourseID     string          `json:"courseId"`
	TutorID      string          `json:"tutorId"`
	StartAt      time.Time       `json:"startAt"`
	DurationMin  int             `json:"durationMin"`
	UnitPriceCad decimal.Decimal `json:"unitPriceCad"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// EndAt is the exclusive end of the booked window.
func (i CartItem) EndAt() time.Time {
	return i.StartAt.Add(time.Duration(i.DurationMin) * time.Minute)
}
