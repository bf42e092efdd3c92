// Package pricing contains the pure price arithmetic for the booking
// engine. All amounts are exact decimals; binary floats never enter the
// calculation, so repeated additions cannot drift.
package pricing

import (
	"tutormarket/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	multiplier60  = decimal.NewFromInt(1)
	multiplier90  = decimal.RequireFromString("1.5")
	multiplier120 = decimal.NewFromInt(2)

	hundred = decimal.NewFromInt(100)
)

func multiplier(durationMin int) (decimal.Decimal, error) {
	switch durationMin {
	case domain.Duration60:
		return multiplier60, nil
	case domain.Duration90:
		return multiplier90, nil
	case domain.Duration120:
		return multiplier120, nil
	default:
		return decimal.Zero, domain.ErrInvalidDuration
	}
}

// StudentPrice maps the course's hourly rate and a session duration to the
// price the student pays for one session.
func StudentPrice(courseRate decimal.Decimal, durationMin int) (decimal.Decimal, error) {
	m, err := multiplier(durationMin)
	if err != nil {
		return decimal.Zero, err
	}
	return courseRate.Mul(m), nil
}

// TutorEarnings maps the tutor's own hourly rate and a session duration to
// the tutor's payout for one session. The course rate and tutor rate are
// independent; the platform margin is their difference.
func TutorEarnings(tutorBaseRate decimal.Decimal, durationMin int) (decimal.Decimal, error) {
	m, err := multiplier(durationMin)
	if err != nil {
		return decimal.Zero, err
	}
	return tutorBaseRate.Mul(m), nil
}

// OrderTotal sums line totals and applies an optional coupon discount.
// Percentage coupons take value% off the subtotal; fixed coupons subtract
// their value capped at the subtotal, so the total never goes negative.
func OrderTotal(lineTotals []decimal.Decimal, couponType *domain.CouponType, couponValue decimal.Decimal) (subtotal, discount, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, lt := range lineTotals {
		subtotal = subtotal.Add(lt)
	}

	discount = decimal.Zero
	if couponType != nil {
		switch *couponType {
		case domain.CouponPercentage:
			discount = subtotal.Mul(couponValue).Div(hundred)
		case domain.CouponFixed:
			discount = decimal.Min(couponValue, subtotal)
		}
	}

	return subtotal, discount, subtotal.Sub(discount)
}

// Cents converts an exact decimal amount to minor currency units, rounding
// half away from zero, for the payment processor boundary.
func Cents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
