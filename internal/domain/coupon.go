package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CouponType enumerates the supported discount strategies.
type CouponType string

const (
	// CouponPercentage discounts a percentage of the subtotal.
	CouponPercentage CouponType = "percentage"
	// CouponFixed discounts a fixed amount, capped at the subtotal.
	CouponFixed CouponType = "fixed"
)

// Coupon is a discount code. Codes are stored upper-cased; use
// NormalizeCouponCode before any lookup.
type Coupon struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	Type            CouponType      `json:"type"`
	Value           decimal.Decimal `json:"value"`
	Active          bool            `json:"active"`
	ExpiresAt       *time.Time      `json:"expiresAt,omitempty"`
	RedemptionCount int             `json:"redemptionCount"`
	MaxRedemptions  *int            `json:"maxRedemptions,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// NormalizeCouponCode canonicalizes user input for lookup.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
