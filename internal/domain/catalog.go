package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Course is a catalog entry with the student-facing hourly rate.
type Course struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	StudentRateCad decimal.Decimal `json:"studentRateCad"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Tutor is a catalog entry with the tutor's own hourly payout rate.
// The course rate and tutor rate are independent; the platform margin
// is their difference.
type Tutor struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	HourlyBaseRateCad decimal.Decimal `json:"hourlyBaseRateCad"`
	Active            bool            `json:"active"`
	CreatedAt         time.Time       `json:"createdAt"`
}
