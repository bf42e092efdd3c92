package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Appointment statuses. Scheduled and completed appointments permanently
// block overlapping holds; cancelled and refunded ones do not.
const (
	AppointmentScheduled = "scheduled"
	AppointmentCancelled = "cancelled"
	AppointmentCompleted = "completed"
	AppointmentRefunded  = "refunded"
)

// Appointment is a confirmed booking produced by the external settlement
// step. This engine treats appointments as read-only ground truth for
// conflict checks.
type Appointment struct {
	ID               string          `json:"id"`
	TutorID          string          `json:"tutorId"`
	CourseID         string          `json:"courseId"`
	UserID           *string         `json:"userId,omitempty"`
	StartAt          time.Time       `json:"startAt"`
	EndAt            time.Time       `json:"endAt"`
	Status           string          `json:"status"`
	PriceCad         decimal.Decimal `json:"priceCad"`
	TutorEarningsCad decimal.Decimal `json:"tutorEarningsCad"`
	PaymentRef       *string         `json:"paymentRef,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}
