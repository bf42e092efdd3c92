package httpserver

import (
	"net/http"
	"time"

	"tutormarket/internal/repository/appointment"

	"github.com/gin-gonic/gin"
)

type availabilityQuery struct {
	StartAt     time.Time `form:"startAt" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	DurationMin int       `form:"durationMin" binding:"required"`
}

type availabilityBatchRequest struct {
	Sessions []sessionWindowRequest `json:"sessions" binding:"required,min=1,dive"`
}

type sessionWindowRequest struct {
	StartAt     time.Time `json:"startAt" binding:"required"`
	DurationMin int       `json:"durationMin" binding:"required"`
}

type unavailableSlot struct {
	StartAt     time.Time `json:"startAt"`
	DurationMin int       `json:"durationMin"`
}

func checkAvailabilityHandler(svc HoldService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q availabilityQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			writeError(c, http.StatusBadRequest, "startAt and durationMin are required")
			return
		}
		available, err := svc.Available(c.Request.Context(), c.Param("tutorID"), q.StartAt, q.DurationMin)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"available": available})
	}
}

func checkAvailabilityBatchHandler(svc HoldService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req availabilityBatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid request body")
			return
		}
		tutorID := c.Param("tutorID")
		slots := make([]appointment.Slot, 0, len(req.Sessions))
		for _, s := range req.Sessions {
			slots = append(slots, appointment.Slot{
				TutorID:     tutorID,
				StartAt:     s.StartAt,
				DurationMin: s.DurationMin,
			})
		}
		blocked, err := svc.FilterUnavailable(c.Request.Context(), slots)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		out := make([]unavailableSlot, 0, len(blocked))
		for _, s := range blocked {
			out = append(out, unavailableSlot{StartAt: s.StartAt, DurationMin: s.DurationMin})
		}
		c.JSON(http.StatusOK, gin.H{"unavailable": out})
	}
}
