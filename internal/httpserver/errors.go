package httpserver

import (
	"errors"
	"net/http"

	"tutormarket/internal/domain"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{StatusCode: status, Message: msg})
}

// writeDomainError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is treated as an infrastructure failure.
func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrSlotUnavailable):
		writeError(c, http.StatusConflict, "slot is no longer available")
	case errors.Is(err, domain.ErrDuplicateItem):
		writeError(c, http.StatusConflict, "session is already in the cart")
	case errors.Is(err, domain.ErrInvalidDuration):
		writeError(c, http.StatusBadRequest, "duration must be 60, 90 or 120 minutes")
	case errors.Is(err, domain.ErrInactive):
		writeError(c, http.StatusBadRequest, "course or tutor is not active")
	case errors.Is(err, domain.ErrCouponInactive):
		writeError(c, http.StatusBadRequest, "coupon is not active")
	case errors.Is(err, domain.ErrCouponExpired):
		writeError(c, http.StatusBadRequest, "coupon has expired")
	case errors.Is(err, domain.ErrCouponLimitReached):
		writeError(c, http.StatusBadRequest, "coupon redemption limit reached")
	case errors.Is(err, domain.ErrEmptyCart):
		writeError(c, http.StatusBadRequest, "cart is empty")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
