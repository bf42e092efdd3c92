package httpserver

import (
	"net/http"
	"time"

	"tutormarket/internal/domain"
	cartsvc "tutormarket/internal/service/cart"

	"github.com/gin-gonic/gin"
)

type sessionInputRequest struct {
	TutorID     string    `json:"tutorId" binding:"required"`
	StartAt     time.Time `json:"startAt" binding:"required"`
	DurationMin int       `json:"durationMin" binding:"required"`
}

type addItemRequest struct {
	CourseID string              `json:"courseId" binding:"required"`
	Session  sessionInputRequest `json:"session" binding:"required"`
}

type addItemsBatchRequest struct {
	CourseID string                `json:"courseId" binding:"required"`
	Sessions []sessionInputRequest `json:"sessions" binding:"required,min=1,dive"`
}

type couponRequest struct {
	Code string `json:"code" binding:"required"`
}

type mergeRequest struct {
	SessionToken string `json:"sessionToken" binding:"required"`
}

type cartResponse struct {
	ID         string             `json:"id"`
	CouponCode *string            `json:"couponCode,omitempty"`
	Items      []cartItemResponse `json:"items"`
	Subtotal   string             `json:"subtotal"`
	Discount   string             `json:"discount"`
	Total      string             `json:"total"`
	CreatedAt  time.Time          `json:"createdAt"`
}

type cartItemResponse struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"courseId"`
	TutorID     string    `json:"tutorId"`
	StartAt     time.Time `json:"startAt"`
	EndAt       time.Time `json:"endAt"`
	DurationMin int       `json:"durationMin"`
	UnitPrice   string    `json:"unitPrice"`
}

func toCartResponse(cart *domain.Cart, subtotal, discount, total string) cartResponse {
	items := make([]cartItemResponse, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, cartItemResponse{
			ID:          it.ID,
			CourseID:    it.CourseID,
			TutorID:     it.TutorID,
			StartAt:     it.StartAt,
			EndAt:       it.EndAt(),
			DurationMin: it.DurationMin,
			UnitPrice:   it.UnitPriceCad.StringFixed(2),
		})
	}
	return cartResponse{
		ID:         cart.ID,
		CouponCode: cart.CouponCode,
		Items:      items,
		Subtotal:   subtotal,
		Discount:   discount,
		Total:      total,
		CreatedAt:  cart.CreatedAt,
	}
}

func getCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := callerIdentity(c)
		if !ok {
			writeError(c, http.StatusUnauthorized, "missing credentials")
			return
		}
		cart, err := svc.View(c.Request.Context(), ident)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		sub, disc, total, err := svc.Totals(c.Request.Context(), cart)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(cart, sub.StringFixed(2), disc.StringFixed(2), total.StringFixed(2)))
	}
}

func addItemHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := callerIdentity(c)
		if !ok {
			writeError(c, http.StatusUnauthorized, "missing credentials")
			return
		}
		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid request body")
			return
		}
		item, err := svc.AddItem(c.Request.Context(), ident, req.CourseID, cartsvc.SessionInput{
			TutorID:     req.Session.TutorID,
			StartAt:     req.Session.StartAt,
			DurationMin: req.Session.DurationMin,
		})
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, cartItemResponse{
			ID:          item.ID,
			CourseID:    item.CourseID,
			TutorID:     item.TutorID,
			StartAt:     item.StartAt,
			EndAt:       item.EndAt(),
			DurationMin: item.DurationMin,
			UnitPrice:   item.UnitPriceCad.StringFixed(2),
		})
	}
}

func addItemsBatchHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := callerIdentity(c)
		if !ok {
			writeError(c, http.StatusUnauthorized, "missing credentials")
			return
		}
		var req addItemsBatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid request body")
			return
		}
		sessions := make([]cartsvc.SessionInput, 0, len(req.Sessions))
		for _, s := range req.Sessions {
			sessions = append(sessions, cartsvc.SessionInput{
				TutorID:     s.TutorID,
				StartAt:     s.StartAt,
				DurationMin: s.DurationMin,
			})
		}
		result, err := svc.AddItemsBatch(c.Request.Context(), ident, req.CourseID, sessions)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func removeItemHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := callerIdentity(c)
		if !ok {
			writeError(c, http.StatusUnauthorized, "missing credentials")
			return
		}
		if err := svc.RemoveItem(c.Request.Context(), ident, c.Param("itemID")); err != nil {
			writeDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func attachCouponHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := callerIdentity(c)
		if !ok {
			writeError(c, http.StatusUnauthorized, "missing credentials")
			return
		}
		var req couponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid request body")
			return
		}
		coupon, err := svc.AttachCoupon(c.Request.Context(), ident, req.Code)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": coupon.Code, "type": coupon.Type})
	}
}

func detachCouponHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := callerIdentity(c)
		if !ok {
			writeError(c, http.StatusUnauthorized, "missing credentials")
			return
		}
		if err := svc.DetachCoupon(c.Request.Context(), ident); err != nil {
			writeDomainError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func extendHoldsHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := callerIdentity(c)
		if !ok {
			writeError(c, http.StatusUnauthorized, "missing credentials")
			return
		}
		extended, err := svc.ExtendAllHolds(c.Request.Context(), ident)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"extendedCount": extended})
	}
}

// mergeCartHandler folds an anonymous session's cart into the calling
// user's cart. It requires a user identity plus the session's token.
func mergeCartHandler(svc CartService, identitySvc IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := callerIdentity(c)
		if !ok || ident.UserID == nil {
			writeError(c, http.StatusUnauthorized, "merge requires a user identity")
			return
		}
		var req mergeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid request body")
			return
		}
		guest, err := identitySvc.Resolve(c.Request.Context(), req.SessionToken)
		if err != nil || guest.SessionID == nil {
			writeError(c, http.StatusUnauthorized, "invalid or expired session token")
			return
		}
		result, err := svc.MergeFromSession(c.Request.Context(), *guest.SessionID, *ident.UserID)
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"movedCount": result.Moved, "skippedCount": result.Skipped})
	}
}
