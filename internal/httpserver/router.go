package httpserver

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"tutormarket/internal/domain"
	"tutormarket/internal/repository/appointment"
	cartrepo "tutormarket/internal/repository/cart"
	cartsvc "tutormarket/internal/service/cart"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// IdentityService mints anonymous sessions and resolves their tokens.
type IdentityService interface {
	Issue(ctx context.Context) (token, sessionID string, err error)
	Resolve(ctx context.Context, token string) (domain.Identity, error)
	TTLSeconds() int
}

// CartService is the cart surface the handlers consume.
type CartService interface {
	View(ctx context.Context, owner domain.Identity) (*domain.Cart, error)
	Totals(ctx context.Context, cart *domain.Cart) (subtotal, discount, total decimal.Decimal, err error)
	AddItem(ctx context.Context, owner domain.Identity, courseID string, session cartsvc.SessionInput) (*domain.CartItem, error)
	AddItemsBatch(ctx context.Context, owner domain.Identity, courseID string, sessions []cartsvc.SessionInput) (cartrepo.BatchResult, error)
	RemoveItem(ctx context.Context, owner domain.Identity, itemID string) error
	AttachCoupon(ctx context.Context, owner domain.Identity, code string) (*domain.Coupon, error)
	DetachCoupon(ctx context.Context, owner domain.Identity) error
	ExtendAllHolds(ctx context.Context, owner domain.Identity) (int64, error)
	MergeFromSession(ctx context.Context, sessionID, userID string) (cartrepo.MergeResult, error)
}

// CheckoutService produces and serves reservation snapshots.
type CheckoutService interface {
	Snapshot(ctx context.Context, owner domain.Identity) (*domain.ReservationSnapshot, error)
	GetSnapshot(ctx context.Context, paymentRef string) (*domain.ReservationSnapshot, error)
}

// HoldService answers slot availability queries.
type HoldService interface {
	Available(ctx context.Context, tutorID string, startAt time.Time, durationMin int) (bool, error)
	FilterUnavailable(ctx context.Context, slots []appointment.Slot) ([]appointment.Slot, error)
}

// CatalogRepo is the read-only course listing the API exposes.
type CatalogRepo interface {
	ListCourses(ctx context.Context) ([]domain.Course, error)
}

// Deps carries the wired services for route construction.
type Deps struct {
	IdentitySvc IdentityService
	CartSvc     CartService
	CheckoutSvc CheckoutService
	HoldSvc     HoldService
	CatalogRepo CatalogRepo
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps, corsOrigins string) (*gin.Engine, error) {
	if deps.IdentitySvc == nil || deps.CartSvc == nil || deps.CheckoutSvc == nil {
		return nil, errors.New("httpserver: missing service dependencies")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if corsOrigins == "" || corsOrigins == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = strings.Split(corsOrigins, ",")
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-User-ID")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.POST("/sessions/anonymous", issueSessionHandler(deps.IdentitySvc))
	if deps.CatalogRepo != nil {
		router.GET("/courses", listCoursesHandler(deps.CatalogRepo))
	}
	if deps.HoldSvc != nil {
		router.GET("/tutors/:tutorID/availability", checkAvailabilityHandler(deps.HoldSvc))
		router.POST("/tutors/:tutorID/availability", checkAvailabilityBatchHandler(deps.HoldSvc))
	}

	// The settlement webhook fetches snapshots by payment reference after
	// the shopper is gone, so this route is outside the identity scope.
	router.GET("/checkout/snapshots/:paymentRef", getSnapshotHandler(deps.CheckoutSvc))

	authed := router.Group("/", identityMiddleware(deps.IdentitySvc))
	{
		authed.GET("/cart", getCartHandler(deps.CartSvc))
		authed.POST("/cart/items", addItemHandler(deps.CartSvc))
		authed.POST("/cart/items/batch", addItemsBatchHandler(deps.CartSvc))
		authed.DELETE("/cart/items/:itemID", removeItemHandler(deps.CartSvc))
		authed.POST("/cart/coupon", attachCouponHandler(deps.CartSvc))
		authed.DELETE("/cart/coupon", detachCouponHandler(deps.CartSvc))
		authed.POST("/cart/extend", extendHoldsHandler(deps.CartSvc))
		authed.POST("/cart/merge", mergeCartHandler(deps.CartSvc, deps.IdentitySvc))
		authed.POST("/checkout/snapshot", createSnapshotHandler(deps.CheckoutSvc))
	}

	return router, nil
}
