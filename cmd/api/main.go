package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tutormarket/internal/clock"
	"tutormarket/internal/config"
	"tutormarket/internal/db"
	"tutormarket/internal/httpserver"
	appointmentrepo "tutormarket/internal/repository/appointment"
	cartrepo "tutormarket/internal/repository/cart"
	catalogrepo "tutormarket/internal/repository/catalog"
	checkoutrepo "tutormarket/internal/repository/checkout"
	couponrepo "tutormarket/internal/repository/coupon"
	holdrepo "tutormarket/internal/repository/hold"
	cartsvc "tutormarket/internal/service/cart"
	checkoutsvc "tutormarket/internal/service/checkout"
	couponsvc "tutormarket/internal/service/coupon"
	holdsvc "tutormarket/internal/service/hold"
	identitysvc "tutormarket/internal/service/identity"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	clk := clock.System()

	catalogRepo := catalogrepo.NewPostgres(dbpool)
	appointmentRepo := appointmentrepo.NewPostgres(dbpool)
	holdRepo := holdrepo.NewPostgres(dbpool)
	cartRepo := cartrepo.NewPostgres(dbpool)
	couponRepo := couponrepo.NewPostgres(dbpool)
	checkoutRepo := checkoutrepo.NewPostgres(dbpool)

	holdService := holdsvc.New(holdRepo, appointmentRepo, clk, cfg.HoldTTL)
	couponService := couponsvc.New(couponRepo, clk)
	cartService := cartsvc.New(cartRepo, catalogRepo, couponService, clk, cfg.HoldTTL)
	checkoutService := checkoutsvc.New(cartService, catalogRepo, couponService, checkoutRepo, clk)
	identityService := identitysvc.New(cfg.AnonSessionTTL)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		IdentitySvc: identityService,
		CartSvc:     cartService,
		CheckoutSvc: checkoutService,
		HoldSvc:     holdService,
		CatalogRepo: catalogRepo,
	}, cfg.CORSAllowOrigins)
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	janitorCtx, janitorCancel := context.WithCancel(ctx)
	defer janitorCancel()
	go runHoldJanitor(janitorCtx, logger, holdService, cfg.HoldTTL)

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	janitorCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

// runHoldJanitor sweeps expired slot holds in the background. Expiry is
// already enforced at read and acquire time, so the sweep only keeps the
// table from accumulating garbage.
func runHoldJanitor(ctx context.Context, logger *log.Logger, holds *holdsvc.Service, ttl time.Duration) {
	interval := ttl / 3
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := holds.ReapExpired(ctx)
			if err != nil {
				logger.Printf("hold janitor: %v", err)
				continue
			}
			if removed > 0 {
				logger.Printf("hold janitor removed %d expired holds", removed)
			}
		}
	}
}
