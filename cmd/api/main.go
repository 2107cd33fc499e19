package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/payments"
	addressrepo "storefront/internal/repository/address"
	cartrepo "storefront/internal/repository/cart"
	couponrepo "storefront/internal/repository/coupon"
	itemrepo "storefront/internal/repository/item"
	refundrepo "storefront/internal/repository/refund"
	tokenrepo "storefront/internal/repository/token"
	userrepo "storefront/internal/repository/user"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	checkoutsvc "storefront/internal/service/checkout"
	customersvc "storefront/internal/service/customer"
	paymentsvc "storefront/internal/service/payment"
	refundsvc "storefront/internal/service/refund"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	itemRepo := itemrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool, logger)
	addressRepo := addressrepo.NewPostgres(dbpool)
	couponRepo := couponrepo.NewPostgres(dbpool)
	refundRepo := refundrepo.NewPostgres(dbpool)
	userRepo := userrepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool)

	cardGateway, err := payments.NewStripeGateway(cfg.StripeSecretKey, cfg.GatewayTimeout, logger)
	if err != nil {
		logger.Fatalf("init card gateway: %v", err)
	}
	redirectGateway, err := payments.NewSSLCommerzGateway(cfg.SSLCEndpoint, cfg.SSLCStoreID, cfg.SSLCStorePass, cfg.GatewayTimeout, logger)
	if err != nil {
		logger.Fatalf("init redirect gateway: %v", err)
	}

	catalogService := catalogsvc.New(itemRepo)
	cartService := cartsvc.New(cartRepo, itemRepo, couponRepo, cfg.CouponFloorAtZero)
	checkoutService := checkoutsvc.New(cartRepo, addressRepo)
	paymentService := paymentsvc.New(cartRepo, userRepo, addressRepo, cardGateway, redirectGateway, cfg.CouponFloorAtZero, cfg.PublicBaseURL, logger)
	refundService := refundsvc.New(refundRepo)
	customerService := customersvc.New(userRepo, tokenRepo)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Catalog:    catalogService,
		Cart:       cartService,
		Checkout:   checkoutService,
		Payments:   paymentService,
		Refunds:    refundService,
		Customers:  customerService,
		AdminToken: cfg.AdminToken,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
