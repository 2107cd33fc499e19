package httpserver

import (
	"errors"
	"log"

	"storefront/internal/service/cart"
	"storefront/internal/service/catalog"
	"storefront/internal/service/checkout"
	"storefront/internal/service/customer"
	"storefront/internal/service/payment"
	"storefront/internal/service/refund"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Deps carries the services the handlers depend on.
type Deps struct {
	Catalog    *catalog.Service
	Cart       *cart.Service
	Checkout   *checkout.Service
	Payments   *payment.Service
	Refunds    *refund.Service
	Customers  *customer.Service
	AdminToken string
}

func (d Deps) validate() error {
	if d.Catalog == nil || d.Cart == nil || d.Checkout == nil || d.Payments == nil || d.Refunds == nil || d.Customers == nil {
		return errors.New("httpserver: all services must be set")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.POST("/signup", signupHandler(deps.Customers, logger))
	router.POST("/login", loginHandler(deps.Customers, logger))

	router.GET("/items", listItemsHandler(deps.Catalog, logger))
	router.GET("/items/:slug", getItemHandler(deps.Catalog, logger))
	router.GET("/categories", listCategoriesHandler(deps.Catalog, logger))

	// The IPN endpoint is unauthenticated; the gateway posts here.
	router.POST("/payments/redirect/notify", redirectNotifyHandler(deps.Payments, logger))
	router.Match([]string{"GET", "POST"}, "/payments/redirect/complete", redirectCompleteHandler())

	authed := router.Group("/", authMiddleware(deps.Customers))
	{
		authed.GET("/cart", openCartHandler(deps.Cart, logger))
		authed.POST("/cart/items/:slug", addItemHandler(deps.Cart, logger))
		authed.DELETE("/cart/items/:slug", removeOneHandler(deps.Cart, logger))
		authed.DELETE("/cart/items/:slug/all", removeLineHandler(deps.Cart, logger))
		authed.POST("/cart/coupon", applyCouponHandler(deps.Cart, logger))

		authed.POST("/checkout", checkoutHandler(deps.Checkout, logger))

		authed.GET("/payments/card", savedCardsHandler(deps.Payments, logger))
		authed.POST("/payments/card", cardPaymentHandler(deps.Payments, logger))
		authed.POST("/payments/redirect", startRedirectHandler(deps.Payments, logger))
		authed.POST("/payments/paypal", paypalHandler(deps.Payments, logger))

		authed.POST("/profile/one-click", oneClickHandler(deps.Customers, logger))

		authed.GET("/orders", ordersHandler(deps.Cart, logger))
		authed.POST("/refunds", requestRefundHandler(deps.Refunds, logger))
	}

	admin := router.Group("/", adminMiddleware(deps.AdminToken))
	{
		admin.POST("/orders/:refCode/refund-grant", grantRefundHandler(deps.Refunds, logger))
		admin.POST("/orders/:refCode/delivering", markDeliveringHandler(deps.Cart, logger))
		admin.POST("/orders/:refCode/received", markReceivedHandler(deps.Cart, logger))
	}

	return router, nil
}
