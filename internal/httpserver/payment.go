package httpserver

import (
	"log"
	"net/http"

	"storefront/internal/payments"
	"storefront/internal/service/payment"
	"github.com/gin-gonic/gin"
)

type cardPaymentRequest struct {
	StripeToken string `json:"stripeToken"`
	Save        bool   `json:"save"`
	UseDefault  bool   `json:"useDefault"`
}

func cardPaymentHandler(svc *payment.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cardPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payment payload"})
			return
		}
		u := currentUser(c)
		cart, err := svc.PayWithCard(c.Request.Context(), u.ID, payment.CardPaymentInput{
			Token:      req.StripeToken,
			Save:       req.Save,
			UseDefault: req.UseDefault,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": cart})
	}
}

// savedCardsHandler lists the card sources available for one-click purchase.
func savedCardsHandler(svc *payment.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		sources, err := svc.SavedCards(c.Request.Context(), u.ID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		if sources == nil {
			sources = []string{}
		}
		c.JSON(http.StatusOK, gin.H{"sources": sources})
	}
}

func startRedirectHandler(svc *payment.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		session, err := svc.StartRedirect(c.Request.Context(), u.ID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"gatewayPageUrl": session.GatewayPageURL})
	}
}

func paypalHandler(svc *payment.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		if err := svc.StartPayPal(c.Request.Context(), u.ID); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// redirectNotifyHandler receives the gateway's form-encoded IPN post. It
// always answers 200 on processable payloads so the gateway stops retrying;
// failed statuses and replays are acknowledged no-ops.
func redirectNotifyHandler(svc *payment.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed form payload"})
			return
		}
		n, err := payments.ParseNotification(c.Request.PostForm)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.HandleRedirectNotification(c.Request.Context(), n); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// redirectCompleteHandler is the customer-facing landing after the hosted
// page. Finalization happens on the IPN path, never here.
func redirectCompleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "received", "detail": "order confirmation follows once the gateway notifies us"})
	}
}
