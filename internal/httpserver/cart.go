package httpserver

import (
	"log"
	"net/http"

	"storefront/internal/service/cart"
	"github.com/gin-gonic/gin"
)

func openCartHandler(svc *cart.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		summary, err := svc.OpenCart(c.Request.Context(), u.ID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func addItemHandler(svc *cart.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		status, err := svc.AddItem(c.Request.Context(), u.ID, c.Param("slug"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}

func removeOneHandler(svc *cart.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		status, err := svc.RemoveOne(c.Request.Context(), u.ID, c.Param("slug"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}

func removeLineHandler(svc *cart.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		status, err := svc.RemoveAll(c.Request.Context(), u.ID, c.Param("slug"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": status})
	}
}

type couponRequest struct {
	Code string `json:"code" binding:"required"`
}

func applyCouponHandler(svc *cart.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req couponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
			return
		}
		u := currentUser(c)
		summary, err := svc.ApplyCoupon(c.Request.Context(), u.ID, req.Code)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func ordersHandler(svc *cart.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		orders, err := svc.Orders(c.Request.Context(), u.ID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

func markDeliveringHandler(svc *cart.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.MarkBeingDelivered(c.Request.Context(), c.Param("refCode")); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "being_delivered"})
	}
}

func markReceivedHandler(svc *cart.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.MarkReceived(c.Request.Context(), c.Param("refCode")); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "received"})
	}
}
