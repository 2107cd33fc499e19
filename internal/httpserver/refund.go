package httpserver

import (
	"log"
	"net/http"

	"storefront/internal/service/refund"
	"github.com/gin-gonic/gin"
)

type refundRequest struct {
	ReferenceCode string `json:"referenceCode"`
	Reason        string `json:"reason"`
	Email         string `json:"email"`
}

func requestRefundHandler(svc *refund.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed refund payload"})
			return
		}
		r, err := svc.Request(c.Request.Context(), req.ReferenceCode, req.Reason, req.Email)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, r)
	}
}

func grantRefundHandler(svc *refund.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Grant(c.Request.Context(), c.Param("refCode")); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "granted"})
	}
}
