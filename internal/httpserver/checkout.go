package httpserver

import (
	"log"
	"net/http"

	"storefront/internal/service/checkout"
	"github.com/gin-gonic/gin"
)

func checkoutHandler(svc *checkout.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sub checkout.Submission
		if err := c.ShouldBindJSON(&sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed checkout payload"})
			return
		}
		u := currentUser(c)
		res, err := svc.Submit(c.Request.Context(), u.ID, sub)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
