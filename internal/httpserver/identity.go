package httpserver

import (
	"log"
	"net/http"

	"storefront/internal/service/customer"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func signupHandler(svc *customer.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in customer.SignupInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed signup payload"})
			return
		}
		u, err := svc.Signup(c.Request.Context(), in)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"user": u})
	}
}

type oneClickRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// oneClickHandler toggles the saved-card shortcut on the caller's profile.
func oneClickHandler(svc *customer.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req oneClickRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "enabled is required"})
			return
		}
		u := currentUser(c)
		if err := svc.SetOneClickPurchases(c.Request.Context(), u.ID, *req.Enabled); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"oneClickPurchases": *req.Enabled})
	}
}

func loginHandler(svc *customer.Service, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}
		u, access, refresh, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user":         u,
			"accessToken":  access,
			"refreshToken": refresh,
			"expiresIn":    svc.AccessTTLSeconds(),
		})
	}
}
