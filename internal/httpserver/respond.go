package httpserver

import (
	"errors"
	"log"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/service/customer"
	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto HTTP statuses. This is the only place
// the taxonomy meets the wire; services never see status codes.
func respondError(c *gin.Context, logger *log.Logger, err error) {
	var fieldErrs domain.FieldErrors
	if errors.As(err, &fieldErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrs})
		return
	}

	var payErr *domain.PaymentError
	if errors.As(err, &payErr) {
		c.JSON(paymentStatus(payErr.Code), gin.H{
			"error":     payErr.Msg,
			"code":      string(payErr.Code),
			"retryable": payErr.Retryable(),
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrNoOpenCart),
		errors.Is(err, domain.ErrUnknownOrder):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCoupon),
		errors.Is(err, domain.ErrNoDefaultAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadyFinalized),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrRefundAlreadyRequested),
		errors.Is(err, domain.ErrRefundAlreadyGranted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCartNotReady):
		// A payment attempt reached a cart that cannot finalize. Logged as a
		// consistency failure; the client flow should have prevented it.
		logger.Printf("consistency error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case errors.Is(err, customer.ErrInvalidCredentials),
		errors.Is(err, customer.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		logger.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func paymentStatus(code domain.PaymentErrorCode) int {
	switch code {
	case domain.PaymentDeclined:
		return http.StatusPaymentRequired
	case domain.PaymentRateLimited:
		return http.StatusTooManyRequests
	case domain.PaymentInvalidRequest:
		return http.StatusBadRequest
	case domain.PaymentAuthFailed, domain.PaymentNetworkFailure:
		return http.StatusBadGateway
	default:
		// Unknown outcome: surface as a gateway problem so clients do not
		// blindly retry a charge that may have landed.
		return http.StatusBadGateway
	}
}
