package httpserver

import (
	"errors"
	"net/http"

	"commerce-pricing/internal/payment"
	"commerce-pricing/internal/pricing"
	authsvc "commerce-pricing/internal/service/auth"
	checkoutsvc "commerce-pricing/internal/service/checkout"
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": errorBody{StatusCode: status, Message: msg}})
}

// statusFor maps pricing and checkout failures to an HTTP status.
func statusFor(err error) int {
	var endpointErr *pricing.EndpointError
	var providerErr *payment.Error
	switch {
	case errors.Is(err, pricing.ErrNotAuthenticated),
		errors.Is(err, authsvc.ErrInvalidToken),
		errors.Is(err, authsvc.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, pricing.ErrPriceRequired),
		errors.Is(err, checkoutsvc.ErrPriceRequired),
		errors.Is(err, checkoutsvc.ErrPriceUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, pricing.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &endpointErr):
		if endpointErr.StatusCode >= 400 && endpointErr.StatusCode < 500 {
			return endpointErr.StatusCode
		}
		return http.StatusBadGateway
	case errors.As(err, &providerErr), errors.Is(err, payment.ErrNoRedirectURL):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
