package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aq2208/storefront-checkout/internal/catalog"
	"github.com/aq2208/storefront-checkout/internal/checkout"
	"github.com/aq2208/storefront-checkout/internal/entity"
	"github.com/aq2208/storefront-checkout/internal/logging"
	"github.com/aq2208/storefront-checkout/internal/observ"
	"github.com/aq2208/storefront-checkout/internal/usecase"
)

// writeError maps use case errors onto HTTP responses.
func writeError(c *gin.Context, err error) {
	var verr *checkout.ValidationError
	switch {
	case errors.As(err, &verr):
		observ.StepRejected(verr.Step.String())
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "validation_failed",
			"step":   verr.Step,
			"fields": verr.Fields,
		})
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, entity.ErrItemNotInCart),
		errors.Is(err, usecase.ErrOrderNotFound),
		errors.Is(err, usecase.ErrNoCheckout):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "error_description": err.Error()})
	case errors.Is(err, usecase.ErrDuplicate),
		errors.Is(err, usecase.ErrEmptyCart),
		errors.Is(err, checkout.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "error_description": err.Error()})
	case errors.Is(err, entity.ErrInvalidQuantity),
		errors.Is(err, entity.ErrInvalidPrice),
		errors.Is(err, entity.ErrProductRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request", "error_description": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "timeout"})
	default:
		logging.From(c).Error("request failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	}
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
}
