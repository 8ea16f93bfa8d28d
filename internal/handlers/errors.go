package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trekhive/trek-booking-backend/internal/models"
	"github.com/trekhive/trek-booking-backend/internal/services"
)

// respondError maps domain errors to HTTP responses. Each typed failure has
// one status so clients can branch on it; anything unmapped is a 500 with no
// internals leaked.
func respondError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "code": "VALIDATION_FAILED"})
		return
	}

	var notFoundErr *models.NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error(), "code": "NOT_FOUND"})
		return
	}

	var unavailableErr *models.UnavailableError
	if errors.As(err, &unavailableErr) {
		c.JSON(http.StatusConflict, gin.H{"error": unavailableErr.Error(), "code": "NOT_BOOKABLE"})
		return
	}

	var capacityErr *models.CapacityExceededError
	if errors.As(err, &capacityErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":           capacityErr.Error(),
			"code":            "CAPACITY_EXCEEDED",
			"available_slots": capacityErr.Available,
			"requested_slots": capacityErr.Requested,
		})
		return
	}

	var couponErr *models.CouponInvalidError
	if errors.As(err, &couponErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": couponErr.Error(), "code": "COUPON_INVALID"})
		return
	}

	var signatureErr *models.InvalidSignatureError
	if errors.As(err, &signatureErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment signature verification failed", "code": "INVALID_SIGNATURE"})
		return
	}

	var notCapturedErr *models.PaymentNotCapturedError
	if errors.As(err, &notCapturedErr) {
		c.JSON(http.StatusPaymentRequired, gin.H{"error": notCapturedErr.Error(), "code": "PAYMENT_NOT_CAPTURED"})
		return
	}

	var amountErr *models.AmountMismatchError
	if errors.As(err, &amountErr) {
		c.JSON(http.StatusConflict, gin.H{"error": amountErr.Error(), "code": "AMOUNT_MISMATCH"})
		return
	}

	var lookupErr *models.PaymentLookupError
	if errors.As(err, &lookupErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to verify payment with provider", "code": "PAYMENT_LOOKUP_FAILED"})
		return
	}

	var transitionErr *models.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		c.JSON(http.StatusConflict, gin.H{"error": transitionErr.Error(), "code": "INVALID_STATE"})
		return
	}

	var rateLimitErr *services.RateLimitError
	if errors.As(err, &rateLimitErr) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       rateLimitErr.Error(),
			"code":        "RATE_LIMITED",
			"retry_after": rateLimitErr.RetryAfter,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "INTERNAL_ERROR"})
}
