package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trekhive/trek-booking-backend/internal/database"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

const couponDateLayout = "2006-01-02"

// CouponHandler handles admin coupon management
type CouponHandler struct {
	couponRepo *database.CouponRepository
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(couponRepo *database.CouponRepository) *CouponHandler {
	return &CouponHandler{couponRepo: couponRepo}
}

// CreateCoupon creates a new discount coupon
// @Summary Create a coupon
// @Description Create a discount coupon
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body models.CreateCouponRequest true "Coupon request"
// @Success 201 {object} models.Coupon "Coupon created"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Security BearerAuth
// @Router /api/v1/admin/coupons [post]
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req models.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	validFrom, err := time.Parse(couponDateLayout, req.ValidFrom)
	if err != nil {
		respondError(c, models.NewValidationError("valid_from", "must be a valid date in YYYY-MM-DD format"))
		return
	}
	validUntil, err := time.Parse(couponDateLayout, req.ValidUntil)
	if err != nil {
		respondError(c, models.NewValidationError("valid_until", "must be a valid date in YYYY-MM-DD format"))
		return
	}
	if validUntil.Before(validFrom) {
		respondError(c, models.NewValidationError("valid_until", "must not be before valid_from"))
		return
	}
	if req.DiscountType == string(models.DiscountTypePercentage) && req.DiscountValue > 100 {
		respondError(c, models.NewValidationError("discount_value", "percentage discount cannot exceed 100"))
		return
	}

	coupon := &models.Coupon{
		Code:              req.Code,
		DiscountType:      models.CouponDiscountType(req.DiscountType),
		DiscountValue:     req.DiscountValue,
		MinAmount:         req.MinAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		ValidFrom:         validFrom,
		ValidUntil:        validUntil,
		UsageLimit:        req.UsageLimit,
		Status:            models.CouponStatusActive,
	}

	if err := h.couponRepo.Create(coupon); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, coupon)
}

// ListCoupons lists coupons
// @Summary List coupons
// @Description List all coupons
// @Tags Admin
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Coupon "List of coupons"
// @Security BearerAuth
// @Router /api/v1/admin/coupons [get]
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	coupons, err := h.couponRepo.List(limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"coupons": coupons,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetCoupon retrieves one coupon
// @Summary Get a coupon
// @Description Get a coupon by ID
// @Tags Admin
// @Produce json
// @Param id path string true "Coupon ID"
// @Success 200 {object} models.Coupon "Coupon"
// @Failure 404 {object} map[string]interface{} "Coupon not found"
// @Security BearerAuth
// @Router /api/v1/admin/coupons/{id} [get]
func (h *CouponHandler) GetCoupon(c *gin.Context) {
	coupon, err := h.couponRepo.GetByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, coupon)
}

// UpdateCoupon applies a partial update to a coupon
// @Summary Update a coupon
// @Description Partially update a coupon
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Coupon ID"
// @Param request body models.UpdateCouponRequest true "Coupon update"
// @Success 200 {object} models.Coupon "Updated coupon"
// @Failure 404 {object} map[string]interface{} "Coupon not found"
// @Security BearerAuth
// @Router /api/v1/admin/coupons/{id} [patch]
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	couponID := c.Param("id")

	var req models.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var validUntil interface{}
	if req.ValidUntil != nil {
		parsed, err := time.Parse(couponDateLayout, *req.ValidUntil)
		if err != nil {
			respondError(c, models.NewValidationError("valid_until", "must be a valid date in YYYY-MM-DD format"))
			return
		}
		validUntil = parsed
	}

	if err := h.couponRepo.Update(couponID, &req, validUntil); err != nil {
		respondError(c, err)
		return
	}

	coupon, err := h.couponRepo.GetByID(couponID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, coupon)
}
