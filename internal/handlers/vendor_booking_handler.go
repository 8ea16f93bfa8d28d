package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trekhive/trek-booking-backend/internal/database"
	"github.com/trekhive/trek-booking-backend/internal/middleware"
	"github.com/trekhive/trek-booking-backend/internal/models"
	"github.com/trekhive/trek-booking-backend/internal/services"
	"github.com/trekhive/trek-booking-backend/pkg/validator"
)

// VendorBookingHandler handles the vendor booking surface: walk-in bookings
// recorded at the trailhead, booking listings and departure manifests
type VendorBookingHandler struct {
	bookingService *services.BookingService
	bookingRepo    *database.BookingRepository
	batchRepo      *database.BatchRepository
	trekRepo       *database.TrekRepository
	customerRepo   *database.CustomerRepository
	phoneValidator *validator.PhoneValidator
}

// NewVendorBookingHandler creates a new VendorBookingHandler
func NewVendorBookingHandler(
	bookingService *services.BookingService,
	bookingRepo *database.BookingRepository,
	batchRepo *database.BatchRepository,
	trekRepo *database.TrekRepository,
	customerRepo *database.CustomerRepository,
) *VendorBookingHandler {
	return &VendorBookingHandler{
		bookingService: bookingService,
		bookingRepo:    bookingRepo,
		batchRepo:      batchRepo,
		trekRepo:       trekRepo,
		customerRepo:   customerRepo,
		phoneValidator: validator.NewPhoneValidator(),
	}
}

// CreateWalkInBooking records an offline booking taken by the vendor.
// Payment happened in person, so the booking is confirmed immediately.
// @Summary Create a walk-in booking
// @Description Record an offline booking for a customer identified by phone
// @Tags Vendor
// @Accept json
// @Produce json
// @Param request body models.WalkInBookingRequest true "Walk-in booking request"
// @Success 201 {object} models.Booking "Booking created"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 404 {object} map[string]interface{} "Trek not found"
// @Failure 409 {object} map[string]interface{} "Insufficient capacity"
// @Security BearerAuth
// @Router /api/v1/vendor/bookings [post]
func (h *VendorBookingHandler) CreateWalkInBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.WalkInBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	phone, err := h.phoneValidator.Validate(req.CustomerPhone)
	if err != nil {
		respondError(c, models.NewValidationError("customer_phone", err.Error()))
		return
	}

	// Vendors can only sell their own treks
	trek, err := h.trekRepo.GetByID(req.Booking.TrekID)
	if err != nil {
		respondError(c, err)
		return
	}
	if trek.VendorID != userCtx.UserID {
		respondError(c, models.NewNotFoundError("trek", req.Booking.TrekID))
		return
	}

	customer, _, err := h.customerRepo.GetOrCreateByPhone(phone)
	if err != nil {
		respondError(c, err)
		return
	}

	booking, err := h.bookingService.CreateBooking(customer.ID, &req.Booking, services.BookingOptions{
		Source:      models.BookingSourceVendor,
		AutoConfirm: true,
	}, clientContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// ListVendorBookings lists bookings across the vendor's treks
// @Summary List vendor bookings
// @Description List bookings across all treks owned by the authenticated vendor
// @Tags Vendor
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Booking "List of bookings"
// @Security BearerAuth
// @Router /api/v1/vendor/bookings [get]
func (h *VendorBookingHandler) ListVendorBookings(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	bookings, err := h.bookingRepo.ListByVendor(userCtx.UserID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetBatchManifest returns the live bookings for one of the vendor's departures
// @Summary Get batch manifest
// @Description Get the non-cancelled bookings and slot state for a departure
// @Tags Vendor
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} map[string]interface{} "Manifest"
// @Failure 404 {object} map[string]interface{} "Batch not found"
// @Security BearerAuth
// @Router /api/v1/vendor/batches/{id}/manifest [get]
func (h *VendorBookingHandler) GetBatchManifest(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	batchID := c.Param("id")

	batch, err := h.batchRepo.GetByID(batchID)
	if err != nil {
		respondError(c, err)
		return
	}

	trek, err := h.trekRepo.GetByID(batch.TrekID)
	if err != nil {
		respondError(c, err)
		return
	}
	if trek.VendorID != userCtx.UserID {
		respondError(c, models.NewNotFoundError("batch", batchID))
		return
	}

	bookings, err := h.bookingRepo.ListByBatch(batchID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch":    batch,
		"trek":     trek,
		"bookings": bookings,
	})
}
