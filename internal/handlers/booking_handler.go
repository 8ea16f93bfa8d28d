package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trekhive/trek-booking-backend/internal/database"
	"github.com/trekhive/trek-booking-backend/internal/middleware"
	"github.com/trekhive/trek-booking-backend/internal/models"
	"github.com/trekhive/trek-booking-backend/internal/services"
	"github.com/trekhive/trek-booking-backend/internal/utils"
)

// BookingHandler handles customer booking operations
type BookingHandler struct {
	bookingService *services.BookingService
	bookingRepo    *database.BookingRepository
	travelerRepo   *database.TravelerRepository
	paymentLogRepo *database.PaymentLogRepository
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(
	bookingService *services.BookingService,
	bookingRepo *database.BookingRepository,
	travelerRepo *database.TravelerRepository,
	paymentLogRepo *database.PaymentLogRepository,
) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		bookingRepo:    bookingRepo,
		travelerRepo:   travelerRepo,
		paymentLogRepo: paymentLogRepo,
	}
}

func clientContext(c *gin.Context) services.ClientContext {
	return services.ClientContext{
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}
}

// CreateBooking creates a pending booking paid out-of-band
// @Summary Create a booking
// @Description Create a pending booking; slots are reserved immediately
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body models.CreateBookingRequest true "Booking request"
// @Success 201 {object} models.Booking "Booking created"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 409 {object} map[string]interface{} "Insufficient capacity"
// @Failure 422 {object} map[string]interface{} "Coupon not applicable"
// @Security BearerAuth
// @Router /api/v1/bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	booking, err := h.bookingService.CreateBooking(userCtx.UserID, &req, services.BookingOptions{
		Source: models.BookingSourceApp,
	}, clientContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// CreateOrder prices the prospective booking and opens a payment order
// @Summary Create a payment order
// @Description Price a prospective booking and create a provider order for checkout
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body models.CreateOrderRequest true "Order request"
// @Success 200 {object} models.CreateOrderResponse "Order created"
// @Failure 409 {object} map[string]interface{} "Insufficient capacity"
// @Security BearerAuth
// @Router /api/v1/bookings/order [post]
func (h *BookingHandler) CreateOrder(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	order, err := h.bookingService.CreateOrder(userCtx.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// VerifyPayment verifies the checkout callback and creates the booking
// @Summary Verify payment and create booking
// @Description Verify the provider callback and create the confirmed booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body models.VerifyPaymentRequest true "Payment verification request"
// @Success 201 {object} models.Booking "Booking created"
// @Failure 400 {object} map[string]interface{} "Invalid signature"
// @Failure 402 {object} map[string]interface{} "Payment not captured"
// @Failure 409 {object} map[string]interface{} "Amount mismatch or insufficient capacity"
// @Security BearerAuth
// @Router /api/v1/bookings/verify-payment [post]
func (h *BookingHandler) VerifyPayment(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	booking, err := h.bookingService.VerifyPaymentAndBook(userCtx.UserID, &req, clientContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// GetBooking retrieves one booking with its travelers
// @Summary Get a booking
// @Description Get a booking with its travelers, scoped to the caller
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking "Booking"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Security BearerAuth
// @Router /api/v1/bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	bookingID := c.Param("id")

	booking, err := h.bookingRepo.GetByIDWithTravelers(bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	// Scoping failures look identical to a missing booking
	switch userCtx.Role {
	case middleware.RoleCustomer:
		if booking.CustomerID != userCtx.UserID {
			respondError(c, models.NewNotFoundError("booking", bookingID))
			return
		}
	case middleware.RoleVendor:
		if booking.VendorID != userCtx.UserID {
			respondError(c, models.NewNotFoundError("booking", bookingID))
			return
		}
	}

	c.JSON(http.StatusOK, booking)
}

// GetMyBookings lists the authenticated customer's bookings
// @Summary Get my bookings
// @Description Get all bookings for the authenticated customer
// @Tags Bookings
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Booking "List of bookings"
// @Security BearerAuth
// @Router /api/v1/bookings [get]
func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	bookings, err := h.bookingRepo.ListByCustomer(userCtx.UserID, limit, offset)
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

// CancelBooking cancels a booking and releases its slots
// @Summary Cancel a booking
// @Description Cancel a booking; customers their own, vendors their treks', admins any
// @Tags Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body models.CancelBookingRequest false "Cancellation reason"
// @Success 200 {object} models.Booking "Cancelled booking"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Failure 409 {object} map[string]interface{} "Booking already terminal"
// @Security BearerAuth
// @Router /api/v1/bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	bookingID := c.Param("id")

	var req models.CancelBookingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}

	booking, err := h.bookingService.CancelBooking(bookingID, services.Actor{
		ID:   userCtx.UserID,
		Role: userCtx.Role,
	}, &req, clientContext(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// GetMyTravelers lists the authenticated customer's saved travelers
// @Summary Get my travelers
// @Description Get the travelers saved against the authenticated customer
// @Tags Travelers
// @Produce json
// @Success 200 {array} models.Traveler "List of travelers"
// @Security BearerAuth
// @Router /api/v1/travelers [get]
func (h *BookingHandler) GetMyTravelers(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	travelers, err := h.travelerRepo.ListByCustomer(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"travelers": travelers})
}
