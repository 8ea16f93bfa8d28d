package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trekhive/trek-booking-backend/internal/database"
	"github.com/trekhive/trek-booking-backend/internal/middleware"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

// CustomerHandler handles customer profile operations
type CustomerHandler struct {
	customerRepo *database.CustomerRepository
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerRepo *database.CustomerRepository) *CustomerHandler {
	return &CustomerHandler{customerRepo: customerRepo}
}

// GetProfile retrieves the authenticated customer's profile
// @Summary Get my profile
// @Description Get the authenticated customer's profile
// @Tags Customers
// @Produce json
// @Success 200 {object} models.Customer "Profile"
// @Security BearerAuth
// @Router /api/v1/customers/me [get]
func (h *CustomerHandler) GetProfile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	customer, err := h.customerRepo.GetByID(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

// UpdateProfile updates the authenticated customer's name and email
// @Summary Update my profile
// @Description Update the authenticated customer's name and email
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body models.UpdateCustomerProfileRequest true "Profile update"
// @Success 200 {object} models.Customer "Updated profile"
// @Security BearerAuth
// @Router /api/v1/customers/me [patch]
func (h *CustomerHandler) UpdateProfile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.UpdateCustomerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.customerRepo.UpdateProfile(userCtx.UserID, &req); err != nil {
		respondError(c, err)
		return
	}

	customer, err := h.customerRepo.GetByID(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}
