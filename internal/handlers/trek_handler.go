package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trekhive/trek-booking-backend/internal/database"
	"github.com/trekhive/trek-booking-backend/internal/middleware"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

// TrekHandler handles the public trek catalogue and vendor trek management
type TrekHandler struct {
	trekRepo *database.TrekRepository
}

// NewTrekHandler creates a new TrekHandler
func NewTrekHandler(trekRepo *database.TrekRepository) *TrekHandler {
	return &TrekHandler{trekRepo: trekRepo}
}

// ListTreks lists published treks for the public catalogue
// @Summary List treks
// @Description List published treks
// @Tags Treks
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Trek "List of treks"
// @Router /api/v1/treks [get]
func (h *TrekHandler) ListTreks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	treks, err := h.trekRepo.ListPublished(limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"treks":  treks,
		"limit":  limit,
		"offset": offset,
	})
}

// GetTrek retrieves one published trek
// @Summary Get a trek
// @Description Get a published trek by ID
// @Tags Treks
// @Produce json
// @Param id path string true "Trek ID"
// @Success 200 {object} models.Trek "Trek"
// @Failure 404 {object} map[string]interface{} "Trek not found"
// @Router /api/v1/treks/{id} [get]
func (h *TrekHandler) GetTrek(c *gin.Context) {
	trekID := c.Param("id")

	trek, err := h.trekRepo.GetByID(trekID)
	if err != nil {
		respondError(c, err)
		return
	}

	// Draft and archived treks are invisible on the public surface
	if !trek.IsBookable() {
		respondError(c, models.NewNotFoundError("trek", trekID))
		return
	}

	c.JSON(http.StatusOK, trek)
}

// CreateTrek creates a trek owned by the authenticated vendor
// @Summary Create a trek
// @Description Create a trek for the authenticated vendor
// @Tags Vendor
// @Accept json
// @Produce json
// @Param request body models.CreateTrekRequest true "Trek request"
// @Success 201 {object} models.Trek "Trek created"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Security BearerAuth
// @Router /api/v1/vendor/treks [post]
func (h *TrekHandler) CreateTrek(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.CreateTrekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	status := models.TrekStatusDraft
	if req.Status != nil {
		status = models.NormalizeTrekStatus(*req.Status)
	}

	trek := &models.Trek{
		VendorID:        userCtx.UserID,
		Name:            req.Name,
		Description:     req.Description,
		Region:          req.Region,
		Difficulty:      req.Difficulty,
		DurationDays:    req.DurationDays,
		BasePrice:       req.BasePrice,
		MaxParticipants: req.MaxParticipants,
		Inclusions:      models.StringArray(req.Inclusions),
		Exclusions:      models.StringArray(req.Exclusions),
		Status:          status,
	}

	if err := h.trekRepo.Create(trek); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, trek)
}

// UpdateTrek applies a partial update to a trek owned by the vendor
// @Summary Update a trek
// @Description Partially update a trek owned by the authenticated vendor
// @Tags Vendor
// @Accept json
// @Produce json
// @Param id path string true "Trek ID"
// @Param request body models.UpdateTrekRequest true "Trek update"
// @Success 200 {object} models.Trek "Updated trek"
// @Failure 404 {object} map[string]interface{} "Trek not found"
// @Security BearerAuth
// @Router /api/v1/vendor/treks/{id} [patch]
func (h *TrekHandler) UpdateTrek(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	trekID := c.Param("id")

	var req models.UpdateTrekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	trek, err := h.trekRepo.Update(trekID, userCtx.UserID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trek)
}

// ListMyTreks lists all treks owned by the authenticated vendor
// @Summary List my treks
// @Description List all treks owned by the authenticated vendor, drafts included
// @Tags Vendor
// @Produce json
// @Success 200 {array} models.Trek "List of treks"
// @Security BearerAuth
// @Router /api/v1/vendor/treks [get]
func (h *TrekHandler) ListMyTreks(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	treks, err := h.trekRepo.ListByVendor(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"treks": treks})
}
