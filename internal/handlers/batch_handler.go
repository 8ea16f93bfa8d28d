package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/trekhive/trek-booking-backend/internal/database"
	"github.com/trekhive/trek-booking-backend/internal/middleware"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

const batchDateLayout = "2006-01-02"

// BatchHandler handles departure scheduling and availability lookups
type BatchHandler struct {
	batchRepo *database.BatchRepository
	trekRepo  *database.TrekRepository
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(batchRepo *database.BatchRepository, trekRepo *database.TrekRepository) *BatchHandler {
	return &BatchHandler{batchRepo: batchRepo, trekRepo: trekRepo}
}

// ListTrekBatches lists upcoming departures for a trek
// @Summary List trek batches
// @Description List upcoming departures for a trek
// @Tags Batches
// @Produce json
// @Param id path string true "Trek ID"
// @Success 200 {array} models.Batch "List of batches"
// @Failure 404 {object} map[string]interface{} "Trek not found"
// @Router /api/v1/treks/{id}/batches [get]
func (h *BatchHandler) ListTrekBatches(c *gin.Context) {
	trekID := c.Param("id")

	trek, err := h.trekRepo.GetByID(trekID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !trek.IsBookable() {
		respondError(c, models.NewNotFoundError("trek", trekID))
		return
	}

	batches, err := h.batchRepo.ListByTrek(trekID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

// GetAvailability returns the live availability for a batch
// @Summary Get batch availability
// @Description Get the live slot availability for a batch
// @Tags Batches
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} models.BatchAvailability "Availability"
// @Failure 404 {object} map[string]interface{} "Batch not found"
// @Router /api/v1/batches/{id}/availability [get]
func (h *BatchHandler) GetAvailability(c *gin.Context) {
	availability, err := h.batchRepo.GetAvailability(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, availability)
}

// CreateBatch schedules a new departure for a trek owned by the vendor
// @Summary Create a batch
// @Description Schedule a departure for a trek owned by the authenticated vendor
// @Tags Vendor
// @Accept json
// @Produce json
// @Param id path string true "Trek ID"
// @Param request body models.CreateBatchRequest true "Batch request"
// @Success 201 {object} models.Batch "Batch created"
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 404 {object} map[string]interface{} "Trek not found"
// @Security BearerAuth
// @Router /api/v1/vendor/treks/{id}/batches [post]
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)
	trekID := c.Param("id")

	var req models.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	trek, err := h.trekRepo.GetByID(trekID)
	if err != nil {
		respondError(c, err)
		return
	}
	if trek.VendorID != userCtx.UserID {
		respondError(c, models.NewNotFoundError("trek", trekID))
		return
	}

	startDate, err := time.Parse(batchDateLayout, req.StartDate)
	if err != nil {
		respondError(c, models.NewValidationError("start_date", "must be a valid date in YYYY-MM-DD format"))
		return
	}
	endDate, err := time.Parse(batchDateLayout, req.EndDate)
	if err != nil {
		respondError(c, models.NewValidationError("end_date", "must be a valid date in YYYY-MM-DD format"))
		return
	}
	if endDate.Before(startDate) {
		respondError(c, models.NewValidationError("end_date", "must not be before start_date"))
		return
	}
	if startDate.Before(time.Now().Truncate(24 * time.Hour)) {
		respondError(c, models.NewValidationError("start_date", "must not be in the past"))
		return
	}

	batch := &models.Batch{
		TrekID:    trekID,
		StartDate: startDate,
		EndDate:   endDate,
		Capacity:  req.Capacity,
		Status:    models.BatchStatusActive,
	}

	if err := h.batchRepo.Create(batch); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, batch)
}
