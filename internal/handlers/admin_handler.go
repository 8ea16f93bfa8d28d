package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trekhive/trek-booking-backend/internal/database"
	"github.com/trekhive/trek-booking-backend/internal/services"
)

// AdminHandler handles admin booking operations and ledger maintenance
type AdminHandler struct {
	bookingService *services.BookingService
	batchRepo      *database.BatchRepository
	audit          *services.AuditService
	cron           *services.CronService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	bookingService *services.BookingService,
	batchRepo *database.BatchRepository,
	audit *services.AuditService,
	cron *services.CronService,
) *AdminHandler {
	return &AdminHandler{
		bookingService: bookingService,
		batchRepo:      batchRepo,
		audit:          audit,
		cron:           cron,
	}
}

// ConfirmBooking confirms a pending booking after an out-of-band payment
// @Summary Confirm a booking
// @Description Move a pending booking to confirmed
// @Tags Admin
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} models.Booking "Confirmed booking"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Failure 409 {object} map[string]interface{} "Booking not pending"
// @Security BearerAuth
// @Router /api/v1/admin/bookings/{id}/confirm [post]
func (h *AdminHandler) ConfirmBooking(c *gin.Context) {
	booking, err := h.bookingService.ConfirmBooking(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// RecomputeBatch recomputes one batch's slot counts from live bookings
// @Summary Recompute batch slots
// @Description Recompute a batch's slot counts from its non-terminal bookings
// @Tags Admin
// @Produce json
// @Param id path string true "Batch ID"
// @Success 200 {object} models.SlotCounts "Recomputed counts"
// @Failure 404 {object} map[string]interface{} "Batch not found"
// @Security BearerAuth
// @Router /api/v1/admin/batches/{id}/recompute [post]
func (h *AdminHandler) RecomputeBatch(c *gin.Context) {
	batchID := c.Param("id")

	counts, err := h.batchRepo.Recompute(batchID)
	if err != nil {
		respondError(c, err)
		return
	}

	// The recompute itself committed; a missing audit row is not a failure
	_ = h.audit.LogBatchRecomputed(batchID, counts.BookedSlots, counts.AvailableSlots)

	c.JSON(http.StatusOK, counts)
}

// RecomputeAllBatches runs the scheduled drift-recompute job immediately
// @Summary Recompute all upcoming batches
// @Description Run the slot drift recompute over upcoming batches now
// @Tags Admin
// @Produce json
// @Success 202 {object} map[string]interface{} "Recompute started"
// @Security BearerAuth
// @Router /api/v1/admin/batches/recompute [post]
func (h *AdminHandler) RecomputeAllBatches(c *gin.Context) {
	go h.cron.RunRecomputeNow()

	c.JSON(http.StatusAccepted, gin.H{"message": "Batch recompute started"})
}
