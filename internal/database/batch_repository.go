package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

// BatchRepository owns the authoritative seat-count state for trek
// departures. booked_slots and available_slots are mutated only through
// Reserve/Release/Recompute so the invariant
// available_slots == capacity - booked_slots holds after every commit.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository creates a new BatchRepository
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create schedules a new departure for a trek
func (r *BatchRepository) Create(batch *models.Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	batch.BookedSlots = 0
	batch.AvailableSlots = batch.Capacity
	if batch.Status == "" {
		batch.Status = models.BatchStatusActive
	}

	query := `
		INSERT INTO batches (
			id, trek_id, start_date, end_date,
			capacity, booked_slots, available_slots, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(query,
		batch.ID, batch.TrekID, batch.StartDate, batch.EndDate,
		batch.Capacity, batch.BookedSlots, batch.AvailableSlots, batch.Status,
	).Scan(&batch.CreatedAt, &batch.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create batch: %w", err)
	}
	return nil
}

// GetByID retrieves a batch by ID
func (r *BatchRepository) GetByID(batchID string) (*models.Batch, error) {
	batch := &models.Batch{}
	query := `
		SELECT id, trek_id, start_date, end_date,
		       capacity, booked_slots, available_slots, status,
		       created_at, updated_at
		FROM batches
		WHERE id = $1`

	err := r.db.Get(batch, query, batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("batch", batchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch batch: %w", err)
	}
	return batch, nil
}

// GetForBookingTx loads a batch scoped to a trek with a present-or-future
// departure, inside the caller's transaction. The availability check here is
// advisory only; Reserve is the atomic authority.
func (r *BatchRepository) GetForBookingTx(tx *sqlx.Tx, trekID, batchID string) (*models.Batch, error) {
	batch := &models.Batch{}
	query := `
		SELECT id, trek_id, start_date, end_date,
		       capacity, booked_slots, available_slots, status,
		       created_at, updated_at
		FROM batches
		WHERE id = $1 AND trek_id = $2 AND start_date >= CURRENT_DATE`

	err := tx.Get(batch, query, batchID, trekID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("batch", batchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch batch: %w", err)
	}
	if batch.Status != models.BatchStatusActive {
		return nil, &models.UnavailableError{Entity: "batch", Status: string(batch.Status)}
	}
	return batch, nil
}

// ReserveTx atomically takes seatCount slots from the batch inside the
// caller's transaction. The conditional UPDATE is the serialization point:
// two concurrent reservations cannot both observe the same availability and
// both succeed in taking the last slots.
func (r *BatchRepository) ReserveTx(tx *sqlx.Tx, batchID string, seatCount int) (*models.SlotCounts, error) {
	if seatCount <= 0 {
		return nil, models.NewValidationError("seat_count", "must be positive")
	}

	counts := &models.SlotCounts{}
	query := `
		UPDATE batches
		SET booked_slots = booked_slots + $2,
		    available_slots = available_slots - $2,
		    updated_at = NOW()
		WHERE id = $1 AND available_slots >= $2
		RETURNING booked_slots, available_slots`

	err := tx.QueryRowx(query, batchID, seatCount).Scan(&counts.BookedSlots, &counts.AvailableSlots)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the batch is gone or another booking consumed the slots
		// between load and reserve. Probe to report which.
		var available int
		probeErr := tx.Get(&available, `SELECT available_slots FROM batches WHERE id = $1`, batchID)
		if errors.Is(probeErr, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("batch", batchID)
		}
		if probeErr != nil {
			return nil, fmt.Errorf("failed to check batch availability: %w", probeErr)
		}
		return nil, &models.CapacityExceededError{
			BatchID:   batchID,
			Available: available,
			Requested: seatCount,
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reserve slots: %w", err)
	}
	return counts, nil
}

// ReleaseTx returns seatCount slots to the batch inside the caller's
// transaction. Over-release clamps booked_slots at zero rather than failing,
// tolerating double-cancellation and historical drift.
func (r *BatchRepository) ReleaseTx(tx *sqlx.Tx, batchID string, seatCount int) error {
	query := `
		UPDATE batches
		SET booked_slots = GREATEST(0, booked_slots - $2),
		    available_slots = capacity - GREATEST(0, booked_slots - $2),
		    updated_at = NOW()
		WHERE id = $1`

	result, err := tx.Exec(query, batchID, seatCount)
	if err != nil {
		return fmt.Errorf("failed to release slots: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("batch", batchID)
	}
	return nil
}

// Release is the standalone variant of ReleaseTx for callers outside a
// booking transaction
func (r *BatchRepository) Release(batchID string, seatCount int) error {
	query := `
		UPDATE batches
		SET booked_slots = GREATEST(0, booked_slots - $2),
		    available_slots = capacity - GREATEST(0, booked_slots - $2),
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(query, batchID, seatCount)
	if err != nil {
		return fmt.Errorf("failed to release slots: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("batch", batchID)
	}
	return nil
}

// Recompute recalculates booked_slots from the live count of travelers on
// bookings in non-terminal status. Idempotent; used for drift correction
// and backfill.
func (r *BatchRepository) Recompute(batchID string) (*models.SlotCounts, error) {
	counts := &models.SlotCounts{}
	query := `
		UPDATE batches b
		SET booked_slots = live.total,
		    available_slots = b.capacity - live.total,
		    updated_at = NOW()
		FROM (
			SELECT COALESCE(SUM(total_travelers), 0) AS total
			FROM bookings
			WHERE batch_id = $1
			  AND status IN ('pending', 'confirmed')
		) live
		WHERE b.id = $1
		RETURNING b.booked_slots, b.available_slots`

	err := r.db.QueryRow(query, batchID).Scan(&counts.BookedSlots, &counts.AvailableSlots)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("batch", batchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to recompute batch slots: %w", err)
	}
	return counts, nil
}

// GetAvailability returns the hot-path availability view for a batch
func (r *BatchRepository) GetAvailability(batchID string) (*models.BatchAvailability, error) {
	batch, err := r.GetByID(batchID)
	if err != nil {
		return nil, err
	}

	return &models.BatchAvailability{
		BatchID:        batch.ID,
		TrekID:         batch.TrekID,
		StartDate:      batch.StartDate,
		Capacity:       batch.Capacity,
		BookedSlots:    batch.BookedSlots,
		AvailableSlots: batch.AvailableSlots,
		IsAvailable:    batch.AvailableSlots > 0 && batch.Status == models.BatchStatusActive,
	}, nil
}

// ListByTrek retrieves upcoming batches for a trek
func (r *BatchRepository) ListByTrek(trekID string) ([]models.Batch, error) {
	query := `
		SELECT id, trek_id, start_date, end_date,
		       capacity, booked_slots, available_slots, status,
		       created_at, updated_at
		FROM batches
		WHERE trek_id = $1 AND start_date >= CURRENT_DATE
		ORDER BY start_date`

	var batches []models.Batch
	if err := r.db.Select(&batches, query, trekID); err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

// ListUpcomingIDs returns ids of active batches departing within the next
// windowDays, for the drift-recompute job
func (r *BatchRepository) ListUpcomingIDs(windowDays int) ([]string, error) {
	query := `
		SELECT id FROM batches
		WHERE status = 'active'
		  AND start_date BETWEEN CURRENT_DATE AND CURRENT_DATE + $1 * INTERVAL '1 day'
		ORDER BY start_date`

	var ids []string
	if err := r.db.Select(&ids, query, windowDays); err != nil {
		return nil, fmt.Errorf("failed to list upcoming batches: %w", err)
	}
	return ids, nil
}
