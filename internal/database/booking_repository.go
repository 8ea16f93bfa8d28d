package database

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

// BookingRepository handles booking database operations
type BookingRepository struct {
	db        *sqlx.DB
	refPrefix string
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *sqlx.DB, refPrefix string) *BookingRepository {
	if refPrefix == "" {
		refPrefix = "TB"
	}
	return &BookingRepository{db: db, refPrefix: refPrefix}
}

const bookingColumns = `id, booking_reference, trek_id, batch_id, vendor_id, customer_id,
	coupon_id, total_travelers, total_amount, discount_amount, final_amount,
	status, payment_status, booking_source, pickup_point_id, special_requests,
	cancelled_at, cancellation_reason, created_at, updated_at`

// GenerateBookingReference generates a unique booking reference.
// Format: TB-YYYYMMDD-XXXXXX (6 char hex)
// Example: TB-20260829-A1B2C3
func (r *BookingRepository) GenerateBookingReference() (string, error) {
	todayStr := time.Now().Format("20060102")

	for attempts := 0; attempts < 10; attempts++ {
		randomBytes := make([]byte, 3)
		if _, err := rand.Read(randomBytes); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		randomStr := strings.ToUpper(hex.EncodeToString(randomBytes))

		newRef := fmt.Sprintf("%s-%s-%s", r.refPrefix, todayStr, randomStr)

		var count int
		err := r.db.Get(&count, `SELECT COUNT(*) FROM bookings WHERE booking_reference = $1`, newRef)
		if err != nil {
			return "", fmt.Errorf("failed to check reference uniqueness: %w", err)
		}

		if count == 0 {
			return newRef, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique booking reference after 10 attempts")
}

// CreateBooking creates a booking with its traveler rows in one transaction.
// The trek and batch are re-validated inside the transaction and the slot
// reservation is the last write before the booking insert, so a failure at
// any step leaves the inventory untouched.
func (r *BookingRepository) CreateBooking(
	booking *models.Booking,
	travelers []models.TravelerInput,
	trekRepo *TrekRepository,
	batchRepo *BatchRepository,
	travelerRepo *TravelerRepository,
) (*models.Booking, error) {
	// Generate the reference up front: the probe queries run on the pool, so
	// doing it inside the transaction would hold the batch row lock while
	// waiting on a second connection.
	bookingRef, err := r.GenerateBookingReference()
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}
	booking.BookingReference = bookingRef

	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. Validate the trek is bookable
	trek, err := trekRepo.GetForBookingTx(tx, booking.TrekID)
	if err != nil {
		return nil, err
	}
	booking.VendorID = trek.VendorID

	// 2. Validate the batch belongs to the trek and has not departed
	if _, err := batchRepo.GetForBookingTx(tx, booking.TrekID, booking.BatchID); err != nil {
		return nil, err
	}

	// 3. Resolve travelers against the customer's saved records
	resolved, err := travelerRepo.ResolveForBooking(tx, booking.CustomerID, travelers)
	if err != nil {
		return nil, err
	}
	booking.TotalTravelers = len(resolved)

	// 4. Atomically reserve the slots
	if _, err := batchRepo.ReserveTx(tx, booking.BatchID, booking.TotalTravelers); err != nil {
		return nil, err
	}

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	// 5. Insert the booking
	bookingQuery := `
		INSERT INTO bookings (
			id, booking_reference, trek_id, batch_id, vendor_id, customer_id,
			coupon_id, total_travelers, total_amount, discount_amount, final_amount,
			status, payment_status, booking_source, pickup_point_id, special_requests
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		) RETURNING created_at, updated_at`

	err = tx.QueryRowx(bookingQuery,
		booking.ID, booking.BookingReference, booking.TrekID, booking.BatchID,
		booking.VendorID, booking.CustomerID, booking.CouponID,
		booking.TotalTravelers, booking.TotalAmount, booking.DiscountAmount,
		booking.FinalAmount, booking.Status, booking.PaymentStatus,
		booking.BookingSource, booking.PickupPointID, booking.SpecialRequests,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	// 6. Insert booking traveler rows
	bookingTravelers := make([]models.BookingTraveler, 0, len(resolved))
	for _, rt := range resolved {
		bt := models.BookingTraveler{
			ID:                      uuid.New().String(),
			BookingID:               booking.ID,
			TravelerID:              rt.Traveler.ID,
			IsPrimary:               rt.IsPrimary,
			MealPreference:          rt.MealPreference,
			AccommodationPreference: rt.AccommodationPreference,
			SpecialRequirements:     rt.SpecialRequirements,
			Status:                  booking.Status,
		}

		travelerQuery := `
			INSERT INTO booking_travelers (
				id, booking_id, traveler_id, is_primary,
				meal_preference, accommodation_preference, special_requirements, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at`

		err = tx.QueryRowx(travelerQuery,
			bt.ID, bt.BookingID, bt.TravelerID, bt.IsPrimary,
			bt.MealPreference, bt.AccommodationPreference, bt.SpecialRequirements, bt.Status,
		).Scan(&bt.CreatedAt, &bt.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create booking traveler for %s: %w", rt.Traveler.Name, err)
		}

		name := rt.Traveler.Name
		bt.TravelerName = &name
		bookingTravelers = append(bookingTravelers, bt)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking transaction: %w", err)
	}

	booking.Travelers = bookingTravelers
	return booking, nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	err := r.db.Get(booking, query, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("booking", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return booking, nil
}

// GetByReference retrieves a booking by its human-facing reference
func (r *BookingRepository) GetByReference(reference string) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_reference = $1`

	err := r.db.Get(booking, query, reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("booking", reference)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return booking, nil
}

// GetByIDWithTravelers retrieves a booking with its traveler rows attached
func (r *BookingRepository) GetByIDWithTravelers(bookingID string) (*models.Booking, error) {
	booking, err := r.GetByID(bookingID)
	if err != nil {
		return nil, err
	}

	travelersQuery := `
		SELECT bt.id, bt.booking_id, bt.traveler_id, bt.is_primary,
		       bt.meal_preference, bt.accommodation_preference, bt.special_requirements,
		       bt.status, bt.created_at, bt.updated_at,
		       t.name AS traveler_name
		FROM booking_travelers bt
		JOIN travelers t ON t.id = bt.traveler_id
		WHERE bt.booking_id = $1
		ORDER BY bt.is_primary DESC, bt.created_at`

	var travelers []models.BookingTraveler
	if err := r.db.Select(&travelers, travelersQuery, bookingID); err != nil {
		return nil, fmt.Errorf("failed to fetch booking travelers: %w", err)
	}
	booking.Travelers = travelers
	return booking, nil
}

// GetForCustomer retrieves a booking scoped to the owning customer
func (r *BookingRepository) GetForCustomer(bookingID, customerID string) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND customer_id = $2`

	err := r.db.Get(booking, query, bookingID, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("booking", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}
	return booking, nil
}

// ListByCustomer retrieves a customer's bookings, newest first
func (r *BookingRepository) ListByCustomer(customerID string, limit, offset int) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var bookings []models.Booking
	if err := r.db.Select(&bookings, query, customerID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list customer bookings: %w", err)
	}
	return bookings, nil
}

// ListByVendor retrieves bookings across a vendor's treks, newest first
func (r *BookingRepository) ListByVendor(vendorID string, limit, offset int) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE vendor_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var bookings []models.Booking
	if err := r.db.Select(&bookings, query, vendorID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list vendor bookings: %w", err)
	}
	return bookings, nil
}

// ListByBatch retrieves bookings for one departure, for vendor manifests
func (r *BookingRepository) ListByBatch(batchID string) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE batch_id = $1 AND status IN ('pending', 'confirmed')
		ORDER BY created_at`

	var bookings []models.Booking
	if err := r.db.Select(&bookings, query, batchID); err != nil {
		return nil, fmt.Errorf("failed to list batch bookings: %w", err)
	}
	return bookings, nil
}

// Confirm moves a pending booking to confirmed with payment completed
func (r *BookingRepository) Confirm(bookingID string) error {
	query := `
		UPDATE bookings
		SET status = 'confirmed', payment_status = 'completed', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	result, err := r.db.Exec(query, bookingID)
	if err != nil {
		return fmt.Errorf("failed to confirm booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		booking, err := r.GetByID(bookingID)
		if err != nil {
			return err
		}
		return &models.InvalidTransitionError{BookingID: bookingID, Status: booking.Status}
	}
	return nil
}

// Cancel cancels a booking and releases its slots in one transaction. The
// row is locked first so two concurrent cancellations cannot both release.
func (r *BookingRepository) Cancel(
	bookingID string,
	reason *string,
	batchRepo *BatchRepository,
) (*models.Booking, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	err = tx.Get(booking, query, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("booking", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	if booking.Status.IsTerminal() {
		return nil, &models.InvalidTransitionError{BookingID: bookingID, Status: booking.Status}
	}

	now := time.Now()
	updateQuery := `
		UPDATE bookings
		SET status = 'cancelled', cancelled_at = $2, cancellation_reason = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	if err := tx.QueryRowx(updateQuery, bookingID, now, reason).Scan(&booking.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	_, err = tx.Exec(`UPDATE booking_travelers SET status = 'cancelled', updated_at = NOW() WHERE booking_id = $1`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel booking travelers: %w", err)
	}

	if err := batchRepo.ReleaseTx(tx, booking.BatchID, booking.TotalTravelers); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	booking.Status = models.BookingStatusCancelled
	booking.CancelledAt = &now
	booking.CancellationReason = reason
	return booking, nil
}
