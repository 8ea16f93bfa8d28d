package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

// PaymentLogRepository appends provider callback records. The table is an
// append-only audit trail; rows are never updated or deleted.
type PaymentLogRepository struct {
	db *sqlx.DB
}

// NewPaymentLogRepository creates a new PaymentLogRepository
func NewPaymentLogRepository(db *sqlx.DB) *PaymentLogRepository {
	return &PaymentLogRepository{db: db}
}

const paymentLogColumns = `id, booking_id, provider_order_id, provider_payment_id,
	amount, currency, status, raw_payload, created_at`

// Append records a payment event
func (r *PaymentLogRepository) Append(log *models.PaymentLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}

	query := `
		INSERT INTO payment_logs (
			id, booking_id, provider_order_id, provider_payment_id,
			amount, currency, status, raw_payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.db.QueryRow(query,
		log.ID, log.BookingID, log.ProviderOrderID, log.ProviderPaymentID,
		log.Amount, log.Currency, log.Status, log.RawPayload,
	).Scan(&log.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append payment log: %w", err)
	}
	return nil
}

// ListByBooking retrieves payment events for a booking, oldest first
func (r *PaymentLogRepository) ListByBooking(bookingID string) ([]models.PaymentLog, error) {
	query := `SELECT ` + paymentLogColumns + ` FROM payment_logs WHERE booking_id = $1 ORDER BY created_at`

	var logs []models.PaymentLog
	if err := r.db.Select(&logs, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list payment logs: %w", err)
	}
	return logs, nil
}

// ListByOrder retrieves payment events for a provider order
func (r *PaymentLogRepository) ListByOrder(orderID string) ([]models.PaymentLog, error) {
	query := `SELECT ` + paymentLogColumns + ` FROM payment_logs WHERE provider_order_id = $1 ORDER BY created_at`

	var logs []models.PaymentLog
	if err := r.db.Select(&logs, query, orderID); err != nil {
		return nil, fmt.Errorf("failed to list payment logs: %w", err)
	}
	return logs, nil
}
