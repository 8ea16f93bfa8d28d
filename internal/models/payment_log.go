package models

import (
	"encoding/json"
	"time"
)

// PaymentLog is an append-only record of one payment-provider transaction
// tied to a booking. Rows are never mutated after creation; the raw provider
// payload is kept as opaque audit data.
type PaymentLog struct {
	ID                string          `json:"id" db:"id"`
	BookingID         string          `json:"booking_id" db:"booking_id"`
	ProviderOrderID   string          `json:"provider_order_id" db:"provider_order_id"`
	ProviderPaymentID string          `json:"provider_payment_id" db:"provider_payment_id"`
	Amount            int64           `json:"amount" db:"amount"` // minor currency units
	Currency          string          `json:"currency" db:"currency"`
	Status            string          `json:"status" db:"status"`
	RawPayload        json.RawMessage `json:"raw_payload,omitempty" db:"raw_payload"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}
