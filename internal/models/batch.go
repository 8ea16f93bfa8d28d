package models

import "time"

// BatchStatus represents the lifecycle status of a batch
type BatchStatus string

const (
	BatchStatusActive    BatchStatus = "active"
	BatchStatusFull      BatchStatus = "full"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusCancelled BatchStatus = "cancelled"
)

// Batch represents one scheduled departure of a trek.
// Invariant after every committed transaction:
// available_slots == capacity - booked_slots, both non-negative.
type Batch struct {
	ID             string      `json:"id" db:"id"`
	TrekID         string      `json:"trek_id" db:"trek_id"`
	StartDate      time.Time   `json:"start_date" db:"start_date"`
	EndDate        time.Time   `json:"end_date" db:"end_date"`
	Capacity       int         `json:"capacity" db:"capacity"`
	BookedSlots    int         `json:"booked_slots" db:"booked_slots"`
	AvailableSlots int         `json:"available_slots" db:"available_slots"`
	Status         BatchStatus `json:"status" db:"status"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// BatchAvailability is the hot-path availability view returned to clients
type BatchAvailability struct {
	BatchID        string    `json:"batch_id"`
	TrekID         string    `json:"trek_id"`
	StartDate      time.Time `json:"start_date"`
	Capacity       int       `json:"capacity"`
	BookedSlots    int       `json:"booked_slots"`
	AvailableSlots int       `json:"available_slots"`
	IsAvailable    bool      `json:"is_available"`
}

// SlotCounts is the ledger state returned by a reservation
type SlotCounts struct {
	BookedSlots    int `json:"booked_slots" db:"booked_slots"`
	AvailableSlots int `json:"available_slots" db:"available_slots"`
}

// CreateBatchRequest represents the vendor request to schedule a departure
type CreateBatchRequest struct {
	StartDate string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate   string `json:"end_date" binding:"required"`
	Capacity  int    `json:"capacity" binding:"required,min=1"`
}
