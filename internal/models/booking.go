package models

import "time"

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// IsTerminal reports whether the status forbids cancellation
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// PaymentStatus represents the payment status of a booking
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// BookingSource identifies which surface created the booking
type BookingSource string

const (
	BookingSourceApp    BookingSource = "app"
	BookingSourceVendor BookingSource = "vendor"
	BookingSourceAdmin  BookingSource = "admin"
)

// Booking represents one reservation of N seats in one batch for one customer
type Booking struct {
	ID                 string        `json:"id" db:"id"`
	BookingReference   string        `json:"booking_reference" db:"booking_reference"`
	TrekID             string        `json:"trek_id" db:"trek_id"`
	BatchID            string        `json:"batch_id" db:"batch_id"`
	VendorID           string        `json:"vendor_id" db:"vendor_id"`
	CustomerID         string        `json:"customer_id" db:"customer_id"`
	CouponID           *string       `json:"coupon_id,omitempty" db:"coupon_id"`
	TotalTravelers     int           `json:"total_travelers" db:"total_travelers"`
	TotalAmount        float64       `json:"total_amount" db:"total_amount"`
	DiscountAmount     float64       `json:"discount_amount" db:"discount_amount"`
	FinalAmount        float64       `json:"final_amount" db:"final_amount"`
	Status             BookingStatus `json:"status" db:"status"`
	PaymentStatus      PaymentStatus `json:"payment_status" db:"payment_status"`
	BookingSource      BookingSource `json:"booking_source" db:"booking_source"`
	PickupPointID      *string       `json:"pickup_point_id,omitempty" db:"pickup_point_id"`
	SpecialRequests    *string       `json:"special_requests,omitempty" db:"special_requests"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationReason *string       `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`

	Travelers []BookingTraveler `json:"travelers,omitempty" db:"-"`
}

// BookingTraveler links a booking to a traveler with per-trip metadata.
// Exactly one row per booking carries is_primary=true.
type BookingTraveler struct {
	ID                      string        `json:"id" db:"id"`
	BookingID               string        `json:"booking_id" db:"booking_id"`
	TravelerID              string        `json:"traveler_id" db:"traveler_id"`
	IsPrimary               bool          `json:"is_primary" db:"is_primary"`
	MealPreference          *string       `json:"meal_preference,omitempty" db:"meal_preference"`
	AccommodationPreference *string       `json:"accommodation_preference,omitempty" db:"accommodation_preference"`
	SpecialRequirements     *string       `json:"special_requirements,omitempty" db:"special_requirements"`
	Status                  BookingStatus `json:"status" db:"status"`
	CreatedAt               time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time     `json:"updated_at" db:"updated_at"`

	TravelerName *string `json:"traveler_name,omitempty" db:"traveler_name"`
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	TrekID          string          `json:"trek_id" binding:"required"`
	BatchID         string          `json:"batch_id" binding:"required"`
	Travelers       []TravelerInput `json:"travelers" binding:"required"`
	PickupPointID   *string         `json:"pickup_point_id,omitempty"`
	CouponCode      *string         `json:"coupon_code,omitempty"`
	SpecialRequests *string         `json:"special_requests,omitempty"`
}

// CancelBookingRequest carries the optional cancellation reason
type CancelBookingRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// PriceBreakdown is the pricing engine output
type PriceBreakdown struct {
	TotalAmount    float64 `json:"total_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalAmount    float64 `json:"final_amount"`
}

// CreateOrderRequest asks the payment gateway for a provider order covering
// a prospective booking's final amount
type CreateOrderRequest struct {
	TrekID     string          `json:"trek_id" binding:"required"`
	BatchID    string          `json:"batch_id" binding:"required"`
	Travelers  []TravelerInput `json:"travelers" binding:"required"`
	CouponCode *string         `json:"coupon_code,omitempty"`
}

// CreateOrderResponse returns the provider order handle to the client
type CreateOrderResponse struct {
	OrderID  string         `json:"order_id"`
	Amount   int64          `json:"amount"` // minor currency units
	Currency string         `json:"currency"`
	Pricing  PriceBreakdown `json:"pricing"`
}

// WalkInBookingRequest is the vendor surface for offline bookings. The
// customer is identified by phone and created on first sight.
type WalkInBookingRequest struct {
	CustomerPhone string               `json:"customer_phone" binding:"required"`
	Booking       CreateBookingRequest `json:"booking" binding:"required"`
}

// VerifyPaymentRequest carries the provider callback fields plus the
// original booking payload; the booking is only created after the payment
// checks pass.
type VerifyPaymentRequest struct {
	OrderID   string               `json:"order_id" binding:"required"`
	PaymentID string               `json:"payment_id" binding:"required"`
	Signature string               `json:"signature" binding:"required"`
	Booking   CreateBookingRequest `json:"booking" binding:"required"`
}
