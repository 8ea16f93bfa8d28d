package models

import "time"

// Traveler represents a person who can occupy a seat on a booking.
// Owned by exactly one customer. Dedup identity for resolution is the
// tuple (customer_id, name, age, gender).
type Traveler struct {
	ID         string    `json:"id" db:"id"`
	CustomerID string    `json:"customer_id" db:"customer_id"`
	Name       string    `json:"name" db:"name"`
	Age        int       `json:"age" db:"age"`
	Gender     string    `json:"gender" db:"gender"`
	Phone      *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// TravelerInput is one traveler entry in a booking request. With an ID set
// it references (and may patch) an existing traveler; without one it is
// matched against existing travelers or created.
type TravelerInput struct {
	ID                      *string `json:"id,omitempty"`
	Name                    string  `json:"name" binding:"required"`
	Age                     int     `json:"age" binding:"required,min=1,max=120"`
	Gender                  string  `json:"gender" binding:"required,oneof=male female other"`
	Phone                   *string `json:"phone,omitempty"`
	IsPrimary               bool    `json:"is_primary"`
	MealPreference          *string `json:"meal_preference,omitempty"`
	AccommodationPreference *string `json:"accommodation_preference,omitempty"`
	SpecialRequirements     *string `json:"special_requirements,omitempty"`
}

// ResolvedTraveler pairs a persisted traveler with the per-trip metadata
// from the request, ready for the booking_travelers insert.
type ResolvedTraveler struct {
	Traveler                *Traveler
	IsPrimary               bool
	MealPreference          *string
	AccommodationPreference *string
	SpecialRequirements     *string
}
