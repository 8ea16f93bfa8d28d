package models

import "time"

// TrekStatus represents the lifecycle status of a trek
type TrekStatus string

const (
	TrekStatusDraft     TrekStatus = "draft"
	TrekStatusPublished TrekStatus = "published"
	TrekStatusArchived  TrekStatus = "archived"
)

// NormalizeTrekStatus maps legacy status strings onto the canonical enum.
// "active" is a compatibility alias for "published" carried over from older
// clients; both mean bookable.
func NormalizeTrekStatus(s string) TrekStatus {
	switch s {
	case "active", "published":
		return TrekStatusPublished
	case "archived":
		return TrekStatusArchived
	default:
		return TrekStatusDraft
	}
}

// Trek represents a sellable itinerary operated by a vendor
type Trek struct {
	ID              string     `json:"id" db:"id"`
	VendorID        string     `json:"vendor_id" db:"vendor_id"`
	Name            string     `json:"name" db:"name"`
	Slug            string     `json:"slug" db:"slug"`
	Description     *string    `json:"description,omitempty" db:"description"`
	Region          *string    `json:"region,omitempty" db:"region"`
	Difficulty      *string    `json:"difficulty,omitempty" db:"difficulty"`
	DurationDays    int        `json:"duration_days" db:"duration_days"`
	BasePrice       float64     `json:"base_price" db:"base_price"`
	MaxParticipants int         `json:"max_participants" db:"max_participants"`
	Inclusions      StringArray `json:"inclusions,omitempty" db:"inclusions"`
	Exclusions      StringArray `json:"exclusions,omitempty" db:"exclusions"`
	Status          TrekStatus  `json:"status" db:"status"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// IsBookable reports whether the trek accepts new bookings
func (t *Trek) IsBookable() bool {
	return t.Status == TrekStatusPublished
}

// CreateTrekRequest represents the vendor request to create a trek
type CreateTrekRequest struct {
	Name            string   `json:"name" binding:"required"`
	Description     *string  `json:"description,omitempty"`
	Region          *string  `json:"region,omitempty"`
	Difficulty      *string  `json:"difficulty,omitempty"`
	DurationDays    int      `json:"duration_days" binding:"required,min=1"`
	BasePrice       float64  `json:"base_price" binding:"required,gt=0"`
	MaxParticipants int      `json:"max_participants" binding:"required,min=1"`
	Status          *string  `json:"status,omitempty"`
	Inclusions      []string `json:"inclusions,omitempty"`
	Exclusions      []string `json:"exclusions,omitempty"`
}

// UpdateTrekRequest represents a partial trek update; nil fields are untouched
type UpdateTrekRequest struct {
	Name            *string  `json:"name,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Region          *string  `json:"region,omitempty"`
	Difficulty      *string  `json:"difficulty,omitempty"`
	DurationDays    *int     `json:"duration_days,omitempty"`
	BasePrice       *float64 `json:"base_price,omitempty"`
	MaxParticipants *int     `json:"max_participants,omitempty"`
	Status          *string  `json:"status,omitempty"`
}
