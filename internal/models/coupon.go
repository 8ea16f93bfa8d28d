package models

import "time"

// CouponDiscountType represents how a coupon discount is computed
type CouponDiscountType string

const (
	DiscountTypePercentage CouponDiscountType = "percentage"
	DiscountTypeFixed      CouponDiscountType = "fixed"
)

// CouponStatus represents the lifecycle status of a coupon
type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusInactive CouponStatus = "inactive"
	CouponStatusExpired  CouponStatus = "expired"
)

// Coupon represents a discount rule. used_count is only bumped after a
// booking is confirmed, never on abandoned or failed attempts.
type Coupon struct {
	ID                string             `json:"id" db:"id"`
	Code              string             `json:"code" db:"code"`
	DiscountType      CouponDiscountType `json:"discount_type" db:"discount_type"`
	DiscountValue     float64            `json:"discount_value" db:"discount_value"`
	MinAmount         *float64           `json:"min_amount,omitempty" db:"min_amount"`
	MaxDiscountAmount *float64           `json:"max_discount_amount,omitempty" db:"max_discount_amount"`
	ValidFrom         time.Time          `json:"valid_from" db:"valid_from"`
	ValidUntil        time.Time          `json:"valid_until" db:"valid_until"`
	UsageLimit        *int               `json:"usage_limit,omitempty" db:"usage_limit"`
	UsedCount         int                `json:"used_count" db:"used_count"`
	Status            CouponStatus       `json:"status" db:"status"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" db:"updated_at"`
}

// CreateCouponRequest represents the admin request to create a coupon
type CreateCouponRequest struct {
	Code              string   `json:"code" binding:"required"`
	DiscountType      string   `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue     float64  `json:"discount_value" binding:"required,gt=0"`
	MinAmount         *float64 `json:"min_amount,omitempty"`
	MaxDiscountAmount *float64 `json:"max_discount_amount,omitempty"`
	ValidFrom         string   `json:"valid_from" binding:"required"` // YYYY-MM-DD
	ValidUntil        string   `json:"valid_until" binding:"required"`
	UsageLimit        *int     `json:"usage_limit,omitempty"`
}

// UpdateCouponRequest represents a partial coupon update
type UpdateCouponRequest struct {
	DiscountValue     *float64 `json:"discount_value,omitempty"`
	MinAmount         *float64 `json:"min_amount,omitempty"`
	MaxDiscountAmount *float64 `json:"max_discount_amount,omitempty"`
	ValidUntil        *string  `json:"valid_until,omitempty"`
	UsageLimit        *int     `json:"usage_limit,omitempty"`
	Status            *string  `json:"status,omitempty"`
}
