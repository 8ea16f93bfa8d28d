package services

import (
	"math"
	"time"

	"github.com/trekhive/trek-booking-backend/internal/models"
)

// PricingService computes booking totals. It is pure: no database access,
// no clock other than the timestamp passed in, so the same inputs always
// produce the same breakdown.
type PricingService struct{}

// NewPricingService creates a new PricingService
func NewPricingService() *PricingService {
	return &PricingService{}
}

// Price computes the total, discount and final amount for a booking.
// A nil coupon means full price. The discount never exceeds the total,
// so the final amount is never negative.
func (s *PricingService) Price(basePrice float64, travelerCount int, coupon *models.Coupon) models.PriceBreakdown {
	total := basePrice * float64(travelerCount)

	var discount float64
	if coupon != nil {
		switch coupon.DiscountType {
		case models.DiscountTypePercentage:
			discount = total * coupon.DiscountValue / 100
			if coupon.MaxDiscountAmount != nil && discount > *coupon.MaxDiscountAmount {
				discount = *coupon.MaxDiscountAmount
			}
		case models.DiscountTypeFixed:
			discount = coupon.DiscountValue
		}
		if discount > total {
			discount = total
		}
		discount = roundCurrency(discount)
	}

	return models.PriceBreakdown{
		TotalAmount:    roundCurrency(total),
		DiscountAmount: discount,
		FinalAmount:    roundCurrency(total - discount),
	}
}

// ValidateCoupon checks whether a coupon can be applied to a booking with
// the given pre-discount total at the given time. A coupon that fails any
// check is a hard error, never a silent full-price fallback.
func (s *PricingService) ValidateCoupon(coupon *models.Coupon, totalAmount float64, now time.Time) error {
	if coupon.Status != models.CouponStatusActive {
		return &models.CouponInvalidError{Code: coupon.Code, Reason: "coupon is " + string(coupon.Status)}
	}
	if now.Before(coupon.ValidFrom) {
		return &models.CouponInvalidError{Code: coupon.Code, Reason: "coupon is not yet valid"}
	}
	if now.After(coupon.ValidUntil) {
		return &models.CouponInvalidError{Code: coupon.Code, Reason: "coupon has expired"}
	}
	if coupon.MinAmount != nil && totalAmount < *coupon.MinAmount {
		return &models.CouponInvalidError{Code: coupon.Code, Reason: "booking amount is below the coupon minimum"}
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return &models.CouponInvalidError{Code: coupon.Code, Reason: "coupon usage limit reached"}
	}
	return nil
}

// ToMinorUnits converts a currency amount to minor units (e.g. rupees to
// paise) for payment provider comparison
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func roundCurrency(amount float64) float64 {
	return math.Round(amount*100) / 100
}
