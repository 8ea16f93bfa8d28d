package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/trekhive/trek-booking-backend/internal/database"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

// BookingService orchestrates the booking lifecycle: quoting, payment-backed
// creation, walk-in creation and cancellation. All slot mutations happen in
// the repository transactions; the service sequences them and owns the
// post-commit side effects (coupon usage, audit trail, payment logs).
type BookingService struct {
	bookingRepo    *database.BookingRepository
	trekRepo       *database.TrekRepository
	batchRepo      *database.BatchRepository
	travelerRepo   *database.TravelerRepository
	couponRepo     *database.CouponRepository
	paymentLogRepo *database.PaymentLogRepository
	pricing        *PricingService
	payment        *PaymentService
	audit          *AuditService
	logger         *logrus.Logger
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookingRepo *database.BookingRepository,
	trekRepo *database.TrekRepository,
	batchRepo *database.BatchRepository,
	travelerRepo *database.TravelerRepository,
	couponRepo *database.CouponRepository,
	paymentLogRepo *database.PaymentLogRepository,
	pricing *PricingService,
	payment *PaymentService,
	audit *AuditService,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		bookingRepo:    bookingRepo,
		trekRepo:       trekRepo,
		batchRepo:      batchRepo,
		travelerRepo:   travelerRepo,
		couponRepo:     couponRepo,
		paymentLogRepo: paymentLogRepo,
		pricing:        pricing,
		payment:        payment,
		audit:          audit,
		logger:         logger,
	}
}

// Actor identifies who is performing an operation
type Actor struct {
	ID   string
	Role string // customer, vendor, admin
}

// ClientContext carries request metadata for the audit trail
type ClientContext struct {
	IPAddress string
	UserAgent string
}

// BookingOptions control how a booking is created per surface
type BookingOptions struct {
	Source      models.BookingSource
	AutoConfirm bool // walk-in and post-payment bookings skip the pending state
}

// Quote holds a priced prospective booking before any slot is reserved
type Quote struct {
	Trek      *models.Trek
	Coupon    *models.Coupon
	Breakdown models.PriceBreakdown
}

// PrepareQuote prices a prospective booking for a customer. A supplied
// coupon that cannot be applied fails the quote; there is no silent
// full-price fallback.
func (s *BookingService) PrepareQuote(customerID, trekID string, travelerCount int, couponCode *string) (*Quote, error) {
	if travelerCount <= 0 {
		return nil, models.NewValidationError("travelers", "at least one traveler is required")
	}

	trek, err := s.trekRepo.GetByID(trekID)
	if err != nil {
		return nil, err
	}
	if !trek.IsBookable() {
		return nil, &models.UnavailableError{Entity: "trek", Status: string(trek.Status)}
	}

	var coupon *models.Coupon
	if couponCode != nil && *couponCode != "" {
		coupon, err = s.couponRepo.GetByCode(*couponCode)
		var notFound *models.NotFoundError
		if errors.As(err, &notFound) {
			return nil, &models.CouponInvalidError{Code: *couponCode, Reason: "coupon not found"}
		}
		if err != nil {
			return nil, err
		}

		total := trek.BasePrice * float64(travelerCount)
		if err := s.pricing.ValidateCoupon(coupon, total, time.Now()); err != nil {
			return nil, err
		}

		// One redemption per customer. Pending and completed bookings count;
		// only a cancelled booking frees the coupon up again.
		used, err := s.couponRepo.HasCustomerUsed(coupon.ID, customerID)
		if err != nil {
			return nil, err
		}
		if used {
			return nil, &models.CouponInvalidError{Code: coupon.Code, Reason: "coupon already used"}
		}
	}

	return &Quote{
		Trek:      trek,
		Coupon:    coupon,
		Breakdown: s.pricing.Price(trek.BasePrice, travelerCount, coupon),
	}, nil
}

// CreateBooking creates a booking for the customer. The repository runs the
// validation, traveler resolution, slot reservation and inserts in one
// transaction; this method prices the booking beforehand and handles the
// post-commit effects.
func (s *BookingService) CreateBooking(
	customerID string,
	req *models.CreateBookingRequest,
	opts BookingOptions,
	client ClientContext,
) (*models.Booking, error) {
	quote, err := s.PrepareQuote(customerID, req.TrekID, len(req.Travelers), req.CouponCode)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		TrekID:          req.TrekID,
		BatchID:         req.BatchID,
		CustomerID:      customerID,
		TotalAmount:     quote.Breakdown.TotalAmount,
		DiscountAmount:  quote.Breakdown.DiscountAmount,
		FinalAmount:     quote.Breakdown.FinalAmount,
		Status:          models.BookingStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		BookingSource:   opts.Source,
		PickupPointID:   req.PickupPointID,
		SpecialRequests: req.SpecialRequests,
	}
	if opts.AutoConfirm {
		booking.Status = models.BookingStatusConfirmed
		booking.PaymentStatus = models.PaymentStatusCompleted
	}
	if quote.Coupon != nil {
		booking.CouponID = &quote.Coupon.ID
	}

	booking, err = s.bookingRepo.CreateBooking(booking, req.Travelers, s.trekRepo, s.batchRepo, s.travelerRepo)
	if err != nil {
		return nil, err
	}

	if quote.Coupon != nil && booking.Status == models.BookingStatusConfirmed {
		s.recordCouponUsage(quote.Coupon.ID, booking.ID)
	}

	if err := s.audit.LogBookingCreated(
		customerID, actorRoleForSource(opts.Source),
		booking.ID, booking.BookingReference,
		booking.TotalTravelers, booking.FinalAmount,
		client.IPAddress, client.UserAgent,
	); err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Failed to write booking audit event")
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":        booking.ID,
		"booking_reference": booking.BookingReference,
		"trek_id":           booking.TrekID,
		"batch_id":          booking.BatchID,
		"travelers":         booking.TotalTravelers,
		"final_amount":      booking.FinalAmount,
		"source":            booking.BookingSource,
	}).Info("Booking created")

	return booking, nil
}

// CreateOrder prices a prospective booking and creates a provider order for
// its final amount. No slots are reserved at this point.
func (s *BookingService) CreateOrder(customerID string, req *models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	quote, err := s.PrepareQuote(customerID, req.TrekID, len(req.Travelers), req.CouponCode)
	if err != nil {
		return nil, err
	}

	// Batch must exist and be open before we take the customer to checkout
	availability, err := s.batchRepo.GetAvailability(req.BatchID)
	if err != nil {
		return nil, err
	}
	if availability.TrekID != req.TrekID {
		return nil, models.NewNotFoundError("batch", req.BatchID)
	}
	if !availability.IsAvailable || availability.AvailableSlots < len(req.Travelers) {
		return nil, &models.CapacityExceededError{
			BatchID:   req.BatchID,
			Available: availability.AvailableSlots,
			Requested: len(req.Travelers),
		}
	}

	amount := ToMinorUnits(quote.Breakdown.FinalAmount)
	receipt := fmt.Sprintf("trek-%s-batch-%s", req.TrekID, req.BatchID)
	order, err := s.payment.CreateOrder(amount, receipt, map[string]string{
		"trek_id":     req.TrekID,
		"batch_id":    req.BatchID,
		"customer_id": customerID,
	})
	if err != nil {
		return nil, err
	}

	return &models.CreateOrderResponse{
		OrderID:  order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Pricing:  quote.Breakdown,
	}, nil
}

// VerifyPaymentAndBook verifies the checkout callback and only then creates
// the booking. The signature is checked before anything else; the expected
// amount is re-derived from the booking payload, never trusted from the
// client. A captured payment whose booking fails is recorded as requiring
// a refund.
func (s *BookingService) VerifyPaymentAndBook(
	customerID string,
	req *models.VerifyPaymentRequest,
	client ClientContext,
) (*models.Booking, error) {
	quote, err := s.PrepareQuote(customerID, req.Booking.TrekID, len(req.Booking.Travelers), req.Booking.CouponCode)
	if err != nil {
		return nil, err
	}
	expected := ToMinorUnits(quote.Breakdown.FinalAmount)

	payment, err := s.payment.VerifyCapturedPayment(req.OrderID, req.PaymentID, req.Signature, expected)
	if err != nil {
		if auditErr := s.audit.LogPaymentRejected(req.OrderID, req.PaymentID, err.Error(), client.IPAddress, client.UserAgent); auditErr != nil {
			s.logger.WithError(auditErr).Warn("Failed to write payment rejection audit event")
		}
		return nil, err
	}

	booking, err := s.CreateBooking(customerID, &req.Booking, BookingOptions{
		Source:      models.BookingSourceApp,
		AutoConfirm: true,
	}, client)
	if err != nil {
		// Money is captured but no booking exists. Flag it for refund and
		// surface the creation failure to the client.
		s.logger.WithFields(logrus.Fields{
			"order_id":   req.OrderID,
			"payment_id": req.PaymentID,
			"amount":     payment.Amount,
		}).WithError(err).Error("Captured payment has no booking, refund required")
		if auditErr := s.audit.LogRefundRequired(customerID, req.OrderID, req.PaymentID, payment.Amount, err.Error()); auditErr != nil {
			s.logger.WithError(auditErr).Error("Failed to write refund-required audit event")
		}
		return nil, err
	}

	rawPayload, _ := json.Marshal(payment)
	paymentLog := &models.PaymentLog{
		BookingID:         booking.ID,
		ProviderOrderID:   req.OrderID,
		ProviderPaymentID: req.PaymentID,
		Amount:            payment.Amount,
		Currency:          payment.Currency,
		Status:            payment.Status,
		RawPayload:        rawPayload,
	}
	if err := s.paymentLogRepo.Append(paymentLog); err != nil {
		s.logger.WithError(err).WithField("booking_id", booking.ID).Error("Failed to append payment log")
	}

	if err := s.audit.LogPaymentVerified(customerID, booking.ID, req.OrderID, req.PaymentID, payment.Amount, client.IPAddress, client.UserAgent); err != nil {
		s.logger.WithError(err).Warn("Failed to write payment audit event")
	}

	return booking, nil
}

// ConfirmBooking moves a pending booking to confirmed after an out-of-band
// payment, bumping coupon usage on success
func (s *BookingService) ConfirmBooking(bookingID string) (*models.Booking, error) {
	if err := s.bookingRepo.Confirm(bookingID); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CouponID != nil {
		s.recordCouponUsage(*booking.CouponID, booking.ID)
	}
	return booking, nil
}

// CancelBooking cancels a booking on behalf of the actor. Customers can
// cancel their own bookings, vendors bookings on their own treks, admins
// any booking. Scoping failures report not-found, not forbidden.
func (s *BookingService) CancelBooking(
	bookingID string,
	actor Actor,
	req *models.CancelBookingRequest,
	client ClientContext,
) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case "customer":
		if booking.CustomerID != actor.ID {
			return nil, models.NewNotFoundError("booking", bookingID)
		}
	case "vendor":
		if booking.VendorID != actor.ID {
			return nil, models.NewNotFoundError("booking", bookingID)
		}
	case "admin":
	default:
		return nil, models.NewNotFoundError("booking", bookingID)
	}

	var reason *string
	if req != nil {
		reason = req.Reason
	}

	cancelled, err := s.bookingRepo.Cancel(bookingID, reason, s.batchRepo)
	if err != nil {
		return nil, err
	}

	if err := s.audit.LogBookingCancelled(
		actor.ID, actor.Role, bookingID,
		cancelled.TotalTravelers, reason,
		client.IPAddress, client.UserAgent,
	); err != nil {
		s.logger.WithError(err).WithField("booking_id", bookingID).Warn("Failed to write cancellation audit event")
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":     bookingID,
		"actor_role":     actor.Role,
		"released_slots": cancelled.TotalTravelers,
	}).Info("Booking cancelled")

	return cancelled, nil
}

// recordCouponUsage bumps the coupon counter after a confirmed booking.
// Failures are logged, not surfaced: the booking is already committed.
func (s *BookingService) recordCouponUsage(couponID, bookingID string) {
	if err := s.couponRepo.IncrementUsage(couponID); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"coupon_id":  couponID,
			"booking_id": bookingID,
		}).Warn("Failed to increment coupon usage")
	}
}

func actorRoleForSource(source models.BookingSource) string {
	switch source {
	case models.BookingSourceVendor:
		return "vendor"
	case models.BookingSourceAdmin:
		return "admin"
	default:
		return "customer"
	}
}
