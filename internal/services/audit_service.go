package services

import (
	"encoding/json"
	"fmt"

	"github.com/trekhive/trek-booking-backend/internal/database"
	"github.com/trekhive/trek-booking-backend/internal/utils"
)

// AuditService writes booking lifecycle events to the booking_audit_logs
// table. Audit writes are best-effort: callers log failures but never fail
// the business operation over them.
type AuditService struct {
	db database.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB) *AuditService {
	return &AuditService{db: db}
}

// AuditEvent represents a booking event to be logged
type AuditEvent struct {
	ActorID    *string // customer, vendor or admin id; nil for system events
	ActorRole  string  // customer, vendor, admin, system
	Action     string  // booking_created, payment_verified, booking_cancelled, ...
	EntityType string  // booking, payment, batch
	EntityID   *string
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{}
}

// LogBookingCreated logs a successful booking creation
func (s *AuditService) LogBookingCreated(actorID, actorRole, bookingID, bookingRef string, travelers int, finalAmount float64, ipAddress, userAgent string) error {
	return s.logEvent(AuditEvent{
		ActorID:    &actorID,
		ActorRole:  actorRole,
		Action:     "booking_created",
		EntityType: "booking",
		EntityID:   &bookingID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"booking_reference": bookingRef,
			"total_travelers":   travelers,
			"final_amount":      finalAmount,
			"device_info":       utils.ParseUserAgent(userAgent),
		},
	})
}

// LogPaymentVerified logs a verified payment capture
func (s *AuditService) LogPaymentVerified(customerID, bookingID, orderID, paymentID string, amount int64, ipAddress, userAgent string) error {
	return s.logEvent(AuditEvent{
		ActorID:    &customerID,
		ActorRole:  "customer",
		Action:     "payment_verified",
		EntityType: "payment",
		EntityID:   &bookingID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"order_id":   orderID,
			"payment_id": paymentID,
			"amount":     amount,
		},
	})
}

// LogPaymentRejected logs a failed payment verification attempt
func (s *AuditService) LogPaymentRejected(orderID, paymentID, reason, ipAddress, userAgent string) error {
	return s.logEvent(AuditEvent{
		ActorID:    nil,
		ActorRole:  "customer",
		Action:     "payment_rejected",
		EntityType: "payment",
		EntityID:   nil,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"order_id":    orderID,
			"payment_id":  paymentID,
			"reason":      reason,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogRefundRequired records a captured payment whose booking could not be
// created. These rows are the work queue for manual or scripted refunds.
func (s *AuditService) LogRefundRequired(customerID, orderID, paymentID string, amount int64, failure string) error {
	return s.logEvent(AuditEvent{
		ActorID:    &customerID,
		ActorRole:  "system",
		Action:     "refund_required",
		EntityType: "payment",
		EntityID:   nil,
		Details: map[string]interface{}{
			"order_id":   orderID,
			"payment_id": paymentID,
			"amount":     amount,
			"failure":    failure,
		},
	})
}

// LogBookingCancelled logs a booking cancellation
func (s *AuditService) LogBookingCancelled(actorID, actorRole, bookingID string, releasedSlots int, reason *string, ipAddress, userAgent string) error {
	details := map[string]interface{}{
		"released_slots": releasedSlots,
	}
	if reason != nil {
		details["reason"] = *reason
	}

	return s.logEvent(AuditEvent{
		ActorID:    &actorID,
		ActorRole:  actorRole,
		Action:     "booking_cancelled",
		EntityType: "booking",
		EntityID:   &bookingID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogBatchRecomputed logs a ledger drift correction
func (s *AuditService) LogBatchRecomputed(batchID string, bookedSlots, availableSlots int) error {
	return s.logEvent(AuditEvent{
		ActorID:    nil,
		ActorRole:  "system",
		Action:     "batch_recomputed",
		EntityType: "batch",
		EntityID:   &batchID,
		Details: map[string]interface{}{
			"booked_slots":    bookedSlots,
			"available_slots": availableSlots,
		},
	})
}

// LogVendorLogin logs a vendor console login
func (s *AuditService) LogVendorLogin(vendorID string, success bool, ipAddress, userAgent string) error {
	action := "vendor_login_failed"
	if success {
		action = "vendor_login"
	}

	return s.logEvent(AuditEvent{
		ActorID:    &vendorID,
		ActorRole:  "vendor",
		Action:     action,
		EntityType: "vendor",
		EntityID:   &vendorID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"success":     success,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// logEvent is the internal method that writes to booking_audit_logs
func (s *AuditService) logEvent(event AuditEvent) error {
	detailsJSON, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to serialize audit details: %w", err)
	}

	query := `
		INSERT INTO booking_audit_logs (actor_id, actor_role, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`

	_, err = s.db.Exec(query,
		event.ActorID,
		event.ActorRole,
		event.Action,
		event.EntityType,
		event.EntityID,
		event.IPAddress,
		event.UserAgent,
		detailsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}
	return nil
}
