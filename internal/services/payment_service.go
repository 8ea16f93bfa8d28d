package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/trekhive/trek-booking-backend/internal/config"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

// PaymentService integrates with the Razorpay payment gateway. Orders are
// created before checkout; after checkout the client posts back the order id,
// payment id and signature, which are verified server-side before any
// booking is created.
type PaymentService struct {
	config *config.PaymentConfig
	logger *logrus.Logger
	client *http.Client
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(cfg *config.PaymentConfig, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RazorpayOrder is the provider order created ahead of checkout
type RazorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // minor currency units
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// RazorpayPayment is the provider's record of a payment attempt
type RazorpayPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"` // minor currency units
	Currency string `json:"currency"`
	Status   string `json:"status"` // created, authorized, captured, refunded, failed
	Method   string `json:"method,omitempty"`
	Email    string `json:"email,omitempty"`
	Contact  string `json:"contact,omitempty"`
}

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// IsConfigured returns true if the payment gateway credentials are present
func (s *PaymentService) IsConfigured() bool {
	return s.config.KeyID != "" && s.config.KeySecret != ""
}

// CreateOrder creates a provider order for the given amount in minor units.
// The receipt is our booking context (typically the quote reference) so
// provider dashboards can be reconciled against our records.
func (s *PaymentService) CreateOrder(amount int64, receipt string, notes map[string]string) (*RazorpayOrder, error) {
	if !s.IsConfigured() {
		return nil, fmt.Errorf("payment gateway not configured: missing key credentials")
	}
	if amount <= 0 {
		return nil, models.NewValidationError("amount", "must be positive")
	}

	reqBody := &razorpayOrderRequest{
		Amount:   amount,
		Currency: s.config.Currency,
		Receipt:  receipt,
		Notes:    notes,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.config.BaseURL+"/orders", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.config.KeyID, s.config.KeySecret)

	s.logger.WithFields(logrus.Fields{
		"amount":   amount,
		"currency": s.config.Currency,
		"receipt":  receipt,
	}).Info("Creating payment order")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Failed to call payment gateway")
		return nil, fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp razorpayErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Description != "" {
			return nil, fmt.Errorf("order creation failed: %s", errResp.Error.Description)
		}
		return nil, fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var order RazorpayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to parse order response: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"amount":   order.Amount,
	}).Info("Payment order created")

	return &order, nil
}

// VerifySignature checks the checkout callback signature. The expected value
// is HMAC-SHA256 over "orderID|paymentID" keyed with the secret, hex encoded.
// Comparison is constant-time.
func (s *PaymentService) VerifySignature(orderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, []byte(s.config.KeySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return &models.InvalidSignatureError{OrderID: orderID}
	}
	return nil
}

// FetchPayment retrieves the payment record from the provider
func (s *PaymentService) FetchPayment(paymentID string) (*RazorpayPayment, error) {
	req, err := http.NewRequest(http.MethodGet, s.config.BaseURL+"/payments/"+paymentID, nil)
	if err != nil {
		return nil, &models.PaymentLookupError{PaymentID: paymentID, Cause: err}
	}
	req.SetBasicAuth(s.config.KeyID, s.config.KeySecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &models.PaymentLookupError{PaymentID: paymentID, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.PaymentLookupError{PaymentID: paymentID, Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &models.PaymentLookupError{
			PaymentID: paymentID,
			Cause:     fmt.Errorf("gateway returned status %d", resp.StatusCode),
		}
	}

	var payment RazorpayPayment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, &models.PaymentLookupError{PaymentID: paymentID, Cause: err}
	}
	return &payment, nil
}

// VerifyCapturedPayment runs the full post-checkout check sequence: signature
// first, then provider lookup, captured status, and amount comparison in
// minor units. Order matters: an attacker-supplied payload must fail on the
// signature before any provider call is made.
func (s *PaymentService) VerifyCapturedPayment(orderID, paymentID, signature string, expectedAmount int64) (*RazorpayPayment, error) {
	if err := s.VerifySignature(orderID, paymentID, signature); err != nil {
		return nil, err
	}

	payment, err := s.FetchPayment(paymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status != "captured" {
		return nil, &models.PaymentNotCapturedError{PaymentID: paymentID, Status: payment.Status}
	}

	if payment.Amount != expectedAmount {
		return nil, &models.AmountMismatchError{
			PaymentID: paymentID,
			Expected:  expectedAmount,
			Actual:    payment.Amount,
		}
	}

	return payment, nil
}
