package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidLength indicates phone number length is not 10 digits
	ErrInvalidLength = errors.New("phone number must be exactly 10 digits")

	// ErrInvalidPrefix indicates phone number doesn't start with a valid mobile digit
	ErrInvalidPrefix = errors.New("phone number must start with 6, 7, 8, or 9")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits")

	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")
)

// phoneRegex matches digits only
var phoneRegex = regexp.MustCompile(`^\d+$`)

// PhoneValidator handles Indian mobile number validation
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates an Indian mobile number.
// Accepts format: 9876543210, +91 98765 43210, 098765-43210
// Returns the sanitized 10-digit number and an error if invalid.
func (v *PhoneValidator) Validate(phone string) (string, error) {
	// Check if empty
	if phone == "" {
		return "", ErrEmptyPhone
	}

	// Sanitize input
	sanitized := v.Sanitize(phone)

	// Check if contains only digits
	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	// Check length
	if len(sanitized) != 10 {
		return "", ErrInvalidLength
	}

	// Check prefix
	if !v.IsValidPrefix(sanitized) {
		return "", ErrInvalidPrefix
	}

	return sanitized, nil
}

// Sanitize removes separators, the country code and a leading trunk zero
func (v *PhoneValidator) Sanitize(phone string) string {
	// Remove spaces, dashes, parentheses, and other common separators
	phone = strings.ReplaceAll(phone, " ", "")
	phone = strings.ReplaceAll(phone, "-", "")
	phone = strings.ReplaceAll(phone, "(", "")
	phone = strings.ReplaceAll(phone, ")", "")
	phone = strings.ReplaceAll(phone, "+", "")
	phone = strings.ReplaceAll(phone, ".", "")

	// Remove country code if present (91)
	if strings.HasPrefix(phone, "91") && len(phone) == 12 {
		phone = phone[2:]
	}

	// Remove trunk zero (dialed domestically as 09876543210)
	if strings.HasPrefix(phone, "0") && len(phone) == 11 {
		phone = phone[1:]
	}

	return phone
}

// IsValidPrefix checks if the number starts with a valid Indian mobile digit
func (v *PhoneValidator) IsValidPrefix(phone string) bool {
	if len(phone) == 0 {
		return false
	}

	switch phone[0] {
	case '6', '7', '8', '9':
		return true
	}
	return false
}

// Format formats a phone number in the standard display format: XXXXX XXXXX
func (v *PhoneValidator) Format(phone string) (string, error) {
	// Validate first
	sanitized, err := v.Validate(phone)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s %s",
		sanitized[0:5],
		sanitized[5:10],
	), nil
}

// FormatE164 returns the number in E.164 form with the country code
func (v *PhoneValidator) FormatE164(phone string) (string, error) {
	sanitized, err := v.Validate(phone)
	if err != nil {
		return "", err
	}

	return "+91" + sanitized, nil
}

// ValidateMultiple validates multiple phone numbers at once
// Returns a map of phone number to error (nil if valid)
func (v *PhoneValidator) ValidateMultiple(phones []string) map[string]error {
	results := make(map[string]error, len(phones))
	for _, phone := range phones {
		_, err := v.Validate(phone)
		results[phone] = err
	}
	return results
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}

// MustValidate validates and panics if invalid (use for testing only)
func (v *PhoneValidator) MustValidate(phone string) string {
	sanitized, err := v.Validate(phone)
	if err != nil {
		panic(fmt.Sprintf("invalid phone number %s: %v", phone, err))
	}
	return sanitized
}
