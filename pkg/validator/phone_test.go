package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhoneValidator(t *testing.T) {
	validator := NewPhoneValidator()
	assert.NotNil(t, validator)
}

func TestValidate_ValidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	validNumbers := []struct {
		input    string
		expected string
		name     string
	}{
		{"9876543210", "9876543210", "Standard format"},
		{"98765 43210", "9876543210", "With spaces"},
		{"98765-43210", "9876543210", "With dashes"},
		{"98765.43210", "9876543210", "With dots"},
		{"(98765) 43210", "9876543210", "With parentheses"},
		{"6876543210", "6876543210", "Starting with 6"},
		{"7876543210", "7876543210", "Starting with 7"},
		{"8876543210", "8876543210", "Starting with 8"},
		{"919876543210", "9876543210", "With country code"},
		{"+91 98765 43210", "9876543210", "With +91 and spaces"},
		{"09876543210", "9876543210", "With trunk zero"},
	}

	for _, tc := range validNumbers {
		t.Run(tc.name, func(t *testing.T) {
			sanitized, err := validator.Validate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sanitized)
		})
	}
}

func TestValidate_InvalidNumbers(t *testing.T) {
	validator := NewPhoneValidator()

	invalidNumbers := []struct {
		input       string
		expectedErr error
		name        string
	}{
		{"", ErrEmptyPhone, "Empty string"},
		{"123", ErrInvalidLength, "Too short"},
		{"98765432101", ErrInvalidLength, "Too long"},
		{"1876543210", ErrInvalidPrefix, "Invalid prefix 1"},
		{"2876543210", ErrInvalidPrefix, "Invalid prefix 2"},
		{"5876543210", ErrInvalidPrefix, "Invalid prefix 5"},
		{"987654321a", ErrInvalidFormat, "Contains letters"},
		{"98765-4321a", ErrInvalidFormat, "Contains letters with dashes"},
		{"98765 4321!", ErrInvalidFormat, "Contains special characters"},
	}

	for _, tc := range invalidNumbers {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Validate(tc.input)
			assert.Error(t, err)
			assert.Equal(t, tc.expectedErr, err)
		})
	}
}

func TestSanitize(t *testing.T) {
	validator := NewPhoneValidator()

	tests := []struct {
		input    string
		expected string
		name     string
	}{
		{"9876543210", "9876543210", "Already clean"},
		{"98765 43210", "9876543210", "With spaces"},
		{"98765-43210", "9876543210", "With dashes"},
		{"98765.43210", "9876543210", "With dots"},
		{"(98765) 43210", "9876543210", "With parentheses"},
		{"+919876543210", "9876543210", "With country code and plus"},
		{"919876543210", "9876543210", "With country code"},
		{"09876543210", "9876543210", "With trunk zero"},
		{"98765-43210  ", "9876543210", "With trailing spaces"},
		{"  98765-43210", "9876543210", "With leading spaces"},
		{"98765 - 43210", "9876543210", "Multiple separators"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := validator.Sanitize(tc.input)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestIsValidPrefix(t *testing.T) {
	validator := NewPhoneValidator()

	validPrefixes := []string{
		"6876543210",
		"7876543210",
		"8876543210",
		"9876543210",
	}

	for _, phone := range validPrefixes {
		t.Run(phone[:1], func(t *testing.T) {
			assert.True(t, validator.IsValidPrefix(phone))
		})
	}

	invalidPrefixes := []string{
		"0876543210",
		"1876543210",
		"2876543210",
		"3876543210",
		"4876543210",
		"5876543210",
	}

	for _, phone := range invalidPrefixes {
		t.Run(phone[:1], func(t *testing.T) {
			assert.False(t, validator.IsValidPrefix(phone))
		})
	}

	// Edge case
	assert.False(t, validator.IsValidPrefix(""))
}

func TestFormat(t *testing.T) {
	validator := NewPhoneValidator()

	tests := []struct {
		input    string
		expected string
		name     string
	}{
		{"9876543210", "98765 43210", "Standard format"},
		{"98765 43210", "98765 43210", "Already formatted"},
		{"98765-43210", "98765 43210", "With dashes"},
		{"6876543210", "68765 43210", "Starting with 6"},
		{"919876543210", "98765 43210", "With country code"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := validator.Format(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}

	// Test invalid input
	_, err := validator.Format("invalid")
	assert.Error(t, err)
}

func TestFormatE164(t *testing.T) {
	validator := NewPhoneValidator()

	tests := []struct {
		input    string
		expected string
		name     string
	}{
		{"9876543210", "+919876543210", "Standard format"},
		{"919876543210", "+919876543210", "With country code"},
		{"+91 98765 43210", "+919876543210", "Already E.164 with spaces"},
		{"09876543210", "+919876543210", "With trunk zero"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := validator.FormatE164(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, result)
		})
	}

	// Test invalid input
	_, err := validator.FormatE164("invalid")
	assert.Error(t, err)
}

func TestValidateMultiple(t *testing.T) {
	validator := NewPhoneValidator()

	phones := []string{
		"9876543210", // Valid
		"6876543210", // Valid
		"invalid",    // Invalid
		"123",        // Invalid
		"8876543210", // Valid
		"1876543210", // Invalid prefix
	}

	results := validator.ValidateMultiple(phones)

	assert.Len(t, results, 6)
	assert.Nil(t, results["9876543210"])
	assert.Nil(t, results["6876543210"])
	assert.Nil(t, results["8876543210"])
	assert.NotNil(t, results["invalid"])
	assert.NotNil(t, results["123"])
	assert.NotNil(t, results["1876543210"])
}

func TestIsValid(t *testing.T) {
	validator := NewPhoneValidator()

	validNumbers := []string{
		"9876543210",
		"98765 43210",
		"98765-43210",
		"6876543210",
		"919876543210",
	}

	for _, phone := range validNumbers {
		t.Run(phone, func(t *testing.T) {
			assert.True(t, validator.IsValid(phone))
		})
	}

	invalidNumbers := []string{
		"",
		"invalid",
		"123",
		"1876543210",
		"987654321a",
	}

	for _, phone := range invalidNumbers {
		t.Run(phone, func(t *testing.T) {
			assert.False(t, validator.IsValid(phone))
		})
	}
}

func TestMustValidate(t *testing.T) {
	validator := NewPhoneValidator()

	// Test valid phone
	result := validator.MustValidate("9876543210")
	assert.Equal(t, "9876543210", result)

	// Test invalid phone (should panic)
	assert.Panics(t, func() {
		validator.MustValidate("invalid")
	})
}

func TestCountryCodeHandling(t *testing.T) {
	validator := NewPhoneValidator()

	tests := []struct {
		input    string
		expected string
		name     string
	}{
		{"919876543210", "9876543210", "With 91 country code"},
		{"+919876543210", "9876543210", "With +91 country code"},
		{"91 98765 43210", "9876543210", "With 91 and spaces"},
		{"91-98765-43210", "9876543210", "With 91 and dashes"},
		{"9876543210", "9876543210", "Without country code"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sanitized, err := validator.Validate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sanitized)
		})
	}
}

func TestEdgeCases(t *testing.T) {
	validator := NewPhoneValidator()

	t.Run("Phone with only spaces", func(t *testing.T) {
		_, err := validator.Validate("     ")
		assert.Error(t, err)
	})

	t.Run("Phone with mixed separators", func(t *testing.T) {
		sanitized, err := validator.Validate("98765-432 10")
		require.NoError(t, err)
		assert.Equal(t, "9876543210", sanitized)
	})

	t.Run("Phone with unicode characters", func(t *testing.T) {
		_, err := validator.Validate("98765резреирей10") // Contains Devanagari digits
		assert.Error(t, err)
	})

	t.Run("Very long input", func(t *testing.T) {
		_, err := validator.Validate("987654321098765432109876543210")
		assert.Error(t, err)
		assert.Equal(t, ErrInvalidLength, err)
	})
}

func TestConcurrentValidation(t *testing.T) {
	validator := NewPhoneValidator()

	done := make(chan bool)
	errors := make(chan error, 100)

	phones := []string{
		"9876543210",
		"6876543210",
		"7876543210",
		"8876543210",
		"9123456789",
	}

	// Validate 100 phones concurrently
	for i := 0; i < 100; i++ {
		go func(phone string) {
			_, err := validator.Validate(phone)
			if err != nil {
				errors <- err
			}
			done <- true
		}(phones[i%len(phones)])
	}

	// Wait for all goroutines
	for i := 0; i < 100; i++ {
		<-done
	}

	close(errors)
	assert.Empty(t, errors)
}

func BenchmarkValidate(b *testing.B) {
	validator := NewPhoneValidator()
	phone := "9876543210"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = validator.Validate(phone)
	}
}

func BenchmarkSanitize(b *testing.B) {
	validator := NewPhoneValidator()
	phone := "98765-43210"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = validator.Sanitize(phone)
	}
}

func BenchmarkFormat(b *testing.B) {
	validator := NewPhoneValidator()
	phone := "9876543210"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = validator.Format(phone)
	}
}
