package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trekhive/trek-booking-backend/internal/database"
)

// RateLimitService throttles vendor login attempts per email and per IP.
// Attempts are recorded in the login_rate_limits table so limits survive
// restarts and apply across replicas.
type RateLimitService struct {
	db database.DB
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB) *RateLimitService {
	return &RateLimitService{db: db}
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxEmailAttempts int           // Max login attempts per email
	EmailWindow      time.Duration // Time window for email rate limit
	MaxIPAttempts    int           // Max login attempts per IP
	IPWindow         time.Duration // Time window for IP rate limit
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxEmailAttempts: 5,
		EmailWindow:      15 * time.Minute,
		MaxIPAttempts:    20,
		IPWindow:         1 * time.Hour,
	}
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "email" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// CheckLoginRateLimit checks if an email or IP has exceeded login rate limits
func (s *RateLimitService) CheckLoginRateLimit(email, ip string) error {
	config := DefaultRateLimitConfig()

	if email != "" {
		count, lastAttempt, err := s.getAttemptCount(email, "email", config.EmailWindow)
		if err != nil {
			return fmt.Errorf("failed to check email rate limit: %w", err)
		}

		if count >= config.MaxEmailAttempts {
			retryAfter := lastAttempt.Add(config.EmailWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many login attempts for this account. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "email",
			}
		}
	}

	if ip != "" {
		count, lastAttempt, err := s.getAttemptCount(ip, "ip", config.IPWindow)
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}

		if count >= config.MaxIPAttempts {
			retryAfter := lastAttempt.Add(config.IPWindow)
			return &RateLimitError{
				Message:    fmt.Sprintf("Too many login attempts from this IP address. Please try again after %s", retryAfter.Format("15:04:05")),
				RetryAfter: retryAfter,
				Type:       "ip",
			}
		}
	}

	return nil
}

// getAttemptCount gets the number of attempts within the time window
func (s *RateLimitService) getAttemptCount(identifier, identifierType string, window time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Add(-window)

	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM login_rate_limits
		WHERE identifier = $1
		  AND identifier_type = $2
		  AND created_at > $3`

	var count int
	var lastAttempt time.Time

	err := s.db.QueryRow(query, identifier, identifierType, windowStart).Scan(&count, &lastAttempt)
	if err != nil && err != sql.ErrNoRows {
		return 0, time.Time{}, err
	}

	return count, lastAttempt, nil
}

// RecordLoginAttempt records a failed login attempt for rate limiting.
// Successful logins are not recorded; only failures count against the cap.
func (s *RateLimitService) RecordLoginAttempt(email, ip string) error {
	if email != "" {
		if err := s.recordAttempt(email, "email"); err != nil {
			return fmt.Errorf("failed to record email attempt: %w", err)
		}
	}
	if ip != "" {
		if err := s.recordAttempt(ip, "ip"); err != nil {
			return fmt.Errorf("failed to record IP attempt: %w", err)
		}
	}
	return nil
}

func (s *RateLimitService) recordAttempt(identifier, identifierType string) error {
	query := `
		INSERT INTO login_rate_limits (identifier, identifier_type, created_at)
		VALUES ($1, $2, NOW())`

	_, err := s.db.Exec(query, identifier, identifierType)
	return err
}

// CleanupExpiredRateLimits removes rate limit records older than the longest
// window
func (s *RateLimitService) CleanupExpiredRateLimits() (int64, error) {
	config := DefaultRateLimitConfig()

	maxWindow := config.IPWindow
	if config.EmailWindow > maxWindow {
		maxWindow = config.EmailWindow
	}
	cutoffTime := time.Now().Add(-maxWindow)

	result, err := s.db.Exec(`DELETE FROM login_rate_limits WHERE created_at < $1`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup rate limits: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// IsRateLimited checks if an identifier is currently rate limited
func (s *RateLimitService) IsRateLimited(identifier, identifierType string) (bool, time.Time, error) {
	config := DefaultRateLimitConfig()

	window := config.EmailWindow
	maxAttempts := config.MaxEmailAttempts
	if identifierType == "ip" {
		window = config.IPWindow
		maxAttempts = config.MaxIPAttempts
	}

	count, lastAttempt, err := s.getAttemptCount(identifier, identifierType, window)
	if err != nil {
		return false, time.Time{}, err
	}

	if count >= maxAttempts {
		return true, lastAttempt.Add(window), nil
	}
	return false, time.Time{}, nil
}
