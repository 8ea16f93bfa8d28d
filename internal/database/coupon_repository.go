package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

// CouponRepository handles database operations for the coupons table
type CouponRepository struct {
	db *sqlx.DB
}

// NewCouponRepository creates a new CouponRepository
func NewCouponRepository(db *sqlx.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

const couponColumns = `id, code, discount_type, discount_value, min_amount,
	max_discount_amount, valid_from, valid_until, usage_limit, used_count,
	status, created_at, updated_at`

// Create creates a new coupon
func (r *CouponRepository) Create(coupon *models.Coupon) error {
	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
	}
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	if coupon.Status == "" {
		coupon.Status = models.CouponStatusActive
	}

	query := `
		INSERT INTO coupons (
			id, code, discount_type, discount_value, min_amount,
			max_discount_amount, valid_from, valid_until, usage_limit, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(query,
		coupon.ID, coupon.Code, coupon.DiscountType, coupon.DiscountValue,
		coupon.MinAmount, coupon.MaxDiscountAmount, coupon.ValidFrom,
		coupon.ValidUntil, coupon.UsageLimit, coupon.Status,
	).Scan(&coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

// GetByCode retrieves a coupon by its code
func (r *CouponRepository) GetByCode(code string) (*models.Coupon, error) {
	coupon := &models.Coupon{}
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	err := r.db.Get(coupon, query, strings.ToUpper(strings.TrimSpace(code)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("coupon", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch coupon: %w", err)
	}
	return coupon, nil
}

// GetByID retrieves a coupon by ID
func (r *CouponRepository) GetByID(couponID string) (*models.Coupon, error) {
	coupon := &models.Coupon{}
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	err := r.db.Get(coupon, query, couponID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("coupon", couponID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch coupon: %w", err)
	}
	return coupon, nil
}

// List retrieves all coupons for the admin surface
func (r *CouponRepository) List(limit, offset int) ([]models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	var coupons []models.Coupon
	if err := r.db.Select(&coupons, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

// Update applies a partial update to a coupon
func (r *CouponRepository) Update(couponID string, req *models.UpdateCouponRequest, validUntil interface{}) error {
	query := `
		UPDATE coupons
		SET discount_value = COALESCE($2, discount_value),
		    min_amount = COALESCE($3, min_amount),
		    max_discount_amount = COALESCE($4, max_discount_amount),
		    valid_until = COALESCE($5, valid_until),
		    usage_limit = COALESCE($6, usage_limit),
		    status = COALESCE($7, status),
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(query, couponID,
		req.DiscountValue, req.MinAmount, req.MaxDiscountAmount,
		validUntil, req.UsageLimit, req.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("coupon", couponID)
	}
	return nil
}

// IncrementUsage bumps the usage counter. Called only after a booking is
// confirmed so abandoned or failed bookings never consume the cap.
func (r *CouponRepository) IncrementUsage(couponID string) error {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(query, couponID)
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("coupon", couponID)
	}
	return nil
}

// HasCustomerUsed reports whether the customer already redeemed the coupon
// on a booking that is still alive
func (r *CouponRepository) HasCustomerUsed(couponID, customerID string) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE coupon_id = $1 AND customer_id = $2
		  AND status IN ('pending', 'confirmed', 'completed')`

	if err := r.db.Get(&count, query, couponID, customerID); err != nil {
		return false, fmt.Errorf("failed to check coupon usage: %w", err)
	}
	return count > 0, nil
}
