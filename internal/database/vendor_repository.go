package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

// VendorRepository handles database operations for the vendors table
type VendorRepository struct {
	db *sqlx.DB
}

// NewVendorRepository creates a new VendorRepository
func NewVendorRepository(db *sqlx.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

const vendorColumns = `id, name, email, phone, password_hash, status, created_at, updated_at`

// Create creates a new vendor account
func (r *VendorRepository) Create(vendor *models.Vendor) error {
	if vendor.ID == "" {
		vendor.ID = uuid.New().String()
	}
	if vendor.Status == "" {
		vendor.Status = "active"
	}

	query := `
		INSERT INTO vendors (id, name, email, phone, password_hash, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(query,
		vendor.ID, vendor.Name, vendor.Email, vendor.Phone,
		vendor.PasswordHash, vendor.Status,
	).Scan(&vendor.CreatedAt, &vendor.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create vendor: %w", err)
	}
	return nil
}

// GetByID retrieves a vendor by ID
func (r *VendorRepository) GetByID(vendorID string) (*models.Vendor, error) {
	vendor := &models.Vendor{}
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE id = $1`

	err := r.db.Get(vendor, query, vendorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("vendor", vendorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vendor: %w", err)
	}
	return vendor, nil
}

// GetByEmail retrieves a vendor by email for login
func (r *VendorRepository) GetByEmail(email string) (*models.Vendor, error) {
	vendor := &models.Vendor{}
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE email = $1`

	err := r.db.Get(vendor, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("vendor", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vendor: %w", err)
	}
	return vendor, nil
}
