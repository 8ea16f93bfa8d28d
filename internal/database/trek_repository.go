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

// TrekRepository handles database operations for the treks table
type TrekRepository struct {
	db *sqlx.DB
}

// NewTrekRepository creates a new TrekRepository
func NewTrekRepository(db *sqlx.DB) *TrekRepository {
	return &TrekRepository{db: db}
}

const trekColumns = `id, vendor_id, name, slug, description, region, difficulty,
	duration_days, base_price, max_participants, inclusions, exclusions, status,
	created_at, updated_at`

// Create creates a new trek for a vendor
func (r *TrekRepository) Create(trek *models.Trek) error {
	if trek.ID == "" {
		trek.ID = uuid.New().String()
	}
	if trek.Slug == "" {
		trek.Slug = slugify(trek.Name)
	}

	query := `
		INSERT INTO treks (
			id, vendor_id, name, slug, description, region, difficulty,
			duration_days, base_price, max_participants, inclusions, exclusions, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(query,
		trek.ID, trek.VendorID, trek.Name, trek.Slug, trek.Description,
		trek.Region, trek.Difficulty, trek.DurationDays, trek.BasePrice,
		trek.MaxParticipants, trek.Inclusions, trek.Exclusions, trek.Status,
	).Scan(&trek.CreatedAt, &trek.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trek: %w", err)
	}
	return nil
}

// GetByID retrieves a trek by ID
func (r *TrekRepository) GetByID(trekID string) (*models.Trek, error) {
	trek := &models.Trek{}
	query := `SELECT ` + trekColumns + ` FROM treks WHERE id = $1`

	err := r.db.Get(trek, query, trekID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("trek", trekID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trek: %w", err)
	}
	return trek, nil
}

// GetForBookingTx loads a trek inside the booking transaction and rejects
// treks that are not in the bookable state
func (r *TrekRepository) GetForBookingTx(tx *sqlx.Tx, trekID string) (*models.Trek, error) {
	trek := &models.Trek{}
	query := `SELECT ` + trekColumns + ` FROM treks WHERE id = $1`

	err := tx.Get(trek, query, trekID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("trek", trekID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trek: %w", err)
	}
	if !trek.IsBookable() {
		return nil, &models.UnavailableError{Entity: "trek", Status: string(trek.Status)}
	}
	return trek, nil
}

// ListPublished retrieves bookable treks for the public catalogue
func (r *TrekRepository) ListPublished(limit, offset int) ([]models.Trek, error) {
	query := `
		SELECT ` + trekColumns + `
		FROM treks
		WHERE status = 'published'
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	var treks []models.Trek
	if err := r.db.Select(&treks, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list treks: %w", err)
	}
	return treks, nil
}

// ListByVendor retrieves all treks owned by a vendor
func (r *TrekRepository) ListByVendor(vendorID string) ([]models.Trek, error) {
	query := `SELECT ` + trekColumns + ` FROM treks WHERE vendor_id = $1 ORDER BY created_at DESC`

	var treks []models.Trek
	if err := r.db.Select(&treks, query, vendorID); err != nil {
		return nil, fmt.Errorf("failed to list vendor treks: %w", err)
	}
	return treks, nil
}

// Update applies a partial update to a trek owned by the vendor
func (r *TrekRepository) Update(trekID, vendorID string, req *models.UpdateTrekRequest) (*models.Trek, error) {
	trek := &models.Trek{}
	query := `SELECT ` + trekColumns + ` FROM treks WHERE id = $1 AND vendor_id = $2`
	err := r.db.Get(trek, query, trekID, vendorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("trek", trekID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trek: %w", err)
	}

	if req.Name != nil {
		trek.Name = *req.Name
	}
	if req.Description != nil {
		trek.Description = req.Description
	}
	if req.Region != nil {
		trek.Region = req.Region
	}
	if req.Difficulty != nil {
		trek.Difficulty = req.Difficulty
	}
	if req.DurationDays != nil {
		trek.DurationDays = *req.DurationDays
	}
	if req.BasePrice != nil {
		trek.BasePrice = *req.BasePrice
	}
	if req.MaxParticipants != nil {
		trek.MaxParticipants = *req.MaxParticipants
	}
	if req.Status != nil {
		trek.Status = models.NormalizeTrekStatus(*req.Status)
	}

	updateQuery := `
		UPDATE treks
		SET name = $2, description = $3, region = $4, difficulty = $5,
		    duration_days = $6, base_price = $7, max_participants = $8,
		    status = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err = r.db.QueryRow(updateQuery,
		trek.ID, trek.Name, trek.Description, trek.Region, trek.Difficulty,
		trek.DurationDays, trek.BasePrice, trek.MaxParticipants, trek.Status,
	).Scan(&trek.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update trek: %w", err)
	}
	return trek, nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}
