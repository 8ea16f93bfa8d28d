package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

// TravelerRepository finds-or-creates traveler records for a customer,
// deduplicating by (customer_id, name, age, gender). All resolution runs
// inside the booking transaction so a later failure rolls travelers back too.
type TravelerRepository struct {
	db *sqlx.DB
}

// NewTravelerRepository creates a new TravelerRepository
func NewTravelerRepository(db *sqlx.DB) *TravelerRepository {
	return &TravelerRepository{db: db}
}

const travelerColumns = `id, customer_id, name, age, gender, phone, created_at, updated_at`

// ResolveForBooking resolves each traveler input to a persisted traveler row
// inside tx. Inputs with an explicit id must belong to the customer; inputs
// without one reuse an exact (name, age, gender) match or create a new row.
// Exactly one resolved traveler is primary: the flagged one, or the first
// by default.
func (r *TravelerRepository) ResolveForBooking(
	tx *sqlx.Tx,
	customerID string,
	inputs []models.TravelerInput,
) ([]models.ResolvedTraveler, error) {
	if len(inputs) == 0 {
		return nil, models.NewValidationError("travelers", "at least one traveler is required")
	}

	primaryCount := 0
	for _, in := range inputs {
		if in.IsPrimary {
			primaryCount++
		}
	}
	if primaryCount > 1 {
		return nil, models.NewValidationError("travelers", "only one traveler may be marked primary")
	}

	resolved := make([]models.ResolvedTraveler, 0, len(inputs))
	for i, in := range inputs {
		var traveler *models.Traveler
		var err error

		if in.ID != nil && *in.ID != "" {
			traveler, err = r.updateExisting(tx, customerID, *in.ID, &in)
		} else {
			traveler, err = r.findOrCreate(tx, customerID, &in)
		}
		if err != nil {
			return nil, err
		}

		isPrimary := in.IsPrimary
		if primaryCount == 0 && i == 0 {
			isPrimary = true
		}

		resolved = append(resolved, models.ResolvedTraveler{
			Traveler:                traveler,
			IsPrimary:               isPrimary,
			MealPreference:          in.MealPreference,
			AccommodationPreference: in.AccommodationPreference,
			SpecialRequirements:     in.SpecialRequirements,
		})
	}

	return resolved, nil
}

// updateExisting loads a traveler by id scoped to the owning customer and
// patches the fields supplied in the input
func (r *TravelerRepository) updateExisting(
	tx *sqlx.Tx,
	customerID, travelerID string,
	in *models.TravelerInput,
) (*models.Traveler, error) {
	traveler := &models.Traveler{}
	query := `SELECT ` + travelerColumns + ` FROM travelers WHERE id = $1 AND customer_id = $2`

	err := tx.Get(traveler, query, travelerID, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		// Absent or owned by another customer; both look the same to the caller
		return nil, models.NewNotFoundError("traveler", travelerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch traveler: %w", err)
	}

	if in.Name != "" {
		traveler.Name = in.Name
	}
	if in.Age > 0 {
		traveler.Age = in.Age
	}
	if in.Gender != "" {
		traveler.Gender = in.Gender
	}
	if in.Phone != nil {
		traveler.Phone = in.Phone
	}

	updateQuery := `
		UPDATE travelers
		SET name = $2, age = $3, gender = $4, phone = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err = tx.QueryRowx(updateQuery,
		traveler.ID, traveler.Name, traveler.Age, traveler.Gender, traveler.Phone,
	).Scan(&traveler.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update traveler: %w", err)
	}

	return traveler, nil
}

// findOrCreate reuses an exact (customer_id, name, age, gender) match or
// inserts a new traveler
func (r *TravelerRepository) findOrCreate(
	tx *sqlx.Tx,
	customerID string,
	in *models.TravelerInput,
) (*models.Traveler, error) {
	traveler := &models.Traveler{}
	query := `
		SELECT ` + travelerColumns + `
		FROM travelers
		WHERE customer_id = $1 AND name = $2 AND age = $3 AND gender = $4
		LIMIT 1`

	err := tx.Get(traveler, query, customerID, in.Name, in.Age, in.Gender)
	if err == nil {
		return traveler, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up traveler: %w", err)
	}

	traveler = &models.Traveler{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		Name:       in.Name,
		Age:        in.Age,
		Gender:     in.Gender,
		Phone:      in.Phone,
	}

	insertQuery := `
		INSERT INTO travelers (id, customer_id, name, age, gender, phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err = tx.QueryRowx(insertQuery,
		traveler.ID, traveler.CustomerID, traveler.Name,
		traveler.Age, traveler.Gender, traveler.Phone,
	).Scan(&traveler.CreatedAt, &traveler.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create traveler: %w", err)
	}

	return traveler, nil
}

// ListByCustomer retrieves all travelers owned by a customer
func (r *TravelerRepository) ListByCustomer(customerID string) ([]models.Traveler, error) {
	query := `SELECT ` + travelerColumns + ` FROM travelers WHERE customer_id = $1 ORDER BY created_at`

	var travelers []models.Traveler
	if err := r.db.Select(&travelers, query, customerID); err != nil {
		return nil, fmt.Errorf("failed to list travelers: %w", err)
	}
	return travelers, nil
}
