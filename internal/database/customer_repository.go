package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

// CustomerRepository handles database operations for the customers table
type CustomerRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *sqlx.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

const customerColumns = `id, phone, email, name, status, created_at, updated_at`

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(customerID string) (*models.Customer, error) {
	customer := &models.Customer{}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	err := r.db.Get(customer, query, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("customer", customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer: %w", err)
	}
	return customer, nil
}

// GetByPhone retrieves a customer by phone number
func (r *CustomerRepository) GetByPhone(phone string) (*models.Customer, error) {
	customer := &models.Customer{}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE phone = $1`

	err := r.db.Get(customer, query, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NewNotFoundError("customer", phone)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customer: %w", err)
	}
	return customer, nil
}

// GetOrCreateByPhone fetches the customer for a verified phone number,
// creating the account on first sight. Returns whether the customer is new.
func (r *CustomerRepository) GetOrCreateByPhone(phone string) (*models.Customer, bool, error) {
	customer, err := r.GetByPhone(phone)
	if err == nil {
		return customer, false, nil
	}
	var notFound *models.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, false, err
	}

	customer = &models.Customer{ID: uuid.New().String(), Phone: phone, Status: "active"}
	query := `
		INSERT INTO customers (id, phone, status)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err = r.db.QueryRow(query, customer.ID, customer.Phone, customer.Status).
		Scan(&customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, true, nil
}

// UpdateProfile updates the customer's name and email
func (r *CustomerRepository) UpdateProfile(customerID string, req *models.UpdateCustomerProfileRequest) error {
	query := `
		UPDATE customers
		SET name = COALESCE($2, name),
		    email = COALESCE($3, email),
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(query, customerID, req.Name, req.Email)
	if err != nil {
		return fmt.Errorf("failed to update customer profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.NewNotFoundError("customer", customerID)
	}
	return nil
}
