package database

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

func setupBookingRepoTest(t *testing.T) (*BookingRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewBookingRepository(sqlxDB, "TB")

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func bookingRows(id string, status models.BookingStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "booking_reference", "trek_id", "batch_id", "vendor_id", "customer_id",
		"coupon_id", "total_travelers", "total_amount", "discount_amount", "final_amount",
		"status", "payment_status", "booking_source", "pickup_point_id", "special_requests",
		"cancelled_at", "cancellation_reason", "created_at", "updated_at",
	}).AddRow(
		id, "TB-20260829-A1B2C3", "trek-1", "batch-1", "vendor-1", "customer-1",
		nil, 2, 9998.0, 0.0, 9998.0,
		status, models.PaymentStatusPending, models.BookingSourceApp, nil, nil,
		nil, nil, now, now,
	)
}

func TestGenerateBookingReference_Format(t *testing.T) {
	repo, mock, cleanup := setupBookingRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT(.+) FROM bookings").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ref, err := repo.GenerateBookingReference()
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^TB-\d{8}-[0-9A-F]{6}$`)
	assert.Regexp(t, pattern, ref)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateBookingReference_RetriesOnCollision(t *testing.T) {
	repo, mock, cleanup := setupBookingRepoTest(t)
	defer cleanup()

	// First candidate collides, second is unique
	mock.ExpectQuery("SELECT COUNT(.+) FROM bookings").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT(.+) FROM bookings").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ref, err := repo.GenerateBookingReference()
	require.NoError(t, err)
	assert.NotEmpty(t, ref)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateBookingReference_CustomPrefix(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewBookingRepository(sqlx.NewDb(db, "sqlmock"), "HX")

	mock.ExpectQuery("SELECT COUNT(.+) FROM bookings").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ref, err := repo.GenerateBookingReference()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^HX-`), ref)
}

func TestBookingGetByID_Success(t *testing.T) {
	repo, mock, cleanup := setupBookingRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs("booking-1").
		WillReturnRows(bookingRows("booking-1", models.BookingStatusPending))

	booking, err := repo.GetByID("booking-1")
	require.NoError(t, err)
	assert.Equal(t, "booking-1", booking.ID)
	assert.Equal(t, "TB-20260829-A1B2C3", booking.BookingReference)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingGetByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupBookingRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID("missing")
	require.Error(t, err)

	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirm_Success(t *testing.T) {
	repo, mock, cleanup := setupBookingRepoTest(t)
	defer cleanup()

	mock.ExpectExec("UPDATE bookings").
		WithArgs("booking-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Confirm("booking-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirm_AlreadyConfirmed(t *testing.T) {
	repo, mock, cleanup := setupBookingRepoTest(t)
	defer cleanup()

	mock.ExpectExec("UPDATE bookings").
		WithArgs("booking-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs("booking-1").
		WillReturnRows(bookingRows("booking-1", models.BookingStatusConfirmed))

	err := repo.Confirm("booking-1")
	require.Error(t, err)

	var transErr *models.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, models.BookingStatusConfirmed, transErr.Status)
	assert.Contains(t, err.Error(), "already confirmed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_Success(t *testing.T) {
	repo, mock, cleanup := setupBookingRepoTest(t)
	defer cleanup()

	db := repo.db
	trekRepo := NewTrekRepository(db)
	batchRepo := NewBatchRepository(db)
	travelerRepo := NewTravelerRepository(db)

	now := time.Now()

	// Reference generation runs on the pool before the transaction opens
	mock.ExpectQuery("SELECT COUNT(.+) FROM bookings").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM treks").
		WithArgs("trek-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "vendor_id", "name", "slug", "description", "region", "difficulty",
			"duration_days", "base_price", "max_participants", "inclusions", "exclusions",
			"status", "created_at", "updated_at",
		}).AddRow("trek-1", "vendor-1", "Valley of Flowers", "valley-of-flowers", nil, nil, nil,
			6, 4999.0, 20, nil, nil, models.TrekStatusPublished, now, now))
	mock.ExpectQuery("SELECT (.+) FROM batches").
		WithArgs("batch-1", "trek-1").
		WillReturnRows(batchRows("batch-1", "trek-1", 20, 8, 12, models.BatchStatusActive))
	mock.ExpectQuery("SELECT (.+) FROM travelers").
		WithArgs("customer-1", "Asha Verma", 29, "female").
		WillReturnRows(travelerRows("traveler-1", "customer-1", "Asha Verma", 29, "female"))
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"booked_slots", "available_slots"}).
			AddRow(9, 11))
	mock.ExpectQuery("INSERT INTO bookings").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "trek-1", "batch-1",
			"vendor-1", "customer-1", nil, 1, 4999.0, 0.0, 4999.0,
			models.BookingStatusPending, models.PaymentStatusPending,
			models.BookingSourceApp, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(now, now))
	mock.ExpectQuery("INSERT INTO booking_travelers").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "traveler-1", true,
			nil, nil, nil, models.BookingStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(now, now))
	mock.ExpectCommit()

	booking := &models.Booking{
		TrekID:        "trek-1",
		BatchID:       "batch-1",
		CustomerID:    "customer-1",
		TotalAmount:   4999.0,
		FinalAmount:   4999.0,
		Status:        models.BookingStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		BookingSource: models.BookingSourceApp,
	}
	travelers := []models.TravelerInput{
		{Name: "Asha Verma", Age: 29, Gender: "female"},
	}

	created, err := repo.CreateBooking(booking, travelers, trekRepo, batchRepo, travelerRepo)
	require.NoError(t, err)
	assert.Equal(t, "vendor-1", created.VendorID)
	assert.Regexp(t, regexp.MustCompile(`^TB-\d{8}-[0-9A-F]{6}$`), created.BookingReference)
	require.Len(t, created.Travelers, 1)
	assert.True(t, created.Travelers[0].IsPrimary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_ReserveFailureRollsBack(t *testing.T) {
	repo, mock, cleanup := setupBookingRepoTest(t)
	defer cleanup()

	db := repo.db
	trekRepo := NewTrekRepository(db)
	batchRepo := NewBatchRepository(db)
	travelerRepo := NewTravelerRepository(db)

	now := time.Now()

	mock.ExpectQuery("SELECT COUNT(.+) FROM bookings").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM treks").
		WithArgs("trek-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "vendor_id", "name", "slug", "description", "region", "difficulty",
			"duration_days", "base_price", "max_participants", "inclusions", "exclusions",
			"status", "created_at", "updated_at",
		}).AddRow("trek-1", "vendor-1", "Valley of Flowers", "valley-of-flowers", nil, nil, nil,
			6, 4999.0, 20, nil, nil, models.TrekStatusPublished, now, now))
	mock.ExpectQuery("SELECT (.+) FROM batches").
		WithArgs("batch-1", "trek-1").
		WillReturnRows(batchRows("batch-1", "trek-1", 20, 19, 1, models.BatchStatusActive))
	mock.ExpectQuery("SELECT (.+) FROM travelers").
		WithArgs("customer-1", "Asha Verma", 29, "female").
		WillReturnRows(travelerRows("traveler-1", "customer-1", "Asha Verma", 29, "female"))
	mock.ExpectQuery("SELECT (.+) FROM travelers").
		WithArgs("customer-1", "Rohan Iyer", 34, "male").
		WillReturnRows(travelerRows("traveler-2", "customer-1", "Rohan Iyer", 34, "male"))
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", 2).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT available_slots FROM batches").
		WithArgs("batch-1").
		WillReturnRows(sqlmock.NewRows([]string{"available_slots"}).AddRow(1))
	mock.ExpectRollback()

	booking := &models.Booking{
		TrekID:        "trek-1",
		BatchID:       "batch-1",
		CustomerID:    "customer-1",
		TotalAmount:   9998.0,
		FinalAmount:   9998.0,
		Status:        models.BookingStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		BookingSource: models.BookingSourceApp,
	}
	travelers := []models.TravelerInput{
		{Name: "Asha Verma", Age: 29, Gender: "female"},
		{Name: "Rohan Iyer", Age: 34, Gender: "male"},
	}

	_, err := repo.CreateBooking(booking, travelers, trekRepo, batchRepo, travelerRepo)
	require.Error(t, err)

	var capErr *models.CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 1, capErr.Available)
	assert.Equal(t, 2, capErr.Requested)

	// No booking or traveler insert was ever issued and the tx rolled back
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_Success(t *testing.T) {
	repo, mock, cleanup := setupBookingRepoTest(t)
	defer cleanup()

	batchRepo := NewBatchRepository(repo.db)
	reason := "change of plans"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs("booking-1").
		WillReturnRows(bookingRows("booking-1", models.BookingStatusConfirmed))
	mock.ExpectQuery("UPDATE bookings").
		WithArgs("booking-1", sqlmock.AnyArg(), reason).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec("UPDATE booking_travelers").
		WithArgs("booking-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE batches").
		WithArgs("batch-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	cancelled, err := repo.Cancel("booking-1", &reason, batchRepo)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, reason, *cancelled.CancellationReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	repo, mock, cleanup := setupBookingRepoTest(t)
	defer cleanup()

	batchRepo := NewBatchRepository(repo.db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs("booking-1").
		WillReturnRows(bookingRows("booking-1", models.BookingStatusCancelled))
	mock.ExpectRollback()

	_, err := repo.Cancel("booking-1", nil, batchRepo)
	require.Error(t, err)

	var transErr *models.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Contains(t, err.Error(), "already cancelled")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_ReleaseFailureRollsBack(t *testing.T) {
	repo, mock, cleanup := setupBookingRepoTest(t)
	defer cleanup()

	batchRepo := NewBatchRepository(repo.db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs("booking-1").
		WillReturnRows(bookingRows("booking-1", models.BookingStatusConfirmed))
	mock.ExpectQuery("UPDATE bookings").
		WithArgs("booking-1", sqlmock.AnyArg(), nil).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
	mock.ExpectExec("UPDATE booking_travelers").
		WithArgs("booking-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE batches").
		WithArgs("batch-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Cancel("booking-1", nil, batchRepo)
	require.Error(t, err)

	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByCustomer(t *testing.T) {
	repo, mock, cleanup := setupBookingRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs("customer-1", 20, 0).
		WillReturnRows(bookingRows("booking-1", models.BookingStatusConfirmed))

	bookings, err := repo.ListByCustomer("customer-1", 20, 0)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "booking-1", bookings[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByBatch(t *testing.T) {
	repo, mock, cleanup := setupBookingRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs("batch-1").
		WillReturnRows(bookingRows("booking-1", models.BookingStatusConfirmed))

	bookings, err := repo.ListByBatch("batch-1")
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
