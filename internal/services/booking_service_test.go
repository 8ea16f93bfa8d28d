package services

import (
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trekhive/trek-booking-backend/internal/database"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

func setupBookingServiceTest(t *testing.T) (*BookingService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	service := NewBookingService(
		database.NewBookingRepository(sqlxDB, "TB"),
		database.NewTrekRepository(sqlxDB),
		database.NewBatchRepository(sqlxDB),
		database.NewTravelerRepository(sqlxDB),
		database.NewCouponRepository(sqlxDB),
		database.NewPaymentLogRepository(sqlxDB),
		NewPricingService(),
		nil,
		nil,
		logger,
	)

	cleanup := func() {
		db.Close()
	}

	return service, mock, cleanup
}

func publishedTrekRows(id string, basePrice float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "vendor_id", "name", "slug", "description", "region", "difficulty",
		"duration_days", "base_price", "max_participants", "inclusions", "exclusions",
		"status", "created_at", "updated_at",
	}).AddRow(id, "vendor-1", "Valley of Flowers", "valley-of-flowers", nil, nil, nil,
		6, basePrice, 20, nil, nil, models.TrekStatusPublished, now, now)
}

func activeCouponRows(id, code string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "code", "discount_type", "discount_value", "min_amount",
		"max_discount_amount", "valid_from", "valid_until", "usage_limit", "used_count",
		"status", "created_at", "updated_at",
	}).AddRow(id, code, models.DiscountTypePercentage, 10.0, nil, nil,
		now.AddDate(0, -1, 0), now.AddDate(0, 1, 0), nil, 0,
		models.CouponStatusActive, now, now)
}

func TestPrepareQuote_CouponAlreadyUsed(t *testing.T) {
	service, mock, cleanup := setupBookingServiceTest(t)
	defer cleanup()

	code := "SAVE10"

	mock.ExpectQuery("SELECT (.+) FROM treks").
		WithArgs("trek-1").
		WillReturnRows(publishedTrekRows("trek-1", 1000))
	mock.ExpectQuery("SELECT (.+) FROM coupons").
		WithArgs(code).
		WillReturnRows(activeCouponRows("coupon-1", code))
	mock.ExpectQuery("SELECT COUNT(.+) FROM bookings").
		WithArgs("coupon-1", "customer-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := service.PrepareQuote("customer-1", "trek-1", 2, &code)
	require.Error(t, err)

	var couponErr *models.CouponInvalidError
	require.ErrorAs(t, err, &couponErr)
	assert.Contains(t, couponErr.Reason, "already used")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrepareQuote_CouponFirstUse(t *testing.T) {
	service, mock, cleanup := setupBookingServiceTest(t)
	defer cleanup()

	code := "SAVE10"

	mock.ExpectQuery("SELECT (.+) FROM treks").
		WithArgs("trek-1").
		WillReturnRows(publishedTrekRows("trek-1", 1000))
	mock.ExpectQuery("SELECT (.+) FROM coupons").
		WithArgs(code).
		WillReturnRows(activeCouponRows("coupon-1", code))
	mock.ExpectQuery("SELECT COUNT(.+) FROM bookings").
		WithArgs("coupon-1", "customer-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	quote, err := service.PrepareQuote("customer-1", "trek-1", 2, &code)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, quote.Breakdown.TotalAmount)
	assert.Equal(t, 200.0, quote.Breakdown.DiscountAmount)
	assert.Equal(t, 1800.0, quote.Breakdown.FinalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrepareQuote_CouponNotFound(t *testing.T) {
	service, mock, cleanup := setupBookingServiceTest(t)
	defer cleanup()

	code := "NOPE"

	mock.ExpectQuery("SELECT (.+) FROM treks").
		WithArgs("trek-1").
		WillReturnRows(publishedTrekRows("trek-1", 1000))
	mock.ExpectQuery("SELECT (.+) FROM coupons").
		WithArgs(code).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code", "discount_type", "discount_value", "min_amount",
			"max_discount_amount", "valid_from", "valid_until", "usage_limit", "used_count",
			"status", "created_at", "updated_at",
		}))

	_, err := service.PrepareQuote("customer-1", "trek-1", 2, &code)
	require.Error(t, err)

	var couponErr *models.CouponInvalidError
	require.ErrorAs(t, err, &couponErr)
	assert.Contains(t, couponErr.Reason, "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrepareQuote_NoCouponSkipsUsageCheck(t *testing.T) {
	service, mock, cleanup := setupBookingServiceTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM treks").
		WithArgs("trek-1").
		WillReturnRows(publishedTrekRows("trek-1", 1500))

	quote, err := service.PrepareQuote("customer-1", "trek-1", 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 4500.0, quote.Breakdown.TotalAmount)
	assert.Equal(t, 0.0, quote.Breakdown.DiscountAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrepareQuote_UnpublishedTrek(t *testing.T) {
	service, mock, cleanup := setupBookingServiceTest(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM treks").
		WithArgs("trek-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "vendor_id", "name", "slug", "description", "region", "difficulty",
			"duration_days", "base_price", "max_participants", "inclusions", "exclusions",
			"status", "created_at", "updated_at",
		}).AddRow("trek-1", "vendor-1", "Valley of Flowers", "valley-of-flowers", nil, nil, nil,
			6, 1000.0, 20, nil, nil, models.TrekStatusDraft, now, now))

	_, err := service.PrepareQuote("customer-1", "trek-1", 2, nil)
	require.Error(t, err)

	var unavailable *models.UnavailableError
	assert.ErrorAs(t, err, &unavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
