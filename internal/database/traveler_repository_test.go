package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

func setupTravelerRepoTest(t *testing.T) (*TravelerRepository, sqlmock.Sqlmock, *sqlx.DB, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewTravelerRepository(sqlxDB)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, sqlxDB, cleanup
}

func travelerRows(id, customerID, name string, age int, gender string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "customer_id", "name", "age", "gender", "phone", "created_at", "updated_at",
	}).AddRow(id, customerID, name, age, gender, nil, now, now)
}

func TestResolveForBooking_ReusesExistingMatch(t *testing.T) {
	repo, mock, sqlxDB, cleanup := setupTravelerRepoTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM travelers").
		WithArgs("customer-1", "Asha Verma", 29, "female").
		WillReturnRows(travelerRows("traveler-1", "customer-1", "Asha Verma", 29, "female"))
	mock.ExpectCommit()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	resolved, err := repo.ResolveForBooking(tx, "customer-1", []models.TravelerInput{
		{Name: "Asha Verma", Age: 29, Gender: "female"},
	})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "traveler-1", resolved[0].Traveler.ID)
	assert.True(t, resolved[0].IsPrimary)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveForBooking_CreatesWhenNoMatch(t *testing.T) {
	repo, mock, sqlxDB, cleanup := setupTravelerRepoTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM travelers").
		WithArgs("customer-1", "Rohan Iyer", 34, "male").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "name", "age", "gender", "phone", "created_at", "updated_at",
		}))
	mock.ExpectQuery("INSERT INTO travelers").
		WithArgs(sqlmock.AnyArg(), "customer-1", "Rohan Iyer", 34, "male", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(time.Now(), time.Now()))
	mock.ExpectCommit()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	resolved, err := repo.ResolveForBooking(tx, "customer-1", []models.TravelerInput{
		{Name: "Rohan Iyer", Age: 34, Gender: "male"},
	})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.NotEmpty(t, resolved[0].Traveler.ID)
	assert.Equal(t, "customer-1", resolved[0].Traveler.CustomerID)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveForBooking_FirstTravelerPrimaryByDefault(t *testing.T) {
	repo, mock, sqlxDB, cleanup := setupTravelerRepoTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM travelers").
		WithArgs("customer-1", "Asha Verma", 29, "female").
		WillReturnRows(travelerRows("traveler-1", "customer-1", "Asha Verma", 29, "female"))
	mock.ExpectQuery("SELECT (.+) FROM travelers").
		WithArgs("customer-1", "Rohan Iyer", 34, "male").
		WillReturnRows(travelerRows("traveler-2", "customer-1", "Rohan Iyer", 34, "male"))
	mock.ExpectCommit()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	resolved, err := repo.ResolveForBooking(tx, "customer-1", []models.TravelerInput{
		{Name: "Asha Verma", Age: 29, Gender: "female"},
		{Name: "Rohan Iyer", Age: 34, Gender: "male"},
	})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.True(t, resolved[0].IsPrimary)
	assert.False(t, resolved[1].IsPrimary)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveForBooking_ExplicitPrimaryFlag(t *testing.T) {
	repo, mock, sqlxDB, cleanup := setupTravelerRepoTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM travelers").
		WithArgs("customer-1", "Asha Verma", 29, "female").
		WillReturnRows(travelerRows("traveler-1", "customer-1", "Asha Verma", 29, "female"))
	mock.ExpectQuery("SELECT (.+) FROM travelers").
		WithArgs("customer-1", "Rohan Iyer", 34, "male").
		WillReturnRows(travelerRows("traveler-2", "customer-1", "Rohan Iyer", 34, "male"))
	mock.ExpectCommit()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	resolved, err := repo.ResolveForBooking(tx, "customer-1", []models.TravelerInput{
		{Name: "Asha Verma", Age: 29, Gender: "female"},
		{Name: "Rohan Iyer", Age: 34, Gender: "male", IsPrimary: true},
	})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.False(t, resolved[0].IsPrimary)
	assert.True(t, resolved[1].IsPrimary)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveForBooking_RejectsMultiplePrimaries(t *testing.T) {
	repo, mock, sqlxDB, cleanup := setupTravelerRepoTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	_, err = repo.ResolveForBooking(tx, "customer-1", []models.TravelerInput{
		{Name: "Asha Verma", Age: 29, Gender: "female", IsPrimary: true},
		{Name: "Rohan Iyer", Age: 34, Gender: "male", IsPrimary: true},
	})
	require.Error(t, err)

	var valErr *models.ValidationError
	assert.ErrorAs(t, err, &valErr)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveForBooking_RejectsEmptyList(t *testing.T) {
	repo, mock, sqlxDB, cleanup := setupTravelerRepoTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	_, err = repo.ResolveForBooking(tx, "customer-1", nil)
	require.Error(t, err)

	var valErr *models.ValidationError
	assert.ErrorAs(t, err, &valErr)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveForBooking_ExplicitIDScopedToCustomer(t *testing.T) {
	repo, mock, sqlxDB, cleanup := setupTravelerRepoTest(t)
	defer cleanup()

	travelerID := "traveler-other"

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM travelers").
		WithArgs(travelerID, "customer-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "customer_id", "name", "age", "gender", "phone", "created_at", "updated_at",
		}))
	mock.ExpectRollback()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	_, err = repo.ResolveForBooking(tx, "customer-1", []models.TravelerInput{
		{ID: &travelerID, Name: "Asha Verma", Age: 29, Gender: "female"},
	})
	require.Error(t, err)

	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
