package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trekhive/trek-booking-backend/internal/models"
)

func setupBatchRepoTest(t *testing.T) (*BatchRepository, sqlmock.Sqlmock, *sqlx.DB, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewBatchRepository(sqlxDB)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, sqlxDB, cleanup
}

func batchRows(id, trekID string, capacity, booked, available int, status models.BatchStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "trek_id", "start_date", "end_date",
		"capacity", "booked_slots", "available_slots", "status",
		"created_at", "updated_at",
	}).AddRow(id, trekID, now.AddDate(0, 1, 0), now.AddDate(0, 1, 5), capacity, booked, available, status, now, now)
}

func TestBatchCreate_Success(t *testing.T) {
	repo, mock, _, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	batch := &models.Batch{
		TrekID:    "trek-1",
		StartDate: time.Now().AddDate(0, 1, 0),
		EndDate:   time.Now().AddDate(0, 1, 5),
		Capacity:  20,
	}

	mock.ExpectQuery("INSERT INTO batches").
		WithArgs(sqlmock.AnyArg(), "trek-1", batch.StartDate, batch.EndDate, 20, 0, 20, models.BatchStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(time.Now(), time.Now()))

	err := repo.Create(batch)
	require.NoError(t, err)
	assert.NotEmpty(t, batch.ID)
	assert.Equal(t, 0, batch.BookedSlots)
	assert.Equal(t, 20, batch.AvailableSlots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchGetByID_Success(t *testing.T) {
	repo, mock, _, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM batches").
		WithArgs("batch-1").
		WillReturnRows(batchRows("batch-1", "trek-1", 20, 8, 12, models.BatchStatusActive))

	batch, err := repo.GetByID("batch-1")
	require.NoError(t, err)
	assert.Equal(t, "batch-1", batch.ID)
	assert.Equal(t, 12, batch.AvailableSlots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchGetByID_NotFound(t *testing.T) {
	repo, mock, _, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM batches").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID("missing")
	require.Error(t, err)

	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveTx_Success(t *testing.T) {
	repo, mock, sqlxDB, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", 3).
		WillReturnRows(sqlmock.NewRows([]string{"booked_slots", "available_slots"}).
			AddRow(11, 9))
	mock.ExpectCommit()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	counts, err := repo.ReserveTx(tx, "batch-1", 3)
	require.NoError(t, err)
	assert.Equal(t, 11, counts.BookedSlots)
	assert.Equal(t, 9, counts.AvailableSlots)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveTx_CapacityExceeded(t *testing.T) {
	repo, mock, sqlxDB, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1", 5).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT available_slots FROM batches").
		WithArgs("batch-1").
		WillReturnRows(sqlmock.NewRows([]string{"available_slots"}).AddRow(2))
	mock.ExpectRollback()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	_, err = repo.ReserveTx(tx, "batch-1", 5)
	require.Error(t, err)

	var capErr *models.CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 2, capErr.Available)
	assert.Equal(t, 5, capErr.Requested)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveTx_BatchMissing(t *testing.T) {
	repo, mock, sqlxDB, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE batches").
		WithArgs("gone", 2).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT available_slots FROM batches").
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	_, err = repo.ReserveTx(tx, "gone", 2)
	require.Error(t, err)

	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveTx_InvalidSeatCount(t *testing.T) {
	repo, mock, sqlxDB, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	_, err = repo.ReserveTx(tx, "batch-1", 0)
	require.Error(t, err)

	var valErr *models.ValidationError
	assert.ErrorAs(t, err, &valErr)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseTx_Success(t *testing.T) {
	repo, mock, sqlxDB, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE batches").
		WithArgs("batch-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	require.NoError(t, repo.ReleaseTx(tx, "batch-1", 2))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseTx_NotFound(t *testing.T) {
	repo, mock, sqlxDB, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE batches").
		WithArgs("missing", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := sqlxDB.Beginx()
	require.NoError(t, err)

	err = repo.ReleaseTx(tx, "missing", 2)
	require.Error(t, err)

	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecompute_Success(t *testing.T) {
	repo, mock, _, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("UPDATE batches").
		WithArgs("batch-1").
		WillReturnRows(sqlmock.NewRows([]string{"booked_slots", "available_slots"}).
			AddRow(7, 13))

	counts, err := repo.Recompute("batch-1")
	require.NoError(t, err)
	assert.Equal(t, 7, counts.BookedSlots)
	assert.Equal(t, 13, counts.AvailableSlots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecompute_NotFound(t *testing.T) {
	repo, mock, _, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("UPDATE batches").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Recompute("missing")
	require.Error(t, err)

	var notFound *models.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAvailability_Available(t *testing.T) {
	repo, mock, _, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM batches").
		WithArgs("batch-1").
		WillReturnRows(batchRows("batch-1", "trek-1", 20, 15, 5, models.BatchStatusActive))

	availability, err := repo.GetAvailability("batch-1")
	require.NoError(t, err)
	assert.True(t, availability.IsAvailable)
	assert.Equal(t, 5, availability.AvailableSlots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAvailability_SoldOut(t *testing.T) {
	repo, mock, _, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM batches").
		WithArgs("batch-1").
		WillReturnRows(batchRows("batch-1", "trek-1", 20, 20, 0, models.BatchStatusActive))

	availability, err := repo.GetAvailability("batch-1")
	require.NoError(t, err)
	assert.False(t, availability.IsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAvailability_CancelledBatch(t *testing.T) {
	repo, mock, _, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM batches").
		WithArgs("batch-1").
		WillReturnRows(batchRows("batch-1", "trek-1", 20, 4, 16, models.BatchStatusCancelled))

	availability, err := repo.GetAvailability("batch-1")
	require.NoError(t, err)
	assert.False(t, availability.IsAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUpcomingIDs(t *testing.T) {
	repo, mock, _, cleanup := setupBatchRepoTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id FROM batches").
		WithArgs(90).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow("batch-1").
			AddRow("batch-2"))

	ids, err := repo.ListUpcomingIDs(90)
	require.NoError(t, err)
	assert.Equal(t, []string{"batch-1", "batch-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
