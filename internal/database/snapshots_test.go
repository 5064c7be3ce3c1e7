package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewFromConn(conn), mock
}

func TestInsertSnapshot_Inserted(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("INSERT INTO portfolio_history").
		WithArgs(1, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	s := &models.DailySnapshot{
		UserID:             1,
		Date:               time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		TotalValue:         decimal.NewFromInt(1100),
		DailyChange:        decimal.NewFromInt(100),
		DailyChangePercent: decimal.NewFromInt(10),
	}
	inserted, err := db.InsertSnapshot(s)

	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, 42, s.ID)
	assert.False(t, s.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSnapshot_ConflictIsNoop(t *testing.T) {
	db, mock := newMockDB(t)

	// ON CONFLICT DO NOTHING returns no row when the day already exists
	mock.ExpectQuery("INSERT INTO portfolio_history").
		WillReturnError(sql.ErrNoRows)

	s := &models.DailySnapshot{
		UserID:     1,
		Date:       time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		TotalValue: decimal.NewFromInt(1100),
	}
	inserted, err := db.InsertSnapshot(s)

	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSnapshotByDate_Found(t *testing.T) {
	db, mock := newMockDB(t)

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "snapshot_date", "total_value", "daily_change", "daily_change_percent", "created_at"}).
		AddRow(7, 1, date, "1100.50", "100.50", "10.05", time.Now())

	mock.ExpectQuery("SELECT id, user_id, snapshot_date").
		WithArgs(1, date).
		WillReturnRows(rows)

	s, err := db.GetSnapshotByDate(1, date)

	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 7, s.ID)
	assert.True(t, s.TotalValue.Equal(decimal.NewFromFloat(1100.50)))
	assert.True(t, s.DailyChangePercent.Equal(decimal.NewFromFloat(10.05)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSnapshotByDate_MissingIsNil(t *testing.T) {
	db, mock := newMockDB(t)

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, user_id, snapshot_date").
		WithArgs(1, date).
		WillReturnError(sql.ErrNoRows)

	s, err := db.GetSnapshotByDate(1, date)

	require.NoError(t, err)
	assert.Nil(t, s)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSnapshotsByUser_OrderedHistory(t *testing.T) {
	db, mock := newMockDB(t)

	d1 := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "snapshot_date", "total_value", "daily_change", "daily_change_percent", "created_at"}).
		AddRow(1, 1, d1, "1000", "0", "0", time.Now()).
		AddRow(2, 1, d2, "1100", "100", "10", time.Now())

	mock.ExpectQuery("SELECT id, user_id, snapshot_date").
		WithArgs(1).
		WillReturnRows(rows)

	snapshots, err := db.GetSnapshotsByUser(1)

	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, d1, snapshots[0].Date)
	assert.True(t, snapshots[1].DailyChange.Equal(decimal.NewFromInt(100)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanSnapshot_NullNumericsCoerceToZero(t *testing.T) {
	db, mock := newMockDB(t)

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "snapshot_date", "total_value", "daily_change", "daily_change_percent", "created_at"}).
		AddRow(1, 1, date, nil, nil, nil, time.Now())

	mock.ExpectQuery("SELECT id, user_id, snapshot_date").
		WithArgs(1, date).
		WillReturnRows(rows)

	s, err := db.GetSnapshotByDate(1, date)

	require.NoError(t, err)
	require.NotNil(t, s)
	assert.True(t, s.TotalValue.IsZero())
	assert.True(t, s.DailyChange.IsZero())
	assert.True(t, s.DailyChangePercent.IsZero())
}
