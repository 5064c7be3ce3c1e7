package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

// InsertSnapshot appends one daily snapshot. The (user_id, snapshot_date)
// unique constraint makes concurrent inserts for the same day safe: the
// second writer's row is silently dropped and inserted reports false.
// Snapshot rows are never updated after creation.
func (db *DB) InsertSnapshot(s *models.DailySnapshot) (inserted bool, err error) {
	query := `
		INSERT INTO portfolio_history (user_id, snapshot_date, total_value, daily_change, daily_change_percent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, snapshot_date) DO NOTHING
		RETURNING id
	`
	now := time.Now()
	err = db.conn.QueryRow(query,
		s.UserID, s.Date, s.TotalValue, s.DailyChange, s.DailyChangePercent, now,
	).Scan(&s.ID)

	if err == sql.ErrNoRows {
		// Conflict: a snapshot for this user and date already exists
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	s.CreatedAt = now
	return true, nil
}

// GetSnapshotByDate returns the snapshot for an exact calendar date, or nil
// when none exists for that day.
func (db *DB) GetSnapshotByDate(userID int, date time.Time) (*models.DailySnapshot, error) {
	query := `
		SELECT id, user_id, snapshot_date, total_value, daily_change, daily_change_percent, created_at
		FROM portfolio_history
		WHERE user_id = $1 AND snapshot_date = $2
	`
	s, err := scanSnapshot(db.conn.QueryRow(query, userID, date))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return s, nil
}

// GetSnapshotsByUser returns a user's full snapshot history ordered by date
func (db *DB) GetSnapshotsByUser(userID int) ([]*models.DailySnapshot, error) {
	query := `
		SELECT id, user_id, snapshot_date, total_value, daily_change, daily_change_percent, created_at
		FROM portfolio_history
		WHERE user_id = $1
		ORDER BY snapshot_date
	`
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.DailySnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSnapshot(row rowScanner) (*models.DailySnapshot, error) {
	var s models.DailySnapshot
	var totalValue, dailyChange, dailyChangePercent sql.NullString

	err := row.Scan(
		&s.ID, &s.UserID, &s.Date, &totalValue, &dailyChange, &dailyChangePercent, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if totalValue.Valid {
		s.TotalValue, _ = decimal.NewFromString(totalValue.String)
	}
	if dailyChange.Valid {
		s.DailyChange, _ = decimal.NewFromString(dailyChange.String)
	}
	if dailyChangePercent.Valid {
		s.DailyChangePercent, _ = decimal.NewFromString(dailyChangePercent.String)
	}

	return &s, nil
}
