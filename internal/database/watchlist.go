package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

// CreateWatchlistItem inserts a new watchlist entry
func (db *DB) CreateWatchlistItem(item *models.WatchlistItem) error {
	query := `
		INSERT INTO watchlist (user_id, symbol, exchange, notes, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRow(query,
		item.UserID, item.Symbol, item.Exchange, item.Notes, now,
	).Scan(&item.ID)

	if err != nil {
		return fmt.Errorf("failed to create watchlist item: %w", err)
	}
	item.CreatedAt = now
	return nil
}

// GetWatchlistItemByID retrieves a single watchlist entry
func (db *DB) GetWatchlistItemByID(id int) (*models.WatchlistItem, error) {
	query := `
		SELECT id, user_id, symbol, exchange, notes, created_at
		FROM watchlist
		WHERE id = $1
	`
	var item models.WatchlistItem
	var notes sql.NullString
	err := db.conn.QueryRow(query, id).Scan(
		&item.ID, &item.UserID, &item.Symbol, &item.Exchange, &notes, &item.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("watchlist item not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist item: %w", err)
	}

	if notes.Valid {
		item.Notes = notes.String
	}
	return &item, nil
}

// GetWatchlistByUser retrieves all watchlist entries for a user
func (db *DB) GetWatchlistByUser(userID int) ([]*models.WatchlistItem, error) {
	query := `
		SELECT id, user_id, symbol, exchange, notes, created_at
		FROM watchlist
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}
	defer rows.Close()

	var items []*models.WatchlistItem
	for rows.Next() {
		var item models.WatchlistItem
		var notes sql.NullString
		err := rows.Scan(
			&item.ID, &item.UserID, &item.Symbol, &item.Exchange, &notes, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
		}
		if notes.Valid {
			item.Notes = notes.String
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

// WatchlistItemExists checks if a user already watches a symbol
func (db *DB) WatchlistItemExists(userID int, symbol string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM watchlist WHERE user_id = $1 AND symbol = $2)`
	var exists bool
	err := db.conn.QueryRow(query, userID, symbol).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check watchlist existence: %w", err)
	}
	return exists, nil
}

// UpdateWatchlistNotes replaces the notes on a watchlist entry
func (db *DB) UpdateWatchlistNotes(id int, notes string) error {
	query := `UPDATE watchlist SET notes = $2 WHERE id = $1`
	result, err := db.conn.Exec(query, id, notes)
	if err != nil {
		return fmt.Errorf("failed to update watchlist notes: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("watchlist item not found: %d", id)
	}
	return nil
}

// DeleteWatchlistItem removes a watchlist entry by ID
func (db *DB) DeleteWatchlistItem(id int) error {
	query := `DELETE FROM watchlist WHERE id = $1`
	result, err := db.conn.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist item: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("watchlist item not found: %d", id)
	}
	return nil
}
