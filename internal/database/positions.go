package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

// CreatePosition inserts a new position into the database
func (db *DB) CreatePosition(p *models.Position) error {
	query := `
		INSERT INTO positions (user_id, symbol, quantity, buy_price, exchange, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRow(query,
		p.UserID, p.Symbol, p.Quantity, p.BuyPrice, p.Exchange, now, now,
	).Scan(&p.ID)

	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetPositionByID retrieves a position by its ID
func (db *DB) GetPositionByID(id int) (*models.Position, error) {
	query := `
		SELECT id, user_id, symbol, quantity, buy_price, exchange, created_at, updated_at
		FROM positions
		WHERE id = $1
	`
	var p models.Position
	err := db.conn.QueryRow(query, id).Scan(
		&p.ID, &p.UserID, &p.Symbol, &p.Quantity, &p.BuyPrice, &p.Exchange,
		&p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("position not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	return &p, nil
}

// GetPositionsByUser retrieves all positions owned by a user, oldest first
func (db *DB) GetPositionsByUser(userID int) ([]*models.Position, error) {
	query := `
		SELECT id, user_id, symbol, quantity, buy_price, exchange, created_at, updated_at
		FROM positions
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		var p models.Position
		err := rows.Scan(
			&p.ID, &p.UserID, &p.Symbol, &p.Quantity, &p.BuyPrice, &p.Exchange,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, &p)
	}

	return positions, rows.Err()
}

// UpdatePosition updates an existing position
func (db *DB) UpdatePosition(p *models.Position) error {
	query := `
		UPDATE positions SET
			symbol = $2, quantity = $3, buy_price = $4, exchange = $5, updated_at = $6
		WHERE id = $1
	`
	p.UpdatedAt = time.Now()
	result, err := db.conn.Exec(query,
		p.ID, p.Symbol, p.Quantity, p.BuyPrice, p.Exchange, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("position not found: %d", p.ID)
	}
	return nil
}

// DeletePosition removes a position by ID
func (db *DB) DeletePosition(id int) error {
	query := `DELETE FROM positions WHERE id = $1`
	result, err := db.conn.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("position not found: %d", id)
	}
	return nil
}

// ReplaceUserPositions atomically replaces one user's positions with a new
// set. Used when receiving a positions snapshot from a broker sync.
func (db *DB) ReplaceUserPositions(userID int, positions []*models.Position) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`DELETE FROM positions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete existing positions: %w", err)
	}

	insertQuery := `
		INSERT INTO positions (user_id, symbol, quantity, buy_price, exchange, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	now := time.Now()
	for _, p := range positions {
		err := tx.QueryRow(insertQuery,
			userID, p.Symbol, p.Quantity, p.BuyPrice, p.Exchange, now, now,
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("failed to insert position %s: %w", p.Symbol, err)
		}
		p.UserID = userID
		p.CreatedAt = now
		p.UpdatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
