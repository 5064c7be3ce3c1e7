package database

import (
	"database/sql"
	"fmt"

	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

// GetUser retrieves a user by ID
func (db *DB) GetUser(id int) (*models.User, error) {
	query := `
		SELECT id, username, email, created_at
		FROM users
		WHERE id = $1
	`
	var u models.User
	err := db.conn.QueryRow(query, id).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

// UserExists checks if a user exists
func (db *DB) UserExists(id int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`
	var exists bool
	err := db.conn.QueryRow(query, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
