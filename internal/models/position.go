package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Exchange codes accepted for positions and watchlist entries.
const (
	ExchangeNSE = "NSE"
	ExchangeBSE = "BSE"
)

// User represents an account that owns portfolio rows. Authentication and
// sessions live outside this service; users exist here only as the ownership
// anchor for positions, watchlist entries and history.
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Position represents a user's holding of a symbol at an average buy price
type Position struct {
	ID        int             `json:"id"`
	UserID    int             `json:"user_id"`
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
	Exchange  string          `json:"exchange"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WatchlistItem represents a symbol a user tracks without holding it
type WatchlistItem struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Symbol    string    `json:"symbol"`
	Exchange  string    `json:"exchange"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}
