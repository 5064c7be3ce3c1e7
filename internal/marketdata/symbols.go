package marketdata

import (
	"strings"
	"sync"
	"time"
)

// defaultUniverse is the static symbol universe used for search. It refreshes
// on a 24-hour bucket so a future remote source can slot in without changing
// the search path.
var defaultUniverse = []string{
	"RELIANCE", "TCS", "HDFCBANK", "INFY", "HINDUNILVR", "ICICIBANK", "HDFC",
	"SBIN", "BHARTIARTL", "KOTAKBANK", "ITC", "BAJFINANCE", "WIPRO", "AXISBANK",
	"LT", "ASIANPAINT", "MARUTI", "SUNPHARMA", "TITAN", "NTPC", "BAJAJFINSV",
	"TATAMOTORS", "ULTRACEMCO", "INDUSINDBK", "POWERGRID", "JSWSTEEL", "ADANIPORTS",
	"HCLTECH", "TECHM", "GRASIM", "DRREDDY", "NESTLEIND", "SHREECEM", "BRITANNIA",
	"DIVISLAB", "CIPLA", "M&M", "BAJAJ-AUTO", "UPL", "HINDALCO", "TATASTEEL",
	"IOC", "BPCL", "ONGC", "COALINDIA", "GAIL", "HEROMOTOCO", "EICHERMOT",
}

const maxSearchResults = 10

type symbolUniverse struct {
	mu      sync.Mutex
	day     int64
	symbols []string
}

func newSymbolUniverse() *symbolUniverse {
	return &symbolUniverse{}
}

// list returns the universe for the current 24h bucket, reloading it when
// the bucket advances
func (u *symbolUniverse) list(now time.Time) []string {
	day := now.Unix() / 86400

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.symbols == nil || u.day != day {
		u.symbols = defaultUniverse
		u.day = day
	}
	return u.symbols
}

// search does a case-insensitive substring match over the universe, capped
// at maxSearchResults, preserving universe order
func (u *symbolUniverse) search(now time.Time, query string) []string {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var matches []string
	for _, symbol := range u.list(now) {
		if strings.Contains(symbol, query) {
			matches = append(matches, symbol)
			if len(matches) == maxSearchResults {
				break
			}
		}
	}
	return matches
}
