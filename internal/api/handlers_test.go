package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

// ---------------------------------------------------------------------------
// Mock Store
// ---------------------------------------------------------------------------

type mockStore struct {
	mu        sync.Mutex
	users     map[int]*models.User
	positions map[int]*models.Position
	watchlist map[int]*models.WatchlistItem
	snapshots []*models.DailySnapshot
	nextID    int
	pingErr   error
}

func newMockStore() *mockStore {
	return &mockStore{
		users:     make(map[int]*models.User),
		positions: make(map[int]*models.Position),
		watchlist: make(map[int]*models.WatchlistItem),
	}
}

func (m *mockStore) GetUser(id int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user not found: %d", id)
}

func (m *mockStore) GetPositionsByUser(userID int) ([]*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Position
	for i := 1; i <= m.nextID; i++ {
		if p, ok := m.positions[i]; ok && p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockStore) GetPositionByID(id int) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.positions[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("position not found: %d", id)
}

func (m *mockStore) CreatePosition(p *models.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	m.positions[p.ID] = p
	return nil
}

func (m *mockStore) UpdatePosition(p *models.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.positions[p.ID]; !ok {
		return fmt.Errorf("position not found: %d", p.ID)
	}
	m.positions[p.ID] = p
	return nil
}

func (m *mockStore) DeletePosition(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.positions[id]; !ok {
		return fmt.Errorf("position not found: %d", id)
	}
	delete(m.positions, id)
	return nil
}

func (m *mockStore) GetWatchlistByUser(userID int) ([]*models.WatchlistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.WatchlistItem
	for i := 1; i <= m.nextID; i++ {
		if item, ok := m.watchlist[i]; ok && item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockStore) GetWatchlistItemByID(id int) (*models.WatchlistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item, ok := m.watchlist[id]; ok {
		return item, nil
	}
	return nil, fmt.Errorf("watchlist item not found: %d", id)
}

func (m *mockStore) CreateWatchlistItem(item *models.WatchlistItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	item.ID = m.nextID
	m.watchlist[item.ID] = item
	return nil
}

func (m *mockStore) WatchlistItemExists(userID int, symbol string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.watchlist {
		if item.UserID == userID && item.Symbol == symbol {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) UpdateWatchlistNotes(id int, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.watchlist[id]
	if !ok {
		return fmt.Errorf("watchlist item not found: %d", id)
	}
	item.Notes = notes
	return nil
}

func (m *mockStore) DeleteWatchlistItem(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.watchlist[id]; !ok {
		return fmt.Errorf("watchlist item not found: %d", id)
	}
	delete(m.watchlist, id)
	return nil
}

func (m *mockStore) GetSnapshotsByUser(userID int) ([]*models.DailySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.DailySnapshot
	for _, s := range m.snapshots {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) Ping() error { return m.pingErr }

// ---------------------------------------------------------------------------
// Mock Provider
// ---------------------------------------------------------------------------

type mockProvider struct {
	prices     map[string]decimal.Decimal
	historyErr error
	bars       []models.PriceBar
}

func newMockProvider() *mockProvider {
	return &mockProvider{prices: make(map[string]decimal.Decimal)}
}

func (m *mockProvider) GetPrice(_ context.Context, symbol string) models.Quote {
	if price, ok := m.prices[symbol]; ok {
		return models.Quote{Symbol: symbol, Price: price, Priced: true}
	}
	return models.Quote{Symbol: symbol}
}

func (m *mockProvider) GetDailyChange(_ context.Context, symbol string) (decimal.Decimal, decimal.Decimal) {
	if _, ok := m.prices[symbol]; ok {
		return decimal.NewFromInt(5), decimal.NewFromInt(1)
	}
	return decimal.Zero, decimal.Zero
}

func (m *mockProvider) GetHistory(_ context.Context, symbol, period string) ([]models.PriceBar, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.bars, nil
}

func (m *mockProvider) SearchSymbols(query string) []string {
	var out []string
	for symbol := range m.prices {
		out = append(out, symbol)
	}
	return out
}

// ---------------------------------------------------------------------------
// Mock Snapshotter and EventPublisher
// ---------------------------------------------------------------------------

type mockSnapshotter struct {
	mu    sync.Mutex
	calls []decimal.Decimal
	err   error
}

func (m *mockSnapshotter) EnsureTodaySnapshot(_ context.Context, userID int, total decimal.Decimal) (*models.DailySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.calls = append(m.calls, total)
	return nil, nil
}

type mockProducer struct {
	mu      sync.Mutex
	added   []string
	removed []string
}

func (m *mockProducer) PublishPositionAdded(_ context.Context, pos *models.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, pos.Symbol)
	return nil
}

func (m *mockProducer) PublishPositionRemoved(_ context.Context, userID int, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, symbol)
	return nil
}

// ---------------------------------------------------------------------------
// Test harness
// ---------------------------------------------------------------------------

type testEnv struct {
	store    *mockStore
	provider *mockProvider
	snaps    *mockSnapshotter
	producer *mockProducer
	router   http.Handler
}

func newTestEnv() *testEnv {
	env := &testEnv{
		store:    newMockStore(),
		provider: newMockProvider(),
		snaps:    &mockSnapshotter{},
		producer: &mockProducer{},
	}
	env.store.users[1] = &models.User{ID: 1, Username: "ajay"}
	handler := NewHandler(env.store, env.provider, env.snaps, env.producer, nil)
	env.router = SetupRoutes(handler)
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reader).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reader)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// ---------------------------------------------------------------------------
// Portfolio
// ---------------------------------------------------------------------------

func TestGetPortfolio_ValuatesPositions(t *testing.T) {
	env := newTestEnv()
	env.provider.prices["RELIANCE"] = decimal.NewFromInt(2500)
	env.store.CreatePosition(&models.Position{
		UserID:   1,
		Symbol:   "RELIANCE",
		Quantity: decimal.NewFromInt(10),
		BuyPrice: decimal.NewFromInt(2000),
		Exchange: models.ExchangeNSE,
	})

	rec := env.do(t, "GET", "/api/v1/users/1/portfolio", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var aggregate models.AggregateReport
	decodeJSON(t, rec, &aggregate)

	assert.True(t, aggregate.TotalInvestment.Equal(decimal.NewFromInt(20000)))
	assert.True(t, aggregate.TotalCurrentValue.Equal(decimal.NewFromInt(25000)))
	assert.True(t, aggregate.NetGainLoss.Equal(decimal.NewFromInt(5000)))
	require.Len(t, aggregate.Items, 1)
	assert.Equal(t, "RELIANCE", aggregate.Items[0].Symbol)
}

func TestGetPortfolio_InvalidUserID(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, "GET", "/api/v1/users/abc/portfolio", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, "GET", "/api/v1/users/0/portfolio", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddPosition(t *testing.T) {
	env := newTestEnv()
	env.provider.prices["TCS"] = decimal.NewFromInt(3900)

	rec := env.do(t, "POST", "/api/v1/users/1/portfolio", map[string]string{
		"symbol":    "tcs",
		"quantity":  "5",
		"buy_price": "3500",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Position
	decodeJSON(t, rec, &created)
	assert.Equal(t, "TCS", created.Symbol)
	assert.Equal(t, models.ExchangeNSE, created.Exchange, "exchange defaults when omitted")
	assert.NotZero(t, created.ID)

	assert.Equal(t, []string{"TCS"}, env.producer.added)
}

func TestAddPosition_UnpriceableSymbolRejected(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, "POST", "/api/v1/users/1/portfolio", map[string]string{
		"symbol":    "NOSUCH",
		"quantity":  "5",
		"buy_price": "100",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid stock symbol")
	assert.Empty(t, env.producer.added)
}

func TestAddPosition_ValidationErrors(t *testing.T) {
	env := newTestEnv()
	env.provider.prices["TCS"] = decimal.NewFromInt(3900)

	// Missing symbol
	rec := env.do(t, "POST", "/api/v1/users/1/portfolio", map[string]string{
		"quantity": "5", "buy_price": "100",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Negative quantity
	rec = env.do(t, "POST", "/api/v1/users/1/portfolio", map[string]string{
		"symbol": "TCS", "quantity": "-1", "buy_price": "100",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Zero buy price
	rec = env.do(t, "POST", "/api/v1/users/1/portfolio", map[string]string{
		"symbol": "TCS", "quantity": "5", "buy_price": "0",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePosition_OwnershipEnforced(t *testing.T) {
	env := newTestEnv()
	env.provider.prices["TCS"] = decimal.NewFromInt(3900)
	env.store.CreatePosition(&models.Position{
		UserID: 2, Symbol: "TCS",
		Quantity: decimal.NewFromInt(5), BuyPrice: decimal.NewFromInt(3500),
	})

	rec := env.do(t, "PUT", "/api/v1/users/1/portfolio/1", map[string]string{
		"symbol": "TCS", "quantity": "10", "buy_price": "3600",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeletePosition(t *testing.T) {
	env := newTestEnv()
	env.store.CreatePosition(&models.Position{
		UserID: 1, Symbol: "TCS",
		Quantity: decimal.NewFromInt(5), BuyPrice: decimal.NewFromInt(3500),
	})

	rec := env.do(t, "DELETE", "/api/v1/users/1/portfolio/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"TCS"}, env.producer.removed)

	rec = env.do(t, "DELETE", "/api/v1/users/1/portfolio/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

func TestDashboard_RecordsSnapshotAndReturnsSections(t *testing.T) {
	env := newTestEnv()
	env.provider.prices["RELIANCE"] = decimal.NewFromInt(2500)
	env.store.CreatePosition(&models.Position{
		UserID: 1, Symbol: "RELIANCE",
		Quantity: decimal.NewFromInt(10), BuyPrice: decimal.NewFromInt(2000),
	})
	env.store.snapshots = []*models.DailySnapshot{
		{UserID: 1, Date: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), TotalValue: decimal.NewFromInt(24000)},
	}

	rec := env.do(t, "GET", "/api/v1/users/1/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Portfolio   models.AggregateReport   `json:"portfolio"`
		Performance models.PerformanceSeries `json:"performance"`
		Watchlist   []json.RawMessage        `json:"watchlist"`
	}
	decodeJSON(t, rec, &resp)

	assert.True(t, resp.Portfolio.TotalCurrentValue.Equal(decimal.NewFromInt(25000)))
	assert.Equal(t, []string{"2024-03-14"}, resp.Performance.Dates)
	assert.NotNil(t, resp.Watchlist)

	require.Len(t, env.snaps.calls, 1)
	assert.True(t, env.snaps.calls[0].Equal(decimal.NewFromInt(25000)))
}

func TestDashboard_SnapshotFailureDoesNotBreakView(t *testing.T) {
	env := newTestEnv()
	env.snaps.err = assert.AnError

	rec := env.do(t, "GET", "/api/v1/users/1/dashboard", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// ---------------------------------------------------------------------------
// Watchlist
// ---------------------------------------------------------------------------

func TestAddWatchlistItem_DuplicateConflict(t *testing.T) {
	env := newTestEnv()
	env.provider.prices["INFY"] = decimal.NewFromInt(1500)

	rec := env.do(t, "POST", "/api/v1/users/1/watchlist", map[string]string{
		"symbol": "infy", "notes": "watch for results",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, "POST", "/api/v1/users/1/watchlist", map[string]string{
		"symbol": "INFY",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetWatchlist_SkipsUnpriceableSymbols(t *testing.T) {
	env := newTestEnv()
	env.provider.prices["INFY"] = decimal.NewFromInt(1500)
	env.store.CreateWatchlistItem(&models.WatchlistItem{UserID: 1, Symbol: "INFY", Exchange: models.ExchangeNSE})
	env.store.CreateWatchlistItem(&models.WatchlistItem{UserID: 1, Symbol: "DELISTED", Exchange: models.ExchangeNSE})

	rec := env.do(t, "GET", "/api/v1/users/1/watchlist", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]interface{}
	decodeJSON(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "INFY", rows[0]["symbol"])
}

func TestUpdateWatchlistNotes(t *testing.T) {
	env := newTestEnv()
	env.store.CreateWatchlistItem(&models.WatchlistItem{UserID: 1, Symbol: "INFY"})

	rec := env.do(t, "PUT", "/api/v1/users/1/watchlist/1/notes", map[string]string{
		"notes": "results next week",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	item, err := env.store.GetWatchlistItemByID(1)
	require.NoError(t, err)
	assert.Equal(t, "results next week", item.Notes)
}

func TestDeleteWatchlistItem_OwnershipEnforced(t *testing.T) {
	env := newTestEnv()
	env.store.CreateWatchlistItem(&models.WatchlistItem{UserID: 2, Symbol: "INFY"})

	rec := env.do(t, "DELETE", "/api/v1/users/1/watchlist/1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ---------------------------------------------------------------------------
// Reports
// ---------------------------------------------------------------------------

func TestGetReport(t *testing.T) {
	env := newTestEnv()
	env.provider.prices["TCS"] = decimal.NewFromInt(4025)
	env.store.CreatePosition(&models.Position{
		UserID: 1, Symbol: "TCS",
		Quantity: decimal.NewFromInt(5), BuyPrice: decimal.NewFromInt(3500),
	})

	rec := env.do(t, "GET", "/api/v1/users/1/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data models.ReportData
	decodeJSON(t, rec, &data)
	assert.Equal(t, "ajay", data.Username)
	assert.Equal(t, "TCS", data.TopGainer.Symbol)
}

func TestGetReport_UnknownUser(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, "GET", "/api/v1/users/42/report", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReportCSV_AttachmentHeaders(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, "GET", "/api/v1/users/1/report/csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=portfolio_report_")
	assert.Contains(t, rec.Body.String(), "Investment Portfolio Report")
}

func TestGetReportChart_TooFewSnapshots(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, "GET", "/api/v1/users/1/report/chart", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetReportChart_RendersPNG(t *testing.T) {
	env := newTestEnv()
	env.store.snapshots = []*models.DailySnapshot{
		{UserID: 1, Date: time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), TotalValue: decimal.NewFromInt(24000)},
		{UserID: 1, Date: time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), TotalValue: decimal.NewFromInt(25000)},
	}

	rec := env.do(t, "GET", "/api/v1/users/1/report/chart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes()[:4])
}

// ---------------------------------------------------------------------------
// Stocks
// ---------------------------------------------------------------------------

func TestSearchStocks_ShortQueryEmpty(t *testing.T) {
	env := newTestEnv()
	env.provider.prices["X"] = decimal.NewFromInt(1)

	rec := env.do(t, "GET", "/api/v1/stocks/search?q=x", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGetStockPrice(t *testing.T) {
	env := newTestEnv()
	env.provider.prices["TCS"] = decimal.NewFromInt(3900)

	rec := env.do(t, "GET", "/api/v1/stocks/TCS/price", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var quote models.Quote
	decodeJSON(t, rec, &quote)
	assert.Equal(t, "TCS", quote.Symbol)
	assert.True(t, quote.Price.Equal(decimal.NewFromInt(3900)))

	rec = env.do(t, "GET", "/api/v1/stocks/NOSUCH/price", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStockHistory_ProviderFailure(t *testing.T) {
	env := newTestEnv()
	env.provider.historyErr = assert.AnError

	rec := env.do(t, "GET", "/api/v1/stocks/TCS/history?period=1mo", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetStockHistory_EmptyIsJSONArray(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, "GET", "/api/v1/stocks/TCS/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func TestHealthCheck_Healthy(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]interface{}
	decodeJSON(t, rec, &health)
	assert.Equal(t, "healthy", health["status"])

	services := health["services"].(map[string]interface{})
	assert.Equal(t, "healthy", services["postgres"])
	assert.Equal(t, "not configured", services["redis"])
	assert.Equal(t, "configured", services["kafka"])
}

func TestHealthCheck_DegradedOnStoreFailure(t *testing.T) {
	env := newTestEnv()
	env.store.pingErr = assert.AnError

	rec := env.do(t, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]interface{}
	decodeJSON(t, rec, &health)
	assert.Equal(t, "degraded", health["status"])
}
