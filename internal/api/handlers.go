package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/aajay101/investment-tracker-beta-v1/internal/history"
	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
	"github.com/aajay101/investment-tracker-beta-v1/internal/report"
	"github.com/aajay101/investment-tracker-beta-v1/internal/valuation"
)

// Store defines the database operations the handlers need
type Store interface {
	GetUser(id int) (*models.User, error)
	GetPositionsByUser(userID int) ([]*models.Position, error)
	GetPositionByID(id int) (*models.Position, error)
	CreatePosition(p *models.Position) error
	UpdatePosition(p *models.Position) error
	DeletePosition(id int) error
	GetWatchlistByUser(userID int) ([]*models.WatchlistItem, error)
	GetWatchlistItemByID(id int) (*models.WatchlistItem, error)
	CreateWatchlistItem(item *models.WatchlistItem) error
	WatchlistItemExists(userID int, symbol string) (bool, error)
	UpdateWatchlistNotes(id int, notes string) error
	DeleteWatchlistItem(id int) error
	GetSnapshotsByUser(userID int) ([]*models.DailySnapshot, error)
	Ping() error
}

// Provider defines the market-data operations the handlers need
type Provider interface {
	GetPrice(ctx context.Context, symbol string) models.Quote
	GetDailyChange(ctx context.Context, symbol string) (decimal.Decimal, decimal.Decimal)
	GetHistory(ctx context.Context, symbol, period string) ([]models.PriceBar, error)
	SearchSymbols(query string) []string
}

// Snapshotter records today's portfolio value
type Snapshotter interface {
	EnsureTodaySnapshot(ctx context.Context, userID int, totalCurrentValue decimal.Decimal) (*models.DailySnapshot, error)
}

// EventPublisher publishes portfolio change events
type EventPublisher interface {
	PublishPositionAdded(ctx context.Context, pos *models.Position) error
	PublishPositionRemoved(ctx context.Context, userID int, symbol string) error
}

// CachePinger reports cache backend reachability for health checks
type CachePinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store       Store
	provider    Provider
	snapshotter Snapshotter
	producer    EventPublisher
	cache       CachePinger
}

// NewHandler creates a new Handler. producer and cache may be nil.
func NewHandler(store Store, provider Provider, snapshotter Snapshotter, producer EventPublisher, cache CachePinger) *Handler {
	return &Handler{
		store:       store,
		provider:    provider,
		snapshotter: snapshotter,
		producer:    producer,
		cache:       cache,
	}
}

type watchlistRow struct {
	ID                 int             `json:"id"`
	Symbol             string          `json:"symbol"`
	Exchange           string          `json:"exchange"`
	Notes              string          `json:"notes"`
	CurrentPrice       decimal.Decimal `json:"current_price"`
	DailyChange        decimal.Decimal `json:"daily_change"`
	DailyChangePercent decimal.Decimal `json:"daily_change_percent"`
}

type dashboardResponse struct {
	Portfolio   models.AggregateReport   `json:"portfolio"`
	Performance models.PerformanceSeries `json:"performance"`
	Watchlist   []watchlistRow           `json:"watchlist"`
}

// Dashboard handles GET /users/{userID}/dashboard. It prices the portfolio,
// records today's snapshot if due, and returns valuations, the performance
// series and the priced watchlist in one payload.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	aggregate, err := h.valuatePortfolio(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Snapshot failures must not break the dashboard view
	if _, err := h.snapshotter.EnsureTodaySnapshot(r.Context(), userID, aggregate.TotalCurrentValue); err != nil {
		log.Printf("Error saving portfolio snapshot for user %d: %v", userID, err)
	}

	snapshots, err := h.store.GetSnapshotsByUser(userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	watchlist, err := h.watchlistRows(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, dashboardResponse{
		Portfolio:   aggregate,
		Performance: history.FormatSeries(snapshots),
		Watchlist:   watchlist,
	})
}

// GetPortfolio handles GET /users/{userID}/portfolio
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	aggregate, err := h.valuatePortfolio(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, aggregate)
}

type positionRequest struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	BuyPrice decimal.Decimal `json:"buy_price"`
	Exchange string          `json:"exchange"`
}

func (pr *positionRequest) validate() error {
	pr.Symbol = strings.ToUpper(strings.TrimSpace(pr.Symbol))
	if pr.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if pr.Quantity.IsNegative() {
		return fmt.Errorf("quantity must not be negative")
	}
	if !pr.BuyPrice.IsPositive() {
		return fmt.Errorf("buy price must be greater than zero")
	}
	if pr.Exchange == "" {
		pr.Exchange = models.ExchangeNSE
	}
	return nil
}

// AddPosition handles POST /users/{userID}/portfolio
func (h *Handler) AddPosition(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Reject symbols the provider cannot price, as the original dashboard
	// does on form submission
	if quote := h.provider.GetPrice(r.Context(), req.Symbol); !quote.Priced {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid stock symbol: %s", req.Symbol))
		return
	}

	position := &models.Position{
		UserID:   userID,
		Symbol:   req.Symbol,
		Quantity: req.Quantity,
		BuyPrice: req.BuyPrice,
		Exchange: req.Exchange,
	}
	if err := h.store.CreatePosition(position); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishPositionAdded(r.Context(), position); err != nil {
			log.Printf("Error publishing position added event: %v", err)
		}
	}

	respondJSON(w, http.StatusCreated, position)
}

// UpdatePosition handles PUT /users/{userID}/portfolio/{id}
func (h *Handler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid position id")
		return
	}

	position, err := h.store.GetPositionByID(id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if position.UserID != userID {
		respondError(w, http.StatusForbidden, "position does not belong to user")
		return
	}

	var req positionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	position.Symbol = req.Symbol
	position.Quantity = req.Quantity
	position.BuyPrice = req.BuyPrice
	position.Exchange = req.Exchange

	if err := h.store.UpdatePosition(position); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// DeletePosition handles DELETE /users/{userID}/portfolio/{id}
func (h *Handler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid position id")
		return
	}

	position, err := h.store.GetPositionByID(id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if position.UserID != userID {
		respondError(w, http.StatusForbidden, "position does not belong to user")
		return
	}

	if err := h.store.DeletePosition(id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishPositionRemoved(r.Context(), userID, position.Symbol); err != nil {
			log.Printf("Error publishing position removed event: %v", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetWatchlist handles GET /users/{userID}/watchlist
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	rows, err := h.watchlistRows(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

type watchlistRequest struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
	Notes    string `json:"notes"`
}

// AddWatchlistItem handles POST /users/{userID}/watchlist
func (h *Handler) AddWatchlistItem(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req watchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if req.Exchange == "" {
		req.Exchange = models.ExchangeNSE
	}

	if quote := h.provider.GetPrice(r.Context(), req.Symbol); !quote.Priced {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid stock symbol: %s", req.Symbol))
		return
	}

	exists, err := h.store.WatchlistItemExists(userID, req.Symbol)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if exists {
		respondError(w, http.StatusConflict, fmt.Sprintf("%s is already in the watchlist", req.Symbol))
		return
	}

	item := &models.WatchlistItem{
		UserID:   userID,
		Symbol:   req.Symbol,
		Exchange: req.Exchange,
		Notes:    req.Notes,
	}
	if err := h.store.CreateWatchlistItem(item); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

// UpdateWatchlistNotes handles PUT /users/{userID}/watchlist/{id}/notes
func (h *Handler) UpdateWatchlistNotes(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid watchlist item id")
		return
	}

	item, err := h.store.GetWatchlistItemByID(id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if item.UserID != userID {
		respondError(w, http.StatusForbidden, "watchlist item does not belong to user")
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.store.UpdateWatchlistNotes(id, req.Notes); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	item.Notes = req.Notes
	respondJSON(w, http.StatusOK, item)
}

// DeleteWatchlistItem handles DELETE /users/{userID}/watchlist/{id}
func (h *Handler) DeleteWatchlistItem(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid watchlist item id")
		return
	}

	item, err := h.store.GetWatchlistItemByID(id)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if item.UserID != userID {
		respondError(w, http.StatusForbidden, "watchlist item does not belong to user")
		return
	}

	if err := h.store.DeleteWatchlistItem(id); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetReport handles GET /users/{userID}/report
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	data, status, err := h.assembleReport(r)
	if err != nil {
		respondError(w, status, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, data)
}

// GetReportCSV handles GET /users/{userID}/report/csv
func (h *Handler) GetReportCSV(w http.ResponseWriter, r *http.Request) {
	data, status, err := h.assembleReport(r)
	if err != nil {
		respondError(w, status, err.Error())
		return
	}

	filename := fmt.Sprintf("portfolio_report_%s.csv", data.GeneratedAt.Format("20060102"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := report.WriteCSV(w, data); err != nil {
		log.Printf("Error writing report csv: %v", err)
	}
}

// GetReportChart handles GET /users/{userID}/report/chart
func (h *Handler) GetReportChart(w http.ResponseWriter, r *http.Request) {
	userID, err := pathInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	snapshots, err := h.store.GetSnapshotsByUser(userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	png, err := report.RenderPerformanceChart(history.FormatSeries(snapshots))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// SearchStocks handles GET /stocks/search?q=
func (h *Handler) SearchStocks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if len(query) < 2 {
		respondJSON(w, http.StatusOK, []string{})
		return
	}

	results := h.provider.SearchSymbols(query)
	if results == nil {
		results = []string{}
	}
	respondJSON(w, http.StatusOK, results)
}

// GetStockPrice handles GET /stocks/{symbol}/price
func (h *Handler) GetStockPrice(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	quote := h.provider.GetPrice(r.Context(), symbol)
	if !quote.Priced {
		respondError(w, http.StatusNotFound, "symbol not found")
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

// GetStockDailyChange handles GET /stocks/{symbol}/daily-change
func (h *Handler) GetStockDailyChange(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	change, changePercent := h.provider.GetDailyChange(r.Context(), symbol)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":         strings.ToUpper(symbol),
		"change":         change,
		"change_percent": changePercent,
	})
}

// GetStockHistory handles GET /stocks/{symbol}/history?period=. History is
// the one provider path whose failure reaches the client, so it can fall
// back to an empty chart.
func (h *Handler) GetStockHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	period := r.URL.Query().Get("period")

	bars, err := h.provider.GetHistory(r.Context(), symbol, period)
	if err != nil {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	if bars == nil {
		bars = []models.PriceBar{}
	}
	respondJSON(w, http.StatusOK, bars)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  map[string]string{},
	}
	services := health["services"].(map[string]string)
	allHealthy := true

	if h.store != nil {
		if err := h.store.Ping(); err != nil {
			services["postgres"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			services["postgres"] = "healthy"
		}
	} else {
		services["postgres"] = "not configured"
		allHealthy = false
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			services["redis"] = "unhealthy: " + err.Error()
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "not configured"
	}

	if h.producer != nil {
		services["kafka"] = "configured"
	} else {
		services["kafka"] = "not configured"
	}

	if !allHealthy {
		health["status"] = "degraded"
	}

	respondJSON(w, http.StatusOK, health)
}

// valuatePortfolio loads a user's positions, prices them, and aggregates
func (h *Handler) valuatePortfolio(ctx context.Context, userID int) (models.AggregateReport, error) {
	positions, err := h.store.GetPositionsByUser(userID)
	if err != nil {
		return models.AggregateReport{}, err
	}

	quotes := make(map[string]models.Quote, len(positions))
	for _, p := range positions {
		if _, ok := quotes[p.Symbol]; ok {
			continue
		}
		quote := h.provider.GetPrice(ctx, p.Symbol)
		if !quote.Priced {
			log.Printf("Unable to fetch current price for %s", p.Symbol)
		}
		quotes[p.Symbol] = quote
	}

	return valuation.Aggregate(positions, quotes), nil
}

// watchlistRows prices a user's watchlist, skipping unpriceable symbols
func (h *Handler) watchlistRows(ctx context.Context, userID int) ([]watchlistRow, error) {
	items, err := h.store.GetWatchlistByUser(userID)
	if err != nil {
		return nil, err
	}

	rows := make([]watchlistRow, 0, len(items))
	for _, item := range items {
		quote := h.provider.GetPrice(ctx, item.Symbol)
		if !quote.Priced {
			continue
		}

		change, changePercent := h.provider.GetDailyChange(ctx, item.Symbol)
		rows = append(rows, watchlistRow{
			ID:                 item.ID,
			Symbol:             item.Symbol,
			Exchange:           item.Exchange,
			Notes:              item.Notes,
			CurrentPrice:       quote.Price,
			DailyChange:        change,
			DailyChangePercent: changePercent,
		})
	}
	return rows, nil
}

// assembleReport builds the report payload shared by the JSON and CSV routes
func (h *Handler) assembleReport(r *http.Request) (models.ReportData, int, error) {
	userID, err := pathInt(r, "userID")
	if err != nil {
		return models.ReportData{}, http.StatusBadRequest, fmt.Errorf("invalid user id")
	}

	user, err := h.store.GetUser(userID)
	if err != nil {
		return models.ReportData{}, http.StatusNotFound, err
	}

	aggregate, err := h.valuatePortfolio(r.Context(), userID)
	if err != nil {
		return models.ReportData{}, http.StatusInternalServerError, err
	}

	return report.Assemble(user, aggregate, time.Now()), http.StatusOK, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	value, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return value, nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
