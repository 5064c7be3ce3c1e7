package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aajay101/investment-tracker-beta-v1/internal/metrics"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(metrics.Middleware)

	// Health check and metrics
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Dashboard
	api.HandleFunc("/users/{userID}/dashboard", handler.Dashboard).Methods("GET")

	// Portfolio routes
	api.HandleFunc("/users/{userID}/portfolio", handler.GetPortfolio).Methods("GET")
	api.HandleFunc("/users/{userID}/portfolio", handler.AddPosition).Methods("POST")
	api.HandleFunc("/users/{userID}/portfolio/{id}", handler.UpdatePosition).Methods("PUT")
	api.HandleFunc("/users/{userID}/portfolio/{id}", handler.DeletePosition).Methods("DELETE")

	// Watchlist routes
	api.HandleFunc("/users/{userID}/watchlist", handler.GetWatchlist).Methods("GET")
	api.HandleFunc("/users/{userID}/watchlist", handler.AddWatchlistItem).Methods("POST")
	api.HandleFunc("/users/{userID}/watchlist/{id}/notes", handler.UpdateWatchlistNotes).Methods("PUT")
	api.HandleFunc("/users/{userID}/watchlist/{id}", handler.DeleteWatchlistItem).Methods("DELETE")

	// Report routes
	api.HandleFunc("/users/{userID}/report", handler.GetReport).Methods("GET")
	api.HandleFunc("/users/{userID}/report/csv", handler.GetReportCSV).Methods("GET")
	api.HandleFunc("/users/{userID}/report/chart", handler.GetReportChart).Methods("GET")

	// Stock routes
	api.HandleFunc("/stocks/search", handler.SearchStocks).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/price", handler.GetStockPrice).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/daily-change", handler.GetStockDailyChange).Methods("GET")
	api.HandleFunc("/stocks/{symbol}/history", handler.GetStockHistory).Methods("GET")

	return r
}
