package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderFetches counts market-data provider calls by outcome
	// (priced, unpriced, error).
	ProviderFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_fetch_total",
		Help: "Market data provider fetches by outcome",
	}, []string{"outcome"})

	// PriceCacheLookups counts bucketed price cache lookups (hit, miss).
	PriceCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_cache_total",
		Help: "Price cache lookups by result",
	}, []string{"result"})

	// SnapshotsWritten counts daily snapshots actually inserted.
	SnapshotsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "daily_snapshots_written_total",
		Help: "Daily portfolio snapshots written",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration by route and method",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request durations per mux route template
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		httpDuration.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
