package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aajay101/investment-tracker-beta-v1/internal/config"
	"github.com/aajay101/investment-tracker-beta-v1/internal/metrics"
	"github.com/aajay101/investment-tracker-beta-v1/internal/models"
)

// DefaultPeriod is used when a caller asks for an unrecognized history period
const DefaultPeriod = "1mo"

// periodRanges maps the supported history periods to provider range strings
var periodRanges = map[string]string{
	"1d":  "1d",
	"1wk": "5d",
	"1mo": "1mo",
	"3mo": "3mo",
	"6mo": "6mo",
	"1y":  "1y",
	"max": "max",
}

// NormalizePeriod coerces unknown period input to the default
func NormalizePeriod(period string) string {
	if _, ok := periodRanges[period]; !ok {
		return DefaultPeriod
	}
	return period
}

// Provider fetches current and historical prices over a chart-style HTTP
// API. Symbols without a recognized exchange suffix are tried on the primary
// exchange first, then the secondary, with exactly one fallback hop. Current
// prices are cached per (symbol, time bucket) through the injected
// PriceCache.
//
// All provider and symbol failures are absorbed here and reported as
// unpriced quotes or empty results; only GetHistory surfaces an error, so
// chart callers can decide on a fallback. Callers cannot distinguish an
// invalid symbol from a provider outage.
type Provider struct {
	client          *http.Client
	baseURL         string
	primarySuffix   string
	secondarySuffix string
	timeout         time.Duration
	bucket          time.Duration
	cache           PriceCache
	universe        *symbolUniverse
	now             func() time.Time
}

// New creates a Provider with the given cache backend
func New(cfg config.MarketDataConfig, cache PriceCache) *Provider {
	return &Provider{
		client:          &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		primarySuffix:   cfg.PrimarySuffix,
		secondarySuffix: cfg.SecondarySuffix,
		timeout:         cfg.RequestTimeout,
		bucket:          cfg.CacheBucket,
		cache:           cache,
		universe:        newSymbolUniverse(),
		now:             time.Now,
	}
}

// GetPrice returns the current price for a symbol. The quote is unpriced
// when no data could be obtained after exchange fallback; it never errors.
func (p *Provider) GetPrice(ctx context.Context, symbol string) models.Quote {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	quote := models.Quote{Symbol: symbol}
	if symbol == "" {
		return quote
	}

	key := p.cacheKey(symbol)
	if price, ok := p.cache.Get(ctx, key); ok {
		metrics.PriceCacheLookups.WithLabelValues("hit").Inc()
		quote.Price = price
		quote.Priced = true
		return quote
	}
	metrics.PriceCacheLookups.WithLabelValues("miss").Inc()

	bars, err := p.fetchWithFallback(ctx, symbol, "1d")
	if err != nil {
		log.Printf("Error fetching price for %s: %v", symbol, err)
		metrics.ProviderFetches.WithLabelValues("error").Inc()
		return quote
	}
	if len(bars) == 0 {
		metrics.ProviderFetches.WithLabelValues("unpriced").Inc()
		return quote
	}

	metrics.ProviderFetches.WithLabelValues("priced").Inc()
	quote.Price = decimal.NewFromFloat(bars[len(bars)-1].Close)
	quote.Priced = true
	p.cache.Set(ctx, key, quote.Price)
	return quote
}

// GetDailyChange returns the change and percent change between the last two
// trading sessions. When fewer than two sessions are available after
// fallback it returns (0, 0), which is indistinguishable from a genuinely
// flat day.
func (p *Provider) GetDailyChange(ctx context.Context, symbol string) (decimal.Decimal, decimal.Decimal) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	bars, err := p.fetchWithFallback(ctx, symbol, "5d")
	if err != nil {
		log.Printf("Error fetching daily change for %s: %v", symbol, err)
		return decimal.Zero, decimal.Zero
	}
	if len(bars) < 2 {
		return decimal.Zero, decimal.Zero
	}

	prevClose := decimal.NewFromFloat(bars[len(bars)-2].Close)
	current := decimal.NewFromFloat(bars[len(bars)-1].Close)
	change := current.Sub(prevClose)

	changePercent := decimal.Zero
	if prevClose.IsPositive() {
		changePercent = change.Div(prevClose).Mul(decimal.NewFromInt(100))
	}
	return change, changePercent
}

// GetHistory returns ordered OHLCV sessions for a period. Unrecognized
// periods coerce to the one-month default. This is the only provider
// operation that surfaces an error to the caller.
func (p *Provider) GetHistory(ctx context.Context, symbol, period string) ([]models.PriceBar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	rng := periodRanges[NormalizePeriod(period)]

	bars, err := p.fetchWithFallback(ctx, symbol, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}
	return bars, nil
}

// SearchSymbols returns up to 10 symbols from the universe containing the
// query, case-insensitive.
func (p *Provider) SearchSymbols(query string) []string {
	return p.universe.search(p.now(), query)
}

func (p *Provider) cacheKey(symbol string) string {
	unix := p.now().Unix()
	width := int64(p.bucket.Seconds())
	bucket := unix - unix%width
	return fmt.Sprintf("price:%s:%d", symbol, bucket)
}

// candidateSymbols returns the explicit attempt sequence for a symbol:
// as-is when it already carries an exchange suffix, otherwise primary then
// secondary. One fallback hop, never more.
func (p *Provider) candidateSymbols(symbol string) []string {
	if strings.HasSuffix(symbol, p.primarySuffix) || strings.HasSuffix(symbol, p.secondarySuffix) {
		return []string{symbol}
	}
	return []string{symbol + p.primarySuffix, symbol + p.secondarySuffix}
}

// fetchWithFallback walks the candidate sequence and returns the first
// non-empty bar set. An error is returned only when every attempt failed and
// none produced data.
func (p *Provider) fetchWithFallback(ctx context.Context, symbol, rng string) ([]models.PriceBar, error) {
	var lastErr error
	for _, candidate := range p.candidateSymbols(symbol) {
		bars, err := p.fetchBars(ctx, candidate, rng)
		if err != nil {
			lastErr = err
			continue
		}
		if len(bars) > 0 {
			return bars, nil
		}
	}
	return nil, lastErr
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// fetchBars performs a single chart request for one exact provider symbol
func (p *Provider) fetchBars(ctx context.Context, symbol, rng string) ([]models.PriceBar, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d", p.baseURL, symbol, rng)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "investment-tracker/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart response: %w", err)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("provider error: %s", parsed.Chart.Error.Code)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, nil
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Sessions with no close (halts, partial data) are dropped
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		bar := models.PriceBar{
			Date:  time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close: *quote.Close[i],
		}
		if i < len(quote.Open) && quote.Open[i] != nil {
			bar.Open = *quote.Open[i]
		}
		if i < len(quote.High) && quote.High[i] != nil {
			bar.High = *quote.High[i]
		}
		if i < len(quote.Low) && quote.Low[i] != nil {
			bar.Low = *quote.Low[i]
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	return bars, nil
}
