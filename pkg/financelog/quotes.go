package financelog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// QuoteTTL is the freshness window of a cached quote.
const QuoteTTL = 5 * time.Minute

// maxResponseSize limits external API responses to 1MB to prevent memory
// exhaustion from malicious or buggy sources.
const maxResponseSize = 1 << 20

const defaultQuoteBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// ErrNoQuote indicates the source returned no usable price for a symbol.
var ErrNoQuote = errors.New("no quote available")

// B3 tickers end in digits (PETR4, VALE3), which is how FormatSymbol decides
// to append the .SA market suffix.
var reTrailingDigits = regexp.MustCompile(`\d+$`)

// HTTPDoer is an interface for making HTTP requests. It enables dependency
// injection for testing without network calls.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// QuoteCacheOptions controls QuoteCache initialization. Zero values select
// production defaults.
type QuoteCacheOptions struct {
	Logger      *slog.Logger
	TTL         time.Duration
	HTTPTimeout time.Duration
	HTTPClient  HTTPDoer
	BaseURL     string
	Now         func() time.Time
}

// QuoteCache mediates access to the external price source behind a
// short-lived keyed cache. Entries are guarded by a RWMutex; concurrent
// refreshes of the same symbol may fetch redundantly but converge to the last
// written value.
type QuoteCache struct {
	logger  *slog.Logger
	ttl     time.Duration
	client  HTTPDoer
	baseURL string
	now     func() time.Time

	mu    sync.RWMutex
	cache map[string]quoteEntry
}

type quoteEntry struct {
	quote     StockQuote
	fetchedAt time.Time
}

// NewQuoteCache creates a QuoteCache with the given options.
func NewQuoteCache(opts QuoteCacheOptions) *QuoteCache {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = QuoteTTL
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.HTTPTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultQuoteBaseURL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &QuoteCache{
		logger:  logger,
		ttl:     ttl,
		client:  client,
		baseURL: baseURL,
		now:     now,
		cache:   map[string]quoteEntry{},
	}
}

// GetQuote returns the quote for symbol, serving from cache while the entry
// is younger than the TTL. Any fetch failure resolves to ok=false; callers
// must treat an absent quote as "leave the existing price unchanged". Failed
// fetches are not cached, so a subsequent call retries immediately.
func (qc *QuoteCache) GetQuote(ctx context.Context, symbol string) (StockQuote, bool) {
	symbol = FormatSymbol(symbol)
	if quote, ok := qc.cached(symbol); ok {
		return quote, true
	}

	quote, err := qc.fetch(ctx, symbol)
	if err != nil {
		qc.logger.Warn("quote fetch failed", "symbol", symbol, "err", err)
		return StockQuote{}, false
	}

	qc.mu.Lock()
	qc.cache[symbol] = quoteEntry{quote: quote, fetchedAt: qc.now()}
	qc.mu.Unlock()
	return quote, true
}

// GetMultipleQuotes fetches all requested symbols concurrently and returns
// only the successfully resolved quotes. Partial failures never fail the
// batch.
func (qc *QuoteCache) GetMultipleQuotes(ctx context.Context, symbols []string) []StockQuote {
	results := make([]*StockQuote, len(symbols))
	var wg sync.WaitGroup
	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			if quote, ok := qc.GetQuote(ctx, symbol); ok {
				results[i] = &quote
			}
		}(i, symbol)
	}
	wg.Wait()

	quotes := make([]StockQuote, 0, len(symbols))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}
	return quotes
}

// ClearCache drops all cached quote entries unconditionally.
func (qc *QuoteCache) ClearCache() {
	qc.mu.Lock()
	defer qc.mu.Unlock()
	qc.cache = map[string]quoteEntry{}
}

func (qc *QuoteCache) cached(symbol string) (StockQuote, bool) {
	qc.mu.RLock()
	defer qc.mu.RUnlock()
	entry, ok := qc.cache[symbol]
	if !ok {
		return StockQuote{}, false
	}
	if qc.now().Sub(entry.fetchedAt) <= qc.ttl {
		return entry.quote, true
	}
	return StockQuote{}, false
}

// fetch asks the chart endpoint for the latest price of symbol. The source is
// untrusted: missing numeric fields default to 0 and never propagate NaN.
func (qc *QuoteCache) fetch(ctx context.Context, symbol string) (StockQuote, error) {
	endpoint := fmt.Sprintf("%s/%s?interval=1d&range=1d", qc.baseURL, url.PathEscape(symbol))
	body, err := qc.httpGet(ctx, endpoint)
	if err != nil {
		return StockQuote{}, err
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return StockQuote{}, err
	}
	chart, _ := payload["chart"].(map[string]any)
	if chart == nil {
		return StockQuote{}, ErrNoQuote
	}
	if srcErr, ok := chart["error"].(map[string]any); ok && srcErr != nil {
		return StockQuote{}, fmt.Errorf("source error: %v", srcErr["description"])
	}
	results, _ := chart["result"].([]any)
	if len(results) == 0 {
		return StockQuote{}, ErrNoQuote
	}
	result, _ := results[0].(map[string]any)
	meta, _ := result["meta"].(map[string]any)

	price := numericField(meta, "regularMarketPrice")
	if price == 0 {
		price = lastClose(result)
	}
	if price == 0 {
		return StockQuote{}, ErrNoQuote
	}

	previousClose := numericField(meta, "chartPreviousClose")
	change := 0.0
	changePercent := 0.0
	if previousClose > 0 {
		change = price - previousClose
		changePercent = change / previousClose * 100
	}

	return StockQuote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: changePercent,
		LastUpdated:   qc.now().UTC().Format(time.RFC3339),
	}, nil
}

func (qc *QuoteCache) httpGet(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := qc.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
}

// lastClose digs the most recent close out of the indicator series.
func lastClose(result map[string]any) float64 {
	indicators, _ := result["indicators"].(map[string]any)
	quoteArr, _ := indicators["quote"].([]any)
	if len(quoteArr) == 0 {
		return 0
	}
	quote, _ := quoteArr[0].(map[string]any)
	closes, _ := quote["close"].([]any)
	for i := len(closes) - 1; i >= 0; i-- {
		if v, err := parseQuoteFloat(closes[i]); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

func numericField(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	v, err := parseQuoteFloat(m[key])
	if err != nil {
		return 0
	}
	return v
}

func parseQuoteFloat(value any) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, errors.New("no value")
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		if v == "" {
			return 0, errors.New("empty")
		}
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}

// FormatSymbol normalizes case and whitespace and appends the .SA suffix for
// B3 tickers (trailing digits) that carry no market suffix yet. Pure string
// transform, no I/O.
func FormatSymbol(raw string) string {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if !strings.Contains(symbol, ".") && reTrailingDigits.MatchString(symbol) {
		return symbol + ".SA"
	}
	return symbol
}

// DefaultSymbols returns a starter list of liquid B3 tickers.
func DefaultSymbols() []string {
	return []string{
		"PETR4.SA", // Petrobras
		"VALE3.SA", // Vale
		"ITUB4.SA", // Itaú
		"BBDC4.SA", // Bradesco
		"ABEV3.SA", // Ambev
		"WEGE3.SA", // WEG
		"MGLU3.SA", // Magazine Luiza
		"VVAR3.SA", // Via Varejo
		"GGBR4.SA", // Gerdau
		"USIM5.SA", // Usiminas
	}
}
