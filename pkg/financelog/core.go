package financelog

import (
	"errors"
	"io"
	"log/slog"
	"time"
)

// Options controls Core initialization. Either DBPath or Medium must be set;
// Medium wins when both are provided.
type Options struct {
	DBPath       string
	Medium       KV
	Logger       *slog.Logger
	QuoteTTL     time.Duration
	HTTPTimeout  time.Duration
	HTTPClient   HTTPDoer
	QuoteBaseURL string
	Now          func() time.Time
}

// Core wires the record store, the calculation helpers and the quote cache
// over one persistence medium.
type Core struct {
	store  *Store
	quotes *QuoteCache
	logger *slog.Logger
	now    func() time.Time
	closer io.Closer
	dbPath string
}

// Open initializes a Core over a SQLite medium at the provided path.
func Open(dbPath string) (*Core, error) {
	return OpenWithOptions(Options{DBPath: dbPath})
}

// OpenWithOptions initializes a Core using the provided options.
func OpenWithOptions(opts Options) (*Core, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	medium := opts.Medium
	var closer io.Closer
	dbPath := ""
	if medium == nil {
		if opts.DBPath == "" {
			return nil, errors.New("db path or medium is required")
		}
		kv, err := OpenSQLiteKV(opts.DBPath)
		if err != nil {
			return nil, err
		}
		medium = kv
		closer = kv
		dbPath = kv.Path()
	}

	quotes := NewQuoteCache(QuoteCacheOptions{
		Logger:      logger,
		TTL:         opts.QuoteTTL,
		HTTPTimeout: opts.HTTPTimeout,
		HTTPClient:  opts.HTTPClient,
		BaseURL:     opts.QuoteBaseURL,
		Now:         now,
	})

	return &Core{
		store:  NewStore(medium, logger, now),
		quotes: quotes,
		logger: logger,
		now:    now,
		closer: closer,
		dbPath: dbPath,
	}, nil
}

// Close releases medium resources.
func (c *Core) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// DBPath returns the underlying database path, empty for injected media.
func (c *Core) DBPath() string {
	return c.dbPath
}

// Store exposes the record store.
func (c *Core) Store() *Store {
	return c.store
}

// Quotes exposes the quote cache.
func (c *Core) Quotes() *QuoteCache {
	return c.quotes
}

// Dashboard derives the dashboard metrics for currentMonth from the current
// collections. previousMonth may be empty.
func (c *Core) Dashboard(currentMonth, previousMonth string) DashboardMetrics {
	return GenerateDashboardMetrics(c.store.Records(), c.store.Investments(), currentMonth, previousMonth)
}

// CategorySummary derives the per-subcategory summary for a category and
// month from the current records.
func (c *Core) CategorySummary(category Category, currentMonth, previousMonth string) []CategorySummary {
	return GenerateCategorySummary(c.store.Records(), category, currentMonth, previousMonth)
}

// Chart derives the chart series for the requested months from the current
// records.
func (c *Core) Chart(months []string) []ChartData {
	return GenerateChartData(c.store.Records(), months)
}

// ConsolidateMonth regenerates the consolidation for month from the current
// collections and upserts it into the store.
func (c *Core) ConsolidateMonth(month string) (MonthlyConsolidation, error) {
	consolidation := GenerateMonthlyConsolidation(c.store.Records(), c.store.Investments(), month, c.now())
	if err := c.store.UpsertConsolidation(consolidation); err != nil {
		return MonthlyConsolidation{}, err
	}
	return consolidation, nil
}
