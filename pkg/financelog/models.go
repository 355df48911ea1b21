package financelog

// Category is a top-level ledger bucket.
type Category string

// Ledger categories. The values follow the storage document format and are
// treated as a closed set.
const (
	CategoryDespesas           Category = "despesas"
	CategoryReceitas           Category = "receitas"
	CategoryInvestimentoMensal Category = "investimento-mensal"
	CategoryInvestimentos      Category = "investimentos"
)

// Categories lists the valid ledger categories.
var Categories = []Category{
	CategoryDespesas,
	CategoryReceitas,
	CategoryInvestimentoMensal,
	CategoryInvestimentos,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// InvestmentType classifies a held position.
type InvestmentType string

// Investment types.
const (
	InvestmentAcao    InvestmentType = "acao"
	InvestmentCotas   InvestmentType = "cotas"
	InvestmentCDI     InvestmentType = "cdi"
	InvestmentTesouro InvestmentType = "tesouro"
)

// InvestmentTypes lists the valid investment types.
var InvestmentTypes = []InvestmentType{
	InvestmentAcao,
	InvestmentCotas,
	InvestmentCDI,
	InvestmentTesouro,
}

// Valid reports whether t is a known investment type.
func (t InvestmentType) Valid() bool {
	for _, v := range InvestmentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Trend tags the direction of a subcategory total between two months.
type Trend string

// Trend values.
const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// FinancialRecord is a single dated ledger entry.
type FinancialRecord struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Subcategory string   `json:"subcategory"`
	Description string   `json:"description"`
	Amount      Amount   `json:"amount"`
	Date        string   `json:"date"`  // ISO date, e.g. 2024-01-15
	Month       string   `json:"month"` // YYYY-MM, always the first 7 chars of Date
	Tags        []string `json:"tags,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// RecordPatch is a partial update for a FinancialRecord. Nil fields are left
// untouched. When Date changes and Month is not supplied, Month is re-derived
// from the new date.
type RecordPatch struct {
	Category    *Category `json:"category,omitempty"`
	Subcategory *string   `json:"subcategory,omitempty"`
	Description *string   `json:"description,omitempty"`
	Amount      *Amount   `json:"amount,omitempty"`
	Date        *string   `json:"date,omitempty"`
	Month       *string   `json:"month,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// Investment is a held position.
type Investment struct {
	ID            string         `json:"id"`
	Type          InvestmentType `json:"type"`
	Symbol        string         `json:"symbol"`
	Name          string         `json:"name"`
	Quantity      Amount         `json:"quantity"`
	PurchasePrice Amount         `json:"purchasePrice"`
	CurrentPrice  Amount         `json:"currentPrice"`
	PurchaseDate  string         `json:"purchaseDate"`
	LastUpdated   string         `json:"lastUpdated"`
	Sector        *string        `json:"sector,omitempty"`
}

// InvestmentPatch is a partial update for an Investment.
type InvestmentPatch struct {
	Type          *InvestmentType `json:"type,omitempty"`
	Symbol        *string         `json:"symbol,omitempty"`
	Name          *string         `json:"name,omitempty"`
	Quantity      *Amount         `json:"quantity,omitempty"`
	PurchasePrice *Amount         `json:"purchasePrice,omitempty"`
	CurrentPrice  *Amount         `json:"currentPrice,omitempty"`
	PurchaseDate  *string         `json:"purchaseDate,omitempty"`
	Sector        *string         `json:"sector,omitempty"`
}

// MonthlyConsolidation is a derived, cacheable snapshot for one month.
// Persisting it is a cache: it is regenerable at any time from records and
// investments.
type MonthlyConsolidation struct {
	Month              string `json:"month"`
	TotalDespesas      Amount `json:"totalDespesas"`
	TotalReceitas      Amount `json:"totalReceitas"`
	InvestimentoMensal Amount `json:"investimentoMensal"`
	TotalInvestimentos Amount `json:"totalInvestimentos"`
	Patrimonio         Amount `json:"patrimonio"`
	Resultado          Amount `json:"resultado"`
	CreatedAt          string `json:"createdAt"`
}

// StockQuote is an external price observation for a traded symbol.
// Quotes are ephemeral and live only in the quote cache.
type StockQuote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	LastUpdated   string  `json:"lastUpdated"`
}

// CategorySummary aggregates one subcategory within a category for a month.
type CategorySummary struct {
	Name       string  `json:"name"`
	Total      Amount  `json:"total"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Trend      Trend   `json:"trend"`
}

// ChartData carries per-month totals for the evolution chart.
type ChartData struct {
	Month         string `json:"month"` // short display label, e.g. "jan/24"
	Despesas      Amount `json:"despesas"`
	Receitas      Amount `json:"receitas"`
	Resultado     Amount `json:"resultado"`
	Investimentos Amount `json:"investimentos"`
}

// DashboardMetrics is the derived dashboard view for a month.
type DashboardMetrics struct {
	CurrentBalance     Amount  `json:"currentBalance"`
	MonthlyGrowth      float64 `json:"monthlyGrowth"`
	InvestmentReturn   float64 `json:"investmentReturn"`
	SavingsRate        float64 `json:"savingsRate"`
	TopExpenseCategory string  `json:"topExpenseCategory"`
	TopIncomeSource    string  `json:"topIncomeSource"`
}

// Snapshot is the transportable export/import document.
type Snapshot struct {
	Records        []FinancialRecord      `json:"records"`
	Investments    []Investment           `json:"investments"`
	Consolidations []MonthlyConsolidation `json:"consolidations"`
	ExportDate     string                 `json:"exportDate"`
}

// BackupDocument is the best-effort secondary copy written after every
// mutating store operation.
type BackupDocument struct {
	Timestamp      string                 `json:"timestamp"`
	Records        []FinancialRecord      `json:"records"`
	Investments    []Investment           `json:"investments"`
	Consolidations []MonthlyConsolidation `json:"consolidations"`
}

// RefreshResult reports the outcome of a batch price refresh.
type RefreshResult struct {
	Updated int      `json:"updated"`
	Failed  []string `json:"failed,omitempty"`
}

// NoCategorySentinel is returned as top expense/income when no records exist.
const NoCategorySentinel = "Nenhuma"
