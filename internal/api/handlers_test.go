package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"financelog/pkg/financelog"
)

// stubQuoteSource answers every chart request with a fixed price.
type stubQuoteSource struct {
	mu    sync.Mutex
	price float64
	fail  bool
	calls int
}

func (s *stubQuoteSource) Do(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail {
		return &http.Response{
			StatusCode: http.StatusBadGateway,
			Body:       io.NopCloser(strings.NewReader("")),
		}, nil
	}
	body := fmt.Sprintf(`{"chart":{"result":[{"meta":{"regularMarketPrice":%f,"chartPreviousClose":%f}}]}}`, s.price, s.price)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

func setupRouter(t *testing.T) (http.Handler, *financelog.Core, *stubQuoteSource) {
	t.Helper()
	source := &stubQuoteSource{price: 42.50}
	core, err := financelog.OpenWithOptions(financelog.Options{
		Medium:       financelog.NewMemoryKV(),
		HTTPClient:   source,
		QuoteBaseURL: "http://quotes.test/v8/finance/chart",
	})
	if err != nil {
		t.Fatalf("open core: %v", err)
	}
	return NewRouter(core), core, source
}

func doRequest(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestHealth(t *testing.T) {
	router, _, _ := setupRouter(t)
	rr := doRequest(router, http.MethodGet, "/api/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRecordsCRUD(t *testing.T) {
	router, _, _ := setupRouter(t)

	rr := doRequest(router, http.MethodPost, "/api/records", map[string]any{
		"category":    "despesas",
		"subcategory": "Alimentação",
		"description": "mercado",
		"amount":      120.50,
		"date":        "2024-03-10",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	created := decodeBody[map[string]string](t, rr)
	id := created["id"]
	if id == "" {
		t.Fatal("expected an id")
	}

	rr = doRequest(router, http.MethodGet, "/api/records", nil)
	records := decodeBody[[]financelog.FinancialRecord](t, rr)
	if len(records) != 1 || records[0].Month != "2024-03" {
		t.Fatalf("unexpected records: %+v", records)
	}

	rr = doRequest(router, http.MethodPut, "/api/records/"+id, map[string]any{"amount": 99.90})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(router, http.MethodDelete, "/api/records/"+id, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rr.Code)
	}

	rr = doRequest(router, http.MethodGet, "/api/records", nil)
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Fatalf("expected empty array after delete, got %s", body)
	}
}

func TestRecordsFilters(t *testing.T) {
	router, core, _ := setupRouter(t)

	mustAddRecord(t, core, "despesas", "Alimentação", 100, "2024-03-05")
	mustAddRecord(t, core, "receitas", "Salário", 5000, "2024-03-01")
	mustAddRecord(t, core, "despesas", "Lazer", 50, "2024-02-20")

	rr := doRequest(router, http.MethodGet, "/api/records?month=2024-03", nil)
	if got := len(decodeBody[[]financelog.FinancialRecord](t, rr)); got != 2 {
		t.Errorf("expected 2 march records, got %d", got)
	}

	rr = doRequest(router, http.MethodGet, "/api/records?month=2024-03&category=despesas", nil)
	records := decodeBody[[]financelog.FinancialRecord](t, rr)
	if len(records) != 1 || records[0].Subcategory != "Alimentação" {
		t.Errorf("unexpected filtered records: %+v", records)
	}
}

func TestAddRecord_ValidationMapsTo400(t *testing.T) {
	router, _, _ := setupRouter(t)

	rr := doRequest(router, http.MethodPost, "/api/records", map[string]any{
		"category":    "outros",
		"subcategory": "x",
		"amount":      10,
		"date":        "2024-03-10",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	resp := decodeBody[ErrorResponse](t, rr)
	if resp.ErrorCode != string(financelog.ErrCodeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %q", resp.ErrorCode)
	}
}

func TestUpdateRecord_UnknownID404(t *testing.T) {
	router, _, _ := setupRouter(t)

	rr := doRequest(router, http.MethodPut, "/api/records/missing", map[string]any{"description": "x"})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	rr = doRequest(router, http.MethodDelete, "/api/records/missing", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on delete, got %d", rr.Code)
	}
}

func TestInvestmentsCRUD(t *testing.T) {
	router, _, _ := setupRouter(t)

	rr := doRequest(router, http.MethodPost, "/api/investments", map[string]any{
		"type":          "acao",
		"symbol":        "PETR4",
		"name":          "Petrobras",
		"quantity":      10,
		"purchasePrice": 30,
		"purchaseDate":  "2024-01-10",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	id := decodeBody[map[string]string](t, rr)["id"]

	rr = doRequest(router, http.MethodGet, "/api/investments", nil)
	investments := decodeBody[[]financelog.Investment](t, rr)
	if len(investments) != 1 {
		t.Fatalf("expected 1 investment, got %d", len(investments))
	}
	// Current price defaults to purchase price.
	if investments[0].CurrentPrice.Float64() != 30 {
		t.Errorf("expected defaulted current price 30, got %v", investments[0].CurrentPrice)
	}

	rr = doRequest(router, http.MethodPut, "/api/investments/"+id, map[string]any{"currentPrice": 35})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(router, http.MethodDelete, "/api/investments/"+id, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rr.Code)
	}
}

func TestRefreshPrices(t *testing.T) {
	router, core, _ := setupRouter(t)

	mustAddInvestment(t, core, "PETR4", 10, 30)

	rr := doRequest(router, http.MethodPost, "/api/investments/refresh-prices", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	result := decodeBody[financelog.RefreshResult](t, rr)
	if result.Updated != 1 {
		t.Errorf("expected 1 update, got %d", result.Updated)
	}

	investments := core.Store().Investments()
	if investments[0].CurrentPrice.Float64() != 42.50 {
		t.Errorf("expected refreshed price 42.50, got %v", investments[0].CurrentPrice)
	}
}

func TestConsolidations(t *testing.T) {
	router, core, _ := setupRouter(t)

	mustAddRecord(t, core, "receitas", "Salário", 300, "2024-01-05")
	mustAddRecord(t, core, "despesas", "Aluguel", 100, "2024-01-10")

	rr := doRequest(router, http.MethodPost, "/api/consolidations/2024-01", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	consolidation := decodeBody[financelog.MonthlyConsolidation](t, rr)
	if consolidation.Resultado.Float64() != 200 {
		t.Errorf("expected resultado 200, got %v", consolidation.Resultado)
	}

	rr = doRequest(router, http.MethodGet, "/api/consolidations", nil)
	list := decodeBody[[]financelog.MonthlyConsolidation](t, rr)
	if len(list) != 1 || list[0].Month != "2024-01" {
		t.Errorf("unexpected consolidations: %+v", list)
	}

	// Invalid month key is rejected.
	rr = doRequest(router, http.MethodPost, "/api/consolidations/january", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad month, got %d", rr.Code)
	}
}

func TestDashboardSummaryChart(t *testing.T) {
	router, core, _ := setupRouter(t)

	mustAddRecord(t, core, "receitas", "Salário", 5000, "2024-03-01")
	mustAddRecord(t, core, "despesas", "Aluguel", 2000, "2024-03-05")

	rr := doRequest(router, http.MethodGet, "/api/dashboard?month=2024-03", nil)
	metrics := decodeBody[financelog.DashboardMetrics](t, rr)
	if metrics.CurrentBalance.Float64() != 3000 {
		t.Errorf("expected balance 3000, got %v", metrics.CurrentBalance)
	}

	rr = doRequest(router, http.MethodGet, "/api/summary?category=despesas&month=2024-03", nil)
	summary := decodeBody[[]financelog.CategorySummary](t, rr)
	if len(summary) != 1 || summary[0].Name != "Aluguel" {
		t.Errorf("unexpected summary: %+v", summary)
	}

	rr = doRequest(router, http.MethodGet, "/api/summary?category=bogus", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid category, got %d", rr.Code)
	}

	rr = doRequest(router, http.MethodGet, "/api/chart?months=3", nil)
	chart := decodeBody[[]financelog.ChartData](t, rr)
	if len(chart) != 3 {
		t.Errorf("expected 3 chart points, got %d", len(chart))
	}

	rr = doRequest(router, http.MethodGet, "/api/chart?months=120", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for out-of-range months, got %d", rr.Code)
	}
}

func TestQuotes(t *testing.T) {
	router, _, source := setupRouter(t)

	rr := doRequest(router, http.MethodGet, "/api/quotes/PETR4", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	quote := decodeBody[financelog.StockQuote](t, rr)
	if quote.Symbol != "PETR4.SA" || quote.Price != 42.50 {
		t.Errorf("unexpected quote: %+v", quote)
	}

	rr = doRequest(router, http.MethodPost, "/api/quotes/batch", map[string]any{
		"symbols": []string{"PETR4.SA", "VALE3.SA"},
	})
	quotes := decodeBody[[]financelog.StockQuote](t, rr)
	if len(quotes) != 2 {
		t.Errorf("expected 2 quotes, got %d", len(quotes))
	}

	source.mu.Lock()
	source.fail = true
	source.mu.Unlock()
	rr = doRequest(router, http.MethodGet, "/api/quotes/MGLU3", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unavailable quote, got %d", rr.Code)
	}
}

func TestMarketStatus(t *testing.T) {
	router, _, _ := setupRouter(t)

	rr := doRequest(router, http.MethodGet, "/api/market-status", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	status := decodeBody[marketStatusResponse](t, rr)
	if status.Status == "" {
		t.Error("expected a status string")
	}
}

func TestExportImportClear(t *testing.T) {
	router, core, _ := setupRouter(t)

	mustAddRecord(t, core, "despesas", "Alimentação", 100, "2024-03-10")

	rr := doRequest(router, http.MethodGet, "/api/export", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Disposition"); !strings.Contains(got, "financial-backup.json") {
		t.Errorf("expected download disposition, got %q", got)
	}
	snapshot := decodeBody[financelog.Snapshot](t, rr)
	if len(snapshot.Records) != 1 || snapshot.ExportDate == "" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	rr = doRequest(router, http.MethodDelete, "/api/data", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on clear, got %d", rr.Code)
	}
	if got := len(core.Store().Records()); got != 0 {
		t.Fatalf("expected no records after clear, got %d", got)
	}

	rr = doRequest(router, http.MethodPost, "/api/import", snapshot)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on import, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := len(core.Store().Records()); got != 1 {
		t.Errorf("expected restored record, got %d", got)
	}

	// Malformed documents are rejected.
	req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed import, got %d", rec.Code)
	}
}

func TestBackup(t *testing.T) {
	router, core, _ := setupRouter(t)

	rr := doRequest(router, http.MethodGet, "/api/backup", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any write, got %d", rr.Code)
	}

	mustAddRecord(t, core, "despesas", "Alimentação", 100, "2024-03-10")

	rr = doRequest(router, http.MethodGet, "/api/backup", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	backup := decodeBody[financelog.BackupDocument](t, rr)
	if len(backup.Records) != 1 || backup.Timestamp == "" {
		t.Errorf("unexpected backup: %+v", backup)
	}
}

func mustAddRecord(t *testing.T, core *financelog.Core, category financelog.Category, subcategory string, amount float64, date string) {
	t.Helper()
	_, err := core.Store().AddRecord(financelog.FinancialRecord{
		Category:    category,
		Subcategory: subcategory,
		Description: subcategory,
		Amount:      financelog.NewAmount(amount),
		Date:        date,
	})
	if err != nil {
		t.Fatalf("add record: %v", err)
	}
}

func mustAddInvestment(t *testing.T, core *financelog.Core, symbol string, quantity, price float64) {
	t.Helper()
	_, err := core.Store().AddInvestment(financelog.Investment{
		Type:          financelog.InvestmentAcao,
		Symbol:        symbol,
		Name:          symbol,
		Quantity:      financelog.NewAmount(quantity),
		PurchasePrice: financelog.NewAmount(price),
		PurchaseDate:  "2024-01-10",
	})
	if err != nil {
		t.Fatalf("add investment: %v", err)
	}
}
