package mobile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"financelog/pkg/financelog"
)

// Core wraps the ledger core for gomobile bindings. All payloads cross the
// boundary as JSON strings.
type Core struct {
	core *financelog.Core
}

// Open initializes the core with a database path.
func Open(dbPath string) (*Core, error) {
	core, err := financelog.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Core{core: core}, nil
}

// Close releases resources.
func (c *Core) Close() error {
	if c == nil || c.core == nil {
		return nil
	}
	return c.core.Close()
}

// GetRecordsJSON returns all records as JSON, optionally filtered by month.
func (c *Core) GetRecordsJSON(month string) (string, error) {
	records := c.core.Store().Records()
	if month != "" {
		records = financelog.FilterByMonth(records, month)
	}
	if records == nil {
		records = []financelog.FinancialRecord{}
	}
	return marshalJSON(records)
}

// AddRecordJSON creates a record from JSON and returns id JSON.
func (c *Core) AddRecordJSON(payloadJSON string) (string, error) {
	var rec financelog.FinancialRecord
	if err := json.Unmarshal([]byte(payloadJSON), &rec); err != nil {
		return "", err
	}
	id, err := c.core.Store().AddRecord(rec)
	if err != nil {
		return "", err
	}
	return marshalJSON(map[string]any{"id": id})
}

// UpdateRecordJSON applies a partial update from JSON.
func (c *Core) UpdateRecordJSON(id, patchJSON string) (bool, error) {
	var patch financelog.RecordPatch
	if err := json.Unmarshal([]byte(patchJSON), &patch); err != nil {
		return false, err
	}
	return c.core.Store().UpdateRecord(id, patch)
}

// DeleteRecord deletes a record by id.
func (c *Core) DeleteRecord(id string) bool {
	return c.core.Store().DeleteRecord(id)
}

// GetInvestmentsJSON returns all investments as JSON.
func (c *Core) GetInvestmentsJSON() (string, error) {
	investments := c.core.Store().Investments()
	if investments == nil {
		investments = []financelog.Investment{}
	}
	return marshalJSON(investments)
}

// AddInvestmentJSON creates an investment from JSON and returns id JSON.
func (c *Core) AddInvestmentJSON(payloadJSON string) (string, error) {
	var inv financelog.Investment
	if err := json.Unmarshal([]byte(payloadJSON), &inv); err != nil {
		return "", err
	}
	id, err := c.core.Store().AddInvestment(inv)
	if err != nil {
		return "", err
	}
	return marshalJSON(map[string]any{"id": id})
}

// DeleteInvestment deletes an investment by id.
func (c *Core) DeleteInvestment(id string) bool {
	return c.core.Store().DeleteInvestment(id)
}

// GetDashboardJSON returns the dashboard metrics for a month as JSON. An empty
// month means the current month.
func (c *Core) GetDashboardJSON(month string) (string, error) {
	if month == "" {
		month = financelog.CurrentMonth(time.Now())
	}
	return marshalJSON(c.core.Dashboard(month, financelog.PreviousMonth(month)))
}

// ConsolidateMonthJSON regenerates and persists the consolidation for a month.
func (c *Core) ConsolidateMonthJSON(month string) (string, error) {
	consolidation, err := c.core.ConsolidateMonth(month)
	if err != nil {
		return "", err
	}
	return marshalJSON(consolidation)
}

// GetQuoteJSON fetches a quote for the symbol as JSON.
func (c *Core) GetQuoteJSON(symbol string) (string, error) {
	quote, ok := c.core.Quotes().GetQuote(context.Background(), symbol)
	if !ok {
		return "", errors.New("quote not available")
	}
	return marshalJSON(quote)
}

// RefreshPricesJSON refreshes all held prices and returns the result as JSON.
func (c *Core) RefreshPricesJSON() (string, error) {
	return marshalJSON(c.core.RefreshInvestmentPrices(context.Background()))
}

// ExportJSON returns the full export document as JSON.
func (c *Core) ExportJSON() (string, error) {
	return marshalJSON(c.core.Store().ExportSnapshot())
}

// ImportJSON applies an export document; returns false on a malformed
// document.
func (c *Core) ImportJSON(documentJSON string) bool {
	return c.core.Store().ImportSnapshot([]byte(documentJSON))
}

// MarketStatus returns the current display status of the exchange.
func (c *Core) MarketStatus() string {
	return financelog.MarketStatus(time.Now())
}

func marshalJSON(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
