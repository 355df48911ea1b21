package mobile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func setupMobileCore(t *testing.T) (*Core, func()) {
	t.Helper()
	tmp := t.TempDir()
	dbPath := filepath.Join(tmp, "test.db")
	core, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	cleanup := func() {
		_ = core.Close()
		_ = os.RemoveAll(tmp)
	}
	return core, cleanup
}

func TestMobileCoreJSONFlows(t *testing.T) {
	core, cleanup := setupMobileCore(t)
	defer cleanup()

	payload := map[string]any{
		"category":    "despesas",
		"subcategory": "Alimentação",
		"description": "mercado",
		"amount":      120.50,
		"date":        "2024-03-10",
	}
	payloadBytes, _ := json.Marshal(payload)
	resp, err := core.AddRecordJSON(string(payloadBytes))
	if err != nil {
		t.Fatalf("AddRecordJSON: %v", err)
	}
	var addResp map[string]string
	if err := json.Unmarshal([]byte(resp), &addResp); err != nil {
		t.Fatalf("unmarshal add response: %v", err)
	}
	id := addResp["id"]
	if id == "" {
		t.Fatalf("expected id in response")
	}

	recordsJSON, err := core.GetRecordsJSON("2024-03")
	if err != nil {
		t.Fatalf("GetRecordsJSON: %v", err)
	}
	var records []map[string]any
	if err := json.Unmarshal([]byte(recordsJSON), &records); err != nil {
		t.Fatalf("unmarshal records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	found, err := core.UpdateRecordJSON(id, `{"amount":99.90}`)
	if err != nil {
		t.Fatalf("UpdateRecordJSON: %v", err)
	}
	if !found {
		t.Fatalf("expected update to find the record")
	}

	invJSON, _ := json.Marshal(map[string]any{
		"type":          "acao",
		"symbol":        "PETR4",
		"name":          "Petrobras",
		"quantity":      10,
		"purchasePrice": 30,
		"purchaseDate":  "2024-01-10",
	})
	if _, err := core.AddInvestmentJSON(string(invJSON)); err != nil {
		t.Fatalf("AddInvestmentJSON: %v", err)
	}
	investmentsJSON, err := core.GetInvestmentsJSON()
	if err != nil {
		t.Fatalf("GetInvestmentsJSON: %v", err)
	}
	if investmentsJSON == "[]" {
		t.Fatalf("expected a stored investment")
	}

	dashJSON, err := core.GetDashboardJSON("2024-03")
	if err != nil {
		t.Fatalf("GetDashboardJSON: %v", err)
	}
	var dash map[string]any
	if err := json.Unmarshal([]byte(dashJSON), &dash); err != nil {
		t.Fatalf("unmarshal dashboard: %v", err)
	}
	if dash["currentBalance"] == nil {
		t.Fatalf("expected currentBalance in dashboard")
	}

	consJSON, err := core.ConsolidateMonthJSON("2024-03")
	if err != nil {
		t.Fatalf("ConsolidateMonthJSON: %v", err)
	}
	var cons map[string]any
	if err := json.Unmarshal([]byte(consJSON), &cons); err != nil {
		t.Fatalf("unmarshal consolidation: %v", err)
	}
	if cons["month"] != "2024-03" {
		t.Fatalf("expected month 2024-03, got %v", cons["month"])
	}

	exportJSON, err := core.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if !core.ImportJSON(exportJSON) {
		t.Fatalf("expected round-trip import to succeed")
	}

	if status := core.MarketStatus(); status == "" {
		t.Fatalf("expected a market status string")
	}

	if !core.DeleteRecord(id) {
		t.Fatalf("expected delete to return true")
	}
}

func TestMobileCoreInvalidJSON(t *testing.T) {
	core, cleanup := setupMobileCore(t)
	defer cleanup()

	if _, err := core.AddRecordJSON("{bad json}"); err == nil {
		t.Fatalf("expected error for invalid record JSON")
	}
	if _, err := core.UpdateRecordJSON("id", "{bad json}"); err == nil {
		t.Fatalf("expected error for invalid patch JSON")
	}
	if _, err := core.AddInvestmentJSON("{bad json}"); err == nil {
		t.Fatalf("expected error for invalid investment JSON")
	}
	if core.ImportJSON("{bad json}") {
		t.Fatalf("expected malformed import to fail")
	}
	if _, err := core.ConsolidateMonthJSON("march"); err == nil {
		t.Fatalf("expected error for invalid month key")
	}
}

func TestMobileCoreCloseNil(t *testing.T) {
	var c *Core
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
