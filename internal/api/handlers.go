package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"financelog/pkg/financelog"
)

// maxImportSize caps import payloads at 10MB.
const maxImportSize = 10 << 20

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) getRecords(w http.ResponseWriter, r *http.Request) {
	records := h.core.Store().Records()
	if month := r.URL.Query().Get("month"); month != "" {
		records = financelog.FilterByMonth(records, month)
	}
	if category := r.URL.Query().Get("category"); category != "" {
		filtered := records[:0:0]
		for _, rec := range records {
			if rec.Category == financelog.Category(category) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	if records == nil {
		records = []financelog.FinancialRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handler) addRecord(w http.ResponseWriter, r *http.Request) {
	var rec financelog.FinancialRecord
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.core.Store().AddRecord(rec)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch financelog.RecordPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	found, err := h.core.Store().UpdateRecord(id, patch)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	if !h.core.Store().DeleteRecord(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *handler) getInvestments(w http.ResponseWriter, r *http.Request) {
	investments := h.core.Store().Investments()
	if investments == nil {
		investments = []financelog.Investment{}
	}
	writeJSON(w, http.StatusOK, investments)
}

func (h *handler) addInvestment(w http.ResponseWriter, r *http.Request) {
	var inv financelog.Investment
	if err := decodeJSON(r, &inv); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := h.core.Store().AddInvestment(inv)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *handler) updateInvestment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch financelog.InvestmentPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	found, err := h.core.Store().UpdateInvestment(id, patch)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "investment not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *handler) deleteInvestment(w http.ResponseWriter, r *http.Request) {
	if !h.core.Store().DeleteInvestment(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "investment not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *handler) refreshPrices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.core.RefreshInvestmentPrices(r.Context()))
}

func (h *handler) getConsolidations(w http.ResponseWriter, r *http.Request) {
	consolidations := h.core.Store().Consolidations()
	if consolidations == nil {
		consolidations = []financelog.MonthlyConsolidation{}
	}
	writeJSON(w, http.StatusOK, consolidations)
}

func (h *handler) consolidateMonth(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")
	consolidation, err := h.core.ConsolidateMonth(month)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, consolidation)
}

func (h *handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = financelog.CurrentMonth(time.Now())
	}
	previous := r.URL.Query().Get("previous")
	if previous == "" {
		previous = financelog.PreviousMonth(month)
	}
	writeJSON(w, http.StatusOK, h.core.Dashboard(month, previous))
}

func (h *handler) getCategorySummary(w http.ResponseWriter, r *http.Request) {
	category := financelog.Category(r.URL.Query().Get("category"))
	if !category.Valid() {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}
	month := r.URL.Query().Get("month")
	if month == "" {
		month = financelog.CurrentMonth(time.Now())
	}
	previous := r.URL.Query().Get("previous")
	if previous == "" {
		previous = financelog.PreviousMonth(month)
	}
	summary := h.core.CategorySummary(category, month, previous)
	if summary == nil {
		summary = []financelog.CategorySummary{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *handler) getChart(w http.ResponseWriter, r *http.Request) {
	n := parseIntDefault(r.URL.Query().Get("months"), 6)
	if n < 1 || n > 60 {
		writeError(w, http.StatusBadRequest, "months must be between 1 and 60")
		return
	}
	months := financelog.LastNMonths(n, time.Now())
	writeJSON(w, http.StatusOK, h.core.Chart(months))
}

func (h *handler) getQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	quote, ok := h.core.Quotes().GetQuote(r.Context(), symbol)
	if !ok {
		writeError(w, http.StatusNotFound, "quote not available")
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *handler) getQuotesBatch(w http.ResponseWriter, r *http.Request) {
	var payload quotesBatchPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	symbols := payload.Symbols
	if len(symbols) == 0 {
		symbols = financelog.DefaultSymbols()
	}
	quotes := h.core.Quotes().GetMultipleQuotes(r.Context(), symbols)
	if quotes == nil {
		quotes = []financelog.StockQuote{}
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (h *handler) getMarketStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	writeJSON(w, http.StatusOK, marketStatusResponse{
		Open:   financelog.IsMarketOpen(now),
		Status: financelog.MarketStatus(now),
	})
}

func (h *handler) exportData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="financial-backup.json"`)
	writeJSON(w, http.StatusOK, h.core.Store().ExportSnapshot())
}

func (h *handler) importData(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.core.Store().ImportSnapshot(data) {
		writeError(w, http.StatusBadRequest, "invalid import document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (h *handler) getBackup(w http.ResponseWriter, r *http.Request) {
	backup, ok := h.core.Store().BackupSnapshot()
	if !ok {
		writeError(w, http.StatusNotFound, "no backup available")
		return
	}
	writeJSON(w, http.StatusOK, backup)
}

func (h *handler) clearData(w http.ResponseWriter, r *http.Request) {
	h.core.Store().ClearAll()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parseIntDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}
