package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"financelog/pkg/financelog"
)

// NewRouter builds the HTTP API router.
func NewRouter(core *financelog.Core) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	h := &handler{core: core}

	r.Get("/api/health", h.health)

	// Records
	r.Get("/api/records", h.getRecords)
	r.Post("/api/records", h.addRecord)
	r.Put("/api/records/{id}", h.updateRecord)
	r.Delete("/api/records/{id}", h.deleteRecord)

	// Investments
	r.Get("/api/investments", h.getInvestments)
	r.Post("/api/investments", h.addInvestment)
	r.Put("/api/investments/{id}", h.updateInvestment)
	r.Delete("/api/investments/{id}", h.deleteInvestment)
	r.Post("/api/investments/refresh-prices", h.refreshPrices)

	// Consolidations
	r.Get("/api/consolidations", h.getConsolidations)
	r.Post("/api/consolidations/{month}", h.consolidateMonth)

	// Derived views
	r.Get("/api/dashboard", h.getDashboard)
	r.Get("/api/summary", h.getCategorySummary)
	r.Get("/api/chart", h.getChart)

	// Quotes
	r.Get("/api/quotes/{symbol}", h.getQuote)
	r.Post("/api/quotes/batch", h.getQuotesBatch)
	r.Get("/api/market-status", h.getMarketStatus)

	// Data management
	r.Get("/api/export", h.exportData)
	r.Post("/api/import", h.importData)
	r.Get("/api/backup", h.getBackup)
	r.Delete("/api/data", h.clearData)

	return r
}

type handler struct {
	core *financelog.Core
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	if sw, ok := w.(interface{ SetErrorMessage(string) }); ok {
		sw.SetErrorMessage(message)
	}
	writeJSON(w, status, map[string]string{"error": message})
}
