package financelog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Fixed keys of the persisted collections.
const (
	recordsKey        = "financial_records"
	investmentsKey    = "financial_investments"
	consolidationsKey = "monthly_consolidation"
	backupKey         = "financial_backup"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var reMonth = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Store owns the three persisted collections and identity assignment.
//
// The medium may be nil, in which case reads degrade to empty collections and
// writes become no-ops. Read-modify-write cycles are serialized behind a
// mutex, so two same-process writers cannot lose updates.
type Store struct {
	kv     KV
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewStore creates a Store over the given medium. logger and now may be nil.
func NewStore(kv KV, logger *slog.Logger, now func() time.Time) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Store{kv: kv, logger: logger, now: now}
}

// Records returns the full records collection in insertion order.
func (s *Store) Records() []FinancialRecord {
	var records []FinancialRecord
	s.load(recordsKey, &records)
	return records
}

// Investments returns the full investments collection in insertion order.
func (s *Store) Investments() []Investment {
	var investments []Investment
	s.load(investmentsKey, &investments)
	return investments
}

// Consolidations returns the consolidations sorted descending by month.
func (s *Store) Consolidations() []MonthlyConsolidation {
	var consolidations []MonthlyConsolidation
	s.load(consolidationsKey, &consolidations)
	sortConsolidations(consolidations)
	return consolidations
}

// AddRecord validates fields, assigns an id and timestamps, appends and
// persists. Month is always derived from Date. Returns the new id.
func (s *Store) AddRecord(rec FinancialRecord) (string, error) {
	if err := validateRecord(rec); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.timestamp()
	rec.ID = s.newID()
	rec.Month = monthOf(rec.Date)
	rec.CreatedAt = stamp
	rec.UpdatedAt = stamp

	records := append(s.Records(), rec)
	s.save(recordsKey, records)
	s.createBackupLocked()
	return rec.ID, nil
}

// UpdateRecord merges patch into the record with the given id and refreshes
// its update timestamp. Returns whether a record with that id existed.
func (s *Store) UpdateRecord(id string, patch RecordPatch) (bool, error) {
	if err := validateRecordPatch(patch); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.Records()
	idx := -1
	for i := range records {
		if records[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}

	rec := &records[idx]
	if patch.Category != nil {
		rec.Category = *patch.Category
	}
	if patch.Subcategory != nil {
		rec.Subcategory = *patch.Subcategory
	}
	if patch.Description != nil {
		rec.Description = *patch.Description
	}
	if patch.Amount != nil {
		rec.Amount = *patch.Amount
	}
	if patch.Date != nil {
		rec.Date = *patch.Date
		if patch.Month == nil {
			rec.Month = monthOf(rec.Date)
		}
	}
	if patch.Month != nil {
		rec.Month = *patch.Month
	}
	if patch.Tags != nil {
		rec.Tags = *patch.Tags
	}
	rec.UpdatedAt = s.timestamp()

	s.save(recordsKey, records)
	s.createBackupLocked()
	return true, nil
}

// DeleteRecord removes the record with the given id. Returns whether a
// removal occurred.
func (s *Store) DeleteRecord(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.Records()
	filtered := records[:0:0]
	for _, rec := range records {
		if rec.ID != id {
			filtered = append(filtered, rec)
		}
	}
	if len(filtered) == len(records) {
		return false
	}
	s.save(recordsKey, filtered)
	s.createBackupLocked()
	return true
}

// AddInvestment validates fields, assigns an id and timestamp, appends and
// persists. CurrentPrice defaults to PurchasePrice when unset. Returns the
// new id.
func (s *Store) AddInvestment(inv Investment) (string, error) {
	if err := validateInvestment(inv); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	inv.ID = s.newID()
	inv.LastUpdated = s.timestamp()
	if inv.CurrentPrice.IsZero() {
		inv.CurrentPrice = inv.PurchasePrice
	}

	investments := append(s.Investments(), inv)
	s.save(investmentsKey, investments)
	s.createBackupLocked()
	return inv.ID, nil
}

// UpdateInvestment merges patch into the investment with the given id and
// refreshes LastUpdated. Returns whether an investment with that id existed.
func (s *Store) UpdateInvestment(id string, patch InvestmentPatch) (bool, error) {
	if err := validateInvestmentPatch(patch); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	investments := s.Investments()
	idx := -1
	for i := range investments {
		if investments[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}

	inv := &investments[idx]
	if patch.Type != nil {
		inv.Type = *patch.Type
	}
	if patch.Symbol != nil {
		inv.Symbol = *patch.Symbol
	}
	if patch.Name != nil {
		inv.Name = *patch.Name
	}
	if patch.Quantity != nil {
		inv.Quantity = *patch.Quantity
	}
	if patch.PurchasePrice != nil {
		inv.PurchasePrice = *patch.PurchasePrice
	}
	if patch.CurrentPrice != nil {
		inv.CurrentPrice = *patch.CurrentPrice
	}
	if patch.PurchaseDate != nil {
		inv.PurchaseDate = *patch.PurchaseDate
	}
	if patch.Sector != nil {
		inv.Sector = patch.Sector
	}
	inv.LastUpdated = s.timestamp()

	s.save(investmentsKey, investments)
	s.createBackupLocked()
	return true, nil
}

// DeleteInvestment removes the investment with the given id. Returns whether
// a removal occurred.
func (s *Store) DeleteInvestment(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	investments := s.Investments()
	filtered := investments[:0:0]
	for _, inv := range investments {
		if inv.ID != id {
			filtered = append(filtered, inv)
		}
	}
	if len(filtered) == len(investments) {
		return false
	}
	s.save(investmentsKey, filtered)
	s.createBackupLocked()
	return true
}

// UpsertConsolidation replaces the entry for the consolidation's month if one
// exists, else appends. The collection is kept sorted descending by month.
func (s *Store) UpsertConsolidation(c MonthlyConsolidation) error {
	if !reMonth.MatchString(c.Month) {
		return NewError(ErrCodeValidation, fmt.Sprintf("invalid month %q, want YYYY-MM", c.Month))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	consolidations := s.Consolidations()
	replaced := false
	for i := range consolidations {
		if consolidations[i].Month == c.Month {
			consolidations[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		consolidations = append(consolidations, c)
	}
	sortConsolidations(consolidations)

	s.save(consolidationsKey, consolidations)
	s.createBackupLocked()
	return nil
}

// ExportSnapshot serializes all three collections plus an export timestamp.
func (s *Store) ExportSnapshot() Snapshot {
	return Snapshot{
		Records:        s.Records(),
		Investments:    s.Investments(),
		Consolidations: s.Consolidations(),
		ExportDate:     s.timestamp(),
	}
}

// snapshotDoc distinguishes absent collections from empty ones on import.
type snapshotDoc struct {
	Records        *[]FinancialRecord      `json:"records"`
	Investments    *[]Investment           `json:"investments"`
	Consolidations *[]MonthlyConsolidation `json:"consolidations"`
}

// ImportSnapshot parses the export document and replaces each present
// collection wholesale. Unknown fields are ignored; a missing collection
// leaves the stored one untouched. Reports success as a boolean and never
// panics on malformed input.
func (s *Store) ImportSnapshot(data []byte) bool {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("import rejected: malformed document", "err", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.Records != nil {
		s.save(recordsKey, *doc.Records)
	}
	if doc.Investments != nil {
		s.save(investmentsKey, *doc.Investments)
	}
	if doc.Consolidations != nil {
		consolidations := *doc.Consolidations
		sortConsolidations(consolidations)
		s.save(consolidationsKey, consolidations)
	}
	s.createBackupLocked()
	return true
}

// CreateBackup writes a best-effort secondary copy of the three collections.
// Backup failures never block the primary write.
func (s *Store) CreateBackup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createBackupLocked()
}

// BackupSnapshot returns the last written backup document, if any.
func (s *Store) BackupSnapshot() (BackupDocument, bool) {
	var doc BackupDocument
	if s.kv == nil {
		return doc, false
	}
	data, ok, err := s.kv.Get(backupKey)
	if err != nil || !ok {
		return doc, false
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return BackupDocument{}, false
	}
	return doc, true
}

// ClearAll empties all three collections. The backup is left in place.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return
	}
	for _, key := range []string{recordsKey, investmentsKey, consolidationsKey} {
		if err := s.kv.Delete(key); err != nil {
			s.logger.Warn("clear failed", "key", key, "err", err)
		}
	}
}

func (s *Store) createBackupLocked() {
	if s.kv == nil {
		return
	}
	doc := BackupDocument{
		Timestamp:      s.timestamp(),
		Records:        s.Records(),
		Investments:    s.Investments(),
		Consolidations: s.Consolidations(),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		s.logger.Warn("backup marshal failed", "err", err)
		return
	}
	if err := s.kv.Put(backupKey, data); err != nil {
		s.logger.Warn("backup write failed", "err", err)
	}
}

// load reads a collection into dst. An absent medium, a read failure or
// malformed JSON all degrade to an empty collection.
func (s *Store) load(key string, dst any) {
	if s.kv == nil {
		return
	}
	data, ok, err := s.kv.Get(key)
	if err != nil {
		s.logger.Warn("collection read failed", "key", key, "err", err)
		return
	}
	if !ok {
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("malformed collection ignored", "key", key, "err", err)
	}
}

// save persists a collection. An absent medium or a write failure degrades to
// a no-op rather than failing the caller.
func (s *Store) save(key string, v any) {
	if s.kv == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("collection marshal failed", "key", key, "err", err)
		return
	}
	if err := s.kv.Put(key, data); err != nil {
		s.logger.Warn("collection write failed", "key", key, "err", err)
	}
}

// newID composes wall-clock millis with a random suffix. Ids are unique for
// the lifetime of the store and never reused after deletion.
func (s *Store) newID() string {
	suffix, err := gonanoid.Generate(idAlphabet, 9)
	if err != nil {
		suffix = fmt.Sprintf("%09d", s.now().UnixNano()%1e9)
	}
	return fmt.Sprintf("%d_%s", s.now().UnixMilli(), suffix)
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func sortConsolidations(consolidations []MonthlyConsolidation) {
	sort.SliceStable(consolidations, func(i, j int) bool {
		return consolidations[i].Month > consolidations[j].Month
	})
}

// monthOf derives the YYYY-MM bucket from an ISO date.
func monthOf(date string) string {
	if len(date) >= 7 {
		return date[:7]
	}
	return date
}

func validateRecord(rec FinancialRecord) error {
	if !rec.Category.Valid() {
		return NewError(ErrCodeValidation, fmt.Sprintf("invalid category %q", rec.Category))
	}
	if strings.TrimSpace(rec.Subcategory) == "" {
		return NewError(ErrCodeValidation, "subcategory is required")
	}
	if rec.Amount.Sign() <= 0 {
		return NewError(ErrCodeValidation, "amount must be positive")
	}
	if strings.TrimSpace(rec.Date) == "" {
		return NewError(ErrCodeValidation, "date is required")
	}
	return nil
}

func validateRecordPatch(patch RecordPatch) error {
	if patch.Category != nil && !patch.Category.Valid() {
		return NewError(ErrCodeValidation, fmt.Sprintf("invalid category %q", *patch.Category))
	}
	if patch.Amount != nil && patch.Amount.Sign() <= 0 {
		return NewError(ErrCodeValidation, "amount must be positive")
	}
	if patch.Date != nil && strings.TrimSpace(*patch.Date) == "" {
		return NewError(ErrCodeValidation, "date must not be empty")
	}
	if patch.Month != nil && !reMonth.MatchString(*patch.Month) {
		return NewError(ErrCodeValidation, fmt.Sprintf("invalid month %q, want YYYY-MM", *patch.Month))
	}
	return nil
}

func validateInvestment(inv Investment) error {
	if !inv.Type.Valid() {
		return NewError(ErrCodeValidation, fmt.Sprintf("invalid investment type %q", inv.Type))
	}
	if strings.TrimSpace(inv.Symbol) == "" {
		return NewError(ErrCodeValidation, "symbol is required")
	}
	if strings.TrimSpace(inv.Name) == "" {
		return NewError(ErrCodeValidation, "name is required")
	}
	if inv.Quantity.Sign() <= 0 {
		return NewError(ErrCodeValidation, "quantity must be positive")
	}
	if inv.PurchasePrice.Sign() <= 0 {
		return NewError(ErrCodeValidation, "purchase price must be positive")
	}
	if inv.CurrentPrice.Sign() < 0 {
		return NewError(ErrCodeValidation, "current price must not be negative")
	}
	if strings.TrimSpace(inv.PurchaseDate) == "" {
		return NewError(ErrCodeValidation, "purchase date is required")
	}
	return nil
}

func validateInvestmentPatch(patch InvestmentPatch) error {
	if patch.Type != nil && !patch.Type.Valid() {
		return NewError(ErrCodeValidation, fmt.Sprintf("invalid investment type %q", *patch.Type))
	}
	if patch.Quantity != nil && patch.Quantity.Sign() <= 0 {
		return NewError(ErrCodeValidation, "quantity must be positive")
	}
	if patch.PurchasePrice != nil && patch.PurchasePrice.Sign() <= 0 {
		return NewError(ErrCodeValidation, "purchase price must be positive")
	}
	if patch.CurrentPrice != nil && patch.CurrentPrice.Sign() < 0 {
		return NewError(ErrCodeValidation, "current price must not be negative")
	}
	return nil
}
