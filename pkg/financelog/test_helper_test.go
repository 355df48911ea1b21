package financelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fakeClock is a mutable clock for freezing time in tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

// setupTestStore creates a Store over an in-memory medium with a frozen clock.
func setupTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
	return NewStore(NewMemoryKV(), nil, clock.Now), clock
}

// setupTestDB creates a temporary SQLite-backed Core instance.
// The caller should defer cleanup() to remove the temp file.
func setupTestDB(t *testing.T) (*Core, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "financelog-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	core, err := Open(dbPath)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("failed to open test db: %v", err)
	}

	cleanup := func() {
		core.Close()
		os.RemoveAll(tmpDir)
	}

	return core, cleanup
}

// testRecord builds a valid record for the given month.
func testRecord(category Category, subcategory string, amount float64, month string) FinancialRecord {
	return FinancialRecord{
		Category:    category,
		Subcategory: subcategory,
		Description: subcategory + " entry",
		Amount:      NewAmount(amount),
		Date:        month + "-15",
	}
}

// testInvestment builds a valid investment position.
func testInvestment(symbol string, quantity, purchase, current float64) Investment {
	return Investment{
		Type:          InvestmentAcao,
		Symbol:        symbol,
		Name:          symbol + " position",
		Quantity:      NewAmount(quantity),
		PurchasePrice: NewAmount(purchase),
		CurrentPrice:  NewAmount(current),
		PurchaseDate:  "2024-01-10",
	}
}

// floatEquals checks if two floats are approximately equal.
func floatEquals(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

// assertFloatEquals fails the test if the floats are not approximately equal.
func assertFloatEquals(t *testing.T, got, want float64, msg string) {
	t.Helper()
	if !floatEquals(got, want, 0.001) {
		t.Errorf("%s: got %.4f, want %.4f", msg, got, want)
	}
}

// assertAmountEquals fails the test if the Amount does not equal want.
func assertAmountEquals(t *testing.T, got Amount, want float64, msg string) {
	t.Helper()
	assertFloatEquals(t, got.Float64(), want, msg)
}

// assertNoError fails the test if err is not nil.
func assertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

// assertError fails the test if err is nil.
func assertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected error but got nil", msg)
	}
}
