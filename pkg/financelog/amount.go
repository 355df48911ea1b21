package financelog

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount wraps decimal.Decimal for monetary values.
// JSON marshaling outputs a float64 number (compatible with the export/import
// document format), while internal arithmetic uses precise decimal operations.
type Amount struct {
	decimal.Decimal
}

// MarshalJSON outputs as a JSON number (not a string).
func (a Amount) MarshalJSON() ([]byte, error) {
	f, _ := a.Round(4).Float64()
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

// Plus returns a + b.
func (a Amount) Plus(b Amount) Amount {
	return Amount{a.Decimal.Add(b.Decimal)}
}

// Minus returns a - b.
func (a Amount) Minus(b Amount) Amount {
	return Amount{a.Decimal.Sub(b.Decimal)}
}

// Times returns a * b.
func (a Amount) Times(b Amount) Amount {
	return Amount{a.Decimal.Mul(b.Decimal)}
}

// Float64 returns the nearest float64 value.
func (a Amount) Float64() float64 {
	f, _ := a.Decimal.Float64()
	return f
}

// NewAmount creates an Amount from a float64.
func NewAmount(f float64) Amount {
	return Amount{decimal.NewFromFloat(f)}
}

// NewAmountFromInt creates an Amount from an int64.
func NewAmountFromInt(i int64) Amount {
	return Amount{decimal.NewFromInt(i)}
}

// ZeroAmount returns the zero monetary value.
func ZeroAmount() Amount {
	return Amount{decimal.Zero}
}

// amountPtr returns a pointer to an Amount.
func amountPtr(v Amount) *Amount {
	return &v
}
