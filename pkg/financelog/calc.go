package financelog

import (
	"sort"
	"time"
)

// The calculation functions in this file are pure: they derive views from
// snapshots of the collections and never touch the store. Time enters only
// through explicit parameters.

// Sum returns the total amount of the given records.
func Sum(records []FinancialRecord) Amount {
	total := ZeroAmount()
	for _, rec := range records {
		total = total.Plus(rec.Amount)
	}
	return total
}

// SumByCategory returns the total amount of records in the given category.
func SumByCategory(records []FinancialRecord, category Category) Amount {
	total := ZeroAmount()
	for _, rec := range records {
		if rec.Category == category {
			total = total.Plus(rec.Amount)
		}
	}
	return total
}

// SumBySubcategory returns the total amount of records with the given
// subcategory label.
func SumBySubcategory(records []FinancialRecord, subcategory string) Amount {
	total := ZeroAmount()
	for _, rec := range records {
		if rec.Subcategory == subcategory {
			total = total.Plus(rec.Amount)
		}
	}
	return total
}

// SumByMonth returns the total amount of records in the given YYYY-MM bucket.
func SumByMonth(records []FinancialRecord, month string) Amount {
	return Sum(FilterByMonth(records, month))
}

// FilterByMonth returns the records belonging to the given YYYY-MM bucket.
func FilterByMonth(records []FinancialRecord, month string) []FinancialRecord {
	var out []FinancialRecord
	for _, rec := range records {
		if rec.Month == month {
			out = append(out, rec)
		}
	}
	return out
}

// InvestmentValue returns the current portfolio value, sum of
// quantity * currentPrice.
func InvestmentValue(investments []Investment) Amount {
	total := ZeroAmount()
	for _, inv := range investments {
		total = total.Plus(inv.Quantity.Times(inv.CurrentPrice))
	}
	return total
}

// InvestmentCost returns the cost basis, sum of quantity * purchasePrice.
func InvestmentCost(investments []Investment) Amount {
	total := ZeroAmount()
	for _, inv := range investments {
		total = total.Plus(inv.Quantity.Times(inv.PurchasePrice))
	}
	return total
}

// InvestmentGain returns the unrealized gain, sum of
// quantity * (currentPrice - purchasePrice).
func InvestmentGain(investments []Investment) Amount {
	return InvestmentValue(investments).Minus(InvestmentCost(investments))
}

// InvestmentGainPercent returns the gain as a percentage of the cost basis.
// An empty or zero-cost portfolio yields 0.
func InvestmentGainPercent(investments []Investment) float64 {
	cost := InvestmentCost(investments)
	if cost.IsZero() {
		return 0
	}
	gain := InvestmentGain(investments)
	return gain.Div(cost.Decimal).InexactFloat64() * 100
}

// GenerateMonthlyConsolidation derives the consolidation for one month from
// record and investment snapshots. Repeated calls with identical inputs and a
// frozen clock yield identical totals.
func GenerateMonthlyConsolidation(records []FinancialRecord, investments []Investment, month string, now time.Time) MonthlyConsolidation {
	monthRecords := FilterByMonth(records, month)

	totalDespesas := SumByCategory(monthRecords, CategoryDespesas)
	totalReceitas := SumByCategory(monthRecords, CategoryReceitas)
	investimentoMensal := SumByCategory(monthRecords, CategoryInvestimentoMensal)
	totalInvestimentos := InvestmentValue(investments)

	return MonthlyConsolidation{
		Month:              month,
		TotalDespesas:      totalDespesas,
		TotalReceitas:      totalReceitas,
		InvestimentoMensal: investimentoMensal,
		TotalInvestimentos: totalInvestimentos,
		Patrimonio:         totalInvestimentos.Plus(investimentoMensal),
		Resultado:          totalReceitas.Minus(totalDespesas),
		CreatedAt:          now.UTC().Format(time.RFC3339),
	}
}

// GenerateCategorySummary groups current-month records of a category by
// subcategory. previousMonth may be empty, meaning no trend baseline. The
// result is sorted descending by total.
func GenerateCategorySummary(records []FinancialRecord, category Category, currentMonth, previousMonth string) []CategorySummary {
	var current, previous []FinancialRecord
	for _, rec := range records {
		if rec.Category != category {
			continue
		}
		switch rec.Month {
		case currentMonth:
			current = append(current, rec)
		case previousMonth:
			if previousMonth != "" {
				previous = append(previous, rec)
			}
		}
	}

	categoryTotal := Sum(current)

	var order []string
	seen := map[string]bool{}
	counts := map[string]int{}
	for _, rec := range current {
		if !seen[rec.Subcategory] {
			seen[rec.Subcategory] = true
			order = append(order, rec.Subcategory)
		}
		counts[rec.Subcategory]++
	}

	summaries := make([]CategorySummary, 0, len(order))
	for _, name := range order {
		currentTotal := SumBySubcategory(current, name)
		previousTotal := SumBySubcategory(previous, name)

		trend := TrendStable
		if previousTotal.Sign() > 0 {
			switch currentTotal.Cmp(previousTotal.Decimal) {
			case 1:
				trend = TrendUp
			case -1:
				trend = TrendDown
			}
		} else if currentTotal.Sign() > 0 {
			trend = TrendUp
		}

		percentage := 0.0
		if categoryTotal.Sign() > 0 {
			percentage = currentTotal.Div(categoryTotal.Decimal).InexactFloat64() * 100
		}

		summaries = append(summaries, CategorySummary{
			Name:       name,
			Total:      currentTotal,
			Count:      counts[name],
			Percentage: percentage,
			Trend:      trend,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Total.Cmp(summaries[j].Total.Decimal) > 0
	})
	return summaries
}

// GenerateChartData computes per-month totals for the requested months, in
// the caller-supplied order, with locale-formatted short labels.
func GenerateChartData(records []FinancialRecord, months []string) []ChartData {
	out := make([]ChartData, 0, len(months))
	for _, month := range months {
		monthRecords := FilterByMonth(records, month)
		despesas := SumByCategory(monthRecords, CategoryDespesas)
		receitas := SumByCategory(monthRecords, CategoryReceitas)
		out = append(out, ChartData{
			Month:         formatMonthShort(month),
			Despesas:      despesas,
			Receitas:      receitas,
			Resultado:     receitas.Minus(despesas),
			Investimentos: SumByCategory(monthRecords, CategoryInvestimentoMensal),
		})
	}
	return out
}

// GenerateDashboardMetrics derives the dashboard view for currentMonth,
// optionally comparing against previousMonth (empty means no comparison).
func GenerateDashboardMetrics(records []FinancialRecord, investments []Investment, currentMonth, previousMonth string) DashboardMetrics {
	current := FilterByMonth(records, currentMonth)

	currentReceitas := SumByCategory(current, CategoryReceitas)
	currentDespesas := SumByCategory(current, CategoryDespesas)
	currentBalance := currentReceitas.Minus(currentDespesas)

	monthlyGrowth := 0.0
	if previousMonth != "" {
		previous := FilterByMonth(records, previousMonth)
		previousBalance := SumByCategory(previous, CategoryReceitas).Minus(SumByCategory(previous, CategoryDespesas))
		// Growth against a non-positive base is meaningless, report 0.
		if previousBalance.Sign() > 0 {
			monthlyGrowth = currentBalance.Minus(previousBalance).Div(previousBalance.Decimal).InexactFloat64() * 100
		}
	}

	savingsRate := 0.0
	if currentReceitas.Sign() > 0 {
		contribution := SumByCategory(current, CategoryInvestimentoMensal)
		savingsRate = contribution.Div(currentReceitas.Decimal).InexactFloat64() * 100
	}

	topExpense := NoCategorySentinel
	if summary := GenerateCategorySummary(records, CategoryDespesas, currentMonth, ""); len(summary) > 0 {
		topExpense = summary[0].Name
	}
	topIncome := NoCategorySentinel
	if summary := GenerateCategorySummary(records, CategoryReceitas, currentMonth, ""); len(summary) > 0 {
		topIncome = summary[0].Name
	}

	return DashboardMetrics{
		CurrentBalance:     currentBalance,
		MonthlyGrowth:      monthlyGrowth,
		InvestmentReturn:   InvestmentGainPercent(investments),
		SavingsRate:        savingsRate,
		TopExpenseCategory: topExpense,
		TopIncomeSource:    topIncome,
	}
}
