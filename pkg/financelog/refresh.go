package financelog

import "context"

// RefreshInvestmentPrices batch-fetches quotes for all held symbols and
// writes the resolved prices back into the investments. Symbols whose fetch
// failed keep their existing price and are reported in Failed.
func (c *Core) RefreshInvestmentPrices(ctx context.Context) RefreshResult {
	investments := c.store.Investments()
	if len(investments) == 0 {
		return RefreshResult{}
	}

	var symbols []string
	seen := map[string]bool{}
	for _, inv := range investments {
		symbol := FormatSymbol(inv.Symbol)
		if !seen[symbol] {
			seen[symbol] = true
			symbols = append(symbols, symbol)
		}
	}

	quotes := c.quotes.GetMultipleQuotes(ctx, symbols)
	bySymbol := make(map[string]StockQuote, len(quotes))
	for _, q := range quotes {
		bySymbol[q.Symbol] = q
	}

	result := RefreshResult{}
	failed := map[string]bool{}
	for _, inv := range investments {
		symbol := FormatSymbol(inv.Symbol)
		quote, ok := bySymbol[symbol]
		if !ok {
			if !failed[symbol] {
				failed[symbol] = true
				result.Failed = append(result.Failed, symbol)
			}
			continue
		}
		updated, err := c.store.UpdateInvestment(inv.ID, InvestmentPatch{
			CurrentPrice: amountPtr(NewAmount(quote.Price)),
		})
		if err != nil || !updated {
			c.logger.Warn("price write-back failed", "symbol", symbol, "id", inv.ID, "err", err)
			continue
		}
		result.Updated++
	}
	return result
}
