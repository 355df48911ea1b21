package financelog

import (
	"sync"
	"time"
)

// Market status display strings.
const (
	MarketStatusOpen          = "Mercado Aberto"
	MarketStatusClosed        = "Mercado Fechado"
	MarketStatusClosedWeekend = "Mercado Fechado - Final de Semana"
)

var (
	marketLocOnce sync.Once
	marketLoc     *time.Location
)

// marketLocation resolves the B3 reference timezone, falling back to a fixed
// UTC-3 offset when the tz database is unavailable.
func marketLocation() *time.Location {
	marketLocOnce.Do(func() {
		loc, err := time.LoadLocation("America/Sao_Paulo")
		if err != nil {
			loc = time.FixedZone("-03", -3*60*60)
		}
		marketLoc = loc
	})
	return marketLoc
}

// IsMarketOpen reports whether the B3 trading session is open at the given
// instant: Monday to Friday, 10:00 to 18:00 inclusive, Brazil time.
func IsMarketOpen(now time.Time) bool {
	local := now.In(marketLocation())
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	hm := local.Hour()*100 + local.Minute()
	return hm >= 1000 && hm <= 1800
}

// MarketStatus returns the display status for the given instant,
// distinguishing weekend closure from after-hours on a weekday.
func MarketStatus(now time.Time) string {
	if IsMarketOpen(now) {
		return MarketStatusOpen
	}
	local := now.In(marketLocation())
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return MarketStatusClosedWeekend
	}
	return MarketStatusClosed
}
