package utils

import (
	"sync"
	"time"

	"auction-predictor/src/logger"
)

// MarketScheduler gates periodic market data refreshes to exchange business days.
type MarketScheduler struct {
	Calendar *TradingCalendar
	Logger   *logger.Logger
	mu       sync.Mutex
	skipped  time.Time // last calendar day a skip was logged
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(mic string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Calendar: GetCalendar(mic),
		Logger:   l,
	}
	if ms.Calendar.Fallback {
		ms.Logger.Info("MarketScheduler: no calendar for %s, refreshing Monday to Friday", mic)
	}
	return ms
}

// -----------------------------------------------------------------------------

// ShouldRefresh reports whether now falls on a business day in the exchange timezone.
// Skips are logged once per calendar day.
func (ms *MarketScheduler) ShouldRefresh(now time.Time) bool {
	local := now.In(ms.Calendar.Timezone)
	if ms.Calendar.IsTradingDay(local) {
		return true
	}

	y, m, d := local.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if !ms.skipped.Equal(day) {
		ms.skipped = day
		ms.Logger.Info("MarketScheduler: %s is not a business day, skipping market refresh", day.Format("2006-01-02"))
	}
	return false
}
