package data_source

import (
	"context"
	"fmt"
	"time"

	"auction-predictor/src/interfaces"
	"auction-predictor/src/logger"
	"auction-predictor/src/models"
	"auction-predictor/src/utils"
)

// MarketSync keeps the stored copper and zinc quotes up to date from one or
// more quote sources. Sources are tried in order until one succeeds.
type MarketSync struct {
	Sources      []interfaces.IQuoteSource
	DB           interfaces.IDatabase
	Logger       *logger.Logger
	Scheduler    *utils.MarketScheduler // nil refreshes on every tick
	LookbackDays int
}

// -----------------------------------------------------------------------------

func NewMarketSync(cfg *models.MConfig, db interfaces.IDatabase, log *logger.Logger, sources ...interfaces.IQuoteSource) *MarketSync {
	return &MarketSync{
		Sources:      sources,
		DB:           db,
		Logger:       log,
		Scheduler:    utils.NewMarketScheduler(cfg.MarketData.ExchangeMIC, log),
		LookbackDays: 365 * cfg.Features.HistoryYears,
	}
}

// -----------------------------------------------------------------------------

// Sync fetches quotes newer than the latest stored date for each metal and
// stores them. Returns the number of quotes saved.
func (m *MarketSync) Sync(ctx context.Context) (int, error) {
	if len(m.Sources) == 0 {
		return 0, fmt.Errorf("no quote sources configured")
	}

	total := 0
	for _, metal := range []string{models.MetalCopper, models.MetalZinc} {
		latest, err := m.DB.LatestQuoteDate(ctx, metal)
		if err != nil {
			return total, fmt.Errorf("latest %s quote: %w", metal, err)
		}
		from := time.Now().UTC().AddDate(0, 0, -m.LookbackDays)
		if !latest.IsZero() {
			from = latest.AddDate(0, 0, 1)
		}

		quotes, err := m.fetch(ctx, metal, from)
		if err != nil {
			return total, err
		}
		if err := m.DB.SaveMarketQuotes(ctx, quotes); err != nil {
			return total, fmt.Errorf("save %s quotes: %w", metal, err)
		}
		total += len(quotes)
		m.Logger.Info("Synced %d %s quotes from %s", len(quotes), metal, from.Format("2006-01-02"))
	}
	return total, nil
}

func (m *MarketSync) fetch(ctx context.Context, metal string, from time.Time) ([]models.MMarketQuote, error) {
	var lastErr error
	for _, src := range m.Sources {
		quotes, err := src.FetchQuotes(ctx, metal, from)
		if err == nil {
			return quotes, nil
		}
		lastErr = err
		m.Logger.Warning("Source %s failed for %s: %v", src.Name(), metal, err)
	}
	return nil, fmt.Errorf("all sources failed for %s: %w", metal, lastErr)
}

// -----------------------------------------------------------------------------

// Run syncs immediately and then on every interval until ctx is cancelled.
// Ticks on exchange holidays are skipped. Failures are logged and retried on the next tick.
func (m *MarketSync) Run(ctx context.Context, interval time.Duration) error {
	if _, err := m.Sync(ctx); err != nil {
		m.Logger.Error("Market sync failed: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if m.Scheduler != nil && !m.Scheduler.ShouldRefresh(now) {
				continue
			}
			if _, err := m.Sync(ctx); err != nil {
				m.Logger.Error("Market sync failed: %v", err)
			}
		}
	}
}
