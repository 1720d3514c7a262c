package interfaces

import (
	"context"
	"time"

	"auction-predictor/src/models"
)

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveAuctionRecords inserts a batch of historical auction lots.
	SaveAuctionRecords(ctx context.Context, records []models.MAuctionRecord) error

	// -----------------------------------------------------------------------------
	// SaveMarketQuotes upserts quotes keyed by metal and date
	SaveMarketQuotes(ctx context.Context, quotes []models.MMarketQuote) error

	// -----------------------------------------------------------------------------
	// LoadAuctionHistory returns a product group's lots in [from, to], sorted by date
	LoadAuctionHistory(ctx context.Context, group string, from, to time.Time) ([]models.MAuctionRecord, error)

	// -----------------------------------------------------------------------------
	// LoadMarketQuotes returns one metal's quotes in [from, to], sorted by date
	LoadMarketQuotes(ctx context.Context, metal string, from, to time.Time) ([]models.MMarketQuote, error)

	// -----------------------------------------------------------------------------
	// LatestQuoteDate is the most recent quote date for a metal (zero when none)
	LatestQuoteDate(ctx context.Context, metal string) (time.Time, error)

	// -----------------------------------------------------------------------------

	// SavePrediction appends to the prediction log.
	SavePrediction(ctx context.Context, log models.MPredictionLog) error

	// -----------------------------------------------------------------------------

	// CleanupOldData removes prediction log rows older than the retention policy.
	CleanupOldData(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
