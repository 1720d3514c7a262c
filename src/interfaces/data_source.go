package interfaces

import (
	"context"
	"time"

	"auction-predictor/src/models"
)

// -----------------------------------------------------------------------------
// IQuoteSource interface for fetching metal spot prices from external sources.
// -----------------------------------------------------------------------------

type IQuoteSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// FetchQuotes retrieves daily quotes for one metal on or after from.
	FetchQuotes(ctx context.Context, metal string, from time.Time) ([]models.MMarketQuote, error)
}
