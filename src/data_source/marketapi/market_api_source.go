package marketapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"auction-predictor/src/helpers"
	"auction-predictor/src/interfaces"
	"auction-predictor/src/logger"
	"auction-predictor/src/models"
)

// MarketAPISource reads daily metal spot prices from an HTTP JSON endpoint:
//
//	GET {api_url}?metal=copper&from=2024-01-01
//	[{"date": "2024-01-02", "spot_price": 712345.5}, ...]
type MarketAPISource struct {
	Config  *models.MConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

type quotePayload struct {
	Date      string   `json:"date"`
	SpotPrice *float64 `json:"spot_price"` // pointer to detect null
}

// -----------------------------------------------------------------------------

func NewMarketAPISource(cfg *models.MConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *MarketAPISource {
	return &MarketAPISource{Config: cfg, Network: netMgr, Logger: log}
}

func (s *MarketAPISource) Name() string {
	return "market_api"
}

// -----------------------------------------------------------------------------

// FetchQuotes fetches quotes for one metal dated on or after from, sorted by date.
func (s *MarketAPISource) FetchQuotes(ctx context.Context, metal string, from time.Time) ([]models.MMarketQuote, error) {
	if s.Config.MarketData.APIURL == "" {
		return nil, helpers.NewValidationError("market api url is not configured")
	}

	params := map[string]string{
		"metal": metal,
		"from":  from.Format("2006-01-02"),
	}
	respBytes, err := s.Network.Get(ctx, s.Config.MarketData.APIURL, params)
	if err != nil {
		return nil, fmt.Errorf("network error for %s: %w", metal, err)
	}

	return s.parseResponse(metal, from, respBytes)
}

// -----------------------------------------------------------------------------

func (s *MarketAPISource) parseResponse(metal string, from time.Time, data []byte) ([]models.MMarketQuote, error) {
	var payload []quotePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, helpers.NewDataError(err, "json unmarshal failed for %s quotes", metal)
	}

	fromDay := from.Format("2006-01-02")
	quotes := make([]models.MMarketQuote, 0, len(payload))
	for i, p := range payload {
		if p.SpotPrice == nil || *p.SpotPrice <= 0 {
			s.Logger.Info("Skipping invalid %s quote at index %d", metal, i)
			continue
		}
		d, err := time.Parse("2006-01-02", strings.TrimSpace(p.Date))
		if err != nil {
			s.Logger.Info("Skipping %s quote with bad date %q", metal, p.Date)
			continue
		}
		if d.Format("2006-01-02") < fromDay {
			continue
		}
		quotes = append(quotes, models.MMarketQuote{Metal: metal, Date: d, SpotPrice: *p.SpotPrice})
	}

	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Date.Before(quotes[j].Date) })
	s.Logger.Info("MarketAPI: fetched %d %s quotes since %s", len(quotes), metal, fromDay)
	return quotes, nil
}
