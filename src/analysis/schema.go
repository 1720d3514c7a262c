package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"auction-predictor/src/models"
)

// SchemaVersion is bumped whenever feature semantics change without a name change.
// v2: days_since_last_auction is measured from the evaluation date, clamped to
// the last auction, so it is 0 for requests after the latest auction.
const SchemaVersion = "v2"

var cylinderFeatures = []string{
	"year", "month", "quantity", "ewm_proposed_rp", "ewm_last_bid_price",
	"day_of_week", "day_of_month", "week_of_year", "days_since_last_auction",
	"auction_frequency_7d", "price_momentum_7d", "price_momentum_30d",
	"quantity_trend_7d", "quantity_trend_30d", "last_auction_price",
	"last_auction_quantity", "price_volatility_7d", "price_volatility_30d",
	"rolling_mean_7d_proposed_rp", "rolling_mean_30d_proposed_rp",
	"rolling_mean_7d_last_bid_price", "rolling_mean_30d_last_bid_price",
	"rolling_std_7d_proposed_rp", "rolling_std_30d_proposed_rp",
	"rolling_std_7d_last_bid_price", "rolling_std_30d_last_bid_price",
	"price_change_1d", "price_change_7d", "price_change_30d",
	"quantity_change_1d", "quantity_change_7d", "quantity_change_30d",
}

var valveExtraFeatures = []string{
	"brass_index_poly", "brass_index_momentum_7d",
	"brass_index_momentum_30d", "brass_index_volatility_7d",
}

// -----------------------------------------------------------------------------

// FeatureNames returns a copy of the ordered feature schema for a product group,
// or nil for unknown groups.
func FeatureNames(group string) []string {
	switch group {
	case models.GroupCylinder:
		return append([]string(nil), cylinderFeatures...)
	case models.GroupValve:
		out := make([]string, 0, len(cylinderFeatures)+len(valveExtraFeatures))
		out = append(out, cylinderFeatures...)
		return append(out, valveExtraFeatures...)
	}
	return nil
}

// -----------------------------------------------------------------------------

// SchemaFingerprint identifies an ordered feature list: sha256(SchemaVersion + ":" + names joined by ",").
func SchemaFingerprint(names []string) string {
	sum := sha256.Sum256([]byte(SchemaVersion + ":" + strings.Join(names, ",")))
	return hex.EncodeToString(sum[:])
}
