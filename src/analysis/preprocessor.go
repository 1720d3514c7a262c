package analysis

import (
	"sort"
	"strconv"
	"time"

	"auction-predictor/src/analysis/core"
	"auction-predictor/src/helpers"
	"auction-predictor/src/logger"
	"auction-predictor/src/models"
)

// Trailing windows in days used by the rolling features.
var windowDays = []int64{7, 30}

// PreprocessInput is everything needed to build one feature vector.
type PreprocessInput struct {
	ProductGroup string
	Quantity     float64
	Date         time.Time
	History      []models.MAuctionRecord
	Copper       []models.MMarketQuote
	Zinc         []models.MMarketQuote
}

// FeaturePreprocessor turns auction history and metal quotes into the model feature vector.
type FeaturePreprocessor struct {
	cfg    models.MFeatureConfig
	logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewFeaturePreprocessor(cfg models.MFeatureConfig, log *logger.Logger) *FeaturePreprocessor {
	return &FeaturePreprocessor{cfg: cfg, logger: log}
}

// -----------------------------------------------------------------------------

// Preprocess builds the feature vector for one request. History later than the
// request date is ignored. The result is deterministic for identical input.
func (p *FeaturePreprocessor) Preprocess(in PreprocessInput) (models.MFeatureVector, error) {
	names := FeatureNames(in.ProductGroup)
	if names == nil {
		return models.MFeatureVector{}, helpers.NewValidationError("unknown product group %q", in.ProductGroup)
	}
	if in.Quantity <= 0 {
		return models.MFeatureVector{}, helpers.NewValidationError("quantity must be greater than 0")
	}

	requestDay := DayIndex(in.Date)
	history := asOfHistory(in.History, requestDay)
	if len(history) == 0 {
		return models.MFeatureVector{}, helpers.NewDataError(nil, "no historical data for %s on or before %s",
			in.ProductGroup, in.Date.Format("2006-01-02"))
	}

	n := len(history)
	days := make([]int64, n)
	proposed := make([]float64, n)
	lastBid := make([]float64, n)
	quantity := make([]float64, n)
	for i, r := range history {
		days[i] = DayIndex(r.AuctionDate)
		proposed[i] = r.ProposedRP
		lastBid[i] = r.LastBidPrice
		quantity[i] = r.Quantity
	}

	anchor := days[n-1]
	features := make(map[string]float64, len(names))

	// Temporal
	d := in.Date
	_, isoWeek := d.ISOWeek()
	features["year"] = float64(d.Year())
	features["month"] = float64(d.Month())
	features["quantity"] = in.Quantity
	features["day_of_week"] = float64((int(d.Weekday()) + 6) % 7)
	features["day_of_month"] = float64(d.Day())
	features["week_of_year"] = float64(isoWeek)
	// Requests past the last auction are evaluated at that auction date, as
	// at training time, so the gap is zero whenever history is as-of.
	evalDay := min(requestDay, anchor)
	features["days_since_last_auction"] = float64(evalDay - anchor)

	// EWM over the full history
	features["ewm_proposed_rp"] = core.EWMAdjusted(proposed, p.cfg.EWMSpan)
	features["ewm_last_bid_price"] = core.EWMAdjusted(lastBid, p.cfg.EWMSpan)

	// Last auction: first record on the last auction date
	first := SearchSorted(days, anchor, "left")
	features["last_auction_price"] = proposed[first]
	features["last_auction_quantity"] = quantity[first]

	// Trailing windows
	for _, w := range windowDays {
		start, end := TrailingWindow(days, anchor, w)
		win := Slice(start, end, proposed, lastBid, quantity)
		wp, wl, wq := win[0], win[1], win[2]
		suffix := windowSuffix(w)

		if w == 7 {
			features["auction_frequency_7d"] = float64(len(wp))
		}
		features["price_momentum_"+suffix] = core.MeanPctChange(wp)
		features["quantity_trend_"+suffix] = core.MeanPctChange(wq)
		features["price_volatility_"+suffix] = core.SampleStd(wp)
		features["rolling_mean_"+suffix+"_proposed_rp"] = core.Mean(wp)
		features["rolling_mean_"+suffix+"_last_bid_price"] = core.Mean(wl)
		features["rolling_std_"+suffix+"_proposed_rp"] = core.SampleStd(wp)
		features["rolling_std_"+suffix+"_last_bid_price"] = core.SampleStd(wl)
		features["price_change_"+suffix] = core.FirstLastChange(wp)
		features["quantity_change_"+suffix] = core.FirstLastChange(wq)
	}

	start, end := TrailingWindow(days, anchor, 1)
	features["price_change_1d"] = core.FirstLastChange(proposed[start:end])
	features["quantity_change_1d"] = core.FirstLastChange(quantity[start:end])

	if in.ProductGroup == models.GroupValve {
		p.brassFeatures(features, in.Copper, in.Zinc, anchor)
	}

	values := make([]float64, len(names))
	for i, name := range names {
		values[i] = core.Finite(features[name])
	}

	vector := models.MFeatureVector{Category: in.ProductGroup, Names: names, Values: values}
	p.logger.Debug("Built %d features for %s (anchor day %d, %d records): %v",
		len(values), in.ProductGroup, anchor, n, vector.AsMap())

	return vector, nil
}

// -----------------------------------------------------------------------------

func (p *FeaturePreprocessor) brassFeatures(features map[string]float64, copper, zinc []models.MMarketQuote, anchor int64) {
	cuDays, cuPrices := quoteSeries(copper, anchor)
	znDays, znPrices := quoteSeries(zinc, anchor)

	cu := p.cfg.CopperFallbackPrice
	if len(cuPrices) > 0 {
		cu = cuPrices[len(cuPrices)-1]
	} else {
		p.logger.Warning("No copper quote on or before anchor, using fallback %.2f", cu)
	}
	zn := p.cfg.ZincFallbackPrice
	if len(znPrices) > 0 {
		zn = znPrices[len(znPrices)-1]
	} else {
		p.logger.Warning("No zinc quote on or before anchor, using fallback %.2f", zn)
	}

	brass := core.BrassIndex(cu, zn, p.cfg.CopperWeight, p.cfg.ZincWeight)
	features["brass_index_poly"] = brass * brass

	// Brass series over dates quoted for both metals
	var days []int64
	var series []float64
	i, j := 0, 0
	for i < len(cuDays) && j < len(znDays) {
		switch {
		case cuDays[i] < znDays[j]:
			i++
		case cuDays[i] > znDays[j]:
			j++
		default:
			days = append(days, cuDays[i])
			series = append(series, core.BrassIndex(cuPrices[i], znPrices[j], p.cfg.CopperWeight, p.cfg.ZincWeight))
			i++
			j++
		}
	}

	for _, w := range windowDays {
		start, end := TrailingWindow(days, anchor, w)
		features["brass_index_momentum_"+windowSuffix(w)] = core.MeanPctChange(series[start:end])
		if w == 7 {
			features["brass_index_volatility_7d"] = core.SampleStd(series[start:end])
		}
	}
}

// -----------------------------------------------------------------------------

// asOfHistory copies, stable-sorts by date and drops records after the request day.
func asOfHistory(history []models.MAuctionRecord, requestDay int64) []models.MAuctionRecord {
	out := make([]models.MAuctionRecord, 0, len(history))
	for _, r := range history {
		if DayIndex(r.AuctionDate) <= requestDay {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].AuctionDate.Before(out[b].AuctionDate)
	})
	return out
}

// quoteSeries returns day-sorted quotes up to the anchor, one per day (last wins).
func quoteSeries(quotes []models.MMarketQuote, anchor int64) ([]int64, []float64) {
	sorted := make([]models.MMarketQuote, 0, len(quotes))
	for _, q := range quotes {
		if DayIndex(q.Date) <= anchor {
			sorted = append(sorted, q)
		}
	}
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Date.Before(sorted[b].Date)
	})

	days := make([]int64, 0, len(sorted))
	prices := make([]float64, 0, len(sorted))
	for _, q := range sorted {
		d := DayIndex(q.Date)
		if len(days) > 0 && days[len(days)-1] == d {
			prices[len(prices)-1] = q.SpotPrice
			continue
		}
		days = append(days, d)
		prices = append(prices, q.SpotPrice)
	}
	return days, prices
}

func windowSuffix(w int64) string {
	return strconv.FormatInt(w, 10) + "d"
}
