package analysis

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"auction-predictor/src/helpers"
	"auction-predictor/src/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func record(date string, qty, prp, lbp float64) models.MAuctionRecord {
	return models.MAuctionRecord{
		ProductDescription: "14.2 kg",
		ProductGroup:       models.GroupCylinder,
		AuctionDate:        day(date),
		Quantity:           qty,
		ProposedRP:         prp,
		LastBidPrice:       lbp,
	}
}

func quote(metal, date string, price float64) models.MMarketQuote {
	return models.MMarketQuote{Metal: metal, Date: day(date), SpotPrice: price}
}

func testFeatureConfig() models.MFeatureConfig {
	return models.MFeatureConfig{
		HistoryYears:        5,
		EWMSpan:             7,
		CopperWeight:        0.6,
		ZincWeight:          0.4,
		CopperFallbackPrice: 800000,
		ZincFallbackPrice:   300000,
	}
}

// Unsorted on purpose; the 2024-02-10 lot is after the request date.
func testHistory() []models.MAuctionRecord {
	return []models.MAuctionRecord{
		record("2024-01-25", 10, 120, 115),
		record("2024-01-01", 10, 100, 90),
		record("2024-02-10", 99, 999, 999),
		record("2024-01-20", 20, 110, 100),
		record("2024-01-25", 30, 130, 120),
	}
}

func assertFeature(t *testing.T, v models.MFeatureVector, name string, want float64) {
	t.Helper()
	got, ok := v.Get(name)
	if !ok {
		t.Errorf("feature %s missing", name)
		return
	}
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestPreprocessCylinder(t *testing.T) {
	p := NewFeaturePreprocessor(testFeatureConfig(), nil)
	v, err := p.Preprocess(PreprocessInput{
		ProductGroup: models.GroupCylinder,
		Quantity:     15,
		Date:         day("2024-01-31"),
		History:      testHistory(),
	})
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}

	if !reflect.DeepEqual(v.Names, FeatureNames(models.GroupCylinder)) {
		t.Fatal("vector names do not follow the cylinder schema")
	}

	ewm := (130 + 0.75*120 + 0.5625*110 + 0.421875*100) / (1 + 0.75 + 0.5625 + 0.421875)

	expected := map[string]float64{
		"year":                           2024,
		"month":                          1,
		"quantity":                       15,
		"day_of_week":                    2, // Wednesday
		"day_of_month":                   31,
		"week_of_year":                   5,
		"days_since_last_auction":        0,
		"ewm_proposed_rp":                ewm,
		"auction_frequency_7d":           3,
		"price_momentum_7d":              (10.0/110 + 10.0/120) / 2,
		"quantity_trend_7d":              (-0.5 + 2.0) / 2,
		"last_auction_price":             120,
		"last_auction_quantity":          10,
		"price_volatility_7d":            10,
		"rolling_mean_7d_proposed_rp":    120,
		"rolling_mean_30d_proposed_rp":   115,
		"rolling_mean_7d_last_bid_price": (100.0 + 115 + 120) / 3,
		"price_change_1d":                10,
		"quantity_change_1d":             20,
		"price_change_7d":                20,
		"price_change_30d":               30,
		"quantity_change_7d":             10,
	}
	for name, want := range expected {
		assertFeature(t, v, name, want)
	}
}

func TestPreprocessIsDeterministic(t *testing.T) {
	p := NewFeaturePreprocessor(testFeatureConfig(), nil)
	in := PreprocessInput{ProductGroup: models.GroupCylinder, Quantity: 5, Date: day("2024-01-31"), History: testHistory()}
	a, err := p.Preprocess(in)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Preprocess(in)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("identical input produced different vectors")
	}
}

func TestPreprocessValve(t *testing.T) {
	p := NewFeaturePreprocessor(testFeatureConfig(), nil)
	in := PreprocessInput{
		ProductGroup: models.GroupValve,
		Quantity:     2,
		Date:         day("2024-01-31"),
		History:      testHistory(),
		Copper: []models.MMarketQuote{
			quote(models.MetalCopper, "2024-01-24", 710000),
			quote(models.MetalCopper, "2024-01-20", 700000),
			quote(models.MetalCopper, "2024-01-26", 990000), // after anchor
		},
		Zinc: []models.MMarketQuote{
			quote(models.MetalZinc, "2024-01-20", 250000),
			quote(models.MetalZinc, "2024-01-22", 255000), // no copper that day
			quote(models.MetalZinc, "2024-01-24", 260000),
		},
	}
	v, err := p.Preprocess(in)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if len(v.Values) != 36 {
		t.Fatalf("valve vector length = %d, want 36", len(v.Values))
	}

	brass := 0.6*710000 + 0.4*260000.0
	assertFeature(t, v, "brass_index_poly", brass*brass)
	assertFeature(t, v, "brass_index_momentum_7d", 10000.0/520000)
	assertFeature(t, v, "brass_index_momentum_30d", 10000.0/520000)
	assertFeature(t, v, "brass_index_volatility_7d", 10000/math.Sqrt2)
}

func TestPreprocessValveFallbackPrices(t *testing.T) {
	p := NewFeaturePreprocessor(testFeatureConfig(), nil)
	v, err := p.Preprocess(PreprocessInput{
		ProductGroup: models.GroupValve,
		Quantity:     2,
		Date:         day("2024-01-31"),
		History:      testHistory(),
	})
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	assertFeature(t, v, "brass_index_poly", 600000.0*600000.0)
	assertFeature(t, v, "brass_index_momentum_7d", 0)
	assertFeature(t, v, "brass_index_volatility_7d", 0)
}

func TestPreprocessErrors(t *testing.T) {
	p := NewFeaturePreprocessor(testFeatureConfig(), nil)

	_, err := p.Preprocess(PreprocessInput{ProductGroup: "brass", Quantity: 1, Date: day("2024-01-31"), History: testHistory()})
	if !helpers.IsValidation(err) {
		t.Errorf("unknown group: err = %v, want validation error", err)
	}

	_, err = p.Preprocess(PreprocessInput{ProductGroup: models.GroupCylinder, Quantity: 0, Date: day("2024-01-31"), History: testHistory()})
	if !helpers.IsValidation(err) {
		t.Errorf("zero quantity: err = %v, want validation error", err)
	}

	// Every record is after the request date
	_, err = p.Preprocess(PreprocessInput{ProductGroup: models.GroupCylinder, Quantity: 1, Date: day("2023-12-01"), History: testHistory()})
	var de *helpers.DataError
	if !errors.As(err, &de) {
		t.Errorf("no history: err = %v, want DataError", err)
	}
}

func TestPreprocessSingleRecordWindows(t *testing.T) {
	p := NewFeaturePreprocessor(testFeatureConfig(), nil)
	v, err := p.Preprocess(PreprocessInput{
		ProductGroup: models.GroupCylinder,
		Quantity:     1,
		Date:         day("2024-06-01"),
		History:      []models.MAuctionRecord{record("2024-05-01", 4, 50, 40)},
	})
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	assertFeature(t, v, "days_since_last_auction", 0)
	assertFeature(t, v, "auction_frequency_7d", 1)
	assertFeature(t, v, "rolling_std_7d_proposed_rp", 0)
	assertFeature(t, v, "price_momentum_30d", 0)
	assertFeature(t, v, "ewm_proposed_rp", 50)
	assertFeature(t, v, "price_change_1d", 0)
}

func TestDaysSinceLastAuctionIsClampedToLastAuction(t *testing.T) {
	p := NewFeaturePreprocessor(testFeatureConfig(), nil)
	history := []models.MAuctionRecord{record("2024-01-10", 5, 100, 95), record("2024-01-20", 5, 110, 105)}

	for _, date := range []string{"2024-01-20", "2024-01-21", "2024-03-30"} {
		v, err := p.Preprocess(PreprocessInput{ProductGroup: models.GroupCylinder, Quantity: 1, Date: day(date), History: history})
		if err != nil {
			t.Fatalf("%s: Preprocess: %v", date, err)
		}
		assertFeature(t, v, "days_since_last_auction", 0)
		// Temporal features still follow the requested date
		assertFeature(t, v, "day_of_month", float64(day(date).Day()))
		if got := v.AsMap()["last_auction_price"]; got != 110 {
			t.Errorf("%s: last_auction_price = %v, want 110", date, got)
		}
	}
}
