package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"auction-predictor/src/analysis"
	"auction-predictor/src/helpers"
	"auction-predictor/src/models"
	"auction-predictor/src/modelstore"
)

// -----------------------------------------------------------------------------

type fakeDB struct {
	mu          sync.Mutex
	history     map[string][]models.MAuctionRecord
	quotes      map[string][]models.MMarketQuote
	predictions []models.MPredictionLog
	saveErr     error
}

func (f *fakeDB) Initialize() error                                                     { return nil }
func (f *fakeDB) SaveAuctionRecords(context.Context, []models.MAuctionRecord) error     { return nil }
func (f *fakeDB) SaveMarketQuotes(context.Context, []models.MMarketQuote) error         { return nil }
func (f *fakeDB) LatestQuoteDate(context.Context, string) (time.Time, error)            { return time.Time{}, nil }
func (f *fakeDB) CleanupOldData(context.Context) error                                  { return nil }
func (f *fakeDB) Close() error                                                          { return nil }
func (f *fakeDB) LoadAuctionHistory(_ context.Context, g string, from, to time.Time) ([]models.MAuctionRecord, error) {
	return f.history[g], nil
}
func (f *fakeDB) LoadMarketQuotes(_ context.Context, m string, from, to time.Time) ([]models.MMarketQuote, error) {
	return f.quotes[m], nil
}
func (f *fakeDB) SavePrediction(_ context.Context, p models.MPredictionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.predictions = append(f.predictions, p)
	return f.saveErr
}

type fakeStore struct{ artifacts map[string]*modelstore.Artifact }

func (f *fakeStore) Get(c, t, q string) (*modelstore.Artifact, error) {
	a, ok := f.artifacts[modelstore.ArtifactName(c, t, q)]
	if !ok {
		return nil, helpers.NewModelNotFoundError("missing %s", modelstore.ArtifactName(c, t, q))
	}
	return a, nil
}
func (f *fakeStore) List() []models.MModelInfo { return nil }
func (f *fakeStore) Count() int                { return len(f.artifacts) }

type fakeFeed struct{ got []*models.MPredictionResult }

func (f *fakeFeed) Broadcast(r *models.MPredictionResult) { f.got = append(f.got, r) }
func (f *fakeFeed) Recent() []models.MPredictionResult    { return nil }

// -----------------------------------------------------------------------------

func testConfig() *models.MConfig {
	cfg := &models.MConfig{Name: "test"}
	cfg.Models = models.MModelsConfig{
		Categories:     []string{models.GroupCylinder, models.GroupValve},
		Targets:        []string{"proposed_rp", "lbp"},
		LowerQuantile:  "q5",
		MedianQuantile: "q50",
		UpperQuantile:  "q90",
	}
	cfg.Features = models.MFeatureConfig{
		HistoryYears: 3, EWMSpan: 7, CopperWeight: 0.6, ZincWeight: 0.4,
		CopperFallbackPrice: 800000, ZincFallbackPrice: 300000,
	}
	cfg.MarketData.ExchangeMIC = "ZZZZ" // weekday fallback calendar
	cfg.MarketData.MaxStaleBusinessDays = 5
	return cfg
}

func newStore() *fakeStore {
	s := &fakeStore{artifacts: map[string]*modelstore.Artifact{}}
	intercepts := [3]float64{90.126, 100.004, 120.559}
	for _, c := range []string{models.GroupCylinder, models.GroupValve} {
		for _, t := range []string{"proposed_rp", "lbp"} {
			for i, q := range []string{"q5", "q50", "q90"} {
				a := modelstore.NewLinearArtifact(c, t, q, intercepts[i], nil)
				s.artifacts[a.Name()] = a
			}
		}
	}
	// lbp upper model sits below its median: crossing quantiles
	s.artifacts["cyl_lbp_q90"] = modelstore.NewLinearArtifact(models.GroupCylinder, "lbp", "q90", 50, nil)
	return s
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func newTestPipeline() (*Pipeline, *fakeDB, *fakeFeed) {
	db := &fakeDB{
		history: map[string][]models.MAuctionRecord{
			models.GroupCylinder: {
				{ProductGroup: models.GroupCylinder, AuctionDate: day("2024-01-20"), Quantity: 10, ProposedRP: 100, LastBidPrice: 95},
				{ProductGroup: models.GroupCylinder, AuctionDate: day("2024-01-25"), Quantity: 12, ProposedRP: 110, LastBidPrice: 108},
			},
			models.GroupValve: {
				{ProductGroup: models.GroupValve, AuctionDate: day("2024-01-25"), Quantity: 1, ProposedRP: 400, LastBidPrice: 410},
			},
		},
		quotes: map[string][]models.MMarketQuote{
			models.MetalCopper: {{Metal: models.MetalCopper, Date: day("2024-01-05"), SpotPrice: 700000}},
		},
	}
	feed := &fakeFeed{}
	p := New(testConfig(), db, newStore(), nil)
	p.AttachFeed(feed)
	return p, db, feed
}

// -----------------------------------------------------------------------------

func TestPredictCylinder(t *testing.T) {
	p, db, feed := newTestPipeline()

	res, err := p.Predict(context.Background(), models.MPredictionRequest{
		ProductGroup: "Cylinders", Quantity: 12.5, Date: "2024-01-31", Location: "Mumbai",
	})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if res.ProductGroup != models.GroupCylinder || res.Location != "Mumbai" || res.Date != "2024-01-31" || res.ID == "" {
		t.Errorf("result header = %+v", res)
	}

	rp := res.Predictions["proposed_rp"]
	if rp.Lower != 90.13 || rp.Median != 100 || rp.Upper != 120.56 || rp.ConfidenceInterval != 20.56 {
		t.Errorf("proposed_rp = %+v", rp)
	}

	lbp := res.Predictions["lbp"]
	if !(lbp.Lower <= lbp.Median && lbp.Median <= lbp.Upper) {
		t.Errorf("lbp interval not ordered: %+v", lbp)
	}
	if lbp.Lower != 50 || lbp.Upper != 100 {
		t.Errorf("lbp = %+v", lbp)
	}

	if len(db.predictions) != 1 || db.predictions[0].ID != res.ID || !strings.Contains(db.predictions[0].ResultJSON, res.ID) {
		t.Errorf("prediction log = %+v", db.predictions)
	}
	if len(feed.got) != 1 || feed.got[0].ID != res.ID {
		t.Errorf("feed got %d results", len(feed.got))
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestPredictValveWarnings(t *testing.T) {
	p, _, _ := newTestPipeline()

	res, err := p.Predict(context.Background(), models.MPredictionRequest{
		ProductGroup: "valves", Quantity: 1, Date: "2024-01-31", Location: "Pune",
	})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	joined := strings.Join(res.Warnings, "; ")
	if !strings.Contains(joined, "copper quote is") {
		t.Errorf("missing stale copper warning: %v", res.Warnings)
	}
	if !strings.Contains(joined, "no zinc quotes") {
		t.Errorf("missing zinc fallback warning: %v", res.Warnings)
	}
}

func TestPredictLogFailureIsNotFatal(t *testing.T) {
	p, db, _ := newTestPipeline()
	db.saveErr = errors.New("disk full")

	if _, err := p.Predict(context.Background(), models.MPredictionRequest{
		ProductGroup: "cylinder", Quantity: 1, Date: "2024-01-31", Location: "x",
	}); err != nil {
		t.Fatalf("Predict should succeed when logging fails: %v", err)
	}
}

func TestPredictValidation(t *testing.T) {
	p, _, _ := newTestPipeline()
	tests := []struct {
		name string
		req  models.MPredictionRequest
	}{
		{"unknown group", models.MPredictionRequest{ProductGroup: "brass", Quantity: 1, Date: "2024-01-31"}},
		{"zero quantity", models.MPredictionRequest{ProductGroup: "cylinder", Quantity: 0, Date: "2024-01-31"}},
		{"negative quantity", models.MPredictionRequest{ProductGroup: "cylinder", Quantity: -3, Date: "2024-01-31"}},
		{"bad date", models.MPredictionRequest{ProductGroup: "cylinder", Quantity: 1, Date: "31/01/2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Predict(context.Background(), tt.req)
			if !helpers.IsValidation(err) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
}

func TestPredictNoHistory(t *testing.T) {
	p, _, _ := newTestPipeline()
	_, err := p.Predict(context.Background(), models.MPredictionRequest{
		ProductGroup: "cylinder", Quantity: 1, Date: "2023-01-01", Location: "x",
	})
	var de *helpers.DataError
	if !errors.As(err, &de) {
		t.Errorf("err = %v, want DataError", err)
	}
}

func TestPipelineUsesCurrentSchema(t *testing.T) {
	// guards the fake store against schema drift
	a := modelstore.NewLinearArtifact(models.GroupValve, "lbp", "q5", 0, nil)
	if len(a.Features) != len(analysis.FeatureNames(models.GroupValve)) {
		t.Fatal("linear artifact does not follow valve schema")
	}
}

func TestPredictWarnsOnOldAuctionHistory(t *testing.T) {
	p, _, _ := newTestPipeline()

	res, err := p.Predict(context.Background(), models.MPredictionRequest{
		ProductGroup: "cylinder", Quantity: 1, Date: "2024-03-15", Location: "x",
	})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	want := "last cylinder auction was 50 days before the requested date"
	if strings.Join(res.Warnings, "; ") != want {
		t.Errorf("warnings = %v, want %q", res.Warnings, want)
	}
}
