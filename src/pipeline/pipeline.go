package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"auction-predictor/src/analysis"
	"auction-predictor/src/helpers"
	"auction-predictor/src/inference"
	"auction-predictor/src/interfaces"
	"auction-predictor/src/logger"
	"auction-predictor/src/models"
	"auction-predictor/src/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const dateLayout = "2006-01-02"

// Pipeline serves a prediction request end to end: history load, feature
// engineering, inference, logging and live feed push.
type Pipeline struct {
	cfg          *models.MConfig
	db           interfaces.IDatabase
	store        interfaces.IModelStore
	preprocessor *analysis.FeaturePreprocessor
	inference    *inference.Service
	calendar     *utils.TradingCalendar
	feed         interfaces.IDataExchanger
	logger       *logger.Logger
	now          func() time.Time
}

// -----------------------------------------------------------------------------

func New(cfg *models.MConfig, db interfaces.IDatabase, store interfaces.IModelStore, log *logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		db:           db,
		store:        store,
		preprocessor: analysis.NewFeaturePreprocessor(cfg.Features, log.WithName("Preprocessor")),
		inference:    inference.NewService(store, cfg.Models, log.WithName("Inference")),
		calendar:     utils.GetCalendar(cfg.MarketData.ExchangeMIC),
		logger:       log,
		now:          time.Now,
	}
}

// AttachFeed sets the live feed that receives every served prediction.
func (p *Pipeline) AttachFeed(feed interfaces.IDataExchanger) {
	p.feed = feed
}

// Models lists the loaded artifacts.
func (p *Pipeline) Models() []models.MModelInfo {
	return p.store.List()
}

// -----------------------------------------------------------------------------

// Predict validates the request and returns rounded intervals for every target.
func (p *Pipeline) Predict(ctx context.Context, req models.MPredictionRequest) (*models.MPredictionResult, error) {
	group, date, err := validateRequest(req)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Received prediction request: group=%s quantity=%v date=%s", group, req.Quantity, req.Date)

	// Load history and quotes concurrently
	from := date.AddDate(0, 0, -365*p.cfg.Features.HistoryYears)
	var history []models.MAuctionRecord
	var copper, zinc []models.MMarketQuote

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, err = p.db.LoadAuctionHistory(gctx, group, from, date)
		return err
	})
	if group == models.GroupValve {
		g.Go(func() error {
			var err error
			copper, err = p.db.LoadMarketQuotes(gctx, models.MetalCopper, from, date)
			return err
		})
		g.Go(func() error {
			var err error
			zinc, err = p.db.LoadMarketQuotes(gctx, models.MetalZinc, from, date)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	vector, err := p.preprocessor.Preprocess(analysis.PreprocessInput{
		ProductGroup: group,
		Quantity:     req.Quantity,
		Date:         date,
		History:      history,
		Copper:       copper,
		Zinc:         zinc,
	})
	if err != nil {
		return nil, err
	}

	predictions, err := p.inference.Predict(vector)
	if err != nil {
		return nil, err
	}
	for target, tp := range predictions {
		predictions[target] = roundPrediction(tp)
	}

	result := &models.MPredictionResult{
		ID:           uuid.NewString(),
		ProductGroup: group,
		Quantity:     req.Quantity,
		Date:         req.Date,
		Location:     req.Location,
		Predictions:  predictions,
		Warnings:     p.warnings(group, date, history, copper, zinc),
		CreatedAt:    p.now().UTC(),
	}

	p.record(ctx, result, date)
	if p.feed != nil {
		p.feed.Broadcast(result)
	}

	p.logger.Info("Prediction %s served for %s", result.ID, group)
	return result, nil
}

// -----------------------------------------------------------------------------

func validateRequest(req models.MPredictionRequest) (string, time.Time, error) {
	group := analysis.NormalizeProductGroup(req.ProductGroup)
	if group == "" {
		return "", time.Time{}, helpers.NewValidationError("product_group must be 'cylinder' or 'valve' (singular/plural variations accepted)")
	}
	if req.Quantity <= 0 || math.IsNaN(req.Quantity) || math.IsInf(req.Quantity, 0) {
		return "", time.Time{}, helpers.NewValidationError("quantity must be greater than 0")
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return "", time.Time{}, helpers.NewValidationError("date must be in YYYY-MM-DD format")
	}
	return group, date, nil
}

// -----------------------------------------------------------------------------

// roundPrediction rounds prices to 2 decimals. Rounding is monotonic so the
// interval stays ordered.
func roundPrediction(tp models.MTargetPrediction) models.MTargetPrediction {
	round := func(v float64) float64 {
		return decimal.NewFromFloat(v).Round(2).InexactFloat64()
	}
	out := models.MTargetPrediction{
		Lower:     round(tp.Lower),
		Median:    round(tp.Median),
		Upper:     round(tp.Upper),
		Quantiles: make(map[string]float64, len(tp.Quantiles)),
	}
	out.ConfidenceInterval = decimal.NewFromFloat(out.Upper).Sub(decimal.NewFromFloat(out.Median)).InexactFloat64()
	for q, v := range tp.Quantiles {
		out.Quantiles[q] = round(v)
	}
	return out
}

// -----------------------------------------------------------------------------

func (p *Pipeline) warnings(group string, date time.Time, history []models.MAuctionRecord, copper, zinc []models.MMarketQuote) []string {
	var out []string

	if len(history) > 0 {
		last := history[0].AuctionDate
		for _, r := range history[1:] {
			if r.AuctionDate.After(last) {
				last = r.AuctionDate
			}
		}
		if gap := analysis.DayIndex(date) - analysis.DayIndex(last); gap > 30 {
			out = append(out, fmt.Sprintf("last %s auction was %d days before the requested date", group, gap))
		}
	}

	if group != models.GroupValve {
		return out
	}
	for _, m := range []struct {
		metal  string
		quotes []models.MMarketQuote
	}{{models.MetalCopper, copper}, {models.MetalZinc, zinc}} {
		if len(m.quotes) == 0 {
			out = append(out, fmt.Sprintf("no %s quotes available, fallback price used", m.metal))
			continue
		}
		latest := m.quotes[len(m.quotes)-1].Date
		stale := p.calendar.BusinessDaysBetween(latest, date)
		if stale > p.cfg.MarketData.MaxStaleBusinessDays {
			out = append(out, fmt.Sprintf("%s quote is %d business days old (%s)", m.metal, stale, latest.Format(dateLayout)))
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// record stores the prediction log; failures are logged, not returned.
func (p *Pipeline) record(ctx context.Context, result *models.MPredictionResult, date time.Time) {
	payload, err := json.Marshal(result)
	if err != nil {
		p.logger.Warning("Failed to encode prediction %s: %v", result.ID, err)
		return
	}
	err = p.db.SavePrediction(ctx, models.MPredictionLog{
		ID:           result.ID,
		ProductGroup: result.ProductGroup,
		Quantity:     result.Quantity,
		RequestDate:  date,
		Location:     result.Location,
		ResultJSON:   string(payload),
		CreatedAt:    result.CreatedAt,
	})
	if err != nil {
		p.logger.Warning("Failed to save prediction %s: %v", result.ID, err)
	}
}
