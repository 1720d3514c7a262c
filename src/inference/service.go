package inference

import (
	"sort"

	"auction-predictor/src/helpers"
	"auction-predictor/src/interfaces"
	"auction-predictor/src/logger"
	"auction-predictor/src/models"
)

// Service runs the quantile models of every configured target for a feature vector.
type Service struct {
	store  interfaces.IModelStore
	cfg    models.MModelsConfig
	logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewService(store interfaces.IModelStore, cfg models.MModelsConfig, log *logger.Logger) *Service {
	return &Service{store: store, cfg: cfg, logger: log}
}

// -----------------------------------------------------------------------------

// Predict returns one interval per target. Quantile outputs are sorted so that
// lower <= median <= upper even when the models cross.
func (s *Service) Predict(v models.MFeatureVector) (map[string]models.MTargetPrediction, error) {
	quantiles := s.cfg.Quantiles()
	out := make(map[string]models.MTargetPrediction, len(s.cfg.Targets))

	for _, target := range s.cfg.Targets {
		raw := make([]float64, len(quantiles))
		for i, q := range quantiles {
			artifact, err := s.store.Get(v.Category, target, q)
			if err != nil {
				return nil, err
			}
			if err := checkSchema(artifact.Features, v.Names); err != nil {
				return nil, err
			}
			y, err := artifact.Predict(v.Values)
			if err != nil {
				return nil, err
			}
			raw[i] = y
		}

		sorted := append([]float64(nil), raw...)
		sort.Float64s(sorted)
		if sorted[0] != raw[0] || sorted[2] != raw[2] {
			s.logger.Warning("Crossing quantiles for %s/%s: %v", v.Category, target, raw)
		}

		byName := make(map[string]float64, len(quantiles))
		for i, q := range quantiles {
			byName[q] = sorted[i]
		}
		out[target] = models.MTargetPrediction{
			Lower:              sorted[0],
			Median:             sorted[1],
			Upper:              sorted[2],
			ConfidenceInterval: sorted[2] - sorted[1],
			Quantiles:          byName,
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func checkSchema(expected, got []string) error {
	if len(expected) != len(got) {
		return helpers.NewSchemaMismatchError("feature shape mismatch: model expects %d features, got %d", len(expected), len(got))
	}
	for i := range expected {
		if expected[i] != got[i] {
			return helpers.NewSchemaMismatchError("feature %d is %q, model expects %q", i, got[i], expected[i])
		}
	}
	return nil
}
