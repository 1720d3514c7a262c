package modelstore

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"

	"auction-predictor/src/analysis"
	"auction-predictor/src/helpers"
	"auction-predictor/src/logger"
	"auction-predictor/src/models"

	"golang.org/x/sync/errgroup"
)

// ModelStore holds every quantile artifact in memory, read-only after Load.
type ModelStore struct {
	cfg       models.MModelsConfig
	logger    *logger.Logger
	mu        sync.RWMutex
	artifacts map[string]*Artifact
}

// -----------------------------------------------------------------------------

func NewModelStore(cfg models.MModelsConfig, log *logger.Logger) *ModelStore {
	return &ModelStore{cfg: cfg, logger: log, artifacts: make(map[string]*Artifact)}
}

// ArtifactName builds {prefix}_{target}_{quantile}.
func ArtifactName(category, target, quantile string) string {
	return analysis.CategoryPrefix(category) + "_" + target + "_" + quantile
}

// ArtifactFileName is ArtifactName plus the .json extension.
func ArtifactFileName(category, target, quantile string) string {
	return ArtifactName(category, target, quantile) + ".json"
}

// -----------------------------------------------------------------------------

// Load reads every configured slot concurrently. Missing files are logged and
// left empty. Any corrupt or mismatched artifact fails the whole load.
func (s *ModelStore) Load(ctx context.Context) error {
	type slot struct{ category, target, quantile string }
	var slots []slot
	for _, c := range s.cfg.Categories {
		for _, t := range s.cfg.Targets {
			for _, q := range s.cfg.Quantiles() {
				slots = append(slots, slot{c, t, q})
			}
		}
	}

	loaded := make([]*Artifact, len(slots))
	g, gctx := errgroup.WithContext(ctx)
	for i, sl := range slots {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(s.cfg.Dir, ArtifactFileName(sl.category, sl.target, sl.quantile))
			a, err := ReadArtifact(path)
			if errors.Is(err, fs.ErrNotExist) {
				s.logger.Warning("Model file not found: %s", path)
				return nil
			}
			if err != nil {
				return err
			}
			if a.Category != sl.category || a.Target != sl.target || a.Quantile != sl.quantile {
				return helpers.NewSchemaMismatchError("%s declares %s/%s/%s", path, a.Category, a.Target, a.Quantile)
			}
			loaded[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = make(map[string]*Artifact, len(slots))
	for _, a := range loaded {
		if a != nil {
			s.artifacts[a.Name()] = a
			s.logger.Info("Loaded model: %s (%s, %d features)", a.Name(), a.Kind, len(a.Features))
		}
	}
	s.logger.Info("Model store ready: %d/%d artifacts from %s", len(s.artifacts), len(slots), s.cfg.Dir)
	return nil
}

// -----------------------------------------------------------------------------

// Get returns the artifact for a slot or a ModelNotFoundError.
func (s *ModelStore) Get(category, target, quantile string) (*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[ArtifactName(category, target, quantile)]
	if !ok {
		return nil, helpers.NewModelNotFoundError("no model for category=%s target=%s quantile=%s", category, target, quantile)
	}
	return a, nil
}

// List describes loaded artifacts sorted by name.
func (s *ModelStore) List() []models.MModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.MModelInfo, 0, len(s.artifacts))
	for name, a := range s.artifacts {
		out = append(out, models.MModelInfo{
			Name:              name,
			Category:          a.Category,
			Target:            a.Target,
			Quantile:          a.Quantile,
			Kind:              a.Kind,
			Features:          len(a.Features),
			SchemaFingerprint: a.SchemaFingerprint,
			TrainedAt:         a.TrainedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count is the number of loaded artifacts.
func (s *ModelStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}
