package inference

import (
	"errors"
	"testing"

	"auction-predictor/src/analysis"
	"auction-predictor/src/helpers"
	"auction-predictor/src/models"
	"auction-predictor/src/modelstore"
)

type fakeStore struct {
	artifacts map[string]*modelstore.Artifact
}

func (f *fakeStore) Get(category, target, quantile string) (*modelstore.Artifact, error) {
	a, ok := f.artifacts[modelstore.ArtifactName(category, target, quantile)]
	if !ok {
		return nil, helpers.NewModelNotFoundError("missing %s/%s/%s", category, target, quantile)
	}
	return a, nil
}

func (f *fakeStore) List() []models.MModelInfo { return nil }
func (f *fakeStore) Count() int                { return len(f.artifacts) }

func testConfig() models.MModelsConfig {
	return models.MModelsConfig{
		Targets:        []string{"proposed_rp", "lbp"},
		LowerQuantile:  "q5",
		MedianQuantile: "q50",
		UpperQuantile:  "q90",
	}
}

// store with constant linear models; intercepts indexed by quantile position
func newStore(category string, intercepts map[string][3]float64) *fakeStore {
	f := &fakeStore{artifacts: map[string]*modelstore.Artifact{}}
	qs := testConfig().Quantiles()
	for target, vals := range intercepts {
		for i, q := range qs {
			a := modelstore.NewLinearArtifact(category, target, q, vals[i], nil)
			f.artifacts[a.Name()] = a
		}
	}
	return f
}

func vector(category string) models.MFeatureVector {
	names := analysis.FeatureNames(category)
	return models.MFeatureVector{Category: category, Names: names, Values: make([]float64, len(names))}
}

func TestPredictOrdersQuantiles(t *testing.T) {
	store := newStore(models.GroupCylinder, map[string][3]float64{
		"proposed_rp": {90, 100, 120},
		"lbp":         {130, 100, 80}, // crossing
	})
	svc := NewService(store, testConfig(), nil)

	got, err := svc.Predict(vector(models.GroupCylinder))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	rp := got["proposed_rp"]
	if rp.Lower != 90 || rp.Median != 100 || rp.Upper != 120 || rp.ConfidenceInterval != 20 {
		t.Errorf("proposed_rp = %+v", rp)
	}

	lbp := got["lbp"]
	if lbp.Lower != 80 || lbp.Median != 100 || lbp.Upper != 130 {
		t.Errorf("lbp not sorted: %+v", lbp)
	}
	if lbp.Quantiles["q5"] != 80 || lbp.Quantiles["q90"] != 130 {
		t.Errorf("lbp quantiles = %v", lbp.Quantiles)
	}
	for target, p := range got {
		if !(p.Lower <= p.Median && p.Median <= p.Upper) {
			t.Errorf("%s interval not ordered: %+v", target, p)
		}
	}
}

func TestPredictModelNotFound(t *testing.T) {
	store := newStore(models.GroupCylinder, map[string][3]float64{"proposed_rp": {1, 2, 3}})
	svc := NewService(store, testConfig(), nil)

	_, err := svc.Predict(vector(models.GroupValve))
	var nf *helpers.ModelNotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("err = %v, want ModelNotFoundError", err)
	}
}

func TestPredictShapeMismatch(t *testing.T) {
	store := newStore(models.GroupCylinder, map[string][3]float64{
		"proposed_rp": {1, 2, 3},
		"lbp":         {1, 2, 3},
	})
	svc := NewService(store, testConfig(), nil)

	v := vector(models.GroupCylinder)
	v.Names = v.Names[:10]
	v.Values = v.Values[:10]
	_, err := svc.Predict(v)
	if !errors.As(err, new(*helpers.SchemaMismatchError)) {
		t.Errorf("err = %v, want SchemaMismatchError", err)
	}

	v = vector(models.GroupCylinder)
	v.Names[0], v.Names[1] = v.Names[1], v.Names[0]
	_, err = svc.Predict(v)
	if !errors.As(err, new(*helpers.SchemaMismatchError)) {
		t.Errorf("reordered names: err = %v, want SchemaMismatchError", err)
	}
}
