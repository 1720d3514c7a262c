package modelstore

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"auction-predictor/src/analysis"
	"auction-predictor/src/helpers"
)

// Supported artifact kinds.
const (
	KindGradientBoosting = "gradient_boosting"
	KindLinear           = "linear"
)

// TreeNode is one node of a regression tree. Left == -1 marks a leaf.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// Artifact is a serialized quantile regressor for one (category, target, quantile).
type Artifact struct {
	Category          string    `json:"category"`
	Target            string    `json:"target"`
	Quantile          string    `json:"quantile"`
	Kind              string    `json:"kind"`
	Features          []string  `json:"features"`
	SchemaFingerprint string    `json:"schema_fingerprint"`
	TrainedAt         string    `json:"trained_at,omitempty"`
	Init              float64   `json:"init,omitempty"`
	LearningRate      float64   `json:"learning_rate,omitempty"`
	Trees             []Tree    `json:"trees,omitempty"`
	Intercept         float64   `json:"intercept,omitempty"`
	Coefficients      []float64 `json:"coefficients,omitempty"`
}

// -----------------------------------------------------------------------------

// ReadArtifact decodes and validates an artifact file.
func ReadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, helpers.NewDataError(err, "corrupt artifact %s", path)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	return &a, nil
}

// WriteArtifact stores an artifact as indented JSON, filling in its fingerprint.
func WriteArtifact(path string, a *Artifact) error {
	a.SchemaFingerprint = analysis.SchemaFingerprint(a.Features)
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// NewLinearArtifact builds a linear artifact over the category's current schema.
func NewLinearArtifact(category, target, quantile string, intercept float64, coefficients []float64) *Artifact {
	features := analysis.FeatureNames(category)
	coef := make([]float64, len(features))
	copy(coef, coefficients)
	return &Artifact{
		Category:          category,
		Target:            target,
		Quantile:          quantile,
		Kind:              KindLinear,
		Features:          features,
		SchemaFingerprint: analysis.SchemaFingerprint(features),
		Intercept:         intercept,
		Coefficients:      coef,
	}
}

// -----------------------------------------------------------------------------

// Validate checks the artifact against the serving-time feature schema and its own structure.
func (a *Artifact) Validate() error {
	expected := analysis.FeatureNames(a.Category)
	if expected == nil {
		return helpers.NewSchemaMismatchError("unknown category %q", a.Category)
	}
	if a.SchemaFingerprint != analysis.SchemaFingerprint(a.Features) {
		return helpers.NewSchemaMismatchError("fingerprint does not match embedded feature list")
	}
	if a.SchemaFingerprint != analysis.SchemaFingerprint(expected) {
		return helpers.NewSchemaMismatchError("trained on a different feature schema than %s expects", a.Category)
	}

	switch a.Kind {
	case KindLinear:
		if len(a.Coefficients) != len(a.Features) {
			return helpers.NewSchemaMismatchError("linear model has %d coefficients for %d features",
				len(a.Coefficients), len(a.Features))
		}
	case KindGradientBoosting:
		if len(a.Trees) == 0 {
			return helpers.NewDataError(nil, "gradient boosting model has no trees")
		}
		for ti, tree := range a.Trees {
			if err := tree.validate(len(a.Features)); err != nil {
				return helpers.NewDataError(err, "tree %d", ti)
			}
		}
	default:
		return helpers.NewDataError(nil, "unsupported model kind %q", a.Kind)
	}
	return nil
}

func (t Tree) validate(nFeatures int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("empty tree")
	}
	for i, n := range t.Nodes {
		if n.Left == -1 {
			continue
		}
		if n.Feature < 0 || n.Feature >= nFeatures {
			return fmt.Errorf("node %d: feature index %d out of range", i, n.Feature)
		}
		// Children must point forward so evaluation always terminates
		if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, n.Left, n.Right)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// Predict evaluates the model on values ordered like a.Features.
func (a *Artifact) Predict(x []float64) (float64, error) {
	if len(x) != len(a.Features) {
		return 0, helpers.NewSchemaMismatchError("expected %d features, got %d", len(a.Features), len(x))
	}

	var y float64
	switch a.Kind {
	case KindLinear:
		y = a.Intercept
		for i, c := range a.Coefficients {
			y += c * x[i]
		}
	case KindGradientBoosting:
		sum := 0.0
		for _, tree := range a.Trees {
			sum += tree.leaf(x)
		}
		y = a.Init + a.LearningRate*sum
	default:
		return 0, helpers.NewDataError(nil, "unsupported model kind %q", a.Kind)
	}

	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, helpers.NewComputationError(nil, "non-finite prediction from %s", a.Name())
	}
	return y, nil
}

func (t Tree) leaf(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left == -1 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Name is the artifact slot name without extension, e.g. cyl_lbp_q50.
func (a *Artifact) Name() string {
	return ArtifactName(a.Category, a.Target, a.Quantile)
}
