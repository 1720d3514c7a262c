package interfaces

import (
	"auction-predictor/src/models"
	"auction-predictor/src/modelstore"
)

// -----------------------------------------------------------------------------
// IModelStore exposes loaded quantile artifacts read-only.
// -----------------------------------------------------------------------------

type IModelStore interface {
	Get(category, target, quantile string) (*modelstore.Artifact, error)
	List() []models.MModelInfo
	Count() int
}
