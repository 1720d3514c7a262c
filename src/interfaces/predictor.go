package interfaces

import (
	"context"

	"auction-predictor/src/models"
)

// -----------------------------------------------------------------------------
// IPredictor serves one prediction request end to end (HTTP, gRPC and CLI share it).
// -----------------------------------------------------------------------------

type IPredictor interface {
	Predict(ctx context.Context, req models.MPredictionRequest) (*models.MPredictionResult, error)
	Models() []models.MModelInfo
}
