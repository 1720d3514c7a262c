package interfaces

import "auction-predictor/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger defining the interface for pushing served predictions to live listeners.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes a prediction to subscribers and the recent buffer.
	Broadcast(result *models.MPredictionResult)

	// -----------------------------------------------------------------------------
	// Recent returns buffered predictions, oldest first.
	Recent() []models.MPredictionResult
}
