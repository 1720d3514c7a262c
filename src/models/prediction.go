package models

import "time"

// MPredictionRequest is the payload accepted by POST /predict.
type MPredictionRequest struct {
	ProductGroup string  `json:"product_group" binding:"required"`
	Quantity     float64 `json:"quantity" binding:"required,gt=0"`
	Date         string  `json:"date" binding:"required"`
	Location     string  `json:"location" binding:"required"` // echoed back, not a model input
}

// MTargetPrediction is the interval for one target (proposed_rp or lbp).
type MTargetPrediction struct {
	Lower              float64            `json:"lower"`
	Median             float64            `json:"median"`
	Upper              float64            `json:"upper"`
	ConfidenceInterval float64            `json:"confidence_interval"`
	Quantiles          map[string]float64 `json:"quantiles"`
}

// MPredictionResult is the response body of a prediction.
type MPredictionResult struct {
	ID           string                       `json:"id"`
	ProductGroup string                       `json:"product_group"`
	Quantity     float64                      `json:"quantity"`
	Date         string                       `json:"date"`
	Location     string                       `json:"location"`
	Predictions  map[string]MTargetPrediction `json:"predictions"`
	Warnings     []string                     `json:"warnings,omitempty"`
	CreatedAt    time.Time                    `json:"created_at"`
}

// MPredictionLog is the stored audit row of a served prediction.
type MPredictionLog struct {
	ID           string
	ProductGroup string
	Quantity     float64
	RequestDate  time.Time
	Location     string
	ResultJSON   string
	CreatedAt    time.Time
}

// MFeedMessage is pushed to websocket subscribers.
type MFeedMessage struct {
	Type        string              `json:"type"` // "SNAPSHOT" or "PREDICTION"
	Predictions []MPredictionResult `json:"predictions"`
	Timestamp   int64               `json:"timestamp"`
}

// MSubscribeCommand for client messages
type MSubscribeCommand struct {
	Command       string   `json:"command"`
	ProductGroups []string `json:"product_groups"`
}
