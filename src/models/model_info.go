package models

// MModelInfo describes a loaded model artifact for listings.
type MModelInfo struct {
	Name              string `json:"name"`
	Category          string `json:"category"`
	Target            string `json:"target"`
	Quantile          string `json:"quantile"`
	Kind              string `json:"kind"`
	Features          int    `json:"features"`
	SchemaFingerprint string `json:"schema_fingerprint"`
	TrainedAt         string `json:"trained_at,omitempty"`
}
