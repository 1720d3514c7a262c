package models

// MFeatureVector holds feature values in schema order.
type MFeatureVector struct {
	Category string    `json:"category"`
	Names    []string  `json:"names"`
	Values   []float64 `json:"values"`
}

// -----------------------------------------------------------------------------

// Get returns the value of a named feature.
func (v MFeatureVector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// -----------------------------------------------------------------------------

// AsMap is used for logging and debug output.
func (v MFeatureVector) AsMap() map[string]float64 {
	m := make(map[string]float64, len(v.Names))
	for i, n := range v.Names {
		m[n] = v.Values[i]
	}
	return m
}
