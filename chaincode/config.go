/*
SPDX-License-Identifier: Apache-2.0
*/

package chaincode

// SeasonWindow is a restricted harvesting window in "MM-DD" form. A window
// whose start sorts after its end spans the year boundary.
type SeasonWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// QualityGate bounds one laboratory parameter. A nil bound is unbounded on
// that side.
type QualityGate struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Unit string   `json:"unit"`
}

// ValidationConfig carries the rule tables the validators run against. It is
// built once at startup and passed into the contract, so tests can run with
// their own tables in parallel.
type ValidationConfig struct {
	// SeasonWindows maps a botanical name to the window in which its
	// collection is denied; species without an entry are never restricted.
	SeasonWindows map[string]SeasonWindow
	// QualityGates maps a laboratory parameter to its acceptable range.
	QualityGates map[string]QualityGate
}

// DefaultValidationConfig returns the rule tables used in production.
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		SeasonWindows: map[string]SeasonWindow{
			// Root collection is banned during the monsoon.
			"Withania somnifera": {Start: "07-01", End: "09-30"},
			// Wetland harvest pause spans the year boundary.
			"Bacopa monnieri":    {Start: "11-01", End: "02-28"},
			"Ocimum tenuiflorum": {Start: "06-15", End: "08-31"},
		},
		QualityGates: map[string]QualityGate{
			"moisture":          {Max: f64(12), Unit: "%"},
			"pesticide_residue": {Max: f64(0.01), Unit: "mg/kg"},
			"lead":              {Max: f64(10), Unit: "ppm"},
			"dna_authenticity":  {Min: f64(95), Unit: "%"},
		},
	}
}

func f64(v float64) *float64 { return &v }
