// Package risk turns a completed session into a risk classification with
// a confidence level and human-readable insights.
package risk

// Calibration holds every clinical constant used by the engine. Values
// are configuration, not code; DefaultCalibration documents the shipped
// defaults.
type Calibration struct {
	// LowRiskThreshold overrides the label to low-risk when the winning
	// elevated score is below it.
	LowRiskThreshold float64 `yaml:"low_risk_threshold" validate:"gte=0,lte=1"`

	// Confidence bands on the normalized [0,1] probability: above High is
	// high, above Moderate is moderate, otherwise low.
	HighConfidence     float64 `yaml:"high_confidence" validate:"gte=0,lte=1,gtfield=ModerateConfidence"`
	ModerateConfidence float64 `yaml:"moderate_confidence" validate:"gte=0,lte=1"`

	// Insight thresholds.
	ReversalInstances   int     `yaml:"reversal_instances" validate:"gte=1"`
	SlowAvgTimeMs       float64 `yaml:"slow_avg_time_ms" validate:"gt=0"`
	FastAvgTimeMs       float64 `yaml:"fast_avg_time_ms" validate:"gt=0"`
	ImpulseRate         float64 `yaml:"impulse_rate" validate:"gte=0,lte=1"`
	LowAccuracy         float64 `yaml:"low_accuracy" validate:"gte=0,lte=1"`
	LowDomainAccuracy   float64 `yaml:"low_domain_accuracy" validate:"gte=0,lte=1"`
	VariabilityStdDevMs float64 `yaml:"variability_std_dev_ms" validate:"gt=0"`
	NormalAccuracy      float64 `yaml:"normal_accuracy" validate:"gte=0,lte=1"`
}

// DefaultCalibration returns the canonical constants.
func DefaultCalibration() Calibration {
	return Calibration{
		LowRiskThreshold:    0.3,
		HighConfidence:      0.7,
		ModerateConfidence:  0.4,
		ReversalInstances:   2,
		SlowAvgTimeMs:       3000,
		FastAvgTimeMs:       1000,
		ImpulseRate:         0.3,
		LowAccuracy:         0.6,
		LowDomainAccuracy:   0.5,
		VariabilityStdDevMs: 1500,
		NormalAccuracy:      0.7,
	}
}

// LegacyBands returns c with the older 0.8/0.6 confidence bands.
func (c Calibration) LegacyBands() Calibration {
	c.HighConfidence = 0.8
	c.ModerateConfidence = 0.6
	return c
}
