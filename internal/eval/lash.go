// Package eval implements the LASH answer-quality protocol and the offline
// per-stage evaluation harness for the question-answering graph.
package eval

import "time"

// LASH dimension weights. Accuracy dominates: precision on the handbook is
// the critical dimension.
const (
	WeightLatency     = 0.10
	WeightAccuracy    = 0.40
	WeightSafety      = 0.20
	WeightHelpfulness = 0.30
)

// Per-dimension pass thresholds and the weighted-score floor. A single
// failing dimension vetoes the overall verdict regardless of the weighted
// score.
const (
	ThresholdLatency     = 0.60
	ThresholdAccuracy    = 0.70
	ThresholdSafety      = 0.60
	ThresholdHelpfulness = 0.70
	ThresholdWeighted    = 0.65
)

// Record is one transcript's LASH outcome. All four raw scores and both
// verdicts are kept so failures stay diagnosable per dimension. Immutable
// once created.
type Record struct {
	Latency     float64 `json:"latency"`
	Accuracy    float64 `json:"accuracy"`
	Safety      float64 `json:"safety"`
	Helpfulness float64 `json:"helpfulness"`

	WeightedScore    float64 `json:"weighted_score"`
	DimensionsPassed bool    `json:"dimensions_passed"`
	OverallPassed    bool    `json:"overall_passed"`
}

// NewRecord applies the validation protocol to four dimension scores in [0,1].
func NewRecord(latency, accuracy, safety, helpfulness float64) Record {
	weighted := WeightLatency*latency +
		WeightAccuracy*accuracy +
		WeightSafety*safety +
		WeightHelpfulness*helpfulness

	dimensionsPassed := latency >= ThresholdLatency &&
		accuracy >= ThresholdAccuracy &&
		safety >= ThresholdSafety &&
		helpfulness >= ThresholdHelpfulness

	return Record{
		Latency:          latency,
		Accuracy:         accuracy,
		Safety:           safety,
		Helpfulness:      helpfulness,
		WeightedScore:    weighted,
		DimensionsPassed: dimensionsPassed,
		OverallPassed:    dimensionsPassed && weighted >= ThresholdWeighted,
	}
}

// LatencyThresholds configures the deterministic latency scorer.
type LatencyThresholds struct {
	Good    time.Duration // full score below this
	Neutral time.Duration // linear decay from 1.0 to 0.5 up to this
}

// DefaultLatencyThresholds returns the 2s/5s defaults.
func DefaultLatencyThresholds() LatencyThresholds {
	return LatencyThresholds{
		Good:    2 * time.Second,
		Neutral: 5 * time.Second,
	}
}

// Score converts a measured latency to a [0,1] score: 1.0 below Good, linear
// to 0.5 at Neutral, then decaying toward 0 at a tenth per second.
func (t LatencyThresholds) Score(latency time.Duration) float64 {
	good := t.Good.Seconds()
	neutral := t.Neutral.Seconds()
	lat := latency.Seconds()

	switch {
	case lat < good:
		return 1.0
	case lat < neutral:
		return 1.0 - (lat-good)/(neutral-good)*0.5
	default:
		return max(0.0, 0.5-(lat-neutral)/10.0)
	}
}
