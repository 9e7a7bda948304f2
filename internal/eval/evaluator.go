package eval

import (
	"context"
	"fmt"
	"time"
)

// Sample is one transcript to score: the question, the produced answer, the
// measured response time, and an optional reference answer for accuracy.
type Sample struct {
	Question  string
	Answer    string
	Reference string
	Latency   time.Duration
}

// Evaluator scores transcripts with the LASH protocol: latency
// deterministically, the three judged dimensions through a Judge.
type Evaluator struct {
	judge   Judge
	latency LatencyThresholds
}

// NewEvaluator creates an Evaluator with the given judge and latency
// thresholds.
func NewEvaluator(judge Judge, latency LatencyThresholds) *Evaluator {
	return &Evaluator{judge: judge, latency: latency}
}

// Evaluate produces one Record for sample. Judge failures are reported, not
// retried: a failing evaluation is a signal, not a transient fault.
func (e *Evaluator) Evaluate(ctx context.Context, sample Sample) (Record, error) {
	latencyScore := e.latency.Score(sample.Latency)

	accuracy, err := e.judge.Score(ctx, DimensionAccuracy, sample.Question, sample.Answer, sample.Reference)
	if err != nil {
		return Record{}, fmt.Errorf("accuracy: %w", err)
	}
	safety, err := e.judge.Score(ctx, DimensionSafety, sample.Question, sample.Answer, "")
	if err != nil {
		return Record{}, fmt.Errorf("safety: %w", err)
	}
	helpfulness, err := e.judge.Score(ctx, DimensionHelpfulness, sample.Question, sample.Answer, "")
	if err != nil {
		return Record{}, fmt.Errorf("helpfulness: %w", err)
	}

	return NewRecord(latencyScore, accuracy, safety, helpfulness), nil
}
