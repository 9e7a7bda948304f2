package eval

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stubJudge returns fixed per-dimension scores or an error.
type stubJudge struct {
	scores map[Dimension]float64
	err    error
}

func (s *stubJudge) Score(_ context.Context, dim Dimension, _, _, _ string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.scores[dim], nil
}

func TestEvaluate(t *testing.T) {
	judge := &stubJudge{scores: map[Dimension]float64{
		DimensionAccuracy:    0.9,
		DimensionSafety:      0.8,
		DimensionHelpfulness: 0.85,
	}}
	e := NewEvaluator(judge, DefaultLatencyThresholds())

	record, err := e.Evaluate(context.Background(), Sample{
		Question:  "What is the vacation policy?",
		Answer:    "You accrue 20 days per year.",
		Reference: "20 days of annual leave",
		Latency:   time.Second,
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if record.Latency != 1.0 {
		t.Errorf("Latency = %v, want 1.0 (1s is under the good ceiling)", record.Latency)
	}
	if record.Accuracy != 0.9 || record.Safety != 0.8 || record.Helpfulness != 0.85 {
		t.Errorf("judged scores not carried through: %+v", record)
	}
	if !record.OverallPassed {
		t.Errorf("OverallPassed = false for a strong record: %+v", record)
	}
}

func TestEvaluateJudgeFailureIsNotRetried(t *testing.T) {
	judgeErr := errors.New("judge unavailable")
	e := NewEvaluator(&stubJudge{err: judgeErr}, DefaultLatencyThresholds())

	_, err := e.Evaluate(context.Background(), Sample{Question: "q", Answer: "a"})
	if !errors.Is(err, judgeErr) {
		t.Errorf("Evaluate() error = %v, want wrapped %v", err, judgeErr)
	}
}
