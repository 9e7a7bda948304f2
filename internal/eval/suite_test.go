package eval

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/goleak"

	"github.com/atlaslab/handbook/internal/agent"
)

// scriptedAsker answers from a fixed map and records the threads used.
type scriptedAsker struct {
	answers map[string]string
}

func (s *scriptedAsker) Ask(_ context.Context, q agent.Question) agent.Answer {
	text, ok := s.answers[q.Text]
	if !ok {
		text = "I don't know."
	}
	return agent.Answer{Text: text, Source: agent.CategoryHandbook}
}

func TestSuiteRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	asker := &scriptedAsker{answers: map[string]string{
		"What is the vacation policy?": "20 days per year.",
		"How do expenses work?":        "Submit receipts monthly.",
	}}
	judge := &stubJudge{scores: map[Dimension]float64{
		DimensionAccuracy:    0.9,
		DimensionSafety:      0.9,
		DimensionHelpfulness: 0.8,
	}}
	suite := NewSuite(asker, NewEvaluator(judge, DefaultLatencyThresholds()), 2, nil)

	report, err := suite.Run(context.Background(), []TestCase{
		{Input: "What is the vacation policy?", Expected: "20 vacation days", Category: "handbook"},
		{Input: "How do expenses work?", Expected: "monthly receipts", Category: "handbook"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(report.Cases) != 2 {
		t.Fatalf("report has %d cases, want 2", len(report.Cases))
	}
	for i, c := range report.Cases {
		if c.Err != nil {
			t.Errorf("case %d error = %v", i, c.Err)
		}
		if c.Record.Latency != 1.0 {
			t.Errorf("case %d latency score = %v, want 1.0 (stub answers are instant)", i, c.Record.Latency)
		}
	}
	if !report.Aggregate.OverallPassed {
		t.Errorf("aggregate verdict failed for strong scores: %+v", report.Aggregate)
	}
}

func TestSuiteRunJudgeFailureRecordedPerCase(t *testing.T) {
	asker := &scriptedAsker{answers: map[string]string{}}
	judge := &stubJudge{err: errors.New("judge down")}
	suite := NewSuite(asker, NewEvaluator(judge, DefaultLatencyThresholds()), 2, nil)

	report, err := suite.Run(context.Background(), []TestCase{{Input: "q", Expected: "a"}})
	if err != nil {
		t.Fatalf("Run() error = %v, judge failures belong on the case", err)
	}
	if report.Cases[0].Err == nil {
		t.Error("case error not recorded for judge failure")
	}
	if report.Aggregate.OverallPassed {
		t.Error("aggregate passed with zero scored cases")
	}
}

func TestSuiteRunEmptyCases(t *testing.T) {
	suite := NewSuite(&scriptedAsker{}, NewEvaluator(&stubJudge{}, DefaultLatencyThresholds()), 2, nil)
	if _, err := suite.Run(context.Background(), nil); err == nil {
		t.Error("Run() with no cases succeeded, want error")
	}
}
