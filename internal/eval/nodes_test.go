package eval

import (
	"context"
	"math"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"github.com/atlaslab/handbook/internal/agent"
	"github.com/atlaslab/handbook/internal/knowledge"
)

// keywordClassifier classifies by keyword, deterministically.
type keywordClassifier struct{}

func (keywordClassifier) Classify(_ context.Context, q agent.Question, _ []agent.Exchange) (agent.Category, error) {
	switch {
	case strings.Contains(q.Text, "policy"):
		return agent.CategoryHandbook, nil
	case strings.Contains(q.Text, "hello"):
		return agent.CategoryConversational, nil
	default:
		return agent.CategoryOffTopic, nil
	}
}

// fixedRetriever returns the same documents for every query.
type fixedRetriever struct {
	ids []string
}

func (r fixedRetriever) Retrieve(_ context.Context, _ string) ([]knowledge.Result, error) {
	results := make([]knowledge.Result, len(r.ids))
	for i, id := range r.ids {
		results[i] = knowledge.Result{Document: knowledge.Document{ID: id}}
	}
	return results, nil
}

// keywordGrader marks a candidate relevant iff it mentions "vacation".
type keywordGrader struct{}

func (keywordGrader) Grade(_ context.Context, _ agent.Question, candidates []knowledge.Result, _ []agent.Exchange) []agent.GradedDocument {
	graded := make([]agent.GradedDocument, len(candidates))
	for i, c := range candidates {
		graded[i] = agent.GradedDocument{
			Document: c.Document,
			Relevant: strings.Contains(c.Document.Content, "vacation"),
		}
	}
	return graded
}

func testFixtures() Fixtures {
	return Fixtures{
		Classify: []ClassifyCase{
			{Input: "What is the vacation policy?", Expected: "handbook"},
			{Input: "hello there", Expected: "conversational"},
			{Input: "What is the capital of France?", Expected: "off_topic"},
			{Input: "hello again", Expected: "handbook"}, // deliberately failing case
		},
		Retrieve: []RetrieveCase{
			{Input: "vacation", RelevantIDs: []string{"d1", "d9"}},
			{Input: "parental leave", RelevantIDs: []string{"d7"}}, // not retrievable
		},
		Grade: []GradeCase{
			{Input: "vacation?", Document: "vacation accrual rules", Expected: true},
			{Input: "vacation?", Document: "office dog policy", Expected: false},
		},
		Routing: []RoutingCase{
			{Category: "handbook", Expected: "rag"},
			{Category: "conversational", Expected: "direct"},
			{Category: "off_topic", Expected: "decline"},
			{Category: "not_found", Expected: "not_found"},
		},
		Structure: agent.Graph(),
	}
}

func TestNodeEvaluatorRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	harness := NewNodeEvaluator(keywordClassifier{}, fixedRetriever{ids: []string{"d1", "d2"}}, keywordGrader{}, 3, nil)

	report, err := harness.Run(context.Background(), testFixtures())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := report.Classify; got.Passed != 3 || got.Total != 4 {
		t.Errorf("classify rate = %d/%d, want 3/4", got.Passed, got.Total)
	}
	if got := report.Retrieve; got.Passed != 1 || got.Total != 2 {
		t.Errorf("retrieve rate = %d/%d, want 1/2", got.Passed, got.Total)
	}
	if got := report.Grade; got.Passed != 2 || got.Total != 2 {
		t.Errorf("grade rate = %d/%d, want 2/2", got.Passed, got.Total)
	}
	if got := report.Routing; got.Passed != 4 || got.Total != 4 {
		t.Errorf("routing rate = %d/%d, want 4/4", got.Passed, got.Total)
	}
	if !report.Structure.AllOK() {
		t.Errorf("structure check failed: %+v", report.Structure)
	}

	// (0.75 + 0.5 + 1 + 1 + 1) / 5
	if want := 0.85; math.Abs(report.GraphScore()-want) > 1e-9 {
		t.Errorf("GraphScore() = %v, want %v", report.GraphScore(), want)
	}

	if got := len(report.Results); got != 12 {
		t.Errorf("recorded %d per-fixture results, want 12", got)
	}
}

func TestPrecisionRecall(t *testing.T) {
	tests := []struct {
		name          string
		predicted     []string
		gold          []string
		wantPrecision float64
		wantRecall    float64
	}{
		{"perfect", []string{"a", "b"}, []string{"a", "b"}, 1, 1},
		{"half precision", []string{"a", "x"}, []string{"a"}, 0.5, 1},
		{"half recall", []string{"a"}, []string{"a", "b"}, 1, 0.5},
		{"disjoint", []string{"x"}, []string{"a"}, 0, 0},
		{"empty predicted", nil, []string{"a"}, 0, 0},
		{"empty gold", []string{"a"}, nil, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, r := precisionRecall(tt.predicted, tt.gold)
			if p != tt.wantPrecision || r != tt.wantRecall {
				t.Errorf("precisionRecall() = (%v, %v), want (%v, %v)", p, r, tt.wantPrecision, tt.wantRecall)
			}
		})
	}
}
