package eval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/atlaslab/handbook/internal/agent"
	"github.com/atlaslab/handbook/internal/knowledge"
)

// Fixture files declare labeled cases per graph stage plus the expected
// topology. See Fixtures for the YAML schema.

// ClassifyCase checks the classifier's predicted category against gold.
type ClassifyCase struct {
	Input    string `yaml:"input"`
	Expected string `yaml:"expected_category"`
}

// RetrieveCase checks retrieval against a gold set of relevant document IDs.
type RetrieveCase struct {
	Input       string   `yaml:"input"`
	RelevantIDs []string `yaml:"expected_relevant_doc_ids"`
}

// GradeCase checks one relevance verdict against a gold label.
type GradeCase struct {
	Input    string `yaml:"input"`
	Document string `yaml:"document"`
	Expected bool   `yaml:"expected_relevant"`
}

// RoutingCase checks the branch selected for a category.
type RoutingCase struct {
	Category string `yaml:"category"`
	Expected string `yaml:"expected_branch"`
}

// Fixtures is the full declarative fixture set for one harness run.
type Fixtures struct {
	Classify  []ClassifyCase `yaml:"classify"`
	Retrieve  []RetrieveCase `yaml:"retrieve"`
	Grade     []GradeCase    `yaml:"grade"`
	Routing   []RoutingCase  `yaml:"routing"`
	Structure agent.Topology `yaml:"structure"`
}

// CaseResult is one fixture's outcome.
type CaseResult struct {
	Stage  string
	Input  string
	Passed bool
	Detail string
}

// StageRate is a stage's aggregate pass rate.
type StageRate struct {
	Passed int
	Total  int
}

// Rate returns the pass fraction, 0 for an empty stage.
func (s StageRate) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// NodeReport aggregates a harness run: per-fixture results, per-stage pass
// rates, and the structural conformance outcome.
type NodeReport struct {
	Results   []CaseResult
	Classify  StageRate
	Retrieve  StageRate
	Grade     StageRate
	Routing   StageRate
	Structure StructureResult
}

// GraphScore is the mean of the four stage rates and the structure outcome,
// mirroring a five-way equally weighted summary.
func (r NodeReport) GraphScore() float64 {
	structural := 0.0
	if r.Structure.AllOK() {
		structural = 1.0
	}
	return (r.Classify.Rate() + r.Retrieve.Rate() + r.Grade.Rate() + r.Routing.Rate() + structural) / 5
}

// NodeClassifier is the classification stage under test.
type NodeClassifier interface {
	Classify(ctx context.Context, question agent.Question, history []agent.Exchange) (agent.Category, error)
}

// NodeGrader is the grading stage under test.
type NodeGrader interface {
	Grade(ctx context.Context, question agent.Question, candidates []knowledge.Result, history []agent.Exchange) []agent.GradedDocument
}

// NodeEvaluator scores each graph stage against labeled fixtures. It never
// mutates production state: every stage is exercised in isolation with
// throwaway inputs.
type NodeEvaluator struct {
	classifier  NodeClassifier
	retriever   agent.Retriever
	grader      NodeGrader
	concurrency int
	logger      *slog.Logger
}

// NewNodeEvaluator creates a harness over the given stages.
// concurrency <= 0 defaults to 4; logger may be nil.
func NewNodeEvaluator(classifier NodeClassifier, retriever agent.Retriever, grader NodeGrader, concurrency int, logger *slog.Logger) *NodeEvaluator {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NodeEvaluator{
		classifier:  classifier,
		retriever:   retriever,
		grader:      grader,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run evaluates every fixture with bounded parallelism and returns the
// aggregated report. Fixtures are independent; the accumulator is the only
// shared state and is mutex-guarded.
func (n *NodeEvaluator) Run(ctx context.Context, fixtures Fixtures) (*NodeReport, error) {
	report := &NodeReport{}
	var mu sync.Mutex

	add := func(stage string, rate *StageRate, result CaseResult) {
		mu.Lock()
		defer mu.Unlock()
		result.Stage = stage
		report.Results = append(report.Results, result)
		rate.Total++
		if result.Passed {
			rate.Passed++
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(n.concurrency)

	for _, tc := range fixtures.Classify {
		group.Go(func() error {
			add("classify", &report.Classify, n.runClassify(groupCtx, tc))
			return nil
		})
	}
	for _, tc := range fixtures.Retrieve {
		group.Go(func() error {
			add("retrieve", &report.Retrieve, n.runRetrieve(groupCtx, tc))
			return nil
		})
	}
	for _, tc := range fixtures.Grade {
		group.Go(func() error {
			add("grade", &report.Grade, n.runGrade(groupCtx, tc))
			return nil
		})
	}
	for _, tc := range fixtures.Routing {
		group.Go(func() error {
			add("routing", &report.Routing, runRouting(tc))
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	report.Structure = CheckStructure(agent.Graph(), fixtures.Structure)
	return report, nil
}

func (n *NodeEvaluator) runClassify(ctx context.Context, tc ClassifyCase) CaseResult {
	got, err := n.classifier.Classify(ctx, agent.Question{Text: tc.Input}, nil)
	if err != nil {
		return CaseResult{Input: tc.Input, Detail: fmt.Sprintf("classify error: %v", err)}
	}
	return CaseResult{
		Input:  tc.Input,
		Passed: string(got) == tc.Expected,
		Detail: fmt.Sprintf("got %s, want %s", got, tc.Expected),
	}
}

func (n *NodeEvaluator) runRetrieve(ctx context.Context, tc RetrieveCase) CaseResult {
	results, err := n.retriever.Retrieve(ctx, tc.Input)
	if err != nil {
		return CaseResult{Input: tc.Input, Detail: fmt.Sprintf("retrieve error: %v", err)}
	}

	predicted := make([]string, len(results))
	for i, r := range results {
		predicted[i] = r.Document.ID
	}
	precision, recall := precisionRecall(predicted, tc.RelevantIDs)

	return CaseResult{
		Input:  tc.Input,
		Passed: recall > 0,
		Detail: fmt.Sprintf("precision=%.2f recall=%.2f (%d retrieved)", precision, recall, len(results)),
	}
}

func (n *NodeEvaluator) runGrade(ctx context.Context, tc GradeCase) CaseResult {
	candidates := []knowledge.Result{{
		Document: knowledge.Document{ID: "fixture", Content: tc.Document},
	}}
	graded := n.grader.Grade(ctx, agent.Question{Text: tc.Input}, candidates, nil)
	if len(graded) != 1 {
		return CaseResult{Input: tc.Input, Detail: fmt.Sprintf("got %d verdicts, want 1", len(graded))}
	}
	return CaseResult{
		Input:  tc.Input,
		Passed: graded[0].Relevant == tc.Expected,
		Detail: fmt.Sprintf("got relevant=%v, want %v", graded[0].Relevant, tc.Expected),
	}
}

func runRouting(tc RoutingCase) CaseResult {
	category, err := agent.ParseCategory(tc.Category)
	if err != nil {
		return CaseResult{Input: tc.Category, Detail: fmt.Sprintf("bad fixture category: %v", err)}
	}
	got := agent.Route(category)
	return CaseResult{
		Input:  tc.Category,
		Passed: got.String() == tc.Expected,
		Detail: fmt.Sprintf("got %s, want %s", got, tc.Expected),
	}
}

// precisionRecall compares predicted document IDs against the gold set.
// Empty gold yields (0, 0).
func precisionRecall(predicted, gold []string) (precision, recall float64) {
	if len(predicted) == 0 || len(gold) == 0 {
		return 0, 0
	}
	goldSet := make(map[string]bool, len(gold))
	for _, id := range gold {
		goldSet[id] = true
	}
	var hits int
	for _, id := range predicted {
		if goldSet[id] {
			hits++
		}
	}
	return float64(hits) / float64(len(predicted)), float64(hits) / float64(len(gold))
}
