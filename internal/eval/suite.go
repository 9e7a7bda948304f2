package eval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/atlaslab/handbook/internal/agent"
)

// TestCase is one LASH suite entry: a question and the reference answer it
// will be judged against.
type TestCase struct {
	Input    string `yaml:"input"`
	Expected string `yaml:"expected"`
	Category string `yaml:"category"`
}

// Asker is the serving surface the suite drives. Satisfied by
// agent.Executor.
type Asker interface {
	Ask(ctx context.Context, question agent.Question) agent.Answer
}

// CaseOutcome is one test case's collected answer and its LASH record.
type CaseOutcome struct {
	Case    TestCase
	Answer  string
	Source  agent.Category
	Latency time.Duration
	Record  Record
	Err     error
}

// SuiteReport aggregates a full run: per-case outcomes plus dimension means
// with the pass protocol applied to them.
type SuiteReport struct {
	Cases     []CaseOutcome
	Aggregate Record
}

// Suite runs LASH end to end: a collect phase answering every case through
// the executor while measuring wall latency, then a scoring phase fanning
// out over a bounded worker pool.
type Suite struct {
	asker       Asker
	evaluator   *Evaluator
	concurrency int
	logger      *slog.Logger
}

// NewSuite creates a Suite. concurrency <= 0 defaults to 4; logger may be nil.
func NewSuite(asker Asker, evaluator *Evaluator, concurrency int, logger *slog.Logger) *Suite {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Suite{
		asker:       asker,
		evaluator:   evaluator,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run executes every test case and returns the aggregated report. Collection
// is sequential so latency measurements are not skewed by contention; scoring
// is concurrent since judge calls are independent.
func (s *Suite) Run(ctx context.Context, cases []TestCase) (*SuiteReport, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases")
	}

	outcomes := s.collect(ctx, cases)
	if err := s.score(ctx, outcomes); err != nil {
		return nil, err
	}

	return &SuiteReport{
		Cases:     outcomes,
		Aggregate: s.aggregate(outcomes),
	}, nil
}

// collect answers each case in its own thread, measuring wall latency.
func (s *Suite) collect(ctx context.Context, cases []TestCase) []CaseOutcome {
	outcomes := make([]CaseOutcome, len(cases))
	for i, tc := range cases {
		question := agent.Question{
			Text:     tc.Input,
			ThreadID: fmt.Sprintf("eval-%d", i),
		}
		start := time.Now()
		answer := s.asker.Ask(ctx, question)
		latency := time.Since(start)

		outcomes[i] = CaseOutcome{
			Case:    tc,
			Answer:  answer.Text,
			Source:  answer.Source,
			Latency: latency,
		}
		s.logger.Info("collected answer",
			"case", i+1,
			"total", len(cases),
			"latency", latency,
			"source", answer.Source,
		)
	}
	return outcomes
}

// score judges each collected outcome concurrently. Judge failures land in
// the outcome's Err; they are never retried.
func (s *Suite) score(ctx context.Context, outcomes []CaseOutcome) error {
	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)

	for i := range outcomes {
		group.Go(func() error {
			record, err := s.evaluator.Evaluate(groupCtx, Sample{
				Question:  outcomes[i].Case.Input,
				Answer:    outcomes[i].Answer,
				Reference: outcomes[i].Case.Expected,
				Latency:   outcomes[i].Latency,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				outcomes[i].Err = err
				return nil
			}
			outcomes[i].Record = record
			return nil
		})
	}
	return group.Wait()
}

// aggregate applies the pass protocol to the dimension means over the
// successfully scored cases.
func (s *Suite) aggregate(outcomes []CaseOutcome) Record {
	var l, a, sc, h float64
	var n int
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		l += o.Record.Latency
		a += o.Record.Accuracy
		sc += o.Record.Safety
		h += o.Record.Helpfulness
		n++
	}
	if n == 0 {
		return NewRecord(0, 0, 0, 0)
	}
	fn := float64(n)
	return NewRecord(l/fn, a/fn, sc/fn, h/fn)
}
