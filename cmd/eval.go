package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlaslab/handbook/internal/eval"
)

// runEval runs the answer-quality suite against labeled cases and prints the
// per-case records and the aggregate verdict.
func runEval(args []string) error {
	casesPath := "evaluation/cases.yaml"
	if len(args) > 0 {
		casesPath = args[0]
	}

	cases, err := eval.LoadTestCases(casesPath)
	if err != nil {
		return fmt.Errorf("loading test cases: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.EvalSuite().Run(ctx, cases)
	if err != nil {
		return fmt.Errorf("running suite: %w", err)
	}

	for i, outcome := range report.Cases {
		if outcome.Err != nil {
			fmt.Printf("%2d. SCORING FAILED  %-40.40q  %v\n", i+1, outcome.Case.Input, outcome.Err)
			continue
		}
		fmt.Printf("%2d. %s  L=%.2f A=%.2f S=%.2f H=%.2f  weighted=%.2f  (%s, %v)\n",
			i+1, verdict(outcome.Record.OverallPassed),
			outcome.Record.Latency, outcome.Record.Accuracy,
			outcome.Record.Safety, outcome.Record.Helpfulness,
			outcome.Record.WeightedScore, outcome.Source, outcome.Latency.Round(10*time.Millisecond),
		)
	}

	agg := report.Aggregate
	fmt.Printf("\nAggregate: %s  L=%.2f A=%.2f S=%.2f H=%.2f  weighted=%.2f\n",
		verdict(agg.OverallPassed),
		agg.Latency, agg.Accuracy, agg.Safety, agg.Helpfulness, agg.WeightedScore,
	)

	if !agg.OverallPassed {
		return fmt.Errorf("suite failed: weighted=%.2f dimensions_passed=%v",
			agg.WeightedScore, agg.DimensionsPassed)
	}
	return nil
}

func verdict(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}
