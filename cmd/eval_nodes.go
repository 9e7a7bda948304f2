package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/atlaslab/handbook/internal/eval"
)

// runEvalNodes scores each graph stage against labeled fixtures and prints
// per-stage pass rates plus the structural conformance outcome.
func runEvalNodes(args []string) error {
	fixturesPath := "evaluation/nodes.yaml"
	if len(args) > 0 {
		fixturesPath = args[0]
	}

	fixtures, err := eval.LoadFixtures(fixturesPath)
	if err != nil {
		return fmt.Errorf("loading fixtures: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.NodeEvaluator().Run(ctx, fixtures)
	if err != nil {
		return fmt.Errorf("running node harness: %w", err)
	}

	for _, result := range report.Results {
		if result.Passed {
			continue
		}
		fmt.Printf("FAIL [%s] %-40.40q  %s\n", result.Stage, result.Input, result.Detail)
	}

	printStage := func(name string, rate eval.StageRate) {
		fmt.Printf("  %-10s %d/%d (%.0f%%)\n", name, rate.Passed, rate.Total, rate.Rate()*100)
	}
	fmt.Println("\nStage pass rates:")
	printStage("classify", report.Classify)
	printStage("retrieve", report.Retrieve)
	printStage("grade", report.Grade)
	printStage("routing", report.Routing)
	fmt.Printf("  %-10s %v\n", "structure", report.Structure.AllOK())
	fmt.Printf("\nGraph score: %.2f\n", report.GraphScore())

	if !report.Structure.AllOK() {
		return fmt.Errorf("graph structure drifted from the expected topology: %+v", report.Structure)
	}
	return nil
}
