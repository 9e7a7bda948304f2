// Package cmd provides CLI commands for the handbook agent.
//
// Commands:
//   - serve: HTTP API server with graceful shutdown
//   - ask: one-shot question against the running graph
//   - index: load handbook markdown files into the knowledge store
//   - eval: run the answer-quality suite against labeled cases
//   - eval-nodes: score each graph stage against labeled fixtures
//
// Signal handling and graceful shutdown are implemented via context
// cancellation.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/atlaslab/handbook/internal/app"
	"github.com/atlaslab/handbook/internal/config"
	"github.com/atlaslab/handbook/internal/log"
)

// Execute is the main entry point for the handbook CLI.
func Execute() error {
	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "ask":
		return runAsk(os.Args[2:])
	case "index":
		return runIndex(os.Args[2:])
	case "eval":
		return runEval(os.Args[2:])
	case "eval-nodes":
		return runEvalNodes(os.Args[2:])
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// setup loads configuration, installs the configured logger as the process
// default, and assembles the application.
func setup(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Options{
		Level: cfg.LogLevel,
		JSON:  cfg.LogJSON,
	})
	slog.SetDefault(logger)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing application: %w", err)
	}
	return a, nil
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("handbook - company handbook Q&A agent")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  handbook serve               Start the HTTP API server")
	fmt.Println("  handbook ask <question>      Ask one question and print the answer")
	fmt.Println("  handbook index [dir]         Index handbook markdown files (default: handbook/)")
	fmt.Println("  handbook eval [cases.yaml]   Run the answer-quality suite")
	fmt.Println("  handbook eval-nodes [f.yaml] Score each graph stage against fixtures")
	fmt.Println("  handbook --version           Show version information")
	fmt.Println("  handbook --help              Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY       Required for the gemini provider")
	fmt.Println("  DATABASE_URL         Optional: overrides the PostgreSQL settings")
	fmt.Println("  HANDBOOK_PROVIDER    Optional: gemini (default) or ollama")
	fmt.Println("  HANDBOOK_LOG_LEVEL   Optional: debug, info, warn, error")
}
