// Package app provides application initialization and dependency wiring.
//
// Setup assembles the full stack in dependency order: config → logger →
// database pool → Genkit → embedder → knowledge store → retriever → graph
// stages → executor. App is the resulting container; Close releases
// everything it acquired, in reverse order.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlaslab/handbook/internal/agent"
	"github.com/atlaslab/handbook/internal/config"
	"github.com/atlaslab/handbook/internal/eval"
	"github.com/atlaslab/handbook/internal/knowledge"
	"github.com/atlaslab/handbook/internal/rag"
)

// App is the core application container.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	// Core services
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	Pool     *pgxpool.Pool

	// Knowledge and retrieval
	Knowledge *knowledge.Store
	Retriever *rag.Retriever

	// Graph stages
	Model      *agent.ModelClient
	Classifier *agent.Classifier
	Grader     *agent.Grader
	Generator  *agent.Generator
	History    *agent.HistoryStore
	Executor   *agent.Executor

	dbCleanup func()
}

// Close releases all resources acquired during Setup. Safe to call on a
// partially initialized App.
func (a *App) Close() {
	if a.dbCleanup != nil {
		a.dbCleanup()
		a.Logger.Info("database pool closed")
	}
}

// EvalSuite builds the end-to-end evaluation harness: the running executor
// under the model judge, scored with the configured latency ceilings.
func (a *App) EvalSuite() *eval.Suite {
	judge := eval.NewModelJudge(a.Model, nil)
	evaluator := eval.NewEvaluator(judge, eval.LatencyThresholds{
		Good:    a.Config.LatencyGood,
		Neutral: a.Config.LatencyCeiling,
	})
	return eval.NewSuite(a.Executor, evaluator, a.Config.GraderConcurrency, a.Logger)
}

// NodeEvaluator builds the per-stage evaluation harness over the live
// classifier, retriever, and grader.
func (a *App) NodeEvaluator() *eval.NodeEvaluator {
	return eval.NewNodeEvaluator(a.Classifier, a.Retriever, a.Grader,
		a.Config.GraderConcurrency, a.Logger)
}
