package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"

	"github.com/atlaslab/handbook/internal/agent"
	"github.com/atlaslab/handbook/internal/config"
	"github.com/atlaslab/handbook/internal/database"
	"github.com/atlaslab/handbook/internal/knowledge"
	"github.com/atlaslab/handbook/internal/rag"
)

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			a.Close()
		}
	}()

	pool, err := database.Open(ctx, cfg.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	a.Pool = pool
	a.dbCleanup = pool.Close

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	a.Knowledge = knowledge.New(knowledge.NewQueries(pool), embedder, logger)
	a.Retriever = rag.New(a.Knowledge, logger, rag.WithTopK(cfg.RetrievalTopK))

	a.Model = agent.NewModelClient(g, qualifiedModelName(cfg), logger,
		agent.WithTemperature(float64(cfg.Temperature)),
	)
	a.Classifier = agent.NewClassifier(a.Model, logger)
	a.Grader = agent.NewGrader(a.Model, cfg.GraderConcurrency, logger)
	a.Generator = agent.NewGenerator(a.Model, logger)
	a.History = agent.NewHistoryStore(logger, agent.WithMaxLength(cfg.MaxHistoryLength))

	a.Executor = agent.NewExecutor(
		a.Classifier,
		a.Retriever,
		a.Grader,
		a.Generator,
		a.History,
		logger,
		agent.WithTimeout(cfg.RequestTimeout),
	)

	return a, nil
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports gemini (default) and ollama.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g := genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery)
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized Genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)
		return g, nil

	default: // gemini
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "model", cfg.ModelName)
		return g, nil
	}
}

// provideEmbedder looks up the embedder registered by the AI provider plugin.
// Each provider registers embedders differently:
//   - gemini: GoogleAIEmbedder(g, modelName)
//   - ollama: registered in provideGenkit, keyed by server address
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	default: // gemini
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// qualifiedModelName returns the provider-qualified model name Genkit resolves
// at generate time, e.g. "googleai/gemini-2.5-flash" or "ollama/llama3.3".
// Names already carrying a provider prefix pass through unchanged.
func qualifiedModelName(cfg *config.Config) string {
	if strings.Contains(cfg.ModelName, "/") {
		return cfg.ModelName
	}
	switch cfg.Provider {
	case config.ProviderOllama:
		return "ollama/" + cfg.ModelName
	default:
		return "googleai/" + cfg.ModelName
	}
}
