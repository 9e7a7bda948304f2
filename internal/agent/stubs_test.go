package agent

import (
	"context"
	"sync"

	"github.com/atlaslab/handbook/internal/knowledge"
)

// stubGenerator is a deterministic TextGenerator: it replies from a fixed
// function of the prompt. Safe for concurrent use.
type stubGenerator struct {
	mu      sync.Mutex
	fn      func(prompt string) (string, error)
	prompts []string
}

func (s *stubGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	return s.fn(prompt)
}

func (s *stubGenerator) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// fixedGenerator always replies with the same text.
func fixedGenerator(reply string) *stubGenerator {
	return &stubGenerator{fn: func(string) (string, error) { return reply, nil }}
}

// failingGenerator always fails with err.
func failingGenerator(err error) *stubGenerator {
	return &stubGenerator{fn: func(string) (string, error) { return "", err }}
}

// stubRetriever returns fixed results or a fixed error.
type stubRetriever struct {
	mu      sync.Mutex
	results []knowledge.Result
	err     error
	called  int
}

func (s *stubRetriever) Retrieve(_ context.Context, _ string) ([]knowledge.Result, error) {
	s.mu.Lock()
	s.called++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func (s *stubRetriever) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.called
}

func passage(id, content string) knowledge.Result {
	return knowledge.Result{
		Document:   knowledge.Document{ID: id, Content: content},
		Similarity: 0.9,
	}
}
