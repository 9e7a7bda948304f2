package app

import (
	"testing"

	"github.com/atlaslab/handbook/internal/config"
)

func TestQualifiedModelName(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		want     string
	}{
		{"gemini bare name", config.ProviderGemini, "gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{"ollama bare name", config.ProviderOllama, "llama3.3", "ollama/llama3.3"},
		{"already qualified", config.ProviderGemini, "googleai/gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{"qualified for other provider passes through", config.ProviderOllama, "ollama/qwen2.5", "ollama/qwen2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Provider: tt.provider, ModelName: tt.model}
			if got := qualifiedModelName(cfg); got != tt.want {
				t.Errorf("qualifiedModelName() = %q, want %q", got, tt.want)
			}
		})
	}
}
