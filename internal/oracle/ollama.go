package oracle

import (
	"context"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/zero-day-ai/forensiq/internal/types"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llama3.2:1b"
)

// OllamaConfig selects the Ollama server and model.
type OllamaConfig struct {
	BaseURL string
	Model   string
}

// OllamaOracle completes prompts against a local Ollama server at
// temperature 0 so verdicts are as repeatable as the model allows.
type OllamaOracle struct {
	client *ollama.LLM
	model  string
}

// NewOllamaOracle creates an Ollama-backed oracle. Empty fields fall back to
// DefaultOllamaURL and DefaultOllamaModel.
func NewOllamaOracle(cfg OllamaConfig) (*OllamaOracle, error) {
	serverURL := cfg.BaseURL
	if serverURL == "" {
		serverURL = DefaultOllamaURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOllamaModel
	}

	client, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, types.WrapError(types.ORACLE_UNAVAILABLE, "failed to create ollama client", err)
	}

	return &OllamaOracle{client: client, model: model}, nil
}

// Model returns the model name completions are requested from.
func (o *OllamaOracle) Model() string {
	return o.model
}

// Complete sends prompt as a single user message.
func (o *OllamaOracle) Complete(ctx context.Context, prompt string) (string, error) {
	completion, err := llms.GenerateFromSinglePrompt(ctx, o.client, prompt, llms.WithTemperature(0))
	if err != nil {
		if ctx.Err() != nil {
			return "", types.WrapError(types.ORACLE_TIMEOUT, "ollama completion interrupted", ctx.Err())
		}
		return "", &types.ForensiqError{
			Code:      types.ORACLE_UNAVAILABLE,
			Message:   "ollama completion failed",
			Retryable: true,
			Cause:     err,
		}
	}
	return completion, nil
}

// LLM exposes the underlying langchaingo model for callers that generate
// free-form answers with the same server settings.
func (o *OllamaOracle) LLM() llms.Model {
	return o.client
}
