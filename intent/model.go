package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teilomillet/gollm"
)

const classifyPrompt = `Classify the developer request below into exactly one of:
implement, debug, refactor, explain, general.
Respond with the single category word and nothing else.

Request: %s`

// ModelClassifier asks an LLM to label the request and falls back to the
// keyword tables when the model is unavailable or answers off-script.
type ModelClassifier struct {
	llm      gollm.LLM
	fallback KeywordClassifier
	logger   *slog.Logger
}

// NewModelClassifier builds a classifier backed by the given provider. An
// empty apiKey lets gollm read the key from the environment.
func NewModelClassifier(provider, model, apiKey string, logger *slog.Logger) (*ModelClassifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(16),
		gollm.SetTemperature(0),
		gollm.SetMaxRetries(0),
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if apiKey != "" {
		opts = append(opts, gollm.SetAPIKey(apiKey))
	}
	llm, err := gollm.NewLLM(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier LLM for provider %s: %w", provider, err)
	}
	return &ModelClassifier{llm: llm, logger: logger}, nil
}

// NewModelClassifierFromLLM wraps an existing gollm.LLM instance.
func NewModelClassifierFromLLM(llm gollm.LLM, logger *slog.Logger) *ModelClassifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelClassifier{llm: llm, logger: logger}
}

func (c *ModelClassifier) Classify(ctx context.Context, message string) (string, error) {
	prompt := gollm.NewPrompt(fmt.Sprintf(classifyPrompt, message))
	text, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		c.logger.Warn("model classification failed, using keyword fallback", "error", err)
		return c.fallback.Classify(ctx, message)
	}

	label := strings.ToLower(strings.TrimSpace(text))
	switch label {
	case Implement, Debug, Refactor, Explain, General:
		return label, nil
	}
	c.logger.Warn("model returned unrecognized intent, using keyword fallback", "label", label)
	return c.fallback.Classify(ctx, message)
}
