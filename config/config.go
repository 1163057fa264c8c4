// Package config loads orchestrator settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the tunable settings of the orchestration core. Loop
// detection windows and the ask-user failure threshold are fixed constants
// and intentionally absent.
type Config struct {
	// ToolTimeout bounds a single tool execution.
	ToolTimeout time.Duration `env:"AGENTCORE_TOOL_TIMEOUT" envDefault:"30s"`

	// MaxStepRetries is the attempt budget per plan step.
	MaxStepRetries int `env:"AGENTCORE_MAX_STEP_RETRIES" envDefault:"3"`

	// ContextBudget is the token budget handed to the context budgeter.
	ContextBudget int `env:"AGENTCORE_CONTEXT_BUDGET" envDefault:"8000"`

	// CacheCapacity is the entry capacity of the file and search caches.
	CacheCapacity int `env:"AGENTCORE_CACHE_CAPACITY" envDefault:"128"`

	// EnableLoopDetection toggles loop checks between plan steps.
	EnableLoopDetection bool `env:"AGENTCORE_LOOP_DETECTION" envDefault:"true"`

	// EventBufferSize is the session event channel capacity.
	EventBufferSize int `env:"AGENTCORE_EVENT_BUFFER" envDefault:"256"`

	// ClassifierProvider selects the model-backed intent classifier when
	// non-empty; otherwise the keyword classifier is used.
	ClassifierProvider string `env:"AGENTCORE_CLASSIFIER_PROVIDER"`
	ClassifierModel    string `env:"AGENTCORE_CLASSIFIER_MODEL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ToolTimeout:         30 * time.Second,
		MaxStepRetries:      3,
		ContextBudget:       8000,
		CacheCapacity:       128,
		EnableLoopDetection: true,
		EventBufferSize:     256,
	}
}

// Load reads configuration from the environment on top of the defaults.
func Load() (Config, error) {
	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse configuration from environment: %w", err)
	}
	return cfg, nil
}
