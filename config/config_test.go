package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.ToolTimeout != 30*time.Second {
		t.Errorf("expected 30s tool timeout, got %v", cfg.ToolTimeout)
	}
	if cfg.MaxStepRetries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.MaxStepRetries)
	}
	if !cfg.EnableLoopDetection {
		t.Error("expected loop detection enabled by default")
	}
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("AGENTCORE_TOOL_TIMEOUT", "5s")
	t.Setenv("AGENTCORE_MAX_STEP_RETRIES", "1")
	t.Setenv("AGENTCORE_LOOP_DETECTION", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ToolTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", cfg.ToolTimeout)
	}
	if cfg.MaxStepRetries != 1 {
		t.Errorf("expected 1, got %d", cfg.MaxStepRetries)
	}
	if cfg.EnableLoopDetection {
		t.Error("expected loop detection disabled")
	}
	if cfg.ContextBudget != 8000 {
		t.Errorf("expected default budget kept, got %d", cfg.ContextBudget)
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("AGENTCORE_TOOL_TIMEOUT", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
