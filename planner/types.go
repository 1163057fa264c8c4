// Package planner turns a free-form request into a dependency-ordered plan
// of steps, executes the plan with per-step retry, and produces a post-hoc
// reflection summary.
package planner

import (
	"context"
	"fmt"
)

// StepStatus is the lifecycle state of a plan step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
	// StepBlocked marks a step whose dependency terminated as failed. The
	// step executor is never invoked for blocked steps.
	StepBlocked StepStatus = "blocked"
)

// PlanStep is a single unit of work in an execution plan. Steps are created
// once per plan generation and mutated only by the execution routine that
// holds the plan.
type PlanStep struct {
	ID              string     `json:"id"`
	Description     string     `json:"description"`
	Status          StepStatus `json:"status"`
	EstimatedTokens int        `json:"estimated_tokens"`
	Dependencies    []string   `json:"dependencies,omitempty"`
	Result          any        `json:"result,omitempty"`
	Error           string     `json:"error,omitempty"`
	RetryCount      int        `json:"retry_count"`
}

// ExecutionPlan is an ordered sequence of steps with token accounting.
type ExecutionPlan struct {
	ID                   string      `json:"id"`
	Steps                []*PlanStep `json:"steps"`
	TotalEstimatedTokens int         `json:"total_estimated_tokens"`
}

// Step returns the step with the given id.
func (p *ExecutionPlan) Step(id string) (*PlanStep, bool) {
	for _, step := range p.Steps {
		if step.ID == id {
			return step, true
		}
	}
	return nil, false
}

// Entities are the code artifacts mentioned by a user request.
type Entities struct {
	Files     []string `json:"files,omitempty"`
	Classes   []string `json:"classes,omitempty"`
	Functions []string `json:"functions,omitempty"`
}

// Understanding is the analyzed form of a user request. Produced once per
// request and immutable after creation.
type Understanding struct {
	Intent          string   `json:"intent"`
	Entities        Entities `json:"entities"`
	Constraints     []string `json:"constraints,omitempty"`
	SuccessCriteria []string `json:"success_criteria,omitempty"`
}

// Reflection summarizes a finished plan run.
type Reflection struct {
	Summary      string   `json:"summary"`
	Lessons      []string `json:"lessons,omitempty"`
	AllCompleted bool     `json:"all_completed"`
	Patterns     []string `json:"patterns,omitempty"`
}

// StepContext is passed to the step executor on every attempt.
type StepContext struct {
	// PreviousResults maps step id to stored result for every step
	// completed so far, including completions from earlier turns.
	PreviousResults map[string]any
}

// StepResult is the executor's verdict on one attempt.
type StepResult struct {
	Success bool
	Data    any
	Error   string
	// NonRetryable stops the retry loop even with budget remaining.
	NonRetryable bool
}

// StepExecutor carries out a single plan step. The planner suspends at each
// call and never invokes executors concurrently.
type StepExecutor func(ctx context.Context, step *PlanStep, sc *StepContext) StepResult

// IntentClassifier is the external collaborator that labels a request with
// an intent. Implementations live outside this package.
type IntentClassifier interface {
	Classify(ctx context.Context, message string) (string, error)
}

// Plan-level failure codes.
const (
	CodePlanCycle  = "PLAN_CYCLE"
	CodeUnknownDep = "PLAN_UNKNOWN_DEP"
)

// PlanError is a plan-level validation failure. Violated plans are rejected
// before any step executes.
type PlanError struct {
	Code    string
	Message string
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
