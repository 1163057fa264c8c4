package planner

import (
	"fmt"

	"github.com/google/uuid"
)

// stepTemplate is one entry of a fixed per-intent plan shape.
type stepTemplate struct {
	description string
	tokens      int
}

// stepTemplates keys plan shapes by intent. Unknown intents use the
// two-step default.
var stepTemplates = map[string][]stepTemplate{
	"implement": {
		{"Read the code relevant to the change", 800},
		{"Implement the requested change", 1500},
		{"Verify the change builds and tests pass", 600},
	},
	"debug": {
		{"Reproduce the reported problem", 600},
		{"Locate the faulty code", 800},
		{"Apply a fix", 1000},
		{"Verify the fix resolves the problem", 600},
	},
	"refactor": {
		{"Read the code to be refactored", 800},
		{"Apply the refactoring", 1200},
		{"Verify behavior is unchanged", 600},
	},
	"explain": {
		{"Read the relevant code", 800},
		{"Summarize how the code works", 400},
	},
}

var defaultTemplate = []stepTemplate{
	{"Gather context for the request", 500},
	{"Carry out the request", 1000},
}

// Plan selects the step template for the understanding's intent and builds
// an execution plan with a strictly linear dependency chain: step n depends
// only on step n-1.
func (p *Planner) Plan(u *Understanding, taskDescription string) *ExecutionPlan {
	template, ok := stepTemplates[u.Intent]
	if !ok {
		template = defaultTemplate
	}

	plan := &ExecutionPlan{ID: uuid.New().String()}
	for i, t := range template {
		step := &PlanStep{
			ID:              fmt.Sprintf("step-%d", i+1),
			Description:     t.description,
			Status:          StepPending,
			EstimatedTokens: t.tokens,
		}
		if i > 0 {
			step.Dependencies = []string{fmt.Sprintf("step-%d", i)}
		}
		plan.Steps = append(plan.Steps, step)
		plan.TotalEstimatedTokens += t.tokens
	}

	p.logger.Debug("plan generated",
		"plan_id", plan.ID,
		"intent", u.Intent,
		"steps", len(plan.Steps),
		"estimated_tokens", plan.TotalEstimatedTokens,
		"task", taskDescription)
	return plan
}

// visit colors for the cycle-guarded traversal.
type visitColor int

const (
	colorUnvisited visitColor = iota
	colorVisiting
	colorVisited
)

// topologicalOrder computes a dependency-respecting order via depth-first
// traversal. Dependencies referencing ids outside the plan and dependency
// cycles are rejected: revisiting a node currently being visited raises a
// PLAN_CYCLE failure instead of recursing forever.
func topologicalOrder(plan *ExecutionPlan) ([]*PlanStep, error) {
	colors := make(map[string]visitColor, len(plan.Steps))
	var order []*PlanStep

	var visit func(step *PlanStep) error
	visit = func(step *PlanStep) error {
		switch colors[step.ID] {
		case colorVisited:
			return nil
		case colorVisiting:
			return &PlanError{
				Code:    CodePlanCycle,
				Message: fmt.Sprintf("dependency cycle through step %q", step.ID),
			}
		}
		colors[step.ID] = colorVisiting

		for _, depID := range step.Dependencies {
			dep, ok := plan.Step(depID)
			if !ok {
				return &PlanError{
					Code:    CodeUnknownDep,
					Message: fmt.Sprintf("step %q depends on unknown step %q", step.ID, depID),
				}
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		colors[step.ID] = colorVisited
		order = append(order, step)
		return nil
	}

	for _, step := range plan.Steps {
		if err := visit(step); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Validate checks the plan's dependency graph without executing anything.
func Validate(plan *ExecutionPlan) error {
	_, err := topologicalOrder(plan)
	return err
}
