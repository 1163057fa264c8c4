package planner

import (
	"context"
	"fmt"
	"time"
)

const defaultMaxRetries = 3

// ExecuteOptions tune a plan run.
type ExecuteOptions struct {
	// MaxRetries is the attempt budget per step. Zero means the default of 3.
	MaxRetries int

	// OnStuck is called when a step exhausts its retries or fails
	// non-retryably. It receives the failed step and the error message.
	OnStuck func(step *PlanStep, reason string)
}

// Execute runs the plan's steps in dependency order, invoking the executor
// for each step with the accumulated results of everything completed so far.
// Steps retry on failure up to the attempt budget; a step whose dependency
// failed is marked blocked and never executed. Steps already completed on an
// earlier turn are skipped but their results still feed later steps.
func (p *Planner) Execute(ctx context.Context, plan *ExecutionPlan, exec StepExecutor, opts ExecuteOptions) error {
	order, err := topologicalOrder(plan)
	if err != nil {
		return err
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	previous := make(map[string]any, len(order))
	for _, step := range order {
		if step.Status == StepCompleted {
			previous[step.ID] = step.Result
		}
	}

	for _, step := range order {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if step.Status == StepCompleted {
			continue
		}
		if blockedBy := p.failedDependency(plan, step); blockedBy != "" {
			step.Status = StepBlocked
			step.Error = fmt.Sprintf("dependency %s did not complete", blockedBy)
			p.logger.Warn("step blocked", "step", step.ID, "dependency", blockedBy)
			continue
		}

		p.runStep(ctx, step, exec, previous, maxRetries, opts.OnStuck)
		if step.Status == StepCompleted {
			previous[step.ID] = step.Result
		}
	}
	return nil
}

// failedDependency returns the id of the first dependency that ended in a
// failed or blocked state, or "" when all dependencies completed.
func (p *Planner) failedDependency(plan *ExecutionPlan, step *PlanStep) string {
	for _, depID := range step.Dependencies {
		dep, ok := plan.Step(depID)
		if !ok {
			continue
		}
		if dep.Status == StepFailed || dep.Status == StepBlocked {
			return depID
		}
	}
	return ""
}

func (p *Planner) runStep(ctx context.Context, step *PlanStep, exec StepExecutor, previous map[string]any, maxRetries int, onStuck func(*PlanStep, string)) {
	step.Status = StepInProgress
	step.RetryCount = 0
	sc := &StepContext{PreviousResults: previous}

	for step.RetryCount < maxRetries {
		step.RetryCount++
		started := time.Now()
		result := exec(ctx, step, sc)
		p.logger.Debug("step attempt",
			"step", step.ID,
			"attempt", step.RetryCount,
			"success", result.Success,
			"elapsed", time.Since(started))

		if result.Success {
			step.Status = StepCompleted
			step.Result = result.Data
			step.Error = ""
			return
		}

		step.Error = result.Error
		if result.NonRetryable {
			break
		}
	}

	step.Status = StepFailed
	p.logger.Warn("step failed", "step", step.ID, "attempts", step.RetryCount, "error", step.Error)
	if onStuck != nil {
		onStuck(step, step.Error)
	}
}
