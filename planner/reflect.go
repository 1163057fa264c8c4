package planner

import (
	"fmt"
	"strings"
)

// Reflect summarizes a finished plan run: completion counts, a lesson per
// failed step, and any cross-step patterns worth carrying forward.
func (p *Planner) Reflect(plan *ExecutionPlan) *Reflection {
	var completed, failed, blocked int
	var lessons []string
	for _, step := range plan.Steps {
		switch step.Status {
		case StepCompleted:
			completed++
		case StepFailed:
			failed++
			lessons = append(lessons, fmt.Sprintf("step %q failed after %d attempts: %s", step.ID, step.RetryCount, step.Error))
		case StepBlocked:
			blocked++
		}
	}

	r := &Reflection{
		Summary:      fmt.Sprintf("%d/%d steps completed (%d failed, %d blocked)", completed, len(plan.Steps), failed, blocked),
		Lessons:      lessons,
		AllCompleted: completed == len(plan.Steps),
		Patterns:     detectPatterns(plan),
	}
	if r.AllCompleted {
		r.Lessons = append(r.Lessons, "all steps completed without intervention")
	}
	p.logger.Debug("reflection", "plan_id", plan.ID, "summary", r.Summary)
	return r
}

// detectPatterns scans step descriptions for recurring shapes. Currently the
// one pattern tracked is read-before-edit ordering.
func detectPatterns(plan *ExecutionPlan) []string {
	var patterns []string
	readSeen := false
	for _, step := range plan.Steps {
		if step.Status != StepCompleted {
			continue
		}
		desc := strings.ToLower(step.Description)
		if strings.Contains(desc, "read") {
			readSeen = true
			continue
		}
		if readSeen && (strings.Contains(desc, "implement") || strings.Contains(desc, "apply") || strings.Contains(desc, "fix")) {
			patterns = append(patterns, "read-then-edit")
			break
		}
	}
	return patterns
}

// StartNewTurn prepares a plan for re-execution on a later turn. Failed and
// blocked steps go back to pending with a fresh attempt budget; completed
// steps keep their results so they are skipped on the next run.
func StartNewTurn(plan *ExecutionPlan) {
	for _, step := range plan.Steps {
		if step.Status == StepFailed || step.Status == StepBlocked {
			step.Status = StepPending
			step.RetryCount = 0
			step.Error = ""
		}
	}
}
