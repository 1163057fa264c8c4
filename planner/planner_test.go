package planner

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fixedClassifier struct {
	intent string
	err    error
}

func (c fixedClassifier) Classify(ctx context.Context, message string) (string, error) {
	return c.intent, c.err
}

func TestUnderstandExtractsEntities(t *testing.T) {
	p := New(fixedClassifier{intent: "implement"}, nil)

	u, err := p.Understand(context.Background(),
		"Add caching to the UserService class in auth.go without breaking the login() flow, make sure tests pass")
	if err != nil {
		t.Fatal(err)
	}

	if u.Intent != "implement" {
		t.Errorf("expected implement intent, got %q", u.Intent)
	}
	if len(u.Entities.Files) != 1 || u.Entities.Files[0] != "auth.go" {
		t.Errorf("expected [auth.go], got %v", u.Entities.Files)
	}
	if len(u.Entities.Classes) == 0 || u.Entities.Classes[0] != "UserService" {
		t.Errorf("expected UserService class, got %v", u.Entities.Classes)
	}
	if len(u.Entities.Functions) == 0 || u.Entities.Functions[0] != "login" {
		t.Errorf("expected login function, got %v", u.Entities.Functions)
	}
	if len(u.Constraints) == 0 || !strings.Contains(u.Constraints[0], "without breaking") {
		t.Errorf("expected a without-breaking constraint, got %v", u.Constraints)
	}
	if len(u.SuccessCriteria) == 0 || u.SuccessCriteria[0] != "tests pass" {
		t.Errorf("expected tests-pass criterion, got %v", u.SuccessCriteria)
	}
}

func TestUnderstandClassifierErrorPropagates(t *testing.T) {
	p := New(fixedClassifier{err: errors.New("model unavailable")}, nil)
	if _, err := p.Understand(context.Background(), "do something"); err == nil {
		t.Fatal("expected classifier error to propagate")
	}
}

func TestPlanTemplates(t *testing.T) {
	p := New(fixedClassifier{}, nil)

	tests := []struct {
		intent string
		steps  int
	}{
		{"implement", 3},
		{"debug", 4},
		{"refactor", 3},
		{"explain", 2},
		{"general", 2},
	}
	for _, tt := range tests {
		plan := p.Plan(&Understanding{Intent: tt.intent}, "task")
		if len(plan.Steps) != tt.steps {
			t.Errorf("%s: expected %d steps, got %d", tt.intent, tt.steps, len(plan.Steps))
		}
		if plan.ID == "" {
			t.Errorf("%s: expected a plan id", tt.intent)
		}
		total := 0
		for i, step := range plan.Steps {
			total += step.EstimatedTokens
			if i == 0 && len(step.Dependencies) != 0 {
				t.Errorf("%s: first step must have no dependencies", tt.intent)
			}
			if i > 0 && (len(step.Dependencies) != 1 || step.Dependencies[0] != plan.Steps[i-1].ID) {
				t.Errorf("%s: step %d must depend on its predecessor, got %v", tt.intent, i, step.Dependencies)
			}
		}
		if plan.TotalEstimatedTokens != total {
			t.Errorf("%s: total %d does not match step sum %d", tt.intent, plan.TotalEstimatedTokens, total)
		}
	}
}

func TestValidateRejectsCycle(t *testing.T) {
	plan := &ExecutionPlan{Steps: []*PlanStep{
		{ID: "a", Dependencies: []string{"b"}},
		{ID: "b", Dependencies: []string{"a"}},
	}}
	err := Validate(plan)
	var perr *PlanError
	if !errors.As(err, &perr) || perr.Code != CodePlanCycle {
		t.Fatalf("expected PLAN_CYCLE, got %v", err)
	}
}

func TestValidateRejectsUnknownDependency(t *testing.T) {
	plan := &ExecutionPlan{Steps: []*PlanStep{
		{ID: "a", Dependencies: []string{"ghost"}},
	}}
	err := Validate(plan)
	var perr *PlanError
	if !errors.As(err, &perr) || perr.Code != CodeUnknownDep {
		t.Fatalf("expected PLAN_UNKNOWN_DEP, got %v", err)
	}
}

func TestExecuteRespectsDependencyOrder(t *testing.T) {
	p := New(fixedClassifier{}, nil)
	plan := &ExecutionPlan{Steps: []*PlanStep{
		{ID: "c", Status: StepPending, Dependencies: []string{"b"}},
		{ID: "a", Status: StepPending},
		{ID: "b", Status: StepPending, Dependencies: []string{"a"}},
	}}

	var order []string
	exec := func(ctx context.Context, step *PlanStep, sc *StepContext) StepResult {
		order = append(order, step.ID)
		return StepResult{Success: true, Data: step.ID}
	}
	if err := p.Execute(context.Background(), plan, exec, ExecuteOptions{}); err != nil {
		t.Fatal(err)
	}

	pos := map[string]int{}
	for i, id := range order {
		pos[id] = i
	}
	if pos["a"] > pos["b"] || pos["b"] > pos["c"] {
		t.Errorf("expected a before b before c, got %v", order)
	}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	p := New(fixedClassifier{}, nil)
	plan := &ExecutionPlan{Steps: []*PlanStep{{ID: "s", Status: StepPending}}}

	attempts := 0
	exec := func(ctx context.Context, step *PlanStep, sc *StepContext) StepResult {
		attempts++
		if attempts < 3 {
			return StepResult{Error: "flaky"}
		}
		return StepResult{Success: true}
	}
	if err := p.Execute(context.Background(), plan, exec, ExecuteOptions{}); err != nil {
		t.Fatal(err)
	}

	step := plan.Steps[0]
	if step.Status != StepCompleted {
		t.Fatalf("expected completion on third attempt, got %s", step.Status)
	}
	if step.RetryCount != 3 {
		t.Errorf("expected retry count 3, got %d", step.RetryCount)
	}
	if step.Error != "" {
		t.Errorf("expected error cleared on success, got %q", step.Error)
	}
}

func TestExecuteStopsOnNonRetryable(t *testing.T) {
	p := New(fixedClassifier{}, nil)
	plan := &ExecutionPlan{Steps: []*PlanStep{{ID: "s", Status: StepPending}}}

	attempts := 0
	exec := func(ctx context.Context, step *PlanStep, sc *StepContext) StepResult {
		attempts++
		return StepResult{Error: "file not found", NonRetryable: true}
	}
	var stuck *PlanStep
	opts := ExecuteOptions{OnStuck: func(step *PlanStep, reason string) { stuck = step }}
	if err := p.Execute(context.Background(), plan, exec, opts); err != nil {
		t.Fatal(err)
	}

	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
	if plan.Steps[0].Status != StepFailed {
		t.Errorf("expected failed status, got %s", plan.Steps[0].Status)
	}
	if stuck == nil || stuck.ID != "s" {
		t.Error("expected OnStuck callback with the failed step")
	}
}

func TestExecuteBlocksDependentsOfFailedStep(t *testing.T) {
	p := New(fixedClassifier{}, nil)
	plan := &ExecutionPlan{Steps: []*PlanStep{
		{ID: "a", Status: StepPending},
		{ID: "b", Status: StepPending, Dependencies: []string{"a"}},
		{ID: "c", Status: StepPending, Dependencies: []string{"b"}},
	}}

	executed := map[string]bool{}
	exec := func(ctx context.Context, step *PlanStep, sc *StepContext) StepResult {
		executed[step.ID] = true
		return StepResult{Error: "broken", NonRetryable: true}
	}
	if err := p.Execute(context.Background(), plan, exec, ExecuteOptions{}); err != nil {
		t.Fatal(err)
	}

	if plan.Steps[0].Status != StepFailed {
		t.Errorf("expected a failed, got %s", plan.Steps[0].Status)
	}
	for _, id := range []string{"b", "c"} {
		step, _ := plan.Step(id)
		if step.Status != StepBlocked {
			t.Errorf("expected %s blocked, got %s", id, step.Status)
		}
		if executed[id] {
			t.Errorf("blocked step %s must not execute", id)
		}
	}
}

func TestExecuteSkipsCompletedAndFeedsResults(t *testing.T) {
	p := New(fixedClassifier{}, nil)
	plan := &ExecutionPlan{Steps: []*PlanStep{
		{ID: "a", Status: StepCompleted, Result: "earlier"},
		{ID: "b", Status: StepPending, Dependencies: []string{"a"}},
	}}

	var seen map[string]any
	exec := func(ctx context.Context, step *PlanStep, sc *StepContext) StepResult {
		if step.ID == "a" {
			t.Error("completed step must not re-execute")
		}
		seen = sc.PreviousResults
		return StepResult{Success: true}
	}
	if err := p.Execute(context.Background(), plan, exec, ExecuteOptions{}); err != nil {
		t.Fatal(err)
	}
	if seen["a"] != "earlier" {
		t.Errorf("expected prior-turn result in context, got %v", seen)
	}
}

func TestReflectSummarizesOutcomes(t *testing.T) {
	p := New(fixedClassifier{}, nil)
	plan := &ExecutionPlan{Steps: []*PlanStep{
		{ID: "a", Description: "Read the code", Status: StepCompleted},
		{ID: "b", Description: "Apply a fix", Status: StepCompleted},
		{ID: "c", Description: "Verify", Status: StepFailed, RetryCount: 3, Error: "tests failing"},
	}}

	r := p.Reflect(plan)
	if r.AllCompleted {
		t.Error("expected AllCompleted false with a failed step")
	}
	if !strings.Contains(r.Summary, "2/3") {
		t.Errorf("unexpected summary %q", r.Summary)
	}
	if len(r.Lessons) == 0 || !strings.Contains(r.Lessons[0], "tests failing") {
		t.Errorf("expected a lesson for the failed step, got %v", r.Lessons)
	}
	if len(r.Patterns) == 0 || r.Patterns[0] != "read-then-edit" {
		t.Errorf("expected read-then-edit pattern, got %v", r.Patterns)
	}
}

func TestStartNewTurnResetsFailures(t *testing.T) {
	plan := &ExecutionPlan{Steps: []*PlanStep{
		{ID: "a", Status: StepCompleted, Result: "kept"},
		{ID: "b", Status: StepFailed, RetryCount: 3, Error: "boom"},
		{ID: "c", Status: StepBlocked, Error: "dependency b did not complete"},
	}}

	StartNewTurn(plan)

	if plan.Steps[0].Status != StepCompleted || plan.Steps[0].Result != "kept" {
		t.Error("completed step must be untouched")
	}
	for _, id := range []string{"b", "c"} {
		step, _ := plan.Step(id)
		if step.Status != StepPending || step.RetryCount != 0 || step.Error != "" {
			t.Errorf("expected %s reset to pending, got %+v", id, step)
		}
	}
}

func TestTodosProjection(t *testing.T) {
	plan := &ExecutionPlan{Steps: []*PlanStep{
		{Description: "Read the relevant code", Status: StepCompleted},
		{Description: "Implement the requested change", Status: StepInProgress},
		{Description: "Verify the change builds and tests pass", Status: StepBlocked},
	}}

	todos := Todos(plan)
	if len(todos) != 3 {
		t.Fatalf("expected 3 todos, got %d", len(todos))
	}
	if todos[0].Status != "completed" || todos[1].Status != "in_progress" || todos[2].Status != "pending" {
		t.Errorf("unexpected statuses: %+v", todos)
	}
	if todos[0].ActiveForm != "Reading the relevant code" {
		t.Errorf("unexpected active form %q", todos[0].ActiveForm)
	}
	if todos[1].ActiveForm != "Implementing the requested change" {
		t.Errorf("unexpected active form %q", todos[1].ActiveForm)
	}
}
