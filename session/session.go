// Package session wires the orchestration components together: one session
// owns a tool registry, executor, failure engine, context budgeter, caches,
// and planner, and drives the understand/plan/execute/reflect cycle for each
// request.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/martinemde/agentcore/budget"
	"github.com/martinemde/agentcore/cache"
	"github.com/martinemde/agentcore/config"
	"github.com/martinemde/agentcore/dispatch"
	"github.com/martinemde/agentcore/failure"
	"github.com/martinemde/agentcore/intent"
	"github.com/martinemde/agentcore/planner"
)

// State is the current lifecycle state of a session.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StateClosed     State = "closed"
)

// Response is the outcome of one request. Text is never empty: on success it
// summarizes the run, on failure it is a structured stuck report naming what
// was attempted, what went wrong, and what to try next.
type Response struct {
	Text       string
	Plan       *planner.ExecutionPlan
	Reflection *planner.Reflection
	Todos      []planner.Todo
	AskUser    bool
}

// Session is the central orchestrator. All orchestration runs on the caller's
// goroutine; the mutex only guards state visible to other goroutines.
type Session struct {
	id       string
	cfg      config.Config
	logger   *slog.Logger
	emitter  *EventEmitter
	registry *dispatch.Registry
	executor *dispatch.Executor
	engine   *failure.Engine
	budgeter *budget.Budgeter
	planner  *planner.Planner
	searches *dispatch.SearchCache

	mu    sync.Mutex
	state State
}

// New creates a session with core tools registered. A nil classifier selects
// the model-backed classifier when the config names a provider, otherwise the
// keyword heuristic; tc supplies the filesystem and confirmation callback
// shared by all tools.
func New(cfg config.Config, tc *dispatch.ToolContext, classifier planner.IntentClassifier, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sessionID := uuid.New().String()
	logger = logger.With("session_id", sessionID)

	if classifier == nil {
		if cfg.ClassifierProvider != "" {
			mc, err := intent.NewModelClassifier(cfg.ClassifierProvider, cfg.ClassifierModel, "", logger)
			if err != nil {
				return nil, err
			}
			classifier = mc
		} else {
			classifier = intent.KeywordClassifier{}
		}
	}

	searches := cache.New[string, string](cfg.CacheCapacity)
	registry := dispatch.NewRegistry()
	if err := dispatch.RegisterCoreTools(registry, searches); err != nil {
		return nil, fmt.Errorf("failed to register core tools: %w", err)
	}
	if tc != nil && tc.Logger == nil {
		tc.Logger = logger
	}

	return &Session{
		id:       sessionID,
		cfg:      cfg,
		logger:   logger,
		emitter:  NewEventEmitter(sessionID, cfg.EventBufferSize),
		registry: registry,
		executor: dispatch.NewExecutor(registry, tc),
		engine:   failure.NewEngine(),
		budgeter: budget.New(cfg.ContextBudget),
		planner:  planner.New(classifier, logger),
		searches: searches,
		state:    StateIdle,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Events returns the event channel for the host application.
func (s *Session) Events() <-chan Event { return s.emitter.Events() }

// Registry exposes the tool registry so hosts can add their own tools.
func (s *Session) Registry() *dispatch.Registry { return s.registry }

// Budgeter exposes the context budgeter for hosts that assemble prompts.
func (s *Session) Budgeter() *budget.Budgeter { return s.budgeter }

// Stats returns accumulated tool execution statistics.
func (s *Session) Stats() dispatch.Stats { return s.executor.Stats() }

// Close terminates the session. Subsequent Run calls fail.
func (s *Session) Close() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	s.emitter.Emit(EventRunEnd, map[string]any{"state": string(StateClosed)})
	s.emitter.Close()
}

// RunTool dispatches one tool call with the configured timeout and records
// the attempt in the failure engine. Step executors should route every tool
// invocation through here so loop detection sees the full action history.
func (s *Session) RunTool(ctx context.Context, name string, params json.RawMessage) *dispatch.Result {
	s.emitter.Emit(EventToolCallStart, map[string]any{"tool_name": name})

	result := s.executor.Execute(ctx, name, params, dispatch.WithTimeout(s.cfg.ToolTimeout))

	action := failure.NewAction(name, paramsFromJSON(params))
	if result.Success {
		s.engine.RecordAction(action)
		s.emitter.Emit(EventToolCallEnd, map[string]any{"tool_name": name})
	} else {
		info := classifyResultError(result.Error)
		s.engine.RecordFailure(action, info)
		s.emitter.Emit(EventToolCallEnd, map[string]any{
			"tool_name": name,
			"error":     result.Error.Message,
			"kind":      string(info.Kind),
		})
	}
	return result
}

// Run processes one request: understand, plan, execute, reflect. The step
// executor carries out each plan step, typically by calling RunTool.
func (s *Session) Run(ctx context.Context, request string, exec planner.StepExecutor) (*Response, error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil, fmt.Errorf("session is closed")
	}
	s.state = StateProcessing
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.state != StateClosed {
			s.state = StateIdle
		}
		s.mu.Unlock()
	}()

	s.emitter.Emit(EventRunStart, map[string]any{"request": request})

	understanding, err := s.planner.Understand(ctx, request)
	if err != nil {
		s.emitter.Emit(EventError, map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("failed to understand request: %w", err)
	}

	plan := s.planner.Plan(understanding, request)
	s.emitter.Emit(EventPlanCreated, map[string]any{
		"plan_id":          plan.ID,
		"steps":            len(plan.Steps),
		"estimated_tokens": plan.TotalEstimatedTokens,
	})

	opts := planner.ExecuteOptions{
		MaxRetries: s.cfg.MaxStepRetries,
		OnStuck: func(step *planner.PlanStep, reason string) {
			s.emitter.Emit(EventWarning, map[string]any{
				"step":  step.ID,
				"error": reason,
			})
		},
	}
	if err := s.planner.Execute(ctx, plan, s.instrumented(exec), opts); err != nil {
		s.emitter.Emit(EventError, map[string]any{"error": err.Error()})
		return nil, err
	}

	reflection := s.planner.Reflect(plan)
	resp := s.buildResponse(plan, reflection)
	if resp.AskUser {
		s.emitter.Emit(EventAskUser, map[string]any{"report": resp.Text})
	}
	s.emitter.Emit(EventRunEnd, map[string]any{"all_completed": reflection.AllCompleted})
	return resp, nil
}

// instrumented wraps the step executor with per-step events and loop
// detection. When a loop is detected the engine's alternative suggestion is
// surfaced to the host so the next step can change course.
func (s *Session) instrumented(exec planner.StepExecutor) planner.StepExecutor {
	return func(ctx context.Context, step *planner.PlanStep, sc *planner.StepContext) planner.StepResult {
		s.engine.SetCurrentTask(step.ID)
		s.emitter.Emit(EventStepStart, map[string]any{
			"step":        step.ID,
			"description": step.Description,
		})

		result := exec(ctx, step, sc)

		s.emitter.Emit(EventStepEnd, map[string]any{
			"step":    step.ID,
			"success": result.Success,
		})

		// Successful step output becomes context for later prompt assembly.
		if result.Success {
			if text, ok := result.Data.(string); ok && text != "" {
				s.budgeter.Add(text, "step:"+step.ID, budget.TypeOther)
			}
		}

		if s.cfg.EnableLoopDetection && s.engine.DetectLoop() {
			alt := s.engine.SuggestAlternative()
			s.logger.Warn("loop detected",
				"loop_type", string(s.engine.LoopType()),
				"suggested_tool", alt.Tool)
			s.emitter.Emit(EventLoopDetection, map[string]any{
				"loop_type":      string(s.engine.LoopType()),
				"suggested_tool": alt.Tool,
				"reason":         alt.Reason,
			})
		}
		return result
	}
}

// buildResponse produces the user-facing outcome. A run that did not finish
// cleanly yields a stuck report: what was attempted, how it failed, and a
// concrete next step.
func (s *Session) buildResponse(plan *planner.ExecutionPlan, reflection *planner.Reflection) *Response {
	resp := &Response{
		Plan:       plan,
		Reflection: reflection,
		Todos:      planner.Todos(plan),
	}
	if reflection.AllCompleted {
		resp.Text = reflection.Summary
		return resp
	}

	var b strings.Builder
	b.WriteString("I was unable to complete the task. ")
	b.WriteString(reflection.Summary)
	b.WriteString("\n")

	history := s.engine.History()
	if len(history) > 0 {
		b.WriteString("\nAttempted actions:\n")
		start := 0
		if len(history) > 5 {
			start = len(history) - 5
		}
		for _, entry := range history[start:] {
			outcome := "ok"
			if !entry.Success {
				outcome = "failed"
				if entry.Error != nil {
					outcome = fmt.Sprintf("failed (%s)", entry.Error.Kind)
				}
			}
			fmt.Fprintf(&b, "- %s: %s\n", entry.Action.Tool, outcome)
		}
	}

	if info := lastFailure(history); info != nil {
		b.WriteString("\n")
		b.WriteString(failure.HelpfulMessage(*info))
		b.WriteString("\n")
	}

	for _, lesson := range reflection.Lessons {
		fmt.Fprintf(&b, "\n%s", lesson)
	}

	resp.AskUser = s.engine.ShouldAskUser()
	if resp.AskUser {
		b.WriteString("\nThe same action has failed repeatedly; please advise how to proceed.")
	}
	resp.Text = b.String()
	return resp
}

func lastFailure(history []failure.HistoryEntry) *failure.ErrorInfo {
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].Success && history[i].Error != nil {
			return history[i].Error
		}
	}
	return nil
}

// paramsFromJSON converts raw tool parameters into the failure engine's
// action parameter form. Identity hashing sorts keys, so map iteration order
// does not matter here.
func paramsFromJSON(raw json.RawMessage) *failure.Params {
	params := failure.NewParams()
	if len(raw) == 0 {
		return params
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return params
	}
	for k, v := range decoded {
		params.Set(k, v)
	}
	return params
}

// classifyResultError maps a dispatch error onto the failure taxonomy.
func classifyResultError(re *dispatch.ResultError) failure.ErrorInfo {
	info := failure.ErrorInfo{Kind: failure.Unknown, Message: re.Message}
	switch re.Code {
	case dispatch.CodeTimeout:
		info.Kind = failure.Timeout
		return info
	case dispatch.CodeValidation:
		info.Kind = failure.SyntaxError
		return info
	case dispatch.CodeToolNotFound:
		return info
	}

	lower := strings.ToLower(re.Message)
	switch {
	case strings.Contains(lower, "no such file") || strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist"):
		info.Kind = failure.FileNotFound
	case strings.Contains(lower, "permission denied") || strings.Contains(lower, "access denied"):
		info.Kind = failure.PermissionDenied
	case strings.Contains(lower, "no matches") || strings.Contains(lower, "found nothing"):
		info.Kind = failure.NoMatches
	case strings.Contains(lower, "syntax"):
		info.Kind = failure.SyntaxError
	case strings.Contains(lower, "connection") || strings.Contains(lower, "network"):
		info.Kind = failure.NetworkError
	case strings.Contains(lower, "appears") && strings.Contains(lower, "times"):
		info.Kind = failure.Ambiguous
	case strings.Contains(lower, "command"):
		info.Kind = failure.CommandFailed
	}
	return info
}
