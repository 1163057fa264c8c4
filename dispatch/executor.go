package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimeout bounds tool execution unless a call overrides it.
const DefaultTimeout = 30 * time.Second

// ExecOption configures a single dispatch.
type ExecOption func(*execOptions)

type execOptions struct {
	timeout        time.Duration
	skipValidation bool
	context        *ToolContext
}

// WithTimeout overrides the execution timeout for one call.
func WithTimeout(d time.Duration) ExecOption {
	return func(o *execOptions) { o.timeout = d }
}

// WithoutValidation skips parameter validation for one call.
func WithoutValidation() ExecOption {
	return func(o *execOptions) { o.skipValidation = true }
}

// WithContext overlays per-call context fields on the executor default.
func WithContext(tc *ToolContext) ExecOption {
	return func(o *execOptions) { o.context = tc }
}

// Executor turns a tool name and raw parameters into a Result. Nothing is
// ever allowed to propagate as an uncaught failure out of Execute.
type Executor struct {
	registry *Registry
	defaults *ToolContext
	logger   *slog.Logger
	stats    statsRecorder
}

// NewExecutor creates an executor over the registry with a default tool
// context.
func NewExecutor(registry *Registry, defaults *ToolContext) *Executor {
	if defaults == nil {
		defaults = &ToolContext{}
	}
	logger := defaults.Logger
	if logger == nil {
		logger = slog.Default()
		defaults.Logger = logger
	}
	return &Executor{registry: registry, defaults: defaults, logger: logger}
}

// Validate decodes and validates parameters for a named tool without
// executing it.
func (e *Executor) Validate(name string, params json.RawMessage) Validation {
	tool, ok := e.registry.Get(name)
	if !ok {
		return Validation{Valid: false, Errors: []string{fmt.Sprintf("unknown tool %q", name)}}
	}
	decoded, err := tool.decodeParams(params)
	if err != nil {
		return Validation{Valid: false, Errors: []string{err.Error()}}
	}
	return validateParams(tool, decoded)
}

// Execute runs the full dispatch pipeline: lookup, validation, timed
// execution, error conversion, and stats accounting.
func (e *Executor) Execute(ctx context.Context, name string, params json.RawMessage, opts ...ExecOption) *Result {
	options := execOptions{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&options)
	}

	start := time.Now()
	result := e.dispatch(ctx, name, params, options)
	elapsed := time.Since(start).Milliseconds()
	if elapsed < 1 {
		elapsed = 1
	}

	if result.Metadata == nil {
		result.Metadata = &Metadata{}
	}
	result.Metadata.ExecutionTimeMs = elapsed
	e.stats.record(name, result.Success, elapsed)

	if !result.Success && result.Error != nil {
		e.logger.Debug("tool dispatch failed",
			"tool", name, "code", result.Error.Code, "elapsed_ms", elapsed)
	}
	return result
}

// ExecuteWithContext runs the pipeline with per-call context overrides.
func (e *Executor) ExecuteWithContext(ctx context.Context, name string, params json.RawMessage, tc *ToolContext) *Result {
	return e.Execute(ctx, name, params, WithContext(tc))
}

// dispatch performs the pipeline stages up to (but not including) stats.
func (e *Executor) dispatch(ctx context.Context, name string, params json.RawMessage, options execOptions) *Result {
	tool, ok := e.registry.Get(name)
	if !ok {
		return &Result{Success: false, Error: &ResultError{
			Code:    CodeToolNotFound,
			Message: fmt.Sprintf("no tool registered with name %q", name),
		}}
	}

	decoded, err := tool.decodeParams(params)
	if err != nil {
		return &Result{Success: false, Error: &ResultError{
			Code:    CodeValidation,
			Message: fmt.Sprintf("invalid parameters for %s: %v", name, err),
		}}
	}

	if !options.skipValidation {
		if v := validateParams(tool, decoded); !v.Valid {
			return &Result{Success: false, Error: &ResultError{
				Code:    CodeValidation,
				Message: fmt.Sprintf("parameter validation failed for %s", name),
				Details: v.Errors,
			}}
		}
	}

	tc := e.defaults.merged(options.context)
	return e.run(ctx, tool, decoded, tc, options.timeout)
}

// run executes the tool raced against the timeout. The timer winning stops
// the wait only; the tool keeps running until it observes the cancelled
// context itself.
func (e *Executor) run(ctx context.Context, tool *Tool, decoded any, tc *ToolContext, timeout time.Duration) *Result {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		data any
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		data, err := tool.Execute(execCtx, decoded, tc)
		done <- outcome{data: data, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			// A tool bailing out right as the timer fires still counts as a
			// timeout, not a tool fault.
			if execCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
				return &Result{Success: false, Error: &ResultError{
					Code:    CodeTimeout,
					Message: fmt.Sprintf("tool %s exceeded %v timeout", tool.Name, timeout),
				}}
			}
			return &Result{Success: false, Error: &ResultError{
				Code:    CodeExecution,
				Message: out.err.Error(),
			}}
		}
		return &Result{Success: true, Data: out.data}
	case <-execCtx.Done():
		if ctx.Err() != nil {
			// The caller's context ended, not our timer.
			return &Result{Success: false, Error: &ResultError{
				Code:    CodeExecution,
				Message: fmt.Sprintf("execution cancelled: %v", ctx.Err()),
			}}
		}
		return &Result{Success: false, Error: &ResultError{
			Code:    CodeTimeout,
			Message: fmt.Sprintf("tool %s exceeded %v timeout", tool.Name, timeout),
		}}
	}
}

// Stats returns a snapshot of execution statistics.
func (e *Executor) Stats() Stats {
	return e.stats.snapshot()
}
