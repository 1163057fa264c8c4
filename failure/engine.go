package failure

import (
	"sync"
	"time"
)

// LoopType identifies which loop pattern fired.
type LoopType string

const (
	LoopNone            LoopType = "none"
	LoopRepetition      LoopType = "repetition"
	LoopAlternation     LoopType = "alternation"
	LoopParamSimilarity LoopType = "param_similarity"
)

// Detection windows. Fixed constants, not configurable per call: the
// alternation check needs two full A-B cycles plus the leading A.
const (
	repetitionWindow  = 3
	alternationWindow = 5
	completionWindow  = 5
	askUserThreshold  = 3
)

// fileReadTools are tools whose repeated calls on the same path with a
// shifting offset count as a loop even though the action identities differ.
var fileReadTools = map[string]bool{"ReadFile": true}

// offsetParams are the parameters treated as offset-like for the
// parameter-similarity check.
var offsetParams = []string{"offset", "limit", "start_line", "end_line"}

// TaskState is the lifecycle state of a tracked task.
type TaskState string

const (
	TaskInProgress TaskState = "in_progress"
	TaskFailed     TaskState = "failed"
)

// TaskStatus holds the state of a task tracked by the engine. There is no
// completed transition here; completion is asserted externally, gated by
// CanMarkComplete.
type TaskStatus struct {
	State TaskState `json:"state"`
	Error string    `json:"error,omitempty"`
}

// Engine owns the append-only action log and failure counters for one
// orchestrating loop.
type Engine struct {
	mu          sync.Mutex
	history     []HistoryEntry
	failures    int
	tasks       map[string]*TaskStatus
	currentTask string
}

// NewEngine creates an empty failure and loop engine.
func NewEngine() *Engine {
	return &Engine{tasks: make(map[string]*TaskStatus)}
}

// RecordAction appends a successful action to the log.
func (e *Engine) RecordAction(action Action) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, HistoryEntry{
		Action:    action,
		Timestamp: time.Now(),
		Success:   true,
	})
}

// RecordFailure appends a failed action to the log, bumps the cumulative
// failure count, and marks the current task failed.
func (e *Engine) RecordFailure(action Action, info ErrorInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history, HistoryEntry{
		Action:    action,
		Timestamp: time.Now(),
		Success:   false,
		Error:     &info,
	})
	e.failures++

	if e.currentTask != "" {
		if status, ok := e.tasks[e.currentTask]; ok {
			status.State = TaskFailed
			status.Error = info.Message
		}
	}
}

// History returns a copy of the action log.
func (e *Engine) History() []HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := make([]HistoryEntry, len(e.history))
	copy(h, e.history)
	return h
}

// DetectLoop reports whether the trailing action history matches any loop
// pattern.
func (e *Engine) DetectLoop() bool {
	return e.LoopType() != LoopNone
}

// LoopType evaluates the loop patterns in precedence order over the
// trailing window: alternation first (the more specific pattern), then
// repetition, then parameter similarity.
func (e *Engine) LoopType() LoopType {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.isAlternation() {
		return LoopAlternation
	}
	if e.isRepetition() {
		return LoopRepetition
	}
	if e.isParamSimilarity() {
		return LoopParamSimilarity
	}
	return LoopNone
}

// isAlternation checks the last 5 actions for A,B,A,B,A with A != B.
func (e *Engine) isAlternation() bool {
	if len(e.history) < alternationWindow {
		return false
	}
	tail := e.history[len(e.history)-alternationWindow:]
	a := tail[0].Action.Identity()
	b := tail[1].Action.Identity()
	if a == b {
		return false
	}
	return tail[2].Action.Identity() == a &&
		tail[3].Action.Identity() == b &&
		tail[4].Action.Identity() == a
}

// isRepetition checks the last 3 actions for identical identities.
func (e *Engine) isRepetition() bool {
	if len(e.history) < repetitionWindow {
		return false
	}
	tail := e.history[len(e.history)-repetitionWindow:]
	id := tail[0].Action.Identity()
	for _, entry := range tail[1:] {
		if entry.Action.Identity() != id {
			return false
		}
	}
	return true
}

// isParamSimilarity checks whether the last 3 actions use the same
// file-reading tool on the same path while only varying an offset-like
// parameter.
func (e *Engine) isParamSimilarity() bool {
	if len(e.history) < repetitionWindow {
		return false
	}
	tail := e.history[len(e.history)-repetitionWindow:]

	tool := tail[0].Action.Tool
	if !fileReadTools[tool] {
		return false
	}
	path, ok := tail[0].Action.StringParam("file_path")
	if !ok {
		return false
	}

	offsetsDiffer := false
	for _, entry := range tail[1:] {
		if entry.Action.Tool != tool {
			return false
		}
		p, ok := entry.Action.StringParam("file_path")
		if !ok || p != path {
			return false
		}
	}
	for _, key := range offsetParams {
		values := make(map[any]bool)
		for _, entry := range tail {
			if v, ok := entry.Action.Param(key); ok {
				values[v] = true
			}
		}
		if len(values) > 1 {
			offsetsDiffer = true
			break
		}
	}
	return offsetsDiffer
}

// SuggestAlternative recommends a different tool family based on the most
// recent action. It never reuses the immediately preceding tool.
func (e *Engine) SuggestAlternative() AlternativeAction {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.history) == 0 {
		return AlternativeAction{Tool: "ListDirectory", Reason: "no history yet, orient in the workspace"}
	}
	return SuggestAlternative(e.history[len(e.history)-1].Action)
}

// ShouldAskUser reports whether the cumulative failure count across all
// action identities has reached the escalation threshold.
func (e *Engine) ShouldAskUser() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failures >= askUserThreshold
}

// SetCurrentTask starts tracking a task as in progress.
func (e *Engine) SetCurrentTask(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.currentTask = id
	e.tasks[id] = &TaskStatus{State: TaskInProgress}
}

// GetTaskStatus returns the tracked status for a task.
func (e *Engine) GetTaskStatus(id string) (TaskStatus, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	status, ok := e.tasks[id]
	if !ok {
		return TaskStatus{}, false
	}
	return *status, true
}

// CanMarkComplete reports whether the trailing history is clean enough to
// assert completion: false whenever any of the last 5 entries recorded a
// failure.
func (e *Engine) CanMarkComplete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := len(e.history) - completionWindow
	if start < 0 {
		start = 0
	}
	for _, entry := range e.history[start:] {
		if !entry.Success {
			return false
		}
	}
	return true
}

// Reset clears the action log, failure counters, and task tracking.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
	e.failures = 0
	e.tasks = make(map[string]*TaskStatus)
	e.currentTask = ""
}
