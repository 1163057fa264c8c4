package failure

import "testing"

func readAction(path string, offset int) Action {
	return NewAction("ReadFile", NewParams("file_path", path, "offset", offset))
}

func TestIdentityIgnoresKeyOrder(t *testing.T) {
	a := NewAction("Grep", NewParams("pattern", "foo", "path", "src"))
	b := NewAction("Grep", NewParams("path", "src", "pattern", "foo"))
	if a.Identity() != b.Identity() {
		t.Errorf("expected identical identities, got %q vs %q", a.Identity(), b.Identity())
	}
}

func TestIdentityDistinguishesValues(t *testing.T) {
	a := NewAction("Grep", NewParams("pattern", "foo"))
	b := NewAction("Grep", NewParams("pattern", "bar"))
	if a.Identity() == b.Identity() {
		t.Error("expected different identities for different parameter values")
	}
}

func TestRepetitionLoop(t *testing.T) {
	e := NewEngine()
	for i := 0; i < 3; i++ {
		e.RecordAction(NewAction("Grep", NewParams("pattern", "foo")))
	}
	if !e.DetectLoop() {
		t.Error("expected loop after 3 identical actions")
	}
	if got := e.LoopType(); got != LoopRepetition {
		t.Errorf("expected repetition, got %v", got)
	}
}

func TestTwoIdenticalActionsAreNotALoop(t *testing.T) {
	e := NewEngine()
	e.RecordAction(NewAction("Grep", NewParams("pattern", "foo")))
	e.RecordAction(NewAction("Grep", NewParams("pattern", "foo")))
	if e.DetectLoop() {
		t.Error("expected no loop with only 2 identical actions")
	}
}

func TestAlternationLoop(t *testing.T) {
	e := NewEngine()
	a := NewAction("Grep", NewParams("pattern", "foo"))
	b := NewAction("Glob", NewParams("pattern", "*.go"))
	for _, action := range []Action{a, b, a, b, a} {
		e.RecordAction(action)
	}
	if !e.DetectLoop() {
		t.Error("expected alternation loop")
	}
	if got := e.LoopType(); got != LoopAlternation {
		t.Errorf("expected alternation, got %v", got)
	}
}

func TestDistinctActionsAreNotALoop(t *testing.T) {
	e := NewEngine()
	e.RecordAction(NewAction("Grep", NewParams("pattern", "a")))
	e.RecordAction(NewAction("Grep", NewParams("pattern", "b")))
	e.RecordAction(NewAction("Grep", NewParams("pattern", "c")))
	if e.DetectLoop() {
		t.Errorf("expected no loop for 3 distinct actions, got %v", e.LoopType())
	}
}

func TestParamSimilarityLoop(t *testing.T) {
	e := NewEngine()
	e.RecordAction(readAction("main.go", 0))
	e.RecordAction(readAction("main.go", 100))
	e.RecordAction(readAction("main.go", 200))

	if !e.DetectLoop() {
		t.Error("expected parameter-similarity loop")
	}
	if got := e.LoopType(); got != LoopParamSimilarity {
		t.Errorf("expected param similarity, got %v", got)
	}
}

func TestParamSimilarityRequiresSamePath(t *testing.T) {
	e := NewEngine()
	e.RecordAction(readAction("a.go", 0))
	e.RecordAction(readAction("b.go", 100))
	e.RecordAction(readAction("c.go", 200))
	if e.DetectLoop() {
		t.Error("expected no loop when paths differ")
	}
}

func TestShouldAskUserAfterThirdFailure(t *testing.T) {
	e := NewEngine()
	info := ErrorInfo{Kind: CommandFailed, Message: "exit 1"}

	e.RecordFailure(NewAction("RunCommand", NewParams("command", "make")), info)
	e.RecordFailure(NewAction("Grep", NewParams("pattern", "x")), info)
	if e.ShouldAskUser() {
		t.Error("expected false before the 3rd failure")
	}
	e.RecordFailure(NewAction("Glob", NewParams("pattern", "*.c")), info)
	if !e.ShouldAskUser() {
		t.Error("expected true upon the 3rd cumulative failure")
	}
}

func TestClassify(t *testing.T) {
	transient := []ErrorKind{NetworkError, Timeout, CommandFailed}
	for _, kind := range transient {
		if Classify(kind) != Transient {
			t.Errorf("expected %v to be transient", kind)
		}
	}
	permanent := []ErrorKind{FileNotFound, InvalidPath, SyntaxError, NoMatches,
		EditConflict, Ambiguous, PermissionDenied, Unknown}
	for _, kind := range permanent {
		if Classify(kind) != Permanent {
			t.Errorf("expected %v to be permanent", kind)
		}
	}
}

func TestIsRecoverable(t *testing.T) {
	for _, kind := range []ErrorKind{InvalidPath, SyntaxError, PermissionDenied, FileNotFound} {
		if IsRecoverable(kind) {
			t.Errorf("expected %v to be unrecoverable by blind retry", kind)
		}
	}
	for _, kind := range []ErrorKind{NetworkError, Timeout, CommandFailed, NoMatches, EditConflict, Ambiguous, Unknown} {
		if !IsRecoverable(kind) {
			t.Errorf("expected %v to be recoverable", kind)
		}
	}
}

func TestFileNotFoundStrategyIsSearchFirst(t *testing.T) {
	s := GetRecoveryStrategy(ErrorInfo{Kind: FileNotFound, Message: "no such file"})
	if s.Type != StrategySearchFirst {
		t.Fatalf("expected search_first, got %v", s.Type)
	}
	if len(s.Actions) != 2 || s.Actions[0].Tool != "Glob" || s.Actions[1].Tool != "ListDirectory" {
		t.Errorf("expected [Glob, ListDirectory], got %+v", s.Actions)
	}
	if s.Suggestion == "" {
		t.Error("expected a suggestion message")
	}
}

func TestStrategyTable(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want StrategyType
	}{
		{NoMatches, StrategyBroadenSearch},
		{Ambiguous, StrategyAskUser},
		{NetworkError, StrategyRetry},
		{Timeout, StrategyRetry},
		{InvalidPath, StrategyAbort},
		{SyntaxError, StrategyAbort},
		{Unknown, StrategyAskUser},
		{EditConflict, StrategyAskUser},
	}
	for _, tt := range tests {
		if got := GetRecoveryStrategy(ErrorInfo{Kind: tt.kind}).Type; got != tt.want {
			t.Errorf("%v: expected %v, got %v", tt.kind, tt.want, got)
		}
	}
}

func TestSuggestAlternativeNeverRepeatsTool(t *testing.T) {
	for _, tool := range []string{"Glob", "Grep", "ListDirectory", "EditFile", "WriteFile", "ReadFile", "SomethingElse"} {
		alt := SuggestAlternative(NewAction(tool, nil))
		if alt.Tool == tool {
			t.Errorf("alternative for %q must not be itself", tool)
		}
	}
}

func TestSuggestRetryTransientRetriesSameAction(t *testing.T) {
	action := NewAction("RunCommand", NewParams("command", "curl"))
	alt := SuggestRetry(action, ErrorInfo{Kind: NetworkError})
	if !alt.Retry || alt.Tool != "RunCommand" {
		t.Errorf("expected same-action retry, got %+v", alt)
	}
}

func TestSuggestRetryPermanentSwitchesAction(t *testing.T) {
	action := NewAction("ReadFile", NewParams("file_path", "gone.go"))
	alt := SuggestRetry(action, ErrorInfo{Kind: FileNotFound})
	if alt.Retry {
		t.Error("expected no blind retry for FileNotFound")
	}
	if alt.Tool != "Glob" {
		t.Errorf("expected Glob from the search-first strategy, got %q", alt.Tool)
	}
}

func TestTaskStatusTransitions(t *testing.T) {
	e := NewEngine()
	e.SetCurrentTask("task-1")

	status, ok := e.GetTaskStatus("task-1")
	if !ok || status.State != TaskInProgress {
		t.Fatalf("expected in_progress, got %+v (ok=%v)", status, ok)
	}

	e.RecordFailure(NewAction("EditFile", nil), ErrorInfo{Kind: EditConflict, Message: "file changed"})
	status, _ = e.GetTaskStatus("task-1")
	if status.State != TaskFailed {
		t.Errorf("expected failed, got %v", status.State)
	}
	if status.Error != "file changed" {
		t.Errorf("expected triggering message retained, got %q", status.Error)
	}
}

func TestCanMarkComplete(t *testing.T) {
	e := NewEngine()
	if !e.CanMarkComplete() {
		t.Error("expected true with empty history")
	}

	e.RecordFailure(NewAction("Grep", nil), ErrorInfo{Kind: NoMatches})
	if e.CanMarkComplete() {
		t.Error("expected false with a recent failure")
	}

	// Push the failure out of the 5-entry window.
	for i := 0; i < 5; i++ {
		e.RecordAction(NewAction("ReadFile", NewParams("file_path", "a.go", "offset", i*10000)))
	}
	if !e.CanMarkComplete() {
		t.Error("expected true once the failure leaves the window")
	}
}

func TestReset(t *testing.T) {
	e := NewEngine()
	e.SetCurrentTask("t")
	e.RecordFailure(NewAction("Grep", nil), ErrorInfo{Kind: NoMatches})
	e.RecordFailure(NewAction("Grep", nil), ErrorInfo{Kind: NoMatches})
	e.RecordFailure(NewAction("Grep", nil), ErrorInfo{Kind: NoMatches})
	e.Reset()

	if e.ShouldAskUser() {
		t.Error("expected failure count cleared")
	}
	if len(e.History()) != 0 {
		t.Error("expected history cleared")
	}
	if _, ok := e.GetTaskStatus("t"); ok {
		t.Error("expected task tracking cleared")
	}
}
