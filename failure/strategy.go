package failure

// StrategyType categorizes a recommended recovery.
type StrategyType string

const (
	StrategySearchFirst   StrategyType = "search_first"
	StrategyBroadenSearch StrategyType = "broaden_search"
	StrategyAskUser       StrategyType = "ask_user"
	StrategyRetry         StrategyType = "retry_after_delay"
	StrategyAbort         StrategyType = "abort"
)

// AlternativeAction recommends a different (or delayed) action to try next.
type AlternativeAction struct {
	Tool   string `json:"tool"`
	Reason string `json:"reason"`
	// Retry indicates the original action itself should be re-attempted
	// rather than switching tools.
	Retry bool `json:"retry,omitempty"`
}

// RecoveryStrategy is the full recommendation for an error kind: what
// category of recovery to attempt, the concrete actions in order, and the
// fixed suggestion text.
type RecoveryStrategy struct {
	Type       StrategyType        `json:"type"`
	Actions    []AlternativeAction `json:"actions,omitempty"`
	Suggestion string              `json:"suggestion"`
}

// GetRecoveryStrategy maps an error to its recommended recovery. This is a
// separate decision from IsRecoverable: a kind that must not be blindly
// retried can still have a concrete different-action strategy.
func GetRecoveryStrategy(info ErrorInfo) RecoveryStrategy {
	suggestion := HelpfulMessage(info)

	switch info.Kind {
	case FileNotFound:
		return RecoveryStrategy{
			Type: StrategySearchFirst,
			Actions: []AlternativeAction{
				{Tool: "Glob", Reason: "discover the file by name pattern"},
				{Tool: "ListDirectory", Reason: "inspect the directory contents"},
			},
			Suggestion: suggestion,
		}
	case NoMatches:
		return RecoveryStrategy{
			Type: StrategyBroadenSearch,
			Actions: []AlternativeAction{
				{Tool: "Grep", Reason: "retry with a broader pattern or wider scope"},
			},
			Suggestion: suggestion,
		}
	case Ambiguous:
		return RecoveryStrategy{Type: StrategyAskUser, Suggestion: suggestion}
	case NetworkError, Timeout:
		return RecoveryStrategy{
			Type:       StrategyRetry,
			Actions:    []AlternativeAction{{Retry: true, Reason: "transient failure, retry after a delay"}},
			Suggestion: suggestion,
		}
	case InvalidPath, SyntaxError:
		return RecoveryStrategy{Type: StrategyAbort, Suggestion: suggestion}
	default:
		return RecoveryStrategy{Type: StrategyAskUser, Suggestion: suggestion}
	}
}

// alternativeTools maps each tool family to the tool to try instead. The
// mapping never returns the tool it was given.
var alternativeTools = map[string]AlternativeAction{
	"Glob":          {Tool: "Grep", Reason: "search file contents instead of names"},
	"Grep":          {Tool: "Glob", Reason: "search file names instead of contents"},
	"ListDirectory": {Tool: "Glob", Reason: "search recursively instead of listing one level"},
	"EditFile":      {Tool: "ReadFile", Reason: "re-read the file before editing again"},
	"WriteFile":     {Tool: "ReadFile", Reason: "re-read the file to confirm its current state"},
	"ReadFile":      {Tool: "Glob", Reason: "locate the file before reading"},
}

// SuggestAlternative maps a failed action's tool to a different tool family.
func SuggestAlternative(last Action) AlternativeAction {
	if alt, ok := alternativeTools[last.Tool]; ok {
		return alt
	}
	return AlternativeAction{Tool: "ListDirectory", Reason: "orient in the workspace before trying again"}
}

// SuggestRetry recommends the next action after a failure: re-attempt the
// same action for transient kinds, otherwise the first concrete action from
// the recovery strategy, falling back to a tool-family switch.
func SuggestRetry(action Action, info ErrorInfo) AlternativeAction {
	if Classify(info.Kind) == Transient && IsRecoverable(info.Kind) {
		return AlternativeAction{Tool: action.Tool, Retry: true, Reason: "transient failure, retry the same action"}
	}
	strategy := GetRecoveryStrategy(info)
	if len(strategy.Actions) > 0 {
		return strategy.Actions[0]
	}
	return SuggestAlternative(action)
}
