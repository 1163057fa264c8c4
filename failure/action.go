// Package failure records every attempted action and its outcome, detects
// repeating action patterns, classifies error kinds, and recommends recovery
// strategies.
package failure

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Params is an ordered map of primitive parameter values. Insertion order is
// preserved for display; identity comparisons always use sorted keys.
type Params = orderedmap.OrderedMap[string, any]

// NewParams builds a Params map from alternating key/value pairs.
func NewParams(pairs ...any) *Params {
	m := orderedmap.New[string, any]()
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		m.Set(key, pairs[i+1])
	}
	return m
}

// Action is a single tool invocation attempt.
type Action struct {
	Tool   string
	Params *Params
}

// NewAction creates an action for the given tool and parameters.
func NewAction(tool string, params *Params) Action {
	if params == nil {
		params = orderedmap.New[string, any]()
	}
	return Action{Tool: tool, Params: params}
}

// Identity returns the canonical identity key for the action: the tool name
// plus a hash of its parameters encoded with sorted keys. Two actions built
// with the same parameters in different insertion orders compare equal.
func (a Action) Identity() string {
	keys := make([]string, 0, a.Params.Len())
	for pair := a.Params.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	sort.Strings(keys)

	canonical := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		v, _ := a.Params.Get(k)
		canonical = append(canonical, k, v)
	}
	encoded, _ := json.Marshal(canonical)

	h := sha256.Sum256(encoded)
	return fmt.Sprintf("%s:%x", a.Tool, h[:8])
}

// Param returns a named parameter value.
func (a Action) Param(key string) (any, bool) {
	return a.Params.Get(key)
}

// StringParam returns a named parameter as a string.
func (a Action) StringParam(key string) (string, bool) {
	v, ok := a.Params.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// HistoryEntry is one record in the append-only action log. Entries are
// never mutated after append.
type HistoryEntry struct {
	Action    Action
	Timestamp time.Time
	Success   bool
	Error     *ErrorInfo
}
