// Package intent labels user requests with a coarse intent category used to
// select a plan template.
package intent

import (
	"context"
	"strings"
)

// Recognized intent labels.
const (
	Implement = "implement"
	Debug     = "debug"
	Refactor  = "refactor"
	Explain   = "explain"
	General   = "general"
)

// keywordRules are checked in order; the first rule with a matching keyword
// wins, so fix/debug language takes precedence over implement language in
// mixed requests like "fix the bug by adding a check".
var keywordRules = []struct {
	intent   string
	keywords []string
}{
	{Debug, []string{"fix", "debug", "bug", "broken", "error", "crash", "failing"}},
	{Refactor, []string{"refactor", "restructure", "clean up", "simplify", "rename"}},
	{Explain, []string{"explain", "what is", "what does", "how does", "why does", "describe"}},
	{Implement, []string{"add", "implement", "create", "build", "write", "support"}},
}

// KeywordClassifier labels requests with fixed keyword tables. It never
// errors and needs no network, making it the fallback classifier.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(ctx context.Context, message string) (string, error) {
	lower := strings.ToLower(message)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent, nil
			}
		}
	}
	return General, nil
}
