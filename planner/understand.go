package planner

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Planner drives the four-phase understand/plan/execute/reflect contract.
type Planner struct {
	classifier IntentClassifier
	logger     *slog.Logger
}

// New creates a planner using the given intent classifier.
func New(classifier IntentClassifier, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{classifier: classifier, logger: logger}
}

var (
	// word.ext tokens, e.g. "main.go" or "src/app.ts".
	filePattern = regexp.MustCompile(`\b[\w./-]*\w\.[A-Za-z]{1,5}\b`)

	// CamelCase compounds, e.g. "UserService".
	classPattern = regexp.MustCompile(`\b[A-Z][a-z0-9]+(?:[A-Z][a-z0-9]+)+\b`)

	// "the Foo class" / "the Foo component" / "the Foo model".
	namedClassPattern = regexp.MustCompile(`\bthe\s+([A-Z]\w*)\s+(?:class|component|model)\b`)

	// lowercase identifier followed by "(" or the word "function".
	callPattern     = regexp.MustCompile(`\b([a-z][A-Za-z0-9_]*)\(`)
	functionPattern = regexp.MustCompile(`\b([a-z][A-Za-z0-9_]*)\s+function\b`)

	constraintPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bwithout\s+(?:breaking|changing|modifying)\s+([^,.!?]+)`),
		regexp.MustCompile(`(?i)\bmust\s+not\s+([^,.!?]+)`),
		regexp.MustCompile(`(?i)\b(?:keep|maintain|preserve)\s+([^,.!?]+)`),
		regexp.MustCompile(`(?i)\bdon'?t\s+([^,.!?]+)`),
	}
)

// Understand analyzes a user message: intent classification is delegated to
// the external classifier; entities, constraints, and success criteria come
// from lightweight lexical heuristics.
func (p *Planner) Understand(ctx context.Context, message string) (*Understanding, error) {
	intent, err := p.classifier.Classify(ctx, message)
	if err != nil {
		return nil, err
	}

	u := &Understanding{
		Intent:          intent,
		Entities:        extractEntities(message),
		Constraints:     extractConstraints(message),
		SuccessCriteria: extractSuccessCriteria(message),
	}
	p.logger.Debug("understood request",
		"intent", u.Intent,
		"files", len(u.Entities.Files),
		"constraints", len(u.Constraints))
	return u, nil
}

func extractEntities(message string) Entities {
	var e Entities

	e.Files = dedupe(filePattern.FindAllString(message, -1))

	classes := classPattern.FindAllString(message, -1)
	for _, m := range namedClassPattern.FindAllStringSubmatch(message, -1) {
		classes = append(classes, m[1])
	}
	e.Classes = dedupe(classes)

	var functions []string
	for _, m := range callPattern.FindAllStringSubmatch(message, -1) {
		functions = append(functions, m[1])
	}
	for _, m := range functionPattern.FindAllStringSubmatch(message, -1) {
		functions = append(functions, m[1])
	}
	e.Functions = dedupe(functions)

	return e
}

func extractConstraints(message string) []string {
	var constraints []string
	for _, pattern := range constraintPatterns {
		for _, m := range pattern.FindAllStringSubmatch(message, -1) {
			constraints = append(constraints, strings.TrimSpace(m[0]))
		}
	}
	return dedupe(constraints)
}

// criteriaTriggers maps fixed keyword triggers to success criteria.
var criteriaTriggers = []struct {
	keywords []string
	criteria string
}{
	{[]string{"tests pass", "test passes"}, "tests pass"},
	{[]string{"no errors"}, "no errors"},
	{[]string{"compile", "build"}, "builds successfully"},
	{[]string{"works", "working"}, "feature works as expected"},
}

func extractSuccessCriteria(message string) []string {
	lower := strings.ToLower(message)
	var criteria []string
	for _, trigger := range criteriaTriggers {
		for _, kw := range trigger.keywords {
			if strings.Contains(lower, kw) {
				criteria = append(criteria, trigger.criteria)
				break
			}
		}
	}
	return criteria
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
