package planner

import "strings"

// Todo is the user-facing projection of a plan step.
type Todo struct {
	Content    string `json:"content"`
	Status     string `json:"status"`
	ActiveForm string `json:"activeForm"`
}

// irregularGerunds covers the verbs whose -ing form is not a plain suffix.
var irregularGerunds = map[string]string{
	"read":      "Reading",
	"write":     "Writing",
	"run":       "Running",
	"apply":     "Applying",
	"implement": "Implementing",
	"verify":    "Verifying",
	"fix":       "Fixing",
	"locate":    "Locating",
	"reproduce": "Reproducing",
	"summarize": "Summarizing",
	"gather":    "Gathering",
	"carry":     "Carrying",
	"add":       "Adding",
	"create":    "Creating",
	"update":    "Updating",
	"refactor":  "Refactoring",
	"debug":     "Debugging",
	"test":      "Testing",
	"check":     "Checking",
	"build":     "Building",
}

// Todos projects the plan's steps into display items. Blocked and failed
// steps show as pending so the list reflects remaining work.
func Todos(plan *ExecutionPlan) []Todo {
	todos := make([]Todo, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		status := "pending"
		switch step.Status {
		case StepInProgress:
			status = "in_progress"
		case StepCompleted:
			status = "completed"
		}
		todos = append(todos, Todo{
			Content:    step.Description,
			Status:     status,
			ActiveForm: activeForm(step.Description),
		})
	}
	return todos
}

// activeForm rewrites a step description into present-continuous by
// converting the leading verb to its gerund.
func activeForm(description string) string {
	verb, rest, _ := strings.Cut(description, " ")
	if verb == "" {
		return description
	}
	gerund, ok := irregularGerunds[strings.ToLower(verb)]
	if !ok {
		lower := strings.ToLower(verb)
		gerund = strings.ToUpper(lower[:1]) + lower[1:] + "ing"
	}
	if rest == "" {
		return gerund
	}
	return gerund + " " + rest
}
