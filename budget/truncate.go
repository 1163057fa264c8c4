package budget

import (
	"fmt"
	"strings"
)

// TruncationMode specifies how oversized tool output is cut.
type TruncationMode string

const (
	TruncateHeadTail TruncationMode = "head_tail"
	TruncateTail     TruncationMode = "tail"
)

// Default character limits per tool for output folded into context.
var DefaultToolCharLimits = map[string]int{
	"ReadFile":      50000,
	"RunCommand":    30000,
	"Grep":          20000,
	"Glob":          20000,
	"ListDirectory": 20000,
	"EditFile":      10000,
	"WriteFile":     1000,
}

// Default truncation modes per tool. Search-style tools keep their tail
// (later matches tend to be the requested ones); file reads keep both ends.
var defaultTruncationModes = map[string]TruncationMode{
	"ReadFile":      TruncateHeadTail,
	"RunCommand":    TruncateHeadTail,
	"Grep":          TruncateTail,
	"Glob":          TruncateTail,
	"ListDirectory": TruncateTail,
	"EditFile":      TruncateTail,
	"WriteFile":     TruncateTail,
}

// TruncateOutput applies character-based truncation to output.
func TruncateOutput(output string, maxChars int, mode TruncationMode) string {
	if len(output) <= maxChars {
		return output
	}
	removed := len(output) - maxChars

	switch mode {
	case TruncateTail:
		return fmt.Sprintf("[output truncated: first %d characters removed]\n\n", removed) +
			output[len(output)-maxChars:]
	default: // head_tail
		half := maxChars / 2
		return output[:half] +
			fmt.Sprintf("\n\n[output truncated: %d characters removed from the middle; re-run with narrower parameters to see more]\n\n", removed) +
			output[len(output)-half:]
	}
}

// TruncateLines applies line-based truncation using a head/tail split.
func TruncateLines(output string, maxLines int) string {
	lines := strings.Split(output, "\n")
	if len(lines) <= maxLines {
		return output
	}

	headCount := maxLines / 2
	tailCount := maxLines - headCount
	omitted := len(lines) - headCount - tailCount

	return strings.Join(lines[:headCount], "\n") +
		fmt.Sprintf("\n[... %d lines omitted ...]\n", omitted) +
		strings.Join(lines[len(lines)-tailCount:], "\n")
}

// TruncateToolOutput applies the per-tool truncation policy to raw tool
// output before it is added as a context item.
func TruncateToolOutput(output, toolName string, charLimits map[string]int) string {
	maxChars, ok := charLimits[toolName]
	if !ok {
		maxChars, ok = DefaultToolCharLimits[toolName]
		if !ok {
			maxChars = 30000
		}
	}

	mode, ok := defaultTruncationModes[toolName]
	if !ok {
		mode = TruncateHeadTail
	}

	return TruncateOutput(output, maxChars, mode)
}
