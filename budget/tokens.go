package budget

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator estimates how many token units a piece of text occupies.
// Callers must not rely on exact counts, only on monotonic ordering and
// approximate budget conformance.
type TokenEstimator interface {
	Estimate(text string) int
}

// HeuristicEstimator is the default estimator. It averages a word count with
// a character-based count, which tracks real tokenizers closely enough for
// budgeting without the cost of running one.
type HeuristicEstimator struct{}

// Estimate returns max(1, ceil((words + chars/4) / 2)).
func (HeuristicEstimator) Estimate(text string) int {
	words := len(strings.Fields(text))
	chars := len(text)
	// Integer ceil of (words + chars/4) / 2.
	n := (words*4 + chars + 7) / 8
	if n < 1 {
		return 1
	}
	return n
}

// TiktokenEstimator counts tokens with a real BPE encoding. It is slower
// than the heuristic but exact for OpenAI-family models.
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenEstimator creates an estimator for the given encoding name,
// e.g. "cl100k_base".
func NewTiktokenEstimator(encoding string) (*TiktokenEstimator, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenEstimator{enc: enc}, nil
}

// Estimate returns the exact token count for text, never less than 1.
func (e *TiktokenEstimator) Estimate(text string) int {
	n := len(e.enc.Encode(text, nil, nil))
	if n < 1 {
		return 1
	}
	return n
}
