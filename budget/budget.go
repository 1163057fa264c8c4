// Package budget maintains a tiered collection of text fragments and selects
// a subset that fits a token budget, with a deterministic truncation policy.
package budget

import (
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// ContextType classifies where a context fragment came from.
type ContextType string

const (
	TypeCurrentFile ContextType = "current_file"
	TypeImport      ContextType = "import"
	TypeDependency  ContextType = "dependency"
	TypeOther       ContextType = "other"
)

// Tier is the priority bucket assigned to a context fragment.
type Tier int

const (
	TierLow Tier = iota + 1
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	default:
		return "low"
	}
}

// tierFor maps a context type to its tier. Assigned once at insertion.
func tierFor(ct ContextType) Tier {
	switch ct {
	case TypeCurrentFile, TypeDependency:
		return TierHigh
	case TypeImport:
		return TierMedium
	default:
		return TierLow
	}
}

// Item is a single context fragment. Tokens and Tier are derived at
// insertion and do not change unless the item is re-added.
type Item struct {
	Content        string      `json:"content"`
	Source         string      `json:"source"`
	Type           ContextType `json:"type"`
	Tokens         int         `json:"tokens"`
	Tier           Tier        `json:"tier"`
	LastAccessed   time.Time   `json:"last_accessed"`
	RelevanceScore float64     `json:"relevance_score,omitempty"`

	seq int // insertion order, used as the deterministic tie-break
}

// truncateThreshold is the minimum remaining budget, in token units, for
// which a High-tier item is truncated rather than dropped.
const truncateThreshold = 10

// Budgeter curates the text supplied to the language model each turn.
// It is not safe for concurrent use by multiple sessions without external
// locking beyond its own mutex; the mutex covers a single orchestrating
// loop interleaved with diagnostic readers.
type Budgeter struct {
	mu        sync.Mutex
	budget    int
	items     []*Item
	estimator TokenEstimator
	usage     UsageLog
	nextSeq   int
}

// New creates a Budgeter with the given token budget and the default
// heuristic estimator.
func New(tokenBudget int) *Budgeter {
	return &Budgeter{budget: tokenBudget, estimator: HeuristicEstimator{}}
}

// NewWithEstimator creates a Budgeter using a custom token estimator.
func NewWithEstimator(tokenBudget int, est TokenEstimator) *Budgeter {
	return &Budgeter{budget: tokenBudget, estimator: est}
}

// SetBudget changes the token budget for subsequent selections.
func (b *Budgeter) SetBudget(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.budget = n
}

// Budget returns the current token budget.
func (b *Budgeter) Budget() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.budget
}

// Add inserts a context fragment. Tokens and tier are computed here.
// Re-adding a fragment with the same source and type replaces it and
// refreshes its derived fields.
func (b *Budgeter) Add(content, source string, ct ContextType) *Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	item := &Item{
		Content:      content,
		Source:       source,
		Type:         ct,
		Tokens:       b.estimator.Estimate(content),
		Tier:         tierFor(ct),
		LastAccessed: time.Now(),
		seq:          b.nextSeq,
	}
	b.nextSeq++

	for i, existing := range b.items {
		if existing.Source == source && existing.Type == ct {
			b.items[i] = item
			return item
		}
	}
	b.items = append(b.items, item)
	return item
}

// TotalTokens returns the token sum over all held items, selected or not.
func (b *Budgeter) TotalTokens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, item := range b.items {
		total += item.Tokens
	}
	return total
}

// Select returns the items chosen for the current budget.
//
// Items are stable-sorted by tier descending then lastAccessed descending
// and accumulated greedily. When an item would exceed the remaining budget:
// a High-tier item is truncated to exactly the remaining budget if more than
// truncateThreshold remains, and selection stops; lower-tier items are
// dropped, never truncated. The asymmetry is policy: always preserve some
// signal from the most relevant material.
func (b *Budgeter) Select() []*Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	sorted := make([]*Item, len(b.items))
	copy(sorted, b.items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Tier != sorted[j].Tier {
			return sorted[i].Tier > sorted[j].Tier
		}
		return sorted[i].LastAccessed.After(sorted[j].LastAccessed)
	})

	var selected []*Item
	used := 0
	for _, item := range sorted {
		remaining := b.budget - used
		if remaining <= 0 {
			break
		}
		if item.Tokens <= remaining {
			selected = append(selected, item)
			used += item.Tokens
			continue
		}
		if item.Tier == TierHigh && remaining > truncateThreshold {
			selected = append(selected, b.truncateItem(item, remaining))
		}
		// Anything that did not fit ends selection: the sort order means
		// every later item is lower priority.
		break
	}
	return selected
}

// truncateItem returns a copy of item cut down to exactly `tokens` token
// units. The content cut is proportional to the estimator's view of the
// original; the recorded token count is the remaining budget by definition.
// The cut point backs up to a rune boundary so the result is always valid
// UTF-8.
func (b *Budgeter) truncateItem(item *Item, tokens int) *Item {
	copied := *item
	if item.Tokens > 0 && len(item.Content) > 0 {
		keep := len(item.Content) * tokens / item.Tokens
		if keep < len(copied.Content) {
			for keep > 0 && !utf8.RuneStart(copied.Content[keep]) {
				keep--
			}
			copied.Content = copied.Content[:keep]
		}
	}
	copied.Tokens = tokens
	return &copied
}

// MarkUsed refreshes lastAccessed for every item from the given source and
// records the touch in the usage log. It has no effect on scheduling beyond
// the recency bump.
func (b *Budgeter) MarkUsed(source string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	tokens := 0
	for _, item := range b.items {
		if item.Source == source {
			item.LastAccessed = now
			tokens += item.Tokens
		}
	}
	b.usage.record(source, tokens)
}

// Usage returns a snapshot of the diagnostic usage log.
func (b *Budgeter) Usage() UsageSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.usage.snapshot()
}

// Clear drops all items. The budget and usage log are retained.
func (b *Budgeter) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
}

// RankByRecency sorts the held items by lastAccessed descending and returns
// them. Ties break on insertion order.
func (b *Budgeter) RankByRecency() []*Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	sort.Slice(b.items, func(i, j int) bool {
		if !b.items[i].LastAccessed.Equal(b.items[j].LastAccessed) {
			return b.items[i].LastAccessed.After(b.items[j].LastAccessed)
		}
		return b.items[i].seq < b.items[j].seq
	})
	return b.snapshotItems()
}

// RankByRelevance scores items against the query keywords (source matches
// weigh 10, content matches 5), stores the score on each item, and sorts by
// score descending. Ties break on insertion order.
func (b *Budgeter) RankByRelevance(query string) []*Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	keywords := extractKeywords(query)
	for _, item := range b.items {
		item.RelevanceScore = float64(matchCount(item.Source, keywords)*10 +
			matchCount(item.Content, keywords)*5)
	}
	sort.Slice(b.items, byScoreThenSeq(b.items))
	return b.snapshotItems()
}

// RankCombined scores items as
//
//	tier*100 + sourceMatches*10 + contentMatches*5 - min(10, minutesIdle)
//
// and sorts by score descending. Equal scores break on insertion order, which
// makes the ranking deterministic regardless of any earlier ranking calls.
func (b *Budgeter) RankCombined(query string) []*Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	keywords := extractKeywords(query)
	now := time.Now()
	for _, item := range b.items {
		idle := now.Sub(item.LastAccessed).Minutes()
		if idle > 10 {
			idle = 10
		}
		item.RelevanceScore = float64(int(item.Tier)*100+
			matchCount(item.Source, keywords)*10+
			matchCount(item.Content, keywords)*5) - idle
	}
	sort.Slice(b.items, byScoreThenSeq(b.items))
	return b.snapshotItems()
}

// byScoreThenSeq orders by relevance score descending with insertion order
// as the tie-break. The explicit tie-break is load-bearing: the rankers sort
// b.items in place, so relying on sort stability would carry over whatever
// order the previous ranking call left behind.
func byScoreThenSeq(items []*Item) func(i, j int) bool {
	return func(i, j int) bool {
		if items[i].RelevanceScore != items[j].RelevanceScore {
			return items[i].RelevanceScore > items[j].RelevanceScore
		}
		return items[i].seq < items[j].seq
	}
}

func (b *Budgeter) snapshotItems() []*Item {
	out := make([]*Item, len(b.items))
	copy(out, b.items)
	return out
}

// extractKeywords lowercases the query and keeps words longer than two
// characters.
func extractKeywords(query string) []string {
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len(w) > 2 {
			keywords = append(keywords, w)
		}
	}
	return keywords
}

// matchCount counts how many keywords appear in text (case-insensitive).
func matchCount(text string, keywords []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}
