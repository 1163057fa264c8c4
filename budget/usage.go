package budget

import "time"

// UsagePoint is one entry in the token-usage-over-time series.
type UsagePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Tokens    int       `json:"tokens"`
}

// UsageSnapshot is a diagnostic view of context usage. It never influences
// selection or ranking.
type UsageSnapshot struct {
	DistinctSources int          `json:"distinct_sources"`
	TotalTurns      int          `json:"total_turns"`
	Series          []UsagePoint `json:"series"`
}

// UsageLog accumulates MarkUsed touches for diagnostics.
type UsageLog struct {
	sources map[string]struct{}
	turns   int
	series  []UsagePoint
}

func (l *UsageLog) record(source string, tokens int) {
	if l.sources == nil {
		l.sources = make(map[string]struct{})
	}
	l.sources[source] = struct{}{}
	l.turns++
	l.series = append(l.series, UsagePoint{
		Timestamp: time.Now(),
		Source:    source,
		Tokens:    tokens,
	})
}

func (l *UsageLog) snapshot() UsageSnapshot {
	series := make([]UsagePoint, len(l.series))
	copy(series, l.series)
	return UsageSnapshot{
		DistinctSources: len(l.sources),
		TotalTurns:      l.turns,
		Series:          series,
	}
}
