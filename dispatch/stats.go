package dispatch

import "sync"

// Stats is a snapshot of executor accounting.
type Stats struct {
	TotalExecutions        int64            `json:"total_executions"`
	SuccessCount           int64            `json:"success_count"`
	ErrorCount             int64            `json:"error_count"`
	ExecutionsByTool       map[string]int64 `json:"executions_by_tool"`
	AverageExecutionTimeMs float64          `json:"average_execution_time_ms"`
}

// statsRecorder accumulates per-dispatch measurements. The executor is the
// single writer; the mutex makes snapshots safe from other goroutines.
type statsRecorder struct {
	mu      sync.Mutex
	total   int64
	success int64
	failure int64
	byTool  map[string]int64
	totalMs int64
}

func (s *statsRecorder) record(tool string, success bool, elapsedMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.byTool == nil {
		s.byTool = make(map[string]int64)
	}
	s.total++
	s.byTool[tool]++
	s.totalMs += elapsedMs
	if success {
		s.success++
	} else {
		s.failure++
	}
}

func (s *statsRecorder) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	byTool := make(map[string]int64, len(s.byTool))
	for k, v := range s.byTool {
		byTool[k] = v
	}
	out := Stats{
		TotalExecutions:  s.total,
		SuccessCount:     s.success,
		ErrorCount:       s.failure,
		ExecutionsByTool: byTool,
	}
	if s.total > 0 {
		out.AverageExecutionTimeMs = float64(s.totalMs) / float64(s.total)
	}
	return out
}
