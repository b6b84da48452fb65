package domain

import "time"

// AgentStatus describes how a single agent run ended.
type AgentStatus string

const (
	// AgentOK means the agent completed and its findings were collected.
	AgentOK AgentStatus = "ok"
	// AgentFailed means the agent errored or timed out; it contributes no
	// findings but is reported so the operator knows coverage was reduced.
	AgentFailed AgentStatus = "failed"
	// AgentSkipped means the agent never ran (unknown ID, unavailable
	// dependency, run canceled before its turn).
	AgentSkipped AgentStatus = "skipped"
)

// AgentResult holds the outcome of a single agent run. Err carries the
// failure text and is set iff Status is AgentFailed.
type AgentResult struct {
	AgentID  string
	Status   AgentStatus
	Findings []Finding
	Err      string
	TimedOut bool
	Duration time.Duration
}

// RunStats holds statistics about one review run.
type RunStats struct {
	TotalAgents    int
	Succeeded      int
	FailedAgents   []string
	SkippedAgents  []string
	TimedOutAgents []string
	RawFindings    int
	AgentDurations map[string]time.Duration
	WallClock      time.Duration
}

// AllFailed reports whether no agent produced a usable result.
func (s *RunStats) AllFailed() bool {
	return len(s.FailedAgents)+len(s.SkippedAgents) >= s.TotalAgents
}
