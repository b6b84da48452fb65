package domain

// Finding is one agent's claim about one location in the diff. A Finding is
// immutable once constructed; merging produces a new AggregatedFinding value
// rather than editing any field in place.
type Finding struct {
	AgentID     string
	FilePath    string // repository-relative; empty for repo-wide findings
	Line        int    // 1-based line in the new file version; 0 when not line-addressable
	Category    string
	FindingText string
	Reasoning   string
	Confidence  float64 // always in [0, 1] once past normalization
}

// HasLine reports whether the finding is addressable to a specific line.
func (f Finding) HasLine() bool {
	return f.Line > 0
}

// AttributedReasoning is one agent's reasoning for an aggregated finding,
// kept separate per agent so provenance survives merging.
type AttributedReasoning struct {
	AgentID   string
	Reasoning string
}

// AggregatedFinding is a deduplicated finding with the set of agents that
// reported it. A cluster of duplicate Findings collapses into one
// AggregatedFinding carrying the highest confidence of the cluster.
type AggregatedFinding struct {
	FilePath    string
	Line        int
	Category    string
	FindingText string
	Confidence  float64
	Agents      []string // unique, sorted
	Reasonings  []AttributedReasoning
}

// HasLine reports whether the finding is addressable to a specific line.
func (a AggregatedFinding) HasLine() bool {
	return a.Line > 0
}

// Single builds the aggregate form of one raw finding, the identity case of
// a merge. An empty reasoning yields no attribution entry.
func Single(f Finding) AggregatedFinding {
	a := AggregatedFinding{
		FilePath:    f.FilePath,
		Line:        f.Line,
		Category:    f.Category,
		FindingText: f.FindingText,
		Confidence:  f.Confidence,
		Agents:      []string{f.AgentID},
	}
	if f.Reasoning != "" {
		a.Reasonings = []AttributedReasoning{{AgentID: f.AgentID, Reasoning: f.Reasoning}}
	}
	return a
}

// DistinctFiles returns the number of distinct non-empty file paths in
// findings.
func DistinctFiles(findings []AggregatedFinding) int {
	seen := make(map[string]struct{}, len(findings))
	for _, f := range findings {
		if f.FilePath == "" {
			continue
		}
		seen[f.FilePath] = struct{}{}
	}
	return len(seen)
}
