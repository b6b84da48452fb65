package pipeline

import (
	"cmp"
	"slices"
	"strings"

	"github.com/microreview/internal/domain"
)

// FilterByConfidence drops findings below their effective confidence
// threshold (per-agent override if configured, else the global threshold),
// then applies per-agent caps: an agent's surviving findings are ranked by
// descending confidence, ties by ascending file path, then ascending line,
// then input position, and truncated to the agent's limit. The returned
// slice keeps the input order of the survivors; the input is not mutated.
func FilterByConfidence(findings []domain.Finding, opts Options) []domain.Finding {
	surviving := make([]int, 0, len(findings))
	byAgent := make(map[string][]int)
	for i, f := range findings {
		if f.Confidence < opts.thresholdFor(f.AgentID) {
			continue
		}
		surviving = append(surviving, i)
		byAgent[f.AgentID] = append(byAgent[f.AgentID], i)
	}

	capped := make(map[int]struct{})
	for agentID, idxs := range byAgent {
		limit := opts.limitFor(agentID)
		if limit <= 0 || len(idxs) <= limit {
			continue
		}
		ranked := slices.Clone(idxs)
		slices.SortFunc(ranked, func(a, b int) int {
			fa, fb := findings[a], findings[b]
			if c := cmp.Compare(fb.Confidence, fa.Confidence); c != 0 {
				return c
			}
			if c := strings.Compare(fa.FilePath, fb.FilePath); c != 0 {
				return c
			}
			if c := cmp.Compare(fa.Line, fb.Line); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		for _, i := range ranked[limit:] {
			capped[i] = struct{}{}
		}
	}

	out := make([]domain.Finding, 0, len(surviving))
	for _, i := range surviving {
		if _, ok := capped[i]; ok {
			continue
		}
		out = append(out, findings[i])
	}
	return out
}
