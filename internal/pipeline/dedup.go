package pipeline

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/microreview/internal/domain"
)

// Deduplicate merges findings that describe the same underlying issue,
// across and within agents. Two findings are duplicates when they share a
// file path, their lines are both absent or within opts.LineProximity, and
// their finding texts overlap by at least opts.SimilarityThreshold.
//
// Clustering is canonical: the input is content-sorted and clusters are the
// connected components of the duplicate relation, so the result does not
// depend on the order findings arrive in and applying Deduplicate to its
// own output changes nothing. A merged finding keeps the highest confidence
// of its cluster, the union of contributing agent IDs, and every distinct
// agent-attributed reasoning.
func Deduplicate(findings []domain.Finding, opts Options) []domain.AggregatedFinding {
	if len(findings) == 0 {
		return nil
	}

	sorted := slices.Clone(findings)
	slices.SortFunc(sorted, compareFindings)

	parent := make([]int, len(sorted))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if rb < ra {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	// Findings with the same file path are adjacent after sorting, so the
	// pairwise scan stays within one file's span.
	for i := range sorted {
		for j := i + 1; j < len(sorted) && sorted[j].FilePath == sorted[i].FilePath; j++ {
			if sameIssue(sorted[i], sorted[j], opts) {
				union(i, j)
			}
		}
	}

	clusters := make(map[int][]domain.Finding)
	roots := make([]int, 0, len(sorted))
	for i, f := range sorted {
		r := find(i)
		if _, ok := clusters[r]; !ok {
			roots = append(roots, r)
		}
		clusters[r] = append(clusters[r], f)
	}

	out := make([]domain.AggregatedFinding, 0, len(roots))
	for _, r := range roots {
		out = append(out, mergeCluster(clusters[r]))
	}
	slices.SortFunc(out, compareAggregated)
	return out
}

// sameIssue reports whether a and b describe the same issue under the
// configured proximity and similarity thresholds. A line-addressed finding
// never merges with a repo-wide one.
func sameIssue(a, b domain.Finding, opts Options) bool {
	if a.FilePath != b.FilePath {
		return false
	}
	switch {
	case !a.HasLine() && !b.HasLine():
	case a.HasLine() && b.HasLine():
		d := a.Line - b.Line
		if d < 0 {
			d = -d
		}
		if d > opts.LineProximity {
			return false
		}
	default:
		return false
	}
	return textSimilarity(a.FindingText, b.FindingText) >= opts.SimilarityThreshold
}

// mergeCluster folds one cluster into a single aggregated finding. The
// representative is the member with the highest confidence; on ties the
// earliest member in canonical order wins, which keeps the merge
// order-independent.
func mergeCluster(members []domain.Finding) domain.AggregatedFinding {
	if len(members) == 1 {
		return domain.Single(members[0])
	}

	best := 0
	for i, m := range members {
		if m.Confidence > members[best].Confidence {
			best = i
		}
	}
	rep := members[best]

	agentSet := make(map[string]struct{}, len(members))
	agents := make([]string, 0, len(members))
	type reasoningKey struct{ agent, text string }
	seen := make(map[reasoningKey]struct{}, len(members))
	reasonings := make([]domain.AttributedReasoning, 0, len(members))
	for _, m := range members {
		if _, ok := agentSet[m.AgentID]; !ok {
			agentSet[m.AgentID] = struct{}{}
			agents = append(agents, m.AgentID)
		}
		if m.Reasoning == "" {
			continue
		}
		k := reasoningKey{m.AgentID, m.Reasoning}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		reasonings = append(reasonings, domain.AttributedReasoning{AgentID: m.AgentID, Reasoning: m.Reasoning})
	}
	slices.Sort(agents)
	slices.SortFunc(reasonings, func(a, b domain.AttributedReasoning) int {
		if c := strings.Compare(a.AgentID, b.AgentID); c != 0 {
			return c
		}
		return strings.Compare(a.Reasoning, b.Reasoning)
	})

	return domain.AggregatedFinding{
		FilePath:    rep.FilePath,
		Line:        rep.Line,
		Category:    rep.Category,
		FindingText: rep.FindingText,
		Confidence:  rep.Confidence,
		Agents:      agents,
		Reasonings:  reasonings,
	}
}

// compareFindings is the canonical content order for raw findings: file
// path (repo-wide last), line (absent last), finding text, descending
// confidence, agent ID, reasoning. It is total over distinct findings,
// which is what makes the clustering pass order-independent.
func compareFindings(a, b domain.Finding) int {
	if c := comparePaths(a.FilePath, b.FilePath); c != 0 {
		return c
	}
	if c := compareLines(a.Line, b.Line); c != 0 {
		return c
	}
	if c := strings.Compare(a.FindingText, b.FindingText); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
		return c
	}
	if c := strings.Compare(a.AgentID, b.AgentID); c != 0 {
		return c
	}
	return strings.Compare(a.Reasoning, b.Reasoning)
}

// compareAggregated is the canonical content order for merged findings:
// file path (repo-wide last), line (absent last), descending confidence,
// finding text, agent set.
func compareAggregated(a, b domain.AggregatedFinding) int {
	if c := comparePaths(a.FilePath, b.FilePath); c != 0 {
		return c
	}
	if c := compareLines(a.Line, b.Line); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
		return c
	}
	if c := strings.Compare(a.FindingText, b.FindingText); c != 0 {
		return c
	}
	return strings.Compare(strings.Join(a.Agents, ","), strings.Join(b.Agents, ","))
}

func comparePaths(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}
	return strings.Compare(a, b)
}

func compareLines(a, b int) int {
	if a == b {
		return 0
	}
	if a == 0 {
		return 1
	}
	if b == 0 {
		return -1
	}
	return cmp.Compare(a, b)
}

// textSimilarity is the Jaccard overlap of the normalized token sets of a
// and b: 1.0 for identical sets, 0.0 for disjoint ones. Two empty texts
// count as identical.
func textSimilarity(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(ta)+len(tb)-inter)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
