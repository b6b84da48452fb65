// Package pipeline implements the deterministic aggregation pipeline that
// turns raw agent findings into one synthesized review: confidence
// filtering, per-agent caps, duplicate merging, grouping, and rendering.
// Every stage is a pure function; given the same agent results and options
// the rendered body is byte-identical regardless of agent completion order.
package pipeline

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/microreview/internal/domain"
)

// Options tunes the pipeline stages. Construct via DefaultOptions and
// override fields from resolved configuration; the zero value disables
// thresholding, caps, and merging.
type Options struct {
	// GlobalThreshold is the minimum confidence a finding needs to survive,
	// unless the producing agent has an override in AgentThresholds.
	GlobalThreshold float64
	// AgentThresholds maps agent ID to a per-agent confidence threshold.
	AgentThresholds map[string]float64
	// DefaultCap limits how many findings a single agent may contribute
	// after thresholding. Zero or negative means unlimited.
	DefaultCap int
	// AgentCaps maps agent ID to a per-agent findings cap, overriding
	// DefaultCap.
	AgentCaps map[string]int
	// GroupBy selects the display partitioning strategy.
	GroupBy domain.GroupStrategy
	// SimilarityThreshold is the minimum normalized token overlap between
	// two finding texts for them to merge as duplicates.
	SimilarityThreshold float64
	// LineProximity is the maximum line distance between two findings on
	// the same file for them to merge as duplicates.
	LineProximity int
}

// DefaultOptions mirrors the stock .microreview.yml: 0.8 confidence
// threshold, ten findings per agent, category grouping, and the documented
// dedup defaults (0.8 text similarity, 2-line window).
func DefaultOptions() Options {
	return Options{
		GlobalThreshold:     0.8,
		DefaultCap:          10,
		GroupBy:             domain.GroupByCategory,
		SimilarityThreshold: 0.8,
		LineProximity:       2,
	}
}

func (o Options) thresholdFor(agentID string) float64 {
	if t, ok := o.AgentThresholds[agentID]; ok {
		return t
	}
	return o.GlobalThreshold
}

func (o Options) limitFor(agentID string) int {
	if n, ok := o.AgentCaps[agentID]; ok {
		return n
	}
	return o.DefaultCap
}

// Result carries everything one pipeline run produces, including the stage
// counts the caller logs.
type Result struct {
	Review      domain.SynthesizedReview
	Findings    []domain.AggregatedFinding // post-dedup, canonical order
	RawCount    int                        // findings entering the pipeline
	FilteredOut int                        // removed by threshold or cap
	MergedAway  int                        // collapsed into another finding
}

// Run folds agent results into a synthesized review. Failed and skipped
// agents contribute nothing; their reporting is the runner's concern.
// Results are re-ordered by agent ID before processing so that completion
// order never influences the output.
func Run(results []domain.AgentResult, opts Options) Result {
	ordered := slices.Clone(results)
	slices.SortFunc(ordered, func(a, b domain.AgentResult) int {
		return strings.Compare(a.AgentID, b.AgentID)
	})

	var raw []domain.Finding
	for _, r := range ordered {
		if r.Status != domain.AgentOK {
			continue
		}
		raw = append(raw, r.Findings...)
	}
	assertClamped(raw)

	kept := FilterByConfidence(raw, opts)
	aggregated := Deduplicate(kept, opts)
	groups := Group(aggregated, opts.GroupBy)
	review := Synthesize(groups, len(aggregated), domain.DistinctFiles(aggregated), len(kept)-len(aggregated))

	return Result{
		Review:      review,
		Findings:    aggregated,
		RawCount:    len(raw),
		FilteredOut: len(raw) - len(kept),
		MergedAway:  len(kept) - len(aggregated),
	}
}

// assertClamped enforces the normalization contract: adapters clamp
// confidence into [0,1] before findings reach the pipeline. An unclamped
// value here is an upstream bug, not a runtime condition, so it fails loud.
func assertClamped(findings []domain.Finding) {
	for _, f := range findings {
		if math.IsNaN(f.Confidence) || f.Confidence < 0 || f.Confidence > 1 {
			panic(fmt.Sprintf("pipeline: agent %q emitted unclamped confidence %v for %q",
				f.AgentID, f.Confidence, f.FindingText))
		}
	}
}
