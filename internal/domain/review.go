package domain

// GroupStrategy selects how surviving findings are partitioned for display.
type GroupStrategy string

const (
	// GroupByFile buckets findings per file path, in first-occurrence order.
	GroupByFile GroupStrategy = "file"
	// GroupByCategory buckets findings per category with a fixed severity
	// ordering, security first.
	GroupByCategory GroupStrategy = "category"
	// GroupNone renders all findings as one list by descending confidence.
	GroupNone GroupStrategy = "none"
)

// CommentMode selects how repeated runs on the same PR interact with the
// previously posted review comment.
type CommentMode string

const (
	// CommentModeUpdate edits the prior MicroReview comment in place so the
	// PR carries exactly one review comment.
	CommentModeUpdate CommentMode = "update"
	// CommentModeAppend posts a fresh comment on every run with findings.
	CommentModeAppend CommentMode = "append"
)

// RenderedGroup is one display bucket of the synthesized review, in the
// order the grouper emitted it.
type RenderedGroup struct {
	Label    string
	Findings []AggregatedFinding
}

// SynthesizedReview is the rendered output of one pipeline run. It is
// constructed once, consumed by the comment reconciler, and discarded.
type SynthesizedReview struct {
	SummaryLine string
	Groups      []RenderedGroup
	Body        string
	IsEmpty     bool // true iff no finding survived filtering and dedup
}

// CommentAction is the reconciler's verdict on what to do with the review.
type CommentAction string

const (
	ActionCreate CommentAction = "create"
	ActionUpdate CommentAction = "update"
	ActionSkip   CommentAction = "skip"
)

// CommentDecision tells the posting layer what to do. TargetCommentID is
// the caller-supplied prior comment identifier, set only for ActionUpdate.
// Body is empty for ActionSkip.
type CommentDecision struct {
	Action          CommentAction
	TargetCommentID string
	Body            string
}
