package agent

import (
	"context"

	"github.com/microreview/internal/diff"
	"github.com/microreview/internal/domain"
)

// Agent analyzes changed files and reports findings for one review policy.
// Implementations must be safe for concurrent use; the runner invokes each
// agent on its own goroutine.
type Agent interface {
	// Name returns the agent's stable identifier, e.g. "hardcoded-credentials".
	Name() string

	// Analyze inspects the changed files and returns zero or more findings.
	// Returned findings carry the agent's ID and a confidence clamped to [0,1].
	// The error return is reserved for context cancellation; per-file model
	// failures degrade to heuristic analysis instead of failing the agent.
	Analyze(ctx context.Context, files []diff.FileDiff) ([]domain.Finding, error)
}
