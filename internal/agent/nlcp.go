package agent

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/microreview/internal/diff"
	"github.com/microreview/internal/domain"
)

// completer is the model surface a policy agent needs. *llm.Client satisfies
// it; tests substitute a local fake.
type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Policy is a natural-language code policy: one review question asked of every
// change, with background prose that pins down what counts as a violation.
type Policy struct {
	// ID is the stable agent identifier, e.g. "hardcoded-credentials".
	ID string

	// Category is stamped on findings that do not carry their own.
	Category string

	// Question is the single review question the agent enforces.
	Question string

	// Background explains intent and names example violations. It is part of
	// the model prompt verbatim.
	Background string
}

// heuristicFunc produces findings for one file without calling a model.
// Implementations fill every Finding field except AgentID.
type heuristicFunc func(file diff.FileDiff) []domain.Finding

// policyAgent enforces a single Policy over the changed files. With a model
// client configured the policy question is put to the model per file; the
// heuristic layer covers files whose model call fails, or the entire run when
// no client is configured.
type policyAgent struct {
	policy       Policy
	client       completer
	heuristic    heuristicFunc
	workflowOnly bool
}

func (a *policyAgent) Name() string { return a.policy.ID }

func (a *policyAgent) Analyze(ctx context.Context, files []diff.FileDiff) ([]domain.Finding, error) {
	var findings []domain.Finding

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.IsBinary || f.IsDeleted {
			continue
		}
		if a.workflowOnly && !isWorkflowFile(f.Path) {
			continue
		}

		fileFindings, err := a.analyzeFile(ctx, f)
		if err != nil {
			return nil, err
		}
		findings = append(findings, fileFindings...)
	}

	for i := range findings {
		findings[i].AgentID = a.policy.ID
		if findings[i].Category == "" {
			findings[i].Category = a.policy.Category
		}
		findings[i].Confidence = clamp01(findings[i].Confidence)
	}

	return findings, nil
}

// analyzeFile prefers the model and falls back to heuristics, so one bad model
// reply reduces depth for a single file rather than failing the agent.
func (a *policyAgent) analyzeFile(ctx context.Context, f diff.FileDiff) ([]domain.Finding, error) {
	if a.client == nil {
		return a.heuristic(f), nil
	}

	reply, err := a.client.Complete(ctx, buildPolicyPrompt(a.policy, f))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn().
			Err(err).
			Str("agent", a.policy.ID).
			Str("file", f.Path).
			Msg("model analysis failed, using heuristics for this file")
		return a.heuristic(f), nil
	}

	return parseModelFindings(reply, a.policy, f.Path), nil
}
