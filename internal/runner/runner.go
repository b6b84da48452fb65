// Package runner fans the enabled agents out over one diff and collects a
// result per agent. Agent failures, timeouts, and panics are contained in
// the failing agent's result so reduced coverage never aborts the run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/microreview/internal/agent"
	"github.com/microreview/internal/diff"
	"github.com/microreview/internal/domain"
	"github.com/microreview/internal/terminal"
)

// Config holds the runner configuration.
type Config struct {
	// Timeout bounds a single agent run. Zero disables the per-agent timeout.
	Timeout time.Duration
	// Concurrency limits how many agents run at once. Zero or negative means
	// one slot per agent.
	Concurrency int
	// Verbose echoes per-agent completion to the logger.
	Verbose bool
}

// Runner executes agents in parallel against one diff.
type Runner struct {
	config Config
	agents []agent.Agent
	logger *terminal.Logger
}

// New creates a runner. Returns an error if agents slice is empty.
func New(config Config, agents []agent.Agent, logger *terminal.Logger) (*Runner, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("at least one agent is required")
	}
	return &Runner{
		config: config,
		agents: agents,
		logger: logger,
	}, nil
}

// Run executes every agent and returns one result per agent in completion
// order. Completion order does not matter downstream; the pipeline re-orders
// results before aggregation. The returned error reports run-level
// cancellation only.
func (r *Runner) Run(ctx context.Context, files []diff.FileDiff) ([]domain.AgentResult, time.Duration, error) {
	spinner := terminal.NewSpinner(len(r.agents))
	completed := spinner.Completed()

	spinnerCtx, spinnerCancel := context.WithCancel(context.Background())
	spinnerDone := make(chan struct{})
	go func() {
		spinner.Run(spinnerCtx)
		close(spinnerDone)
	}()

	start := time.Now()

	resultCh := make(chan domain.AgentResult, len(r.agents))

	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = len(r.agents)
	}
	sem := make(chan struct{}, concurrency)

	for _, a := range r.agents {
		go func(a agent.Agent) {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				resultCh <- domain.AgentResult{AgentID: a.Name(), Status: domain.AgentSkipped}
				return
			}

			result := r.runAgent(ctx, a, files)

			<-sem

			completed.Add(1)
			resultCh <- result
		}(a)
	}

	results := make([]domain.AgentResult, 0, len(r.agents))
	for range r.agents {
		select {
		case result := <-resultCh:
			results = append(results, result)
		case <-ctx.Done():
			spinnerCancel()
			<-spinnerDone
			return nil, time.Since(start), ctx.Err()
		}
	}

	spinnerCancel()
	<-spinnerDone

	return results, time.Since(start), nil
}

// runAgent executes one agent under the per-agent timeout. A panic inside an
// agent adapter becomes a failed result instead of taking down the process.
func (r *Runner) runAgent(ctx context.Context, a agent.Agent, files []diff.FileDiff) (result domain.AgentResult) {
	start := time.Now()
	result = domain.AgentResult{AgentID: a.Name()}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("agent", a.Name()).Interface("recovered", rec).Msg("agent panicked")
			result.Status = domain.AgentFailed
			result.Findings = nil
			result.Err = fmt.Sprintf("panic: %v", rec)
			result.Duration = time.Since(start)
			r.logger.Logf(terminal.StyleWarning, "Agent %s crashed: %v", a.Name(), rec)
		}
	}()

	runCtx := ctx
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	findings, err := a.Analyze(runCtx, files)
	result.Duration = time.Since(start)

	if err != nil {
		result.Status = domain.AgentFailed
		result.Err = err.Error()
		if errors.Is(err, context.DeadlineExceeded) || runCtx.Err() == context.DeadlineExceeded {
			result.TimedOut = true
			result.Err = fmt.Sprintf("timed out after %v", r.config.Timeout)
		}
		reason := "failed"
		if result.TimedOut {
			reason = "timed out"
		}
		r.logger.Logf(terminal.StyleWarning, "Agent %s %s after %s: %s",
			a.Name(), reason, terminal.FormatDuration(result.Duration), result.Err)
		return result
	}

	result.Status = domain.AgentOK
	result.Findings = findings

	if r.config.Verbose {
		r.logger.Logf(terminal.StyleDim, "Agent %s: %d findings in %s",
			a.Name(), len(findings), terminal.FormatDuration(result.Duration))
	}

	return result
}

// BuildStats folds agent results into run statistics.
func BuildStats(results []domain.AgentResult, wallClock time.Duration) domain.RunStats {
	stats := domain.RunStats{
		TotalAgents:    len(results),
		AgentDurations: make(map[string]time.Duration),
		WallClock:      wallClock,
	}

	for _, r := range results {
		if r.Duration > 0 {
			stats.AgentDurations[r.AgentID] = r.Duration
		}
		switch r.Status {
		case domain.AgentSkipped:
			stats.SkippedAgents = append(stats.SkippedAgents, r.AgentID)
		case domain.AgentFailed:
			stats.FailedAgents = append(stats.FailedAgents, r.AgentID)
			if r.TimedOut {
				stats.TimedOutAgents = append(stats.TimedOutAgents, r.AgentID)
			}
		default:
			stats.Succeeded++
			stats.RawFindings += len(r.Findings)
		}
	}

	slices.Sort(stats.FailedAgents)
	slices.Sort(stats.SkippedAgents)
	slices.Sort(stats.TimedOutAgents)

	return stats
}

// SkippedResult builds the result recorded for an agent that never ran, such
// as an enabled agent with no registered adapter.
func SkippedResult(name string) domain.AgentResult {
	return domain.AgentResult{AgentID: name, Status: domain.AgentSkipped}
}
