package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/microreview/internal/agent"
	"github.com/microreview/internal/config"
	"github.com/microreview/internal/diff"
	"github.com/microreview/internal/domain"
	"github.com/microreview/internal/git"
	"github.com/microreview/internal/github"
	"github.com/microreview/internal/llm"
	"github.com/microreview/internal/pipeline"
	"github.com/microreview/internal/runner"
	"github.com/microreview/internal/terminal"
)

func executeReview(ctx context.Context, opts ReviewOpts, logger *terminal.Logger) domain.ExitCode {
	cfg := opts.Config

	rawDiff, prNum, code := acquireDiff(ctx, opts, logger)
	if code != domain.ExitNoFindings {
		return code
	}

	prDiff := diff.Parse(rawDiff)
	if prDiff.IsEmpty() {
		logger.Log("No changes to review.", terminal.StyleSuccess)
		return domain.ExitNoFindings
	}

	matcher, err := diff.NewMatcher(cfg.ExcludePaths)
	if err != nil {
		logger.Logf(terminal.StyleError, "Invalid exclude pattern: %v", err)
		return domain.ExitError
	}
	files := matcher.Apply(prDiff.Files)
	if opts.Verbose && len(files) < len(prDiff.Files) {
		logger.Logf(terminal.StyleDim, "Excluded %d file(s) by path pattern", len(prDiff.Files)-len(files))
	}
	if len(files) == 0 {
		logger.Log("All changed files match exclude patterns. Nothing to review.", terminal.StyleSuccess)
		return domain.ExitNoFindings
	}
	if opts.Verbose {
		added := 0
		for _, f := range files {
			added += f.AddedCount
		}
		logger.Logf(terminal.StyleDim, "Analyzing %d file(s), %d added line(s)", len(files), added)
	}

	client := buildClient(ctx, cfg, opts.Verbose, logger)

	agents, unknown := agent.BuildAgents(cfg.EnabledAgents, client)
	for _, name := range unknown {
		logger.Logf(terminal.StyleWarning, "Unknown agent %q in configuration, skipping", name)
	}
	if len(agents) == 0 {
		logger.Log("No runnable agents configured", terminal.StyleError)
		return domain.ExitError
	}

	r, err := runner.New(runner.Config{
		Timeout:     time.Duration(cfg.AgentTimeoutSeconds) * time.Second,
		Concurrency: cfg.Concurrency,
		Verbose:     opts.Verbose,
	}, agents, logger)
	if err != nil {
		logger.Logf(terminal.StyleError, "Runner initialization failed: %v", err)
		return domain.ExitError
	}

	results, wallClock, err := r.Run(ctx, files)
	if err != nil {
		if ctx.Err() != nil {
			return domain.ExitInterrupted
		}
		logger.Logf(terminal.StyleError, "Review failed: %v", err)
		return domain.ExitError
	}

	// Agents the config named but this build does not ship still show up
	// in the stats, so reduced coverage is visible.
	for _, name := range unknown {
		results = append(results, runner.SkippedResult(name))
	}

	stats := runner.BuildStats(results, wallClock)
	if stats.AllFailed() {
		logger.Log("All agents failed or were skipped", terminal.StyleError)
		return domain.ExitError
	}

	pipeResult := pipeline.Run(results, pipelineOptions(cfg))

	fmt.Fprintln(os.Stderr, runner.RenderRunReport(pipeResult, stats, opts.Warnings))

	if opts.DryRun {
		// The body goes to stdout so it can be piped or inspected.
		fmt.Println(pipeResult.Review.Body)
	} else if !opts.Local {
		if code := postReview(ctx, prNum, pipeResult.Review, cfg, logger); code != domain.ExitNoFindings {
			return code
		}
	}

	if pipeResult.Review.IsEmpty {
		return domain.ExitNoFindings
	}
	return domain.ExitFindings
}

// acquireDiff fetches the diff text for the run: the PR diff via gh, or
// the local working-tree diff against the base ref with --local. The
// returned code is ExitNoFindings on success.
func acquireDiff(ctx context.Context, opts ReviewOpts, logger *terminal.Logger) (string, string, domain.ExitCode) {
	if opts.Local {
		if err := git.EnsureRepo(ctx, ""); err != nil {
			logger.Logf(terminal.StyleError, "%v", err)
			return "", "", domain.ExitError
		}

		base := opts.BaseRef
		if base == "" {
			base = git.ResolveBaseBranch(ctx, "")
		}
		logger.Logf(terminal.StyleInfo, "Reviewing local changes %s(base=%s)%s",
			terminal.Color(terminal.Dim), base, terminal.Color(terminal.Reset))

		rawDiff, err := git.GetDiff(ctx, base, "")
		if err != nil {
			logger.Logf(terminal.StyleError, "Failed to get diff: %v", err)
			return "", "", domain.ExitError
		}
		return rawDiff, "", domain.ExitNoFindings
	}

	if err := github.CheckGHAvailable(); err != nil {
		logger.Logf(terminal.StyleError, "Reviewing a PR requires the gh CLI: %v", err)
		return "", "", domain.ExitError
	}

	prNum := opts.PRNumber
	if prNum == "" {
		detected, err := github.GetCurrentPRNumber(ctx, "")
		if err != nil {
			switch {
			case errors.Is(err, github.ErrNoPRFound):
				logger.Log("No open pull request for the current branch. Use --pr or --local.", terminal.StyleError)
			case errors.Is(err, github.ErrAuthFailed):
				logger.Log("GitHub authentication failed. Run 'gh auth login' first.", terminal.StyleError)
			default:
				logger.Logf(terminal.StyleError, "Could not resolve pull request: %v", err)
			}
			return "", "", domain.ExitError
		}
		prNum = detected
	}

	logger.Logf(terminal.StyleInfo, "Reviewing PR %s#%s%s",
		terminal.Color(terminal.Bold), prNum, terminal.Color(terminal.Reset))

	rawDiff, err := github.GetPRDiff(ctx, prNum)
	if err != nil {
		if errors.Is(err, github.ErrNoPRFound) {
			logger.Logf(terminal.StyleError, "PR #%s not found", prNum)
		} else {
			logger.Logf(terminal.StyleError, "Failed to fetch PR diff: %v", err)
		}
		return "", "", domain.ExitError
	}
	return rawDiff, prNum, domain.ExitNoFindings
}

// buildClient creates the model client when a provider is configured.
// A nil return is valid and runs every agent on its heuristic layer.
func buildClient(ctx context.Context, cfg *config.Config, verbose bool, logger *terminal.Logger) *llm.Client {
	if cfg.LLM.Provider == "" {
		return nil
	}

	client, err := llm.New(ctx, cfg.LLM.ClientOptions())
	if err != nil {
		logger.Logf(terminal.StyleWarning, "LLM client unavailable (%v); running heuristics only", err)
		return nil
	}
	if verbose {
		logger.Logf(terminal.StyleDim, "Using %s model %s", cfg.LLM.Provider, cfg.LLM.Model)
	}
	return client
}

// postReview reconciles the synthesized review against the PR's prior
// MicroReview comment and posts the decision.
func postReview(ctx context.Context, prNum string, review domain.SynthesizedReview, cfg *config.Config, logger *terminal.Logger) domain.ExitCode {
	mode := domain.CommentMode(cfg.CommentMode)

	// Only update mode cares about the prior comment. A failed lookup
	// degrades to posting a fresh comment rather than aborting the run.
	priorID := ""
	if mode == domain.CommentModeUpdate {
		id, err := github.FindReviewComment(ctx, prNum, pipeline.CommentMarker)
		if err != nil {
			if ctx.Err() != nil {
				return domain.ExitInterrupted
			}
			logger.Logf(terminal.StyleWarning, "Could not list existing comments: %v", err)
		} else {
			priorID = id
		}
	}

	decision := pipeline.Reconcile(review, priorID, mode)
	if decision.Action == domain.ActionSkip {
		logger.Log("No comment posted (nothing to report)", terminal.StyleDim)
		return domain.ExitNoFindings
	}

	spinner := terminal.NewPhaseSpinner("Posting review comment")
	spinnerCtx, spinnerCancel := context.WithCancel(context.Background())
	spinnerDone := make(chan struct{})
	go func() {
		spinner.Run(spinnerCtx)
		close(spinnerDone)
	}()

	err := github.Post(ctx, prNum, decision)
	spinnerCancel()
	<-spinnerDone

	if err != nil {
		if ctx.Err() != nil {
			return domain.ExitInterrupted
		}
		logger.Logf(terminal.StyleError, "Failed to post review comment: %v", err)
		return domain.ExitError
	}

	if decision.Action == domain.ActionUpdate {
		logger.Log("Updated the existing review comment", terminal.StyleSuccess)
	} else {
		logger.Logf(terminal.StyleSuccess, "Posted review comment on PR #%s", prNum)
	}
	return domain.ExitNoFindings
}

// pipelineOptions maps the resolved configuration onto pipeline options.
func pipelineOptions(cfg *config.Config) pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.GlobalThreshold = cfg.ConfidenceThreshold
	opts.DefaultCap = cfg.MaxFindingsPerAgent
	opts.GroupBy = domain.GroupStrategy(cfg.GroupBy)

	for name, o := range cfg.AgentConfig {
		if o.ConfidenceThreshold != nil {
			if opts.AgentThresholds == nil {
				opts.AgentThresholds = make(map[string]float64)
			}
			opts.AgentThresholds[name] = *o.ConfidenceThreshold
		}
		if o.MaxFindings != nil {
			if opts.AgentCaps == nil {
				opts.AgentCaps = make(map[string]int)
			}
			opts.AgentCaps[name] = *o.MaxFindings
		}
	}
	return opts
}
