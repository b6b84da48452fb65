package main

import (
	"fmt"
	"time"

	"github.com/microreview/internal/agent"
	"github.com/microreview/internal/config"
)

// ReviewOpts bundles the resolved configuration with the CLI-only flags a
// review run needs, so executeReview never reads package-level flag
// variables and stays testable.
type ReviewOpts struct {
	Config *config.Config

	PRNumber string // explicit --pr value, empty means auto-detect
	Local    bool
	BaseRef  string // --local only, empty means auto-detect
	DryRun   bool
	Verbose  bool
	Warnings []string // config load warnings, surfaced in the run report
}

// flagValues carries the raw flag values into applyOverrides. Which of
// them actually apply is decided by the changed callback, so defaults
// never clobber configuration.
type flagValues struct {
	agents      string
	confidence  float64
	groupBy     string
	maxFindings int
	commentMode string
	timeout     time.Duration
	concurrency int
	exclude     []string
}

// applyOverrides layers explicitly set flags on top of the loaded
// configuration. Unknown names in --agents are a hard error, unlike
// unknown agents in the config file which only get skipped.
func applyOverrides(cfg *config.Config, changed func(string) bool, v flagValues) error {
	if changed("agents") {
		names := agent.ParseAgentNames(v.agents)
		if err := agent.ValidateAgentNames(names); err != nil {
			return fmt.Errorf("invalid --agents: %w", err)
		}
		cfg.EnabledAgents = names
	}
	if changed("confidence-threshold") {
		cfg.ConfidenceThreshold = v.confidence
	}
	if changed("group-by") {
		cfg.GroupBy = v.groupBy
	}
	if changed("max-findings") {
		cfg.MaxFindingsPerAgent = v.maxFindings
	}
	if changed("comment-mode") {
		cfg.CommentMode = v.commentMode
	}
	if changed("timeout") {
		cfg.AgentTimeoutSeconds = int(v.timeout.Seconds())
	}
	if changed("concurrency") {
		cfg.Concurrency = v.concurrency
	}
	if len(v.exclude) > 0 {
		cfg.ExcludePaths = append(cfg.ExcludePaths, v.exclude...)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flag value: %w", err)
	}
	return nil
}
