// Package main provides the CLI entry point for MicroReview.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/microreview/internal/config"
	"github.com/microreview/internal/domain"
	"github.com/microreview/internal/terminal"
)

var (
	prNumber        string
	localMode       bool
	baseRef         string
	agentsFlag      string
	confidence      float64
	groupBy         string
	maxFindings     int
	commentMode     string
	excludePatterns []string
	dryRun          bool
	agentTimeout    time.Duration
	concurrency     int
	configPath      string
	noColor         bool
	verbose         bool
)

func main() {
	os.Exit(run())
}

func run() int {
	// Local .env files carry provider API keys during development.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "microreview",
		Short: "Micro-agent code review for pull requests",
		Long: `Run focused micro-agents against a PR diff, aggregate their findings,
and post one synthesized review comment.

Exit codes:
  0 - No findings
  1 - Findings reported
  2 - Error
  130 - Interrupted`,
		RunE:          runReview,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildVersionString(),
	}

	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: .microreview.yml in the working directory)")

	rootCmd.Flags().StringVarP(&prNumber, "pr", "p", "",
		"PR number to review (default: the current branch's open PR)")
	rootCmd.Flags().BoolVarP(&localMode, "local", "l", false,
		"Review the local git diff instead of a PR; nothing is posted")
	rootCmd.Flags().StringVarP(&baseRef, "base", "b", "",
		"Base ref for --local diffs (default: auto-detected default branch)")

	rootCmd.Flags().StringVarP(&agentsFlag, "agents", "a", "",
		"Comma-separated agents to run (overrides enabled_agents)")
	rootCmd.Flags().DurationVarP(&agentTimeout, "timeout", "t", 0,
		"Per-agent timeout (default: 2m, env: MICROREVIEW_AGENT_TIMEOUT_SECONDS)")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0,
		"Max agents running at once (default: all at once)")

	rootCmd.Flags().Float64Var(&confidence, "confidence-threshold", 0,
		"Minimum confidence for findings, 0..1 (default: 0.8)")
	rootCmd.Flags().IntVar(&maxFindings, "max-findings", 0,
		"Max findings kept per agent (default: 10)")
	rootCmd.Flags().StringArrayVar(&excludePatterns, "exclude", nil,
		"Extra exclude path pattern (repeatable, appended to exclude_paths)")

	rootCmd.Flags().StringVar(&groupBy, "group-by", "",
		"Finding grouping: file, category, none (default: category)")
	rootCmd.Flags().StringVar(&commentMode, "comment-mode", "",
		"How repeat runs treat the prior comment: update, append (default: update)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Print the synthesized comment body instead of posting it")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false,
		"Disable colored output")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Verbose progress output")

	rootCmd.AddCommand(newConfigCmd())

	setGroupedUsage(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(exitCodeError); ok {
			return exitErr.code.Int()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return domain.ExitError.Int()
	}

	return 0
}

func runReview(cmd *cobra.Command, _ []string) error {
	if noColor || !terminal.IsStdoutTTY() {
		terminal.DisableColors()
	}
	initLogging(verbose)

	logger := terminal.NewLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr)
		logger.Log("Interrupted, shutting down...", terminal.StyleWarning)
		cancel()
	}()

	if prNumber != "" && localMode {
		logger.Log("--pr and --local are mutually exclusive", terminal.StyleError)
		return exitCode(domain.ExitError)
	}
	if baseRef != "" && !localMode {
		logger.Log("--base only applies with --local", terminal.StyleWarning)
	}

	result, err := config.Load(configPath)
	if err != nil {
		logger.Logf(terminal.StyleError, "Config error: %v", err)
		return exitCode(domain.ExitError)
	}
	cfg := result.Config

	overrides := flagValues{
		agents:      agentsFlag,
		confidence:  confidence,
		groupBy:     groupBy,
		maxFindings: maxFindings,
		commentMode: commentMode,
		timeout:     agentTimeout,
		concurrency: concurrency,
		exclude:     excludePatterns,
	}
	if err := applyOverrides(cfg, cmd.Flags().Changed, overrides); err != nil {
		logger.Logf(terminal.StyleError, "%v", err)
		return exitCode(domain.ExitError)
	}

	code := executeReview(ctx, ReviewOpts{
		Config:   cfg,
		PRNumber: prNumber,
		Local:    localMode,
		BaseRef:  baseRef,
		DryRun:   dryRun,
		Verbose:  verbose,
		Warnings: result.Warnings,
	}, logger)
	return exitCode(code)
}

// initLogging routes the structured logs of the inner packages to stderr,
// stamped with a short run ID so interleaved CI logs stay attributable.
// MICROREVIEW_LOG_LEVEL picks the level; --verbose forces debug.
func initLogging(verbose bool) {
	level := zerolog.WarnLevel
	if env := os.Getenv("MICROREVIEW_LOG_LEVEL"); env != "" {
		if parsed, err := zerolog.ParseLevel(env); err == nil {
			level = parsed
		}
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Str("run_id", uuid.NewString()[:8]).Logger()
}
