package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/microreview/internal/config"
	"github.com/microreview/internal/terminal"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage microreview configuration",
		Long:  "View, initialize, and validate the .microreview.yml configuration.",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display resolved configuration",
		Long:  "Show the fully resolved configuration from defaults, config file, and environment variables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			cfg := result.Config

			for _, w := range result.Warnings {
				terminal.Logf(terminal.StyleWarning, "%s", w)
			}

			if result.Path != "" {
				fmt.Printf("Resolved configuration (%s):\n", result.Path)
			} else {
				fmt.Println("Resolved configuration (no config file, built-in defaults):")
			}
			fmt.Println()
			fmt.Printf("  %-24s %s\n", "enabled_agents:", strings.Join(cfg.EnabledAgents, ", "))
			fmt.Printf("  %-24s %.2f\n", "confidence_threshold:", cfg.ConfidenceThreshold)
			fmt.Printf("  %-24s %s\n", "group_by:", cfg.GroupBy)
			fmt.Printf("  %-24s %d\n", "max_findings_per_agent:", cfg.MaxFindingsPerAgent)
			fmt.Printf("  %-24s %s\n", "exclude_paths:", strings.Join(cfg.ExcludePaths, ", "))
			fmt.Printf("  %-24s %s\n", "comment_mode:", cfg.CommentMode)
			fmt.Printf("  %-24s %ds\n", "agent_timeout:", cfg.AgentTimeoutSeconds)
			if cfg.Concurrency > 0 {
				fmt.Printf("  %-24s %d\n", "concurrency:", cfg.Concurrency)
			} else {
				fmt.Printf("  %-24s %s\n", "concurrency:", "(one slot per agent)")
			}
			if cfg.LLM.Provider != "" {
				fmt.Printf("  %-24s %s\n", "llm.provider:", cfg.LLM.Provider)
				fmt.Printf("  %-24s %s\n", "llm.model:", cfg.LLM.Model)
			} else {
				fmt.Printf("  %-24s %s\n", "llm.provider:", "(none, heuristics only)")
			}

			if len(cfg.AgentConfig) > 0 {
				names := make([]string, 0, len(cfg.AgentConfig))
				for name := range cfg.AgentConfig {
					names = append(names, name)
				}
				sort.Strings(names)

				fmt.Println()
				fmt.Println("  Per-agent overrides:")
				for _, name := range names {
					o := cfg.AgentConfig[name]
					parts := []string{}
					if o.ConfidenceThreshold != nil {
						parts = append(parts, fmt.Sprintf("confidence_threshold=%.2f", *o.ConfidenceThreshold))
					}
					if o.MaxFindings != nil {
						parts = append(parts, fmt.Sprintf("max_findings=%d", *o.MaxFindings))
					}
					fmt.Printf("    %-22s %s\n", name+":", strings.Join(parts, ", "))
				}
			}

			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a starter .microreview.yml file",
		Long:  "Create a commented .microreview.yml configuration file in the working directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = config.ConfigFileName
			}

			if err := config.Init(path); err != nil {
				return err
			}

			fmt.Printf("Created %s\n", path)
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and environment overrides",
		Long:  "Load the config file and environment variables, reporting any warnings or errors.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !terminal.IsStdoutTTY() {
				terminal.DisableColors()
			}
			logger := terminal.NewLogger()

			result, err := config.Load(configPath)
			if err != nil {
				logger.Logf(terminal.StyleError, "%v", err)
				return fmt.Errorf("configuration is invalid")
			}

			for _, w := range result.Warnings {
				logger.Logf(terminal.StyleWarning, "%s", w)
			}

			switch {
			case len(result.Warnings) > 0:
				logger.Log("Configuration is valid (with warnings).", terminal.StyleSuccess)
			case result.Path != "":
				logger.Logf(terminal.StyleSuccess, "Configuration is valid (%s).", result.Path)
			default:
				logger.Log("Configuration is valid (no config file, using defaults).", terminal.StyleSuccess)
			}

			return nil
		},
	}
}
