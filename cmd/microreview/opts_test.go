package main

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/microreview/internal/config"
)

// changedSet returns a Changed callback reporting the given flag names
// as explicitly set.
func changedSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestApplyOverrides_NoFlagsLeavesConfigAlone(t *testing.T) {
	cfg := config.DefaultConfig()
	want := config.DefaultConfig()

	err := applyOverrides(&cfg, changedSet(), flagValues{
		// Values that would change everything if defaults were applied
		// blindly instead of honoring the changed callback.
		agents:      "bogus",
		confidence:  0.1,
		groupBy:     "nonsense",
		maxFindings: -5,
		timeout:     time.Nanosecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config changed without any flag set (-want +got):\n%s", diff)
	}
}

func TestApplyOverrides_SetsChangedValues(t *testing.T) {
	cfg := config.DefaultConfig()

	err := applyOverrides(&cfg,
		changedSet("agents", "confidence-threshold", "group-by", "max-findings", "comment-mode", "timeout", "concurrency"),
		flagValues{
			agents:      "pii-exposure, hardcoded-credentials",
			confidence:  0.95,
			groupBy:     "file",
			maxFindings: 3,
			commentMode: "append",
			timeout:     3 * time.Minute,
			concurrency: 2,
			exclude:     []string{"vendor/"},
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"pii-exposure", "hardcoded-credentials"}, cfg.EnabledAgents); diff != "" {
		t.Errorf("EnabledAgents mismatch (-want +got):\n%s", diff)
	}
	if cfg.ConfidenceThreshold != 0.95 {
		t.Errorf("ConfidenceThreshold = %v, want 0.95", cfg.ConfidenceThreshold)
	}
	if cfg.GroupBy != "file" {
		t.Errorf("GroupBy = %q, want %q", cfg.GroupBy, "file")
	}
	if cfg.MaxFindingsPerAgent != 3 {
		t.Errorf("MaxFindingsPerAgent = %d, want 3", cfg.MaxFindingsPerAgent)
	}
	if cfg.CommentMode != "append" {
		t.Errorf("CommentMode = %q, want %q", cfg.CommentMode, "append")
	}
	if cfg.AgentTimeoutSeconds != 180 {
		t.Errorf("AgentTimeoutSeconds = %d, want 180", cfg.AgentTimeoutSeconds)
	}
	if cfg.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", cfg.Concurrency)
	}
	if !strings.Contains(strings.Join(cfg.ExcludePaths, " "), "vendor/") {
		t.Errorf("ExcludePaths = %v, want vendor/ appended", cfg.ExcludePaths)
	}
}

func TestApplyOverrides_ExcludeAppendsWithoutFlagChange(t *testing.T) {
	cfg := config.DefaultConfig()
	before := len(cfg.ExcludePaths)

	err := applyOverrides(&cfg, changedSet(), flagValues{exclude: []string{"generated/"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.ExcludePaths) != before+1 {
		t.Fatalf("ExcludePaths length = %d, want %d", len(cfg.ExcludePaths), before+1)
	}
	if cfg.ExcludePaths[len(cfg.ExcludePaths)-1] != "generated/" {
		t.Errorf("last exclude = %q, want %q", cfg.ExcludePaths[len(cfg.ExcludePaths)-1], "generated/")
	}
}

func TestApplyOverrides_UnknownAgentIsHardError(t *testing.T) {
	cfg := config.DefaultConfig()

	err := applyOverrides(&cfg, changedSet("agents"), flagValues{agents: "hardcoded-credentials,definitely-not-an-agent"})
	if err == nil {
		t.Fatal("expected error for unknown agent name, got nil")
	}
	if !strings.Contains(err.Error(), "invalid --agents") {
		t.Errorf("error %q should mention invalid --agents", err)
	}
	if !strings.Contains(err.Error(), "definitely-not-an-agent") {
		t.Errorf("error %q should name the unknown agent", err)
	}
}

func TestApplyOverrides_InvalidValueIsHardError(t *testing.T) {
	cfg := config.DefaultConfig()

	err := applyOverrides(&cfg, changedSet("confidence-threshold"), flagValues{confidence: 1.5})
	if err == nil {
		t.Fatal("expected error for out-of-range threshold, got nil")
	}
	if !strings.Contains(err.Error(), "invalid flag value") {
		t.Errorf("error %q should mention invalid flag value", err)
	}
}

func TestApplyOverrides_TimeoutConvertsToSeconds(t *testing.T) {
	cfg := config.DefaultConfig()

	err := applyOverrides(&cfg, changedSet("timeout"), flagValues{timeout: 90 * time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AgentTimeoutSeconds != 90 {
		t.Errorf("AgentTimeoutSeconds = %d, want 90", cfg.AgentTimeoutSeconds)
	}
}
