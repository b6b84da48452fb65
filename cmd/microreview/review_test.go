package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/microreview/internal/config"
	"github.com/microreview/internal/domain"
	"github.com/microreview/internal/pipeline"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestPipelineOptions_MapsConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ConfidenceThreshold = 0.9
	cfg.MaxFindingsPerAgent = 4
	cfg.GroupBy = "category"
	cfg.AgentConfig = map[string]config.AgentOverride{
		"pii-exposure": {
			ConfidenceThreshold: floatPtr(0.6),
			MaxFindings:         intPtr(2),
		},
		"hardcoded-credentials": {
			ConfidenceThreshold: floatPtr(0.95),
		},
	}

	opts := pipelineOptions(&cfg)

	if opts.GlobalThreshold != 0.9 {
		t.Errorf("GlobalThreshold = %v, want 0.9", opts.GlobalThreshold)
	}
	if opts.DefaultCap != 4 {
		t.Errorf("DefaultCap = %d, want 4", opts.DefaultCap)
	}
	if opts.GroupBy != domain.GroupByCategory {
		t.Errorf("GroupBy = %q, want %q", opts.GroupBy, domain.GroupByCategory)
	}

	wantThresholds := map[string]float64{
		"pii-exposure":          0.6,
		"hardcoded-credentials": 0.95,
	}
	if diff := cmp.Diff(wantThresholds, opts.AgentThresholds); diff != "" {
		t.Errorf("AgentThresholds mismatch (-want +got):\n%s", diff)
	}

	wantCaps := map[string]int{"pii-exposure": 2}
	if diff := cmp.Diff(wantCaps, opts.AgentCaps); diff != "" {
		t.Errorf("AgentCaps mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineOptions_KeepsDedupeDefaults(t *testing.T) {
	cfg := config.DefaultConfig()

	opts := pipelineOptions(&cfg)
	defaults := pipeline.DefaultOptions()

	if opts.SimilarityThreshold != defaults.SimilarityThreshold {
		t.Errorf("SimilarityThreshold = %v, want default %v", opts.SimilarityThreshold, defaults.SimilarityThreshold)
	}
	if opts.LineProximity != defaults.LineProximity {
		t.Errorf("LineProximity = %d, want default %d", opts.LineProximity, defaults.LineProximity)
	}
}

func TestPipelineOptions_NoOverridesLeavesMapsNil(t *testing.T) {
	cfg := config.DefaultConfig()

	opts := pipelineOptions(&cfg)

	if opts.AgentThresholds != nil {
		t.Errorf("AgentThresholds = %v, want nil without overrides", opts.AgentThresholds)
	}
	if opts.AgentCaps != nil {
		t.Errorf("AgentCaps = %v, want nil without overrides", opts.AgentCaps)
	}
}
