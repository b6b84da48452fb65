package agent

import (
	"slices"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		agentName string
		wantErr   bool
	}{
		{
			name:      "credentials agent",
			agentName: "hardcoded-credentials",
			wantErr:   false,
		},
		{
			name:      "pii agent",
			agentName: "pii-exposure",
			wantErr:   false,
		},
		{
			name:      "actions agent",
			agentName: "github-actions-security",
			wantErr:   false,
		},
		{
			name:      "unknown agent",
			agentName: "unknown",
			wantErr:   true,
		},
		{
			name:      "empty agent name",
			agentName: "",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.agentName, nil)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a == nil {
				t.Fatal("expected agent, got nil")
			}
			if got := a.Name(); got != tt.agentName {
				t.Errorf("Name() = %q, want %q", got, tt.agentName)
			}
		})
	}
}

func TestSupportedAgents(t *testing.T) {
	expected := []string{"hardcoded-credentials", "pii-exposure", "github-actions-security"}
	if len(SupportedAgents) != len(expected) {
		t.Errorf("SupportedAgents has %d elements, want %d", len(SupportedAgents), len(expected))
	}

	for _, name := range expected {
		if !slices.Contains(SupportedAgents, name) {
			t.Errorf("SupportedAgents missing %q", name)
		}
	}
}

func TestDefaultAgentsAreSupported(t *testing.T) {
	if err := ValidateAgentNames(DefaultAgents); err != nil {
		t.Errorf("DefaultAgents failed validation: %v", err)
	}
}
