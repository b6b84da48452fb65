package agent

import (
	"fmt"
	"strings"

	"github.com/microreview/internal/llm"
)

// SupportedAgents lists all built-in agent names.
var SupportedAgents = []string{"hardcoded-credentials", "pii-exposure", "github-actions-security"}

// DefaultAgents are the agents enabled when configuration does not name any.
var DefaultAgents = []string{"hardcoded-credentials", "pii-exposure", "github-actions-security"}

// New creates an Agent by name. A nil client selects heuristics-only analysis.
func New(name string, client *llm.Client) (Agent, error) {
	var c completer
	if client != nil {
		c = client
	}

	switch name {
	case "hardcoded-credentials":
		return &policyAgent{policy: credentialsPolicy, client: c, heuristic: newCredScanner().scan}, nil
	case "pii-exposure":
		return &policyAgent{policy: piiPolicy, client: c, heuristic: scanPII}, nil
	case "github-actions-security":
		return &policyAgent{policy: actionsPolicy, client: c, heuristic: scanWorkflows, workflowOnly: true}, nil
	default:
		return nil, fmt.Errorf("unknown agent %q, supported: %s", name, strings.Join(SupportedAgents, ", "))
	}
}
