package agent

import (
	"fmt"
	"slices"
	"strings"

	"github.com/microreview/internal/llm"
)

// ParseAgentNames splits a comma-separated agent string into a slice of names.
// Handles whitespace trimming. Returns the default agent set if input is empty.
func ParseAgentNames(input string) []string {
	if input == "" {
		return slices.Clone(DefaultAgents)
	}

	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name != "" {
			result = append(result, name)
		}
	}

	if len(result) == 0 {
		return slices.Clone(DefaultAgents)
	}

	return result
}

// ValidateAgentNames checks that all agent names are supported.
// Returns an error listing unsupported agents.
func ValidateAgentNames(names []string) error {
	var invalid []string
	for _, name := range names {
		if !slices.Contains(SupportedAgents, name) {
			invalid = append(invalid, name)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("unsupported agent(s): %s (supported: %v)",
			strings.Join(invalid, ", "), SupportedAgents)
	}

	return nil
}

// BuildAgents creates Agent instances for every supported name and
// returns the unsupported names separately. Config files may enable
// agents this build does not ship; those are reported rather than
// aborting the run. Duplicate names reuse the same instance.
func BuildAgents(names []string, client *llm.Client) ([]Agent, []string) {
	agents := make([]Agent, 0, len(names))
	seen := make(map[string]Agent)
	var unknown []string

	for _, name := range names {
		if existing, ok := seen[name]; ok {
			agents = append(agents, existing)
			continue
		}

		a, err := New(name, client)
		if err != nil {
			if !slices.Contains(unknown, name) {
				unknown = append(unknown, name)
			}
			continue
		}

		seen[name] = a
		agents = append(agents, a)
	}

	return agents, unknown
}
