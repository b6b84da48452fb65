// Package config provides .microreview.yml loading and validation.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/microreview/internal/agent"
	"github.com/microreview/internal/diff"
	"github.com/microreview/internal/llm"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = ".microreview.yml"

// envPrefix namespaces the environment variables that override config values.
const envPrefix = "MICROREVIEW_"

// AgentOverride carries per-agent settings that take precedence over the
// global threshold and findings cap.
type AgentOverride struct {
	ConfidenceThreshold *float64 `koanf:"confidence_threshold"`
	MaxFindings         *int     `koanf:"max_findings"`
}

// LLMConfig selects and tunes the model provider behind the agents. An empty
// provider runs every agent on its heuristic layer only.
type LLMConfig struct {
	Provider          string  `koanf:"provider"`
	Model             string  `koanf:"model"`
	APIKeyEnv         string  `koanf:"api_key_env"`
	BaseURL           string  `koanf:"base_url"`
	Temperature       float64 `koanf:"temperature"`
	MaxTokens         int     `koanf:"max_tokens"`
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// Config is the fully layered MicroReview configuration: defaults, then
// .microreview.yml, then MICROREVIEW_* environment variables. Flags are
// applied on top by the command layer.
type Config struct {
	EnabledAgents       []string                 `koanf:"enabled_agents"`
	ConfidenceThreshold float64                  `koanf:"confidence_threshold"`
	GroupBy             string                   `koanf:"group_by"`
	MaxFindingsPerAgent int                      `koanf:"max_findings_per_agent"`
	ExcludePaths        []string                 `koanf:"exclude_paths"`
	CommentMode         string                   `koanf:"comment_mode"`
	AgentConfig         map[string]AgentOverride `koanf:"agent_config"`
	AgentTimeoutSeconds int                      `koanf:"agent_timeout_seconds"`
	Concurrency         int                      `koanf:"concurrency"`
	LLM                 LLMConfig                `koanf:"llm"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		EnabledAgents:       slices.Clone(agent.DefaultAgents),
		ConfidenceThreshold: 0.8,
		GroupBy:             "category",
		MaxFindingsPerAgent: 10,
		ExcludePaths:        []string{"tests/", "docs/", "*.md"},
		CommentMode:         "update",
		AgentTimeoutSeconds: 120,
		Concurrency:         0, // one slot per agent
	}
}

func defaultMap() map[string]interface{} {
	d := DefaultConfig()
	return map[string]interface{}{
		"enabled_agents":         d.EnabledAgents,
		"confidence_threshold":   d.ConfidenceThreshold,
		"group_by":               d.GroupBy,
		"max_findings_per_agent": d.MaxFindingsPerAgent,
		"exclude_paths":          d.ExcludePaths,
		"comment_mode":           d.CommentMode,
		"agent_timeout_seconds":  d.AgentTimeoutSeconds,
		"concurrency":            d.Concurrency,
	}
}

// LoadResult contains the layered config, the file it came from (empty when
// running on defaults), and warnings for unknown keys.
type LoadResult struct {
	Config   *Config
	Path     string
	Warnings []string
}

// Load layers configuration from defaults, a config file, and environment
// variables. An explicit path must exist and parse; with an empty path the
// default file names are probed and silently skipped when absent.
func Load(path string) (*LoadResult, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	result := &LoadResult{}

	if path != "" {
		warnings, err := loadFile(k, path)
		if err != nil {
			return nil, err
		}
		result.Path = path
		result.Warnings = warnings
	} else {
		for _, candidate := range []string{ConfigFileName, ".microreview.yaml"} {
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			warnings, err := loadFile(k, candidate)
			if err != nil {
				return nil, err
			}
			result.Path = candidate
			result.Warnings = warnings
			break
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		if result.Path != "" {
			return nil, fmt.Errorf("%s: %w", result.Path, err)
		}
		return nil, err
	}

	result.Config = &cfg
	return result, nil
}

// loadFile loads one YAML file into k and returns unknown-key warnings.
func loadFile(k *koanf.Koanf, path string) ([]string, error) {
	kf := koanf.New(".")
	if err := kf.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	warnings := checkUnknownKeys(kf.Raw(), path)

	if err := k.Merge(kf); err != nil {
		return nil, fmt.Errorf("merging %s: %w", path, err)
	}
	return warnings, nil
}

// envTransform maps MICROREVIEW_* variables onto config keys. Top-level keys
// keep their underscores (MICROREVIEW_CONFIDENCE_THRESHOLD); the llm block is
// addressed as MICROREVIEW_LLM_<FIELD>.
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if rest, ok := strings.CutPrefix(key, "llm_"); ok {
		return "llm." + rest
	}
	return key
}

// knownTopLevelKeys are the valid top-level keys in the config file.
var knownTopLevelKeys = []string{
	"enabled_agents", "confidence_threshold", "group_by", "max_findings_per_agent",
	"exclude_paths", "comment_mode", "agent_config", "agent_timeout_seconds",
	"concurrency", "llm",
}

// knownLLMKeys are the valid keys under the "llm" section.
var knownLLMKeys = []string{
	"provider", "model", "api_key_env", "base_url", "temperature", "max_tokens",
	"requests_per_second",
}

// knownAgentOverrideKeys are the valid keys under each agent_config entry.
var knownAgentOverrideKeys = []string{"confidence_threshold", "max_findings"}

// checkUnknownKeys reports unknown keys in the parsed file so typos surface
// as warnings instead of silently ignored settings.
func checkUnknownKeys(raw map[string]interface{}, path string) []string {
	var warnings []string

	warn := func(key, section string, known []string) {
		where := path
		if section != "" {
			where = fmt.Sprintf("%s section of %s", section, path)
		}
		warning := fmt.Sprintf("unknown key %q in %s", key, where)
		if suggestion := findSimilar(key, known); suggestion != "" {
			warning += fmt.Sprintf(" (did you mean %q?)", suggestion)
		}
		warnings = append(warnings, warning)
	}

	for key := range raw {
		if !slices.Contains(knownTopLevelKeys, key) {
			warn(key, "", knownTopLevelKeys)
		}
	}

	if llmSection, ok := raw["llm"].(map[string]interface{}); ok {
		for key := range llmSection {
			if !slices.Contains(knownLLMKeys, key) {
				warn(key, "llm", knownLLMKeys)
			}
		}
	}

	if agentSection, ok := raw["agent_config"].(map[string]interface{}); ok {
		for name, overrides := range agentSection {
			if !slices.Contains(agent.SupportedAgents, name) {
				warn(name, "agent_config", agent.SupportedAgents)
			}
			if m, ok := overrides.(map[string]interface{}); ok {
				for key := range m {
					if !slices.Contains(knownAgentOverrideKeys, key) {
						warn(key, "agent_config."+name, knownAgentOverrideKeys)
					}
				}
			}
		}
	}

	return warnings
}

// findSimilar finds the most similar string from candidates using Levenshtein
// distance. Returns empty string if no candidate is similar enough
// (threshold: 3 edits).
func findSimilar(input string, candidates []string) string {
	const maxDistance = 3
	bestMatch := ""
	bestDistance := maxDistance + 1

	for _, candidate := range candidates {
		dist := levenshtein(input, candidate)
		if dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshtein calculates the Levenshtein distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	matrix := make([][]int, len(ra)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(rb)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(ra)][len(rb)]
}

var validProviders = []string{"", "openai", "anthropic", "googleai", "ollama"}

// Validate checks that all config values are usable before a run starts.
func (c *Config) Validate() error {
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be between 0.0 and 1.0, got %v", c.ConfidenceThreshold)
	}
	if c.GroupBy != "file" && c.GroupBy != "category" && c.GroupBy != "none" {
		return fmt.Errorf("group_by must be 'file', 'category', or 'none', got %q", c.GroupBy)
	}
	if c.CommentMode != "update" && c.CommentMode != "append" {
		return fmt.Errorf("comment_mode must be 'update' or 'append', got %q", c.CommentMode)
	}
	if c.MaxFindingsPerAgent <= 0 {
		return fmt.Errorf("max_findings_per_agent must be positive, got %d", c.MaxFindingsPerAgent)
	}
	if c.AgentTimeoutSeconds <= 0 {
		return fmt.Errorf("agent_timeout_seconds must be positive, got %d", c.AgentTimeoutSeconds)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be >= 0, got %d", c.Concurrency)
	}

	if _, err := diff.NewMatcher(c.ExcludePaths); err != nil {
		return err
	}

	for name, override := range c.AgentConfig {
		if override.ConfidenceThreshold != nil {
			if t := *override.ConfidenceThreshold; t < 0 || t > 1 {
				return fmt.Errorf("agent_config.%s.confidence_threshold must be between 0.0 and 1.0, got %v", name, t)
			}
		}
		if override.MaxFindings != nil && *override.MaxFindings <= 0 {
			return fmt.Errorf("agent_config.%s.max_findings must be positive, got %d", name, *override.MaxFindings)
		}
	}

	if !slices.Contains(validProviders, c.LLM.Provider) {
		return fmt.Errorf("llm.provider must be one of openai, anthropic, googleai, ollama, got %q", c.LLM.Provider)
	}
	if c.LLM.Provider != "" && c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required when llm.provider is set")
	}
	if c.LLM.RequestsPerSecond < 0 {
		return fmt.Errorf("llm.requests_per_second must be >= 0, got %v", c.LLM.RequestsPerSecond)
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens must be >= 0, got %d", c.LLM.MaxTokens)
	}

	return nil
}

// AgentThreshold returns the confidence threshold for one agent, falling back
// to the global threshold.
func (c *Config) AgentThreshold(name string) float64 {
	if override, ok := c.AgentConfig[name]; ok && override.ConfidenceThreshold != nil {
		return *override.ConfidenceThreshold
	}
	return c.ConfidenceThreshold
}

// AgentMaxFindings returns the findings cap for one agent, falling back to
// the global cap.
func (c *Config) AgentMaxFindings(name string) int {
	if override, ok := c.AgentConfig[name]; ok && override.MaxFindings != nil {
		return *override.MaxFindings
	}
	return c.MaxFindingsPerAgent
}

// ClientOptions converts the llm block into client options, resolving the API
// key from the configured environment variable or the provider's usual one.
func (c LLMConfig) ClientOptions() llm.Options {
	keyEnv := c.APIKeyEnv
	if keyEnv == "" {
		keyEnv = defaultKeyEnv(c.Provider)
	}

	key := ""
	if keyEnv != "" {
		key = os.Getenv(keyEnv)
	}

	return llm.Options{
		Provider:          llm.Provider(c.Provider),
		Model:             c.Model,
		APIKey:            key,
		BaseURL:           c.BaseURL,
		Temperature:       c.Temperature,
		MaxTokens:         c.MaxTokens,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}

func defaultKeyEnv(provider string) string {
	switch provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "googleai":
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}

// exampleConfig is written by Init.
const exampleConfig = `# MicroReview configuration

enabled_agents:
  - hardcoded-credentials
  - pii-exposure
  - github-actions-security

confidence_threshold: 0.8
group_by: category # file, category, none
max_findings_per_agent: 10
comment_mode: update # update, append

exclude_paths:
  - tests/
  - docs/
  - "*.md"

agent_config:
  hardcoded-credentials:
    confidence_threshold: 0.8
    max_findings: 5
  pii-exposure:
    confidence_threshold: 0.7
    max_findings: 8

# agent_timeout_seconds: 120
# concurrency: 0 # 0 means one slot per agent

# Without an llm block agents run on their heuristic layer only.
# llm:
#   provider: openai # openai, anthropic, googleai, ollama
#   model: gpt-4o-mini
#   api_key_env: OPENAI_API_KEY
#   temperature: 0.1
`

// Init writes an example configuration file. Refuses to overwrite.
func Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists at %s", path)
	}
	return os.WriteFile(path, []byte(exampleConfig), 0o644)
}
