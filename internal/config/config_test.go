package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microreview/internal/llm"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	result, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, result.Path)
	assert.Empty(t, result.Warnings)

	cfg := result.Config
	assert.Equal(t, []string{"hardcoded-credentials", "pii-exposure", "github-actions-security"}, cfg.EnabledAgents)
	assert.Equal(t, 0.8, cfg.ConfidenceThreshold)
	assert.Equal(t, "category", cfg.GroupBy)
	assert.Equal(t, 10, cfg.MaxFindingsPerAgent)
	assert.Equal(t, []string{"tests/", "docs/", "*.md"}, cfg.ExcludePaths)
	assert.Equal(t, "update", cfg.CommentMode)
	assert.Equal(t, 120, cfg.AgentTimeoutSeconds)
	assert.Zero(t, cfg.Concurrency)
	assert.Empty(t, cfg.LLM.Provider)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
enabled_agents:
  - pii-exposure
confidence_threshold: 0.6
group_by: file
max_findings_per_agent: 3
exclude_paths:
  - vendor/
comment_mode: append
agent_timeout_seconds: 30
concurrency: 2
agent_config:
  pii-exposure:
    confidence_threshold: 0.45
    max_findings: 2
llm:
  provider: openai
  model: gpt-4o-mini
  temperature: 0.2
  max_tokens: 1024
  requests_per_second: 2
`)

	result, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, result.Path)
	assert.Empty(t, result.Warnings)

	cfg := result.Config
	assert.Equal(t, []string{"pii-exposure"}, cfg.EnabledAgents)
	assert.Equal(t, 0.6, cfg.ConfidenceThreshold)
	assert.Equal(t, "file", cfg.GroupBy)
	assert.Equal(t, 3, cfg.MaxFindingsPerAgent)
	assert.Equal(t, []string{"vendor/"}, cfg.ExcludePaths)
	assert.Equal(t, "append", cfg.CommentMode)
	assert.Equal(t, 30, cfg.AgentTimeoutSeconds)
	assert.Equal(t, 2, cfg.Concurrency)

	require.Contains(t, cfg.AgentConfig, "pii-exposure")
	override := cfg.AgentConfig["pii-exposure"]
	require.NotNil(t, override.ConfidenceThreshold)
	assert.Equal(t, 0.45, *override.ConfidenceThreshold)
	require.NotNil(t, override.MaxFindings)
	assert.Equal(t, 2, *override.MaxFindings)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
	assert.Equal(t, 2.0, cfg.LLM.RequestsPerSecond)
}

func TestLoadFilePartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "confidence_threshold: 0.9\n")

	result, err := Load(path)
	require.NoError(t, err)

	cfg := result.Config
	assert.Equal(t, 0.9, cfg.ConfidenceThreshold)
	assert.Equal(t, "category", cfg.GroupBy)
	assert.Equal(t, 10, cfg.MaxFindingsPerAgent)
	assert.Equal(t, []string{"tests/", "docs/", "*.md"}, cfg.ExcludePaths)
}

func TestLoadDiscoversConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("group_by: none\n"), 0o644))
	t.Chdir(dir)

	result, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ConfigFileName, result.Path)
	assert.Equal(t, "none", result.Config.GroupBy)
}

func TestLoadExplicitPathMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "enabled_agents: [unclosed\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
}

func TestLoadInvalidValues(t *testing.T) {
	path := writeConfig(t, "confidence_threshold: 1.5\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confidence_threshold")
	assert.Contains(t, err.Error(), path)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "confidence_threshold: 0.5\n")
	t.Setenv("MICROREVIEW_CONFIDENCE_THRESHOLD", "0.95")
	t.Setenv("MICROREVIEW_GROUP_BY", "none")
	t.Setenv("MICROREVIEW_LLM_PROVIDER", "ollama")
	t.Setenv("MICROREVIEW_LLM_MODEL", "qwen2.5-coder")

	result, err := Load(path)
	require.NoError(t, err)

	cfg := result.Config
	assert.Equal(t, 0.95, cfg.ConfidenceThreshold)
	assert.Equal(t, "none", cfg.GroupBy)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "qwen2.5-coder", cfg.LLM.Model)
}

func TestLoadEnvListValue(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MICROREVIEW_ENABLED_AGENTS", "pii-exposure,hardcoded-credentials")

	result, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"pii-exposure", "hardcoded-credentials"}, result.Config.EnabledAgents)
}

func TestLoadWarnsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
confidence_treshold: 0.5
llm:
  provider: ollama
  model: llama3
  temprature: 0.3
agent_config:
  pii-exposur:
    max_findings: 4
`)

	result, err := Load(path)
	require.NoError(t, err)

	require.Len(t, result.Warnings, 3)
	joined := strings.Join(result.Warnings, "\n")
	assert.Contains(t, joined, `unknown key "confidence_treshold"`)
	assert.Contains(t, joined, `did you mean "confidence_threshold"?`)
	assert.Contains(t, joined, `unknown key "temprature"`)
	assert.Contains(t, joined, `did you mean "temperature"?`)
	assert.Contains(t, joined, `unknown key "pii-exposur"`)
	assert.Contains(t, joined, `did you mean "pii-exposure"?`)

	// The misspelled key must not feed the real setting.
	assert.Equal(t, 0.8, result.Config.ConfidenceThreshold)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"threshold too high", func(c *Config) { c.ConfidenceThreshold = 1.5 }, "confidence_threshold"},
		{"threshold negative", func(c *Config) { c.ConfidenceThreshold = -0.1 }, "confidence_threshold"},
		{"bad group_by", func(c *Config) { c.GroupBy = "severity" }, "group_by"},
		{"bad comment_mode", func(c *Config) { c.CommentMode = "replace" }, "comment_mode"},
		{"zero findings cap", func(c *Config) { c.MaxFindingsPerAgent = 0 }, "max_findings_per_agent"},
		{"zero timeout", func(c *Config) { c.AgentTimeoutSeconds = 0 }, "agent_timeout_seconds"},
		{"negative concurrency", func(c *Config) { c.Concurrency = -1 }, "concurrency"},
		{"bad exclude pattern", func(c *Config) { c.ExcludePaths = []string{"["} }, "invalid exclude pattern"},
		{"override threshold out of range", func(c *Config) {
			v := 1.2
			c.AgentConfig = map[string]AgentOverride{"pii-exposure": {ConfidenceThreshold: &v}}
		}, "agent_config.pii-exposure.confidence_threshold"},
		{"override cap zero", func(c *Config) {
			v := 0
			c.AgentConfig = map[string]AgentOverride{"pii-exposure": {MaxFindings: &v}}
		}, "agent_config.pii-exposure.max_findings"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "bedrock" }, "llm.provider"},
		{"provider without model", func(c *Config) { c.LLM.Provider = "openai" }, "llm.model"},
		{"negative rate", func(c *Config) {
			c.LLM = LLMConfig{Provider: "ollama", Model: "llama3", RequestsPerSecond: -1}
		}, "requests_per_second"},
		{"negative max tokens", func(c *Config) {
			c.LLM = LLMConfig{Provider: "ollama", Model: "llama3", MaxTokens: -5}
		}, "max_tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAgentOverrides(t *testing.T) {
	threshold := 0.6
	limit := 3
	cfg := DefaultConfig()
	cfg.AgentConfig = map[string]AgentOverride{
		"pii-exposure": {ConfidenceThreshold: &threshold, MaxFindings: &limit},
	}

	assert.Equal(t, 0.6, cfg.AgentThreshold("pii-exposure"))
	assert.Equal(t, 3, cfg.AgentMaxFindings("pii-exposure"))
	assert.Equal(t, 0.8, cfg.AgentThreshold("hardcoded-credentials"))
	assert.Equal(t, 10, cfg.AgentMaxFindings("hardcoded-credentials"))
}

func TestClientOptions(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-default-env")
	t.Setenv("REVIEW_KEY", "sk-custom-env")

	c := LLMConfig{Provider: "openai", Model: "gpt-4o-mini", Temperature: 0.1, MaxTokens: 512, RequestsPerSecond: 1}
	opts := c.ClientOptions()
	assert.Equal(t, llm.ProviderOpenAI, opts.Provider)
	assert.Equal(t, "gpt-4o-mini", opts.Model)
	assert.Equal(t, "sk-default-env", opts.APIKey)
	assert.Equal(t, 0.1, opts.Temperature)
	assert.Equal(t, 512, opts.MaxTokens)
	assert.Equal(t, 1.0, opts.RequestsPerSecond)

	c.APIKeyEnv = "REVIEW_KEY"
	assert.Equal(t, "sk-custom-env", c.ClientOptions().APIKey)

	local := LLMConfig{Provider: "ollama", Model: "llama3"}
	assert.Empty(t, local.ClientOptions().APIKey)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	require.NoError(t, Init(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "enabled_agents:")
	assert.Contains(t, string(content), "hardcoded-credentials")

	// The generated example must itself load and validate cleanly.
	result, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	err = Init(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestFindSimilar(t *testing.T) {
	assert.Equal(t, "confidence_threshold", findSimilar("confidence_treshold", knownTopLevelKeys))
	assert.Equal(t, "group_by", findSimilar("groupby", knownTopLevelKeys))
	assert.Empty(t, findSimilar("totally_different", knownTopLevelKeys))
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "confidence_threshold", envTransform("MICROREVIEW_CONFIDENCE_THRESHOLD"))
	assert.Equal(t, "llm.max_tokens", envTransform("MICROREVIEW_LLM_MAX_TOKENS"))
	assert.Equal(t, "llm.provider", envTransform("MICROREVIEW_LLM_PROVIDER"))
}
