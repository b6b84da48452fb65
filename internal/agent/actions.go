package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/microreview/internal/diff"
	"github.com/microreview/internal/domain"
)

// workflowRule is one GitHub Actions risk archetype with its trigger patterns.
// Rules are held in a slice so scan order, and therefore finding order, is
// fixed.
type workflowRule struct {
	risk     string
	patterns []*regexp.Regexp
}

var workflowRules = []workflowRule{
	{risk: "untrusted-action", patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)uses:\s*[^@\s]+(?:@(?:main|master|develop|latest))?(?:\s|$)`),
		regexp.MustCompile(`(?i)uses:\s*[^@\s]+@[a-f0-9]{7}(?:\s|$)`),
	}},
	{risk: "secrets-exposure", patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)echo\s+\$\{\{\s*secrets\.`),
		regexp.MustCompile(`(?i)env:\s*[^:]+:\s*\$\{\{\s*secrets\.`),
		regexp.MustCompile(`(?i)run:.*secrets\.`),
	}},
	{risk: "unsafe-run", patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)run:.*\$\{\{\s*github\.event\.pull_request\.title`),
		regexp.MustCompile(`(?i)run:.*\$\{\{\s*github\.event\.pull_request\.body`),
		regexp.MustCompile(`(?i)run:.*\$\{\{\s*github\.event\.head_commit\.message`),
		regexp.MustCompile(`(?i)shell:\s*bash.*-c.*\$\{`),
	}},
	{risk: "privilege-escalation", patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)permissions:\s*write-all`),
		regexp.MustCompile(`(?i)contents:\s*write`),
		regexp.MustCompile(`(?i)actions:\s*write`),
		regexp.MustCompile(`(?i)GITHUB_TOKEN.*trigger`),
	}},
	{risk: "pull-request-target", patterns: []*regexp.Regexp{
		regexp.MustCompile(`(?i)on:\s*pull_request_target`),
		regexp.MustCompile(`(?i)pull_request_target:.*types:.*\[.*opened.*\]`),
	}},
}

var workflowRiskDescriptions = map[string]string{
	"untrusted-action":     "Untrusted or mutable third-party action",
	"secrets-exposure":     "Potential secrets exposure",
	"unsafe-run":           "Unsafe run command with user input",
	"privilege-escalation": "Excessive permissions or privilege escalation",
	"pull-request-target":  "Insecure pull_request_target usage",
}

var workflowRiskBase = map[string]float64{
	"untrusted-action":     0.8,
	"secrets-exposure":     0.9,
	"unsafe-run":           0.85,
	"privilege-escalation": 0.8,
	"pull-request-target":  0.9,
}

var workflowExplanations = map[string][]string{
	"untrusted-action": {
		"Mutable references (latest, main, master) and short commit hashes let the action code change unexpectedly",
		"This creates a supply chain risk",
	},
	"secrets-exposure": {
		"Secrets should never be logged, echoed, or otherwise written to output",
		"A leaked build log would expose the credential",
	},
	"unsafe-run": {
		"Pull request titles, bodies, and commit messages are attacker-controlled",
		"Interpolating them into shell commands enables command injection from a malicious PR",
	},
	"privilege-escalation": {
		"Broad write permissions let a compromised step modify the repository",
		"Follow the principle of least privilege for workflow permissions",
	},
	"pull-request-target": {
		"This trigger runs with write permissions in the context of the base repository",
		"Combined with untrusted code or input it is extremely dangerous",
	},
}

var workflowMitigations = map[string]string{
	"untrusted-action":     "pin to a full commit SHA or use trusted actions only",
	"secrets-exposure":     "remove secrets from output and use secure secret handling",
	"unsafe-run":           "sanitize user input or avoid using it in shell commands",
	"privilege-escalation": "use the minimal required permissions for each job",
	"pull-request-target":  "prefer the pull_request trigger or add safety checks",
}

// trustedPublishers lower the confidence of untrusted-action matches.
var trustedPublishers = []string{"actions/", "github/", "microsoft/", "azure/", "docker/"}

// scanWorkflows is the heuristic layer of the github-actions-security agent.
// Callers gate it to workflow files; the scan itself only looks at lines.
func scanWorkflows(file diff.FileDiff) []domain.Finding {
	var findings []domain.Finding

	for _, line := range file.AddedLines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}

		for _, rule := range workflowRules {
			for _, re := range rule.patterns {
				if !re.MatchString(text) {
					continue
				}
				confidence := workflowConfidence(rule.risk, text)
				findings = append(findings, domain.Finding{
					FilePath:    file.Path,
					Line:        line.Number,
					Category:    "security",
					FindingText: "GitHub Actions Security Risk: " + workflowRiskDescriptions[rule.risk],
					Reasoning:   workflowReasoning(rule.risk, line.Number, confidence),
					Confidence:  confidence,
				})
			}
		}
	}

	return findings
}

// isWorkflowFile reports whether a path can hold GitHub Actions configuration.
// Any YAML file qualifies so that reusable workflows and action definitions
// outside .github/workflows are still scanned.
func isWorkflowFile(path string) bool {
	if path == "" {
		return false
	}
	return strings.Contains(path, ".github/workflows/") ||
		strings.HasSuffix(path, ".yml") ||
		strings.HasSuffix(path, ".yaml")
}

func workflowConfidence(risk, text string) float64 {
	confidence, ok := workflowRiskBase[risk]
	if !ok {
		confidence = 0.7
	}

	for _, publisher := range trustedPublishers {
		if strings.Contains(text, publisher) {
			confidence -= 0.2
			break
		}
	}

	lower := strings.ToLower(text)
	if containsAny(lower, "test", "example") {
		confidence -= 0.2
	}

	if strings.Contains(text, "${{") && strings.Contains(text, "github.event") {
		confidence += 0.1
	}
	if strings.Contains(text, "secrets.") && containsAny(lower, "echo", "print") {
		confidence += 0.1
	}

	return clampHeuristic(confidence)
}

func workflowReasoning(risk string, lineNum int, confidence float64) string {
	parts := []string{
		fmt.Sprintf("%s detected on line %d", workflowRiskDescriptions[risk], lineNum),
	}
	parts = append(parts, workflowExplanations[risk]...)

	if mitigation, ok := workflowMitigations[risk]; ok {
		parts = append(parts, "Mitigation: "+mitigation)
	}

	switch {
	case confidence >= 0.8:
		parts = append(parts, "High confidence, immediate review recommended")
	case confidence >= 0.6:
		parts = append(parts, "Moderate confidence, security review suggested")
	default:
		parts = append(parts, "Lower confidence, verify whether this is a legitimate pattern")
	}

	return strings.Join(parts, ". ")
}
