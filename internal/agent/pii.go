package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/microreview/internal/diff"
	"github.com/microreview/internal/domain"
)

// piiValuePatterns match literal PII values appearing in added lines.
var piiValuePatterns = []struct {
	re   *regexp.Regexp
	kind string
}{
	{regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), "email address"},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "Social Security Number"},
	{regexp.MustCompile(`\b\(?([0-9]{3})\)?[-. ]?([0-9]{3})[-. ]?([0-9]{4})\b`), "phone number"},
	{regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`), "credit card number"},
}

// piiContextPatterns match variable names and identifiers that suggest PII is
// being handled even when no literal value appears.
var piiContextPatterns = []struct {
	re   *regexp.Regexp
	kind string
}{
	{regexp.MustCompile(`(?i)(ssn|social_security|social_security_number)`), "SSN"},
	{regexp.MustCompile(`(?i)(email|email_address)`), "email"},
	{regexp.MustCompile(`(?i)(phone|phone_number|mobile)`), "phone number"},
	{regexp.MustCompile(`(?i)(address|street|zip|postal)`), "address"},
	{regexp.MustCompile(`(?i)(credit_card|card_number|ccn)`), "credit card"},
	{regexp.MustCompile(`(?i)(dob|date_of_birth|birthdate)`), "personal information"},
	{regexp.MustCompile(`(?i)(medical|health|patient|diagnosis)`), "health information"},
}

// piiExposurePatterns match PII reaching logs or other output.
var piiExposurePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(log|print|console\.|debug|trace)\s*\([^)]*(user|customer|patient|person)`),
	regexp.MustCompile(`(?i)(log|print|console\.|debug|trace)\s*\([^)]*(email|phone|ssn|address)`),
}

// scanPII is the heuristic layer of the pii-exposure agent.
func scanPII(file diff.FileDiff) []domain.Finding {
	var findings []domain.Finding

	for _, line := range file.AddedLines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}

		for _, p := range piiValuePatterns {
			if !p.re.MatchString(text) {
				continue
			}
			confidence := piiConfidence(text, 0.9)
			findings = append(findings, domain.Finding{
				FilePath:    file.Path,
				Line:        line.Number,
				Category:    "privacy",
				FindingText: fmt.Sprintf("Potential %s exposure in code", p.kind),
				Reasoning:   piiReasoning("Direct PII pattern detected", p.kind, text, line.Number, confidence),
				Confidence:  confidence,
			})
		}

		for _, re := range piiExposurePatterns {
			if !re.MatchString(text) {
				continue
			}
			confidence := piiConfidence(text, 0.7)
			findings = append(findings, domain.Finding{
				FilePath:    file.Path,
				Line:        line.Number,
				Category:    "privacy",
				FindingText: "Potential PII exposure through logging/output",
				Reasoning:   piiReasoning("PII exposure through logging or output detected", "PII logging", text, line.Number, confidence),
				Confidence:  confidence,
			})
		}

		for _, p := range piiContextPatterns {
			if !p.re.MatchString(text) {
				continue
			}
			confidence := piiConfidence(text, 0.6)
			findings = append(findings, domain.Finding{
				FilePath:    file.Path,
				Line:        line.Number,
				Category:    "privacy",
				FindingText: fmt.Sprintf("Potential %s handling without proper protection", p.kind),
				Reasoning:   piiReasoning("PII-related variable or context detected", p.kind, text, line.Number, confidence),
				Confidence:  confidence,
			})
		}
	}

	return findings
}

// piiConfidence adjusts a method-specific base score for the surrounding
// context of the line.
func piiConfidence(text string, base float64) float64 {
	confidence := base
	lower := strings.ToLower(text)

	if containsAny(lower, "test", "example", "demo") {
		confidence -= 0.3
	}
	if containsAny(lower, "mock", "fake", "dummy") {
		confidence -= 0.4
	}
	if strings.Count(lower, "x") > 3 {
		confidence -= 0.3
	}

	if containsAny(lower, "log", "print") {
		confidence += 0.1
	}
	if containsAny(lower, "database", "db") {
		confidence += 0.1
	}

	return clampHeuristic(confidence)
}

func piiReasoning(method, kind, text string, lineNum int, confidence float64) string {
	parts := []string{
		fmt.Sprintf("%s on line %d", method, lineNum),
		fmt.Sprintf("Pattern suggests handling of %s", kind),
	}

	lower := strings.ToLower(text)
	if containsAny(lower, "log", "print") {
		parts = append(parts, "Logging context increases exposure risk")
	}
	if containsAny(lower, "test", "demo") {
		parts = append(parts, "Test or demo context reduces risk")
	}

	switch {
	case confidence >= 0.8:
		parts = append(parts, "High risk of PII exposure")
	case confidence >= 0.6:
		parts = append(parts, "Moderate risk, review for compliance")
	default:
		parts = append(parts, "Low risk, verify if intentional")
	}

	return strings.Join(parts, ". ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
