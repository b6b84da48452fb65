package agent

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/zricethezav/gitleaks/v8/detect"

	"github.com/microreview/internal/diff"
	"github.com/microreview/internal/domain"
)

// credentialPatterns match assignments of secret-bearing variable names to
// string literals long enough to be real values.
var credentialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(password|pwd|pass)\s*[:=]\s*["'][^"']{8,}["']`),
	regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*["'][^"']{16,}["']`),
	regexp.MustCompile(`(?i)(secret|token)\s*[:=]\s*["'][^"']{16,}["']`),
	regexp.MustCompile(`(?i)(access[_-]?key)\s*[:=]\s*["'][^"']{16,}["']`),
	regexp.MustCompile(`(?i)(private[_-]?key)\s*[:=]\s*["'][^"']{32,}["']`),
}

var (
	base64Literal = regexp.MustCompile(`["'][A-Za-z0-9+/]{32,}["']`)
	hexLiteral    = regexp.MustCompile(`["'][a-f0-9]{32,}["']`)
)

// credScanner is the heuristic layer of the hardcoded-credentials agent:
// assignment patterns plus the gitleaks default ruleset, both applied to
// added lines only.
type credScanner struct {
	detector *detect.Detector
}

func newCredScanner() *credScanner {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		log.Warn().
			Err(err).
			Msg("gitleaks ruleset unavailable, credential scanning uses assignment patterns only")
		detector = nil
	}
	return &credScanner{detector: detector}
}

func (s *credScanner) scan(file diff.FileDiff) []domain.Finding {
	var findings []domain.Finding

	for _, line := range file.AddedLines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}

		for _, re := range credentialPatterns {
			m := re.FindString(text)
			if m == "" {
				continue
			}
			credType := credentialType(m)
			findings = append(findings, domain.Finding{
				FilePath:    file.Path,
				Line:        line.Number,
				Category:    "security",
				FindingText: fmt.Sprintf("Possible hard-coded %s detected", credType),
				Reasoning: fmt.Sprintf("Line %d: variable assignment matching a %s pattern on line: '%s'",
					line.Number, credType, text),
				Confidence: credentialConfidence(text),
			})
		}

		findings = append(findings, s.leakRules(file.Path, line)...)
	}

	return findings
}

// leakRules runs the gitleaks ruleset over one added line. Secret values are
// never echoed into the report; only the rule identity is.
func (s *credScanner) leakRules(path string, line diff.AddedLine) []domain.Finding {
	if s.detector == nil {
		return nil
	}

	var findings []domain.Finding
	for _, leak := range s.detector.DetectString(line.Text) {
		findings = append(findings, domain.Finding{
			FilePath:    path,
			Line:        line.Number,
			Category:    "security",
			FindingText: fmt.Sprintf("Secret matching the %s rule detected", leak.RuleID),
			Reasoning: fmt.Sprintf("Line %d: %s. The matched value is withheld from this report.",
				line.Number, leak.Description),
			Confidence: leakConfidence(line.Text),
		})
	}
	return findings
}

// credentialType names the kind of credential an assignment match suggests.
func credentialType(match string) string {
	lower := strings.ToLower(match)
	switch {
	case strings.Contains(lower, "password"), strings.Contains(lower, "pwd"), strings.Contains(lower, "pass"):
		return "password"
	case strings.Contains(lower, "api") && strings.Contains(lower, "key"):
		return "API key"
	case strings.Contains(lower, "secret"):
		return "secret"
	case strings.Contains(lower, "token"):
		return "token"
	case strings.Contains(lower, "access") && strings.Contains(lower, "key"):
		return "access key"
	case strings.Contains(lower, "private") && strings.Contains(lower, "key"):
		return "private key"
	default:
		return "credential"
	}
}

// credentialConfidence scores an assignment match. Long base64- or hex-like
// literals raise it; test context and placeholder runs lower it.
func credentialConfidence(text string) float64 {
	confidence := 0.8

	if base64Literal.MatchString(text) {
		confidence += 0.15
	}
	if hexLiteral.MatchString(text) {
		confidence += 0.15
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "test") || strings.Contains(lower, "demo") {
		confidence -= 0.3
	}
	if strings.Count(text, "x") > 5 {
		confidence -= 0.4
	}

	return clampHeuristic(confidence)
}

// leakConfidence scores a gitleaks rule match, which starts higher than a
// plain assignment pattern.
func leakConfidence(text string) float64 {
	confidence := 0.9

	lower := strings.ToLower(text)
	if strings.Contains(lower, "test") || strings.Contains(lower, "demo") {
		confidence -= 0.3
	}
	if strings.Count(text, "x") > 5 {
		confidence -= 0.4
	}

	return clampHeuristic(confidence)
}

// clampHeuristic bounds heuristic scores to [0.1, 0.95]: pattern evidence is
// never treated as certain in either direction.
func clampHeuristic(v float64) float64 {
	return math.Min(0.95, math.Max(0.1, v))
}
