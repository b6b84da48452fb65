package agent

import (
	"fmt"
	"strings"

	"github.com/microreview/internal/diff"
)

// Built-in policies. The question and background text is the operative prompt
// content; the heuristics in creds.go, pii.go and actions.go mirror the same
// policies for model-free runs.

var credentialsPolicy = Policy{
	ID:       "hardcoded-credentials",
	Category: "security",
	Question: "Does this change introduce hard-coded credentials such as passwords, API keys, tokens, or secret access keys?",
	Background: `Hard-coding credentials directly into source code poses a serious security
risk. These secrets can be inadvertently leaked, stored in version control, or
exposed during logging or error handling. Report the change if it includes any
strings or variables that suggest credentials are embedded, such as:

- Assignments to variables like password, secret, token, apikey, auth, or
  access_key
- Sensitive keys or secrets committed into .env, .yaml, .json, or other
  configuration files

When detected, include the file path and line number where the issue appears.
Do not repeat the credential values in the results.`,
}

var piiPolicy = Policy{
	ID:       "pii-exposure",
	Category: "privacy",
	Question: "Does this change expose Personal Identifiable Information (PII) or Protected Health Information (PHI)?",
	Background: `Exposure of PII or PHI through source code creates privacy and compliance
risk even when the data never reaches production. Report the change if it:

- Embeds real-looking personal values such as email addresses, phone numbers,
  Social Security Numbers, or credit card numbers
- Logs, prints, or traces user, customer, or patient identifiers
- Handles fields like ssn, date_of_birth, credit_card, or medical data without
  evident protection

When detected, include the file path and line number where the issue appears.
Test or mock data lowers the concern but does not remove it.`,
}

var actionsPolicy = Policy{
	ID:       "github-actions-security",
	Category: "security",
	Question: "Does this workflow change introduce GitHub Actions security risks such as untrusted actions, secrets exposure, script injection, or excessive permissions?",
	Background: `GitHub Actions workflows run with repository credentials, so a
misconfiguration is directly exploitable. Report the change if it includes:

- Third-party actions pinned to mutable refs (main, master, develop, latest)
  or short commit hashes instead of a full commit SHA
- Secrets echoed, logged, or otherwise written to output
- Attacker-controlled input (pull request titles, bodies, commit messages)
  interpolated into run commands
- Overly broad permissions such as write-all, or write access granted to
  contents or actions
- The pull_request_target trigger combined with untrusted code or input

When detected, include the file path and line number where the issue appears.`,
}

// findingsContract tells the model the exact reply shape. Replies are still
// parsed tolerantly (see parser.go); the contract keeps drift rare.
const findingsContract = `Respond with a JSON array only, no surrounding prose. Each element:
{
  "reasoning": "why this is likely a real issue; never repeat secret values",
  "finding": "one-line summary of the issue",
  "confidence": 0.0 to 1.0,
  "line_number": line in the new version of the file, or null if not line-addressable,
  "category": "short classification, e.g. security",
  "severity": "low, medium, high, or critical"
}
Respond with [] if the change is clean.`

// buildPolicyPrompt renders the per-file review prompt for one policy.
func buildPolicyPrompt(p Policy, f diff.FileDiff) string {
	var b strings.Builder
	b.WriteString("You are a focused code review micro-agent. You enforce exactly one policy and nothing else.\n\n")
	fmt.Fprintf(&b, "Policy question: %s\n\n", p.Question)
	fmt.Fprintf(&b, "Background:\n%s\n\n", p.Background)
	fmt.Fprintf(&b, "File under review: %s\n\n", f.Path)
	fmt.Fprintf(&b, "Diff (unified format, added lines start with +):\n%s\n\n", f.Patch)
	b.WriteString(findingsContract)
	return b.String()
}
