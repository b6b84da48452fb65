package pipeline

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/microreview/internal/domain"
)

func TestSynthesizeEmptyBody(t *testing.T) {
	review := Synthesize(nil, 0, 0, 0)

	if !review.IsEmpty {
		t.Error("IsEmpty = false for zero findings")
	}
	want := strings.Join([]string{
		"#### 🤖 MicroReview Automated Code Review",
		"",
		"**Summary:** No issues found! 🎉",
		"",
		"---",
		"",
		"_This is an automated review by MicroReview. Please address any blocking issues before merging._",
		"",
		"*To learn more about MicroReview or suggest new policies, visit our docs.*",
		"",
	}, "\n")
	if diff := cmp.Diff(want, review.Body); diff != "" {
		t.Errorf("empty body mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizeFullBody(t *testing.T) {
	groups := []domain.RenderedGroup{
		{
			Label: "Security",
			Findings: []domain.AggregatedFinding{
				{
					FilePath: "config/settings.py", Line: 42, Category: "security",
					FindingText: "Hardcoded API key detected", Confidence: 0.93,
					Agents: []string{"hardcoded-credentials"},
					Reasonings: []domain.AttributedReasoning{
						{AgentID: "hardcoded-credentials", Reasoning: "The assignment embeds a live key."},
					},
				},
			},
		},
		{
			Label: "Documentation",
			Findings: []domain.AggregatedFinding{
				{
					FilePath: "api/routes.py", Category: "documentation",
					FindingText: "Endpoint lacks docstring", Confidence: 0.81,
					Agents: []string{"docstring-coverage"},
					Reasonings: []domain.AttributedReasoning{
						{AgentID: "docstring-coverage", Reasoning: "New public endpoint has no docstring."},
					},
				},
			},
		},
	}

	review := Synthesize(groups, 2, 2, 1)

	if review.IsEmpty {
		t.Error("IsEmpty = true with findings present")
	}
	want := strings.Join([]string{
		"#### 🤖 MicroReview Automated Code Review",
		"",
		"**Summary:** 2 potential issue(s) found across 2 file(s). (1 duplicate(s) removed)",
		"",
		"---",
		"",
		"**🔒 Security**",
		"",
		"- `config/settings.py` (line 42)",
		"  - **Hardcoded API key detected**",
		"    > Reasoning: The assignment embeds a live key.",
		"    > Confidence: 0.93",
		"    > Agent: hardcoded-credentials",
		"",
		"---",
		"",
		"**📄 Documentation**",
		"",
		"- `api/routes.py`",
		"  - **Endpoint lacks docstring**",
		"    > Reasoning: New public endpoint has no docstring.",
		"    > Confidence: 0.81",
		"    > Agent: docstring-coverage",
		"",
		"---",
		"",
		"_This is an automated review by MicroReview. Please address any blocking issues before merging._",
		"",
		"*To learn more about MicroReview or suggest new policies, visit our docs.*",
		"",
	}, "\n")
	if diff := cmp.Diff(want, review.Body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizeMergedFinding(t *testing.T) {
	groups := []domain.RenderedGroup{
		{
			Label: "Security",
			Findings: []domain.AggregatedFinding{
				{
					FilePath: "file.py", Line: 10, Category: "security",
					FindingText: "Hardcoded API key in source", Confidence: 0.91,
					Agents: []string{"hardcoded-credentials", "pii-exposure"},
					Reasonings: []domain.AttributedReasoning{
						{AgentID: "hardcoded-credentials", Reasoning: "String literal looks like a live key."},
						{AgentID: "pii-exposure", Reasoning: "Key material committed to the repository."},
					},
				},
			},
		},
	}

	review := Synthesize(groups, 1, 1, 1)

	for _, wantLine := range []string{
		"    > Reasoning (hardcoded-credentials): String literal looks like a live key.",
		"    > Reasoning (pii-exposure): Key material committed to the repository.",
		"    > Agents: hardcoded-credentials, pii-exposure",
	} {
		if !strings.Contains(review.Body, wantLine+"\n") {
			t.Errorf("body missing line %q\nbody:\n%s", wantLine, review.Body)
		}
	}
	if strings.Contains(review.Body, "> Agent: ") {
		t.Error("merged finding should use the plural agent attribution")
	}
}

func TestSummaryLine(t *testing.T) {
	tests := []struct {
		name        string
		total       int
		files       int
		dupsRemoved int
		want        string
	}{
		{
			name: "no findings", total: 0, files: 0, dupsRemoved: 0,
			want: "**Summary:** No issues found! 🎉",
		},
		{
			name: "single file omits file count", total: 2, files: 1, dupsRemoved: 0,
			want: "**Summary:** 2 potential issue(s) found.",
		},
		{
			name: "multiple files", total: 3, files: 2, dupsRemoved: 0,
			want: "**Summary:** 3 potential issue(s) found across 2 file(s).",
		},
		{
			name: "duplicates noted", total: 3, files: 2, dupsRemoved: 2,
			want: "**Summary:** 3 potential issue(s) found across 2 file(s). (2 duplicate(s) removed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summaryLine(tt.total, tt.files, tt.dupsRemoved); got != tt.want {
				t.Errorf("summaryLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGroupHeader(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Security", "**🔒 Security**"},
		{"Duplication", "**🌀 Duplication**"},
		{OtherLabel, "**📋 Other**"},
		{NoFileLabel, "**📋 (no file)**"},
		{"pkg/server.go", "**📁 `pkg/server.go`**"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := groupHeader(tt.label); got != tt.want {
			t.Errorf("groupHeader(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}
