package agent

import (
	"strings"
	"testing"

	"github.com/microreview/internal/diff"
)

func TestScanWorkflows(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantTexts  []string
		wantScores []float64
	}{
		{
			name:       "branch pinned action",
			line:       `- uses: someorg/deploy@main`,
			wantTexts:  []string{"GitHub Actions Security Risk: Untrusted or mutable third-party action"},
			wantScores: []float64{0.8},
		},
		{
			name:       "trusted publisher discounted",
			line:       `- uses: actions/checkout@main`,
			wantTexts:  []string{"GitHub Actions Security Risk: Untrusted or mutable third-party action"},
			wantScores: []float64{0.6},
		},
		{
			name:       "full version pin accepted",
			line:       `- uses: actions/checkout@v4`,
			wantTexts:  nil,
			wantScores: nil,
		},
		{
			name:       "unpinned action",
			line:       `- uses: myorg/custom-action`,
			wantTexts:  []string{"GitHub Actions Security Risk: Untrusted or mutable third-party action"},
			wantScores: []float64{0.8},
		},
		{
			name:       "short commit hash",
			line:       `- uses: someorg/tool@abc1234`,
			wantTexts:  []string{"GitHub Actions Security Risk: Untrusted or mutable third-party action"},
			wantScores: []float64{0.8},
		},
		{
			name: "echoed secret",
			line: `run: echo ${{ secrets.API_KEY }}`,
			wantTexts: []string{
				"GitHub Actions Security Risk: Potential secrets exposure",
				"GitHub Actions Security Risk: Potential secrets exposure",
			},
			wantScores: []float64{0.95, 0.95},
		},
		{
			name:       "pr title interpolation",
			line:       `run: echo "${{ github.event.pull_request.title }}"`,
			wantTexts:  []string{"GitHub Actions Security Risk: Unsafe run command with user input"},
			wantScores: []float64{0.95},
		},
		{
			name:       "write all permissions",
			line:       `permissions: write-all`,
			wantTexts:  []string{"GitHub Actions Security Risk: Excessive permissions or privilege escalation"},
			wantScores: []float64{0.8},
		},
		{
			name:       "contents write",
			line:       `contents: write`,
			wantTexts:  []string{"GitHub Actions Security Risk: Excessive permissions or privilege escalation"},
			wantScores: []float64{0.8},
		},
		{
			name:       "pull request target trigger",
			line:       `on: pull_request_target`,
			wantTexts:  []string{"GitHub Actions Security Risk: Insecure pull_request_target usage"},
			wantScores: []float64{0.9},
		},
		{
			name:       "harmless line",
			line:       `timeout-minutes: 10`,
			wantTexts:  nil,
			wantScores: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := diff.FileDiff{
				Path:       ".github/workflows/deploy.yml",
				AddedLines: []diff.AddedLine{{Number: 8, Text: tt.line}},
			}

			got := scanWorkflows(file)
			if len(got) != len(tt.wantTexts) {
				t.Fatalf("got %d findings, want %d: %+v", len(got), len(tt.wantTexts), got)
			}

			for i, f := range got {
				if f.Line != 8 {
					t.Errorf("finding %d Line = %d, want 8", i, f.Line)
				}
				if f.Category != "security" {
					t.Errorf("finding %d Category = %q, want %q", i, f.Category, "security")
				}
				if f.FindingText != tt.wantTexts[i] {
					t.Errorf("finding %d FindingText = %q, want %q", i, f.FindingText, tt.wantTexts[i])
				}
				if !approx(f.Confidence, tt.wantScores[i]) {
					t.Errorf("finding %d Confidence = %v, want %v", i, f.Confidence, tt.wantScores[i])
				}
				if !strings.Contains(f.Reasoning, "Mitigation:") {
					t.Errorf("finding %d Reasoning missing mitigation: %q", i, f.Reasoning)
				}
			}
		})
	}
}

func TestIsWorkflowFile(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"workflow yml", ".github/workflows/ci.yml", true},
		{"workflow yaml", ".github/workflows/release.yaml", true},
		{"nested workflow", "subrepo/.github/workflows/test.yml", true},
		{"plain yaml", "deploy.yaml", true},
		{"plain yml", "config.yml", true},
		{"go source", "main.go", false},
		{"markdown", "docs/guide.md", false},
		{"empty path", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isWorkflowFile(tt.path); got != tt.want {
				t.Errorf("isWorkflowFile(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
