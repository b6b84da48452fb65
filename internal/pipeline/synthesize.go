package pipeline

import (
	"fmt"
	"strings"

	"github.com/microreview/internal/domain"
)

// CommentMarker is the first line of every MicroReview comment. The posting
// layer matches it when looking for a previously posted review, so changing
// it breaks update-mode idempotence for open PRs.
const CommentMarker = "#### 🤖 MicroReview Automated Code Review"

const (
	footerNote = "_This is an automated review by MicroReview. Please address any blocking issues before merging._"
	footerDocs = "*To learn more about MicroReview or suggest new policies, visit our docs.*"
)

var categoryEmoji = map[string]string{
	"Security":      "🔒",
	"Documentation": "📄",
	"Performance":   "⚡",
	"Style":         "🎨",
	"Duplication":   "🌀",
	"Quality":       "✨",
	"General":       "📋",
}

const defaultEmoji = "📋"

// Synthesize renders grouped findings into the final Markdown review body.
// Pure string formatting: no I/O, no clock, no randomness, so identical
// inputs yield a byte-identical body. The body is well-formed even when no
// finding survived, letting callers post a "no current findings" update
// without inspecting group contents.
func Synthesize(groups []domain.RenderedGroup, totalFindings, filesTouched, duplicatesRemoved int) domain.SynthesizedReview {
	summary := summaryLine(totalFindings, filesTouched, duplicatesRemoved)

	var b strings.Builder
	b.WriteString(CommentMarker)
	b.WriteString("\n\n")
	b.WriteString(summary)
	b.WriteString("\n")

	for _, g := range groups {
		b.WriteString("\n---\n\n")
		if header := groupHeader(g.Label); header != "" {
			b.WriteString(header)
			b.WriteString("\n\n")
		}
		for i, f := range g.Findings {
			if i > 0 {
				b.WriteString("\n")
			}
			renderFinding(&b, f)
		}
	}

	b.WriteString("\n---\n\n")
	b.WriteString(footerNote)
	b.WriteString("\n\n")
	b.WriteString(footerDocs)
	b.WriteString("\n")

	return domain.SynthesizedReview{
		SummaryLine: summary,
		Groups:      groups,
		Body:        b.String(),
		IsEmpty:     totalFindings == 0,
	}
}

func summaryLine(totalFindings, filesTouched, duplicatesRemoved int) string {
	if totalFindings == 0 {
		return "**Summary:** No issues found! 🎉"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Summary:** %d potential issue(s) found", totalFindings)
	if filesTouched > 1 {
		fmt.Fprintf(&b, " across %d file(s)", filesTouched)
	}
	b.WriteString(".")
	if duplicatesRemoved > 0 {
		fmt.Fprintf(&b, " (%d duplicate(s) removed)", duplicatesRemoved)
	}
	return b.String()
}

// groupHeader renders a group label: known category labels get their emoji,
// file path labels are shown as code, and the empty label (ungrouped mode)
// gets no header at all.
func groupHeader(label string) string {
	if label == "" {
		return ""
	}
	if emoji, ok := categoryEmoji[label]; ok {
		return fmt.Sprintf("**%s %s**", emoji, label)
	}
	if label == NoFileLabel || label == OtherLabel {
		return fmt.Sprintf("**%s %s**", defaultEmoji, label)
	}
	if strings.ContainsAny(label, "./\\") {
		return fmt.Sprintf("**📁 `%s`**", label)
	}
	return fmt.Sprintf("**%s %s**", defaultEmoji, label)
}

func renderFinding(b *strings.Builder, f domain.AggregatedFinding) {
	switch {
	case f.FilePath != "" && f.HasLine():
		fmt.Fprintf(b, "- `%s` (line %d)\n", f.FilePath, f.Line)
	case f.FilePath != "":
		fmt.Fprintf(b, "- `%s`\n", f.FilePath)
	default:
		fmt.Fprintf(b, "- %s\n", NoFileLabel)
	}

	fmt.Fprintf(b, "  - **%s**\n", f.FindingText)

	attributed := len(f.Reasonings) > 1
	for _, r := range f.Reasonings {
		if r.Reasoning == "" {
			continue
		}
		if attributed {
			fmt.Fprintf(b, "    > Reasoning (%s): %s\n", r.AgentID, r.Reasoning)
		} else {
			fmt.Fprintf(b, "    > Reasoning: %s\n", r.Reasoning)
		}
	}

	fmt.Fprintf(b, "    > Confidence: %.2f\n", f.Confidence)

	if len(f.Agents) == 1 {
		fmt.Fprintf(b, "    > Agent: %s\n", f.Agents[0])
	} else {
		fmt.Fprintf(b, "    > Agents: %s\n", strings.Join(f.Agents, ", "))
	}
}
