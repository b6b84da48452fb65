package runner

import (
	"fmt"
	"slices"
	"strings"

	"github.com/microreview/internal/domain"
	"github.com/microreview/internal/pipeline"
	"github.com/microreview/internal/terminal"
)

// RenderRunReport renders the stderr report for one review run: warnings,
// the surviving findings by group, the filter funnel, and timing.
func RenderRunReport(result pipeline.Result, stats domain.RunStats, warnings []string) string {
	width := terminal.ReportWidth()

	var lines []string

	all := make([]string, 0, len(warnings)+3)
	all = append(all, warnings...)
	if len(stats.FailedAgents) > 0 {
		all = append(all, fmt.Sprintf("Failed agents: %s", strings.Join(stats.FailedAgents, ", ")))
	}
	if len(stats.TimedOutAgents) > 0 {
		all = append(all, fmt.Sprintf("Timed out agents: %s", strings.Join(stats.TimedOutAgents, ", ")))
	}
	if len(stats.SkippedAgents) > 0 {
		all = append(all, fmt.Sprintf("Skipped agents: %s", strings.Join(stats.SkippedAgents, ", ")))
	}

	if len(all) > 0 {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%s⚠ Warnings%s", terminal.Color(terminal.Yellow), terminal.Color(terminal.Reset)))
		lines = append(lines, terminal.Ruler(width, "─"))
		for _, w := range all {
			lines = append(lines, fmt.Sprintf("  %s•%s %s", terminal.Color(terminal.Yellow), terminal.Color(terminal.Reset), w))
		}
		lines = append(lines, "")
	}

	if result.Review.IsEmpty {
		lines = append(lines, fmt.Sprintf("%s✓%s %s%sNo findings%s %s(%d/%d agents)%s",
			terminal.Color(terminal.Green), terminal.Color(terminal.Reset),
			terminal.Color(terminal.Green), terminal.Color(terminal.Bold), terminal.Color(terminal.Reset),
			terminal.Color(terminal.Dim), stats.Succeeded, stats.TotalAgents, terminal.Color(terminal.Reset)))
		if result.RawCount > 0 {
			lines = append(lines, fmt.Sprintf("%sℹ %d raw finding(s) dropped below the confidence threshold%s",
				terminal.Color(terminal.Dim), result.RawCount, terminal.Color(terminal.Reset)))
		}
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "")
	findingWord := "finding"
	if len(result.Findings) != 1 {
		findingWord = "findings"
	}
	lines = append(lines, fmt.Sprintf("%s%s📋 %d %s%s",
		terminal.Color(terminal.Cyan), terminal.Color(terminal.Bold), len(result.Findings), findingWord, terminal.Color(terminal.Reset)))
	lines = append(lines, terminal.Ruler(width, "━"))

	idx := 0
	for _, group := range result.Review.Groups {
		if group.Label != "" {
			lines = append(lines, "")
			lines = append(lines, fmt.Sprintf("%s%s%s", terminal.Color(terminal.Bold), group.Label, terminal.Color(terminal.Reset)))
			lines = append(lines, terminal.Ruler(width, "─"))
		}

		for _, f := range group.Findings {
			idx++

			location := ""
			if f.FilePath != "" {
				location = f.FilePath
				if f.HasLine() {
					location = fmt.Sprintf("%s:%d", location, f.Line)
				}
				location = fmt.Sprintf("%s%s%s ", terminal.Color(terminal.Cyan), location, terminal.Color(terminal.Reset))
			}
			meta := fmt.Sprintf("%s(%s, %.2f)%s",
				terminal.Color(terminal.Dim), strings.Join(f.Agents, ", "), f.Confidence, terminal.Color(terminal.Reset))

			lines = append(lines, "")
			lines = append(lines, fmt.Sprintf("%s%s%d.%s %s%s %s",
				terminal.Color(terminal.Yellow), terminal.Color(terminal.Bold), idx, terminal.Color(terminal.Reset),
				location, f.FindingText, meta))

			for _, r := range f.Reasonings {
				if r.Reasoning == "" {
					continue
				}
				wrapped := terminal.WrapText(r.Reasoning, width-5, "     ")
				lines = append(lines, fmt.Sprintf("%s%s%s",
					terminal.Color(terminal.Dim), wrapped, terminal.Color(terminal.Reset)))
			}
		}
	}

	lines = append(lines, "")
	lines = append(lines, terminal.Ruler(width, "━"))

	if result.FilteredOut > 0 || result.MergedAway > 0 {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%sℹ %d raw finding(s): %d dropped by confidence filter, %d merged as duplicates%s",
			terminal.Color(terminal.Dim), result.RawCount, result.FilteredOut, result.MergedAway, terminal.Color(terminal.Reset)))
	}

	if stats.WallClock > 0 || len(stats.AgentDurations) > 0 {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%sTiming:%s", terminal.Color(terminal.Dim), terminal.Color(terminal.Reset)))

		if stats.WallClock > 0 {
			lines = append(lines, fmt.Sprintf("  %sagents: %s%s",
				terminal.Color(terminal.Dim), terminal.FormatDuration(stats.WallClock), terminal.Color(terminal.Reset)))
		}

		if len(stats.AgentDurations) > 0 {
			durations := make([]float64, 0, len(stats.AgentDurations))
			for _, d := range stats.AgentDurations {
				durations = append(durations, d.Seconds())
			}
			slices.Sort(durations)

			var sum float64
			for _, d := range durations {
				sum += d
			}
			avg := sum / float64(len(durations))

			lines = append(lines, fmt.Sprintf("  %s  min %.1fs / avg %.1fs / max %.1fs%s",
				terminal.Color(terminal.Dim), durations[0], avg, durations[len(durations)-1], terminal.Color(terminal.Reset)))
		}
	}

	return strings.Join(lines, "\n")
}
