package pipeline

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/microreview/internal/domain"
)

// NoFileLabel is the catch-all group label for findings that carry no file
// path. It always renders last in file grouping.
const NoFileLabel = "(no file)"

// OtherLabel is the catch-all group label for findings whose category is
// missing. It always renders last in category grouping.
const OtherLabel = "Other"

// Group partitions findings into ordered display buckets. Findings enter in
// canonical post-dedup order and are never dropped: unknown files and
// categories land in a distinctly labeled catch-all group placed last. An
// unrecognized strategy falls back to a single ungrouped bucket.
func Group(findings []domain.AggregatedFinding, strategy domain.GroupStrategy) []domain.RenderedGroup {
	if len(findings) == 0 {
		return nil
	}
	switch strategy {
	case domain.GroupByFile:
		return groupByFile(findings)
	case domain.GroupByCategory:
		return groupByCategory(findings)
	default:
		return groupNone(findings)
	}
}

// groupByFile buckets per file path, groups ordered by first occurrence in
// the incoming order, the no-file bucket forced last. Within a group:
// ascending line with repo-wide findings last, then descending confidence.
func groupByFile(findings []domain.AggregatedFinding) []domain.RenderedGroup {
	buckets := make(map[string][]domain.AggregatedFinding)
	order := make([]string, 0)
	for _, f := range findings {
		label := f.FilePath
		if label == "" {
			label = NoFileLabel
		}
		if _, ok := buckets[label]; !ok {
			order = append(order, label)
		}
		buckets[label] = append(buckets[label], f)
	}

	if i := slices.Index(order, NoFileLabel); i >= 0 {
		order = append(slices.Delete(order, i, i+1), NoFileLabel)
	}

	groups := make([]domain.RenderedGroup, 0, len(order))
	for _, label := range order {
		fs := buckets[label]
		slices.SortFunc(fs, func(a, b domain.AggregatedFinding) int {
			if c := compareLines(a.Line, b.Line); c != 0 {
				return c
			}
			if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
				return c
			}
			return strings.Compare(a.FindingText, b.FindingText)
		})
		groups = append(groups, domain.RenderedGroup{Label: label, Findings: fs})
	}
	return groups
}

// groupByCategory buckets per category with a fixed display priority:
// security first, then correctness and duplication, then documentation,
// then everything else alphabetically, with the catch-all last. Within a
// group: descending confidence, then file path, line, text.
func groupByCategory(findings []domain.AggregatedFinding) []domain.RenderedGroup {
	buckets := make(map[string][]domain.AggregatedFinding)
	for _, f := range findings {
		label := displayCategory(f.Category)
		buckets[label] = append(buckets[label], f)
	}

	labels := make([]string, 0, len(buckets))
	for label := range buckets {
		labels = append(labels, label)
	}
	slices.SortFunc(labels, func(a, b string) int {
		if c := cmp.Compare(categoryRank(a), categoryRank(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	groups := make([]domain.RenderedGroup, 0, len(labels))
	for _, label := range labels {
		fs := buckets[label]
		slices.SortFunc(fs, sortWithinGroup)
		groups = append(groups, domain.RenderedGroup{Label: label, Findings: fs})
	}
	return groups
}

// groupNone emits a single unlabeled bucket ordered by descending
// confidence.
func groupNone(findings []domain.AggregatedFinding) []domain.RenderedGroup {
	fs := slices.Clone(findings)
	slices.SortFunc(fs, sortWithinGroup)
	return []domain.RenderedGroup{{Label: "", Findings: fs}}
}

func sortWithinGroup(a, b domain.AggregatedFinding) int {
	if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
		return c
	}
	if c := comparePaths(a.FilePath, b.FilePath); c != 0 {
		return c
	}
	if c := compareLines(a.Line, b.Line); c != 0 {
		return c
	}
	return strings.Compare(a.FindingText, b.FindingText)
}

func categoryRank(label string) int {
	switch label {
	case "Security":
		return 0
	case "Correctness", "Duplication":
		return 1
	case "Documentation":
		return 2
	case OtherLabel:
		return 4
	default:
		return 3
	}
}

// displayCategory maps a raw category value to its display label: known
// categories get their canonical name, unknown non-empty ones are
// title-cased as-is, and a missing category lands in the catch-all.
func displayCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "":
		return OtherLabel
	case "security":
		return "Security"
	case "correctness":
		return "Correctness"
	case "duplication":
		return "Duplication"
	case "documentation":
		return "Documentation"
	case "performance":
		return "Performance"
	case "style":
		return "Style"
	case "quality":
		return "Quality"
	case "general":
		return "General"
	}
	return titleCase(strings.TrimSpace(category))
}

func titleCase(s string) string {
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
