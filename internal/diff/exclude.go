package diff

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

// Matcher filters file segments against the configured exclude_paths
// patterns before any agent sees them. A pattern is either a directory
// prefix ("tests/", or a bare name matched as "tests/...") or a glob
// matched against the full path and the base name, so "*.md" excludes
// Markdown files at any depth.
type Matcher struct {
	patterns []string
}

// NewMatcher validates the patterns and returns a matcher. Malformed globs
// are a configuration error and are rejected up front rather than silently
// matching nothing.
func NewMatcher(patterns []string) (*Matcher, error) {
	for _, p := range patterns {
		if _, err := path.Match(p, "probe"); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
	}
	return &Matcher{patterns: slices.Clone(patterns)}, nil
}

// Excluded reports whether filePath matches any exclude pattern.
func (m *Matcher) Excluded(filePath string) bool {
	for _, p := range m.patterns {
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(filePath, p) {
				return true
			}
			continue
		}
		if ok, _ := path.Match(p, filePath); ok {
			return true
		}
		if ok, _ := path.Match(p, path.Base(filePath)); ok {
			return true
		}
		if strings.HasPrefix(filePath, p+"/") {
			return true
		}
	}
	return false
}

// Apply returns the file segments that survive exclusion. The input slice
// is not modified.
func (m *Matcher) Apply(files []FileDiff) []FileDiff {
	if len(m.patterns) == 0 {
		return files
	}
	out := make([]FileDiff, 0, len(files))
	for _, f := range files {
		if m.Excluded(f.Path) {
			continue
		}
		out = append(out, f)
	}
	return out
}
