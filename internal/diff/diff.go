// Package diff parses unified PR diffs into per-file segments that agents
// review independently.
package diff

import (
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// UnknownFile is the segment name used when a diff cannot be split into
// per-file patches. Agents still see the raw text; their findings land on
// this placeholder path.
const UnknownFile = "unknown"

// AddedLine is one line added by the diff, addressed by its 1-based number
// in the new version of the file.
type AddedLine struct {
	Number int
	Text   string
}

// FileDiff is one file's slice of the PR diff.
type FileDiff struct {
	Path         string // new path; falls back to the old path for deletions
	OldPath      string
	IsNew        bool
	IsDeleted    bool
	IsRenamed    bool
	IsBinary     bool
	AddedCount   int
	DeletedCount int
	Patch        string // this file's portion of the unified diff
	AddedLines   []AddedLine
}

// PRDiff holds the parsed diff for all files in the change.
type PRDiff struct {
	Files []FileDiff
	Raw   string
}

// Stats returns aggregate counts across all files.
func (d *PRDiff) Stats() (files, added, deleted int) {
	files = len(d.Files)
	for _, f := range d.Files {
		added += f.AddedCount
		deleted += f.DeletedCount
	}
	return
}

// IsEmpty reports whether the diff carries no reviewable content.
func (d *PRDiff) IsEmpty() bool {
	return len(d.Files) == 0 && strings.TrimSpace(d.Raw) == ""
}

// Parse reads a unified diff into per-file segments. Diffs that defeat
// structured parsing degrade to a single segment named UnknownFile carrying
// the raw text, so a malformed diff reduces precision instead of aborting
// the review.
func Parse(raw string) *PRDiff {
	if strings.TrimSpace(raw) == "" {
		return &PRDiff{Raw: raw}
	}

	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil || len(parsed) == 0 {
		return &PRDiff{
			Files: []FileDiff{{Path: UnknownFile, Patch: raw}},
			Raw:   raw,
		}
	}

	segments := splitRaw(raw)
	perFile := len(segments) == len(parsed)

	d := &PRDiff{Raw: raw}
	for i, f := range parsed {
		fd := FileDiff{
			OldPath:   f.OldName,
			IsNew:     f.IsNew,
			IsDeleted: f.IsDelete,
			IsRenamed: f.IsRename,
			IsBinary:  f.IsBinary,
			Patch:     raw,
		}
		if perFile {
			fd.Patch = segments[i]
		}
		fd.Path = f.NewName
		if fd.Path == "" {
			fd.Path = f.OldName
		}

		for _, frag := range f.TextFragments {
			newLine := int(frag.NewPosition)
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					fd.AddedCount++
					fd.AddedLines = append(fd.AddedLines, AddedLine{
						Number: newLine,
						Text:   strings.TrimRight(line.Line, "\n"),
					})
					newLine++
				case gitdiff.OpDelete:
					fd.DeletedCount++
				default:
					newLine++
				}
			}
		}

		d.Files = append(d.Files, fd)
	}
	return d
}

const fileHeader = "diff --git "

// splitRaw cuts the raw diff at each file header so every parsed file can
// carry its own patch text.
func splitRaw(raw string) []string {
	var starts []int
	if strings.HasPrefix(raw, fileHeader) {
		starts = append(starts, 0)
	}
	for off := 0; ; {
		i := strings.Index(raw[off:], "\n"+fileHeader)
		if i < 0 {
			break
		}
		starts = append(starts, off+i+1)
		off += i + 1
	}

	segments := make([]string, 0, len(starts))
	for i, s := range starts {
		end := len(raw)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		segments = append(segments, raw[s:end])
	}
	return segments
}
