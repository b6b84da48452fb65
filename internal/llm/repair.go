package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	fenceRe         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON pulls the JSON payload out of a model reply and repairs it
// into parseable form. Models wrap JSON in markdown fences, prepend prose,
// and leave trailing commas; this strips all of that, and hands anything
// still broken to the jsonrepair library. The returned string is valid
// JSON or an error is returned.
func ExtractJSON(reply string) (string, error) {
	candidate := strings.TrimSpace(reply)

	if m := fenceRe.FindStringSubmatch(candidate); m != nil {
		candidate = strings.TrimSpace(m[1])
	}

	// Prose around the payload: cut to the outermost array or object.
	if i := strings.IndexAny(candidate, "[{"); i > 0 {
		candidate = candidate[i:]
	}
	if i := strings.LastIndexAny(candidate, "]}"); i >= 0 && i < len(candidate)-1 {
		candidate = candidate[:i+1]
	}

	if json.Valid([]byte(candidate)) {
		return candidate, nil
	}

	candidate = trailingCommaRe.ReplaceAllString(candidate, "$1")
	if json.Valid([]byte(candidate)) {
		return candidate, nil
	}

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return "", err
	}
	return repaired, nil
}
