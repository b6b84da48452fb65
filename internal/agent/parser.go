package agent

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/microreview/internal/domain"
	"github.com/microreview/internal/llm"
)

// rawFinding is the tolerated wire shape of one model-reported issue. Agents
// are prompted for exact field names but replies drift, so close synonyms are
// accepted. Severity is read and discarded; filtering and grouping run on
// confidence and category alone.
type rawFinding struct {
	Reasoning   string       `json:"reasoning"`
	Finding     string       `json:"finding"`
	FindingText string       `json:"finding_text"`
	Confidence  *json.Number `json:"confidence"`
	Line        *json.Number `json:"line"`
	LineNumber  *json.Number `json:"line_number"`
	FilePath    string       `json:"file_path"`
	Category    string       `json:"category"`
	Severity    string       `json:"severity"`
}

// parseModelFindings converts a model reply into normalized findings for one
// file. Malformed entries are dropped with a warning, never fatal: a finding
// must carry text and a confidence, everything else has a default.
func parseModelFindings(reply string, p Policy, path string) []domain.Finding {
	payload, err := llm.ExtractJSON(reply)
	if err != nil {
		log.Warn().
			Err(err).
			Str("agent", p.ID).
			Str("file", path).
			Msg("model reply contained no usable JSON, dropping")
		return nil
	}

	elems, err := splitElements(payload)
	if err != nil {
		log.Warn().
			Err(err).
			Str("agent", p.ID).
			Str("file", path).
			Msg("model reply was not a findings array, dropping")
		return nil
	}

	var findings []domain.Finding
	for _, el := range elems {
		var raw rawFinding
		if err := json.Unmarshal(el, &raw); err != nil {
			log.Warn().
				Err(err).
				Str("agent", p.ID).
				Str("file", path).
				Msg("dropping malformed finding entry")
			continue
		}
		f, ok := normalizeFinding(raw, p, path)
		if !ok {
			continue
		}
		findings = append(findings, f)
	}
	return findings
}

// splitElements accepts either a JSON array of findings or a single finding
// object, which some models return for single-issue files.
func splitElements(payload string) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(payload)

	if strings.HasPrefix(trimmed, "{") {
		return []json.RawMessage{json.RawMessage(trimmed)}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &elems); err != nil {
		return nil, err
	}
	return elems, nil
}

// normalizeFinding coerces one raw entry into a domain.Finding. Entries with
// no finding text or no confidence are malformed and reported unusable.
func normalizeFinding(raw rawFinding, p Policy, path string) (domain.Finding, bool) {
	text := strings.TrimSpace(raw.Finding)
	if text == "" {
		text = strings.TrimSpace(raw.FindingText)
	}
	if text == "" {
		log.Warn().
			Str("agent", p.ID).
			Str("file", path).
			Msg("dropping finding without finding text")
		return domain.Finding{}, false
	}

	confidence, ok := numberValue(raw.Confidence)
	if !ok {
		log.Warn().
			Str("agent", p.ID).
			Str("file", path).
			Str("finding", text).
			Msg("dropping finding without confidence")
		return domain.Finding{}, false
	}

	line := 0
	if n, ok := numberValue(raw.LineNumber); ok && n > 0 {
		line = int(n)
	} else if n, ok := numberValue(raw.Line); ok && n > 0 {
		line = int(n)
	}

	filePath := strings.TrimSpace(raw.FilePath)
	if filePath == "" {
		filePath = path
	}

	return domain.Finding{
		FilePath:    filePath,
		Line:        line,
		Category:    strings.ToLower(strings.TrimSpace(raw.Category)),
		FindingText: text,
		Reasoning:   strings.TrimSpace(raw.Reasoning),
		Confidence:  clamp01(confidence),
	}, true
}

func numberValue(n *json.Number) (float64, bool) {
	if n == nil {
		return 0, false
	}
	v, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return v, true
}

// clamp01 bounds a confidence to [0,1]; NaN maps to 0.
func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
