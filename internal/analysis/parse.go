package analysis

import (
	"encoding/json"
	"strings"
)

const (
	fenceOpen  = "```json\n"
	fenceClose = "\n```"
)

// ParseReply separates the freeform reply text from an embedded analysis
// block. The block must appear exactly as the fence opener, a newline, the
// JSON object, a newline and the fence closer; only the first such block is
// considered, and later blocks stay in the content verbatim.
//
// Absence of a well-formed block, or a body that does not decode, is not an
// error: the original reply is returned unchanged with no analysis.
func ParseReply(raw string) (string, *DocumentAnalysis) {
	start := strings.Index(raw, fenceOpen)
	if start == -1 {
		return raw, nil
	}

	bodyStart := start + len(fenceOpen)
	rel := strings.Index(raw[bodyStart:], fenceClose)
	if rel == -1 {
		return raw, nil
	}
	body := raw[bodyStart : bodyStart+rel]

	var analysis DocumentAnalysis
	if err := json.Unmarshal([]byte(body), &analysis); err != nil {
		return raw, nil
	}

	end := bodyStart + rel + len(fenceClose)
	content := strings.TrimSpace(raw[:start] + raw[end:])
	return content, &analysis
}
