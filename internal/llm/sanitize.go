package llm

import (
	"regexp"
	"strings"
)

var (
	reFenceLine = regexp.MustCompile("^\\s*```\\s*json\\s*$|^\\s*```\\s*$")
	reNullName  = regexp.MustCompile(`"\s*patient_name\s*"\s*:\s*null`)
	reBareNull  = regexp.MustCompile(`(?i)\bnull\b`)
	reNoInfo    = regexp.MustCompile(`(?i)no information`)
)

// SanitizeModelJSON extracts the candidate JSON payload from raw model
// output. It locates the first '{' and treats everything from there as the
// candidate, then strips markdown fence lines. ok is false when the text
// contains no '{' at all.
func SanitizeModelJSON(raw string) (string, bool) {
	idx := strings.IndexByte(raw, '{')
	if idx < 0 {
		return "", false
	}
	candidate := raw[idx:]

	var kept []string
	for _, line := range strings.Split(candidate, "\n") {
		if reFenceLine.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n")), true
}

// LooksUseless flags near-empty extractions: a null patient name, or model
// commentary about missing information, or any bare "null" token. This is a
// deliberately false-positive-tolerant guard, not a strict contract.
func LooksUseless(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return true
	}
	if reNullName.MatchString(raw) {
		return true
	}
	if reNoInfo.MatchString(raw) {
		return true
	}
	return reBareNull.MatchString(raw)
}
