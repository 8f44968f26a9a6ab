package services

import "strings"

var headerReplacer = strings.NewReplacer(" ", "_", "/", "_", ",", "_", "*", "")

// NormalizeHeader canonicalizes one raw column name. The trailing trim keeps the
// result stable when a stripped asterisk exposes surrounding whitespace.
func NormalizeHeader(raw string) string {
	return strings.TrimSpace(headerReplacer.Replace(strings.ToLower(strings.TrimSpace(raw))))
}

func NormalizeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	for i, h := range raw {
		out[i] = NormalizeHeader(h)
	}
	return out
}
