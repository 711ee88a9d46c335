// Package strings holds small helpers for identifier lists.
package strings

import "strings"

// DedupeAndTrim trims each identifier and drops blanks and repeats, keeping
// first-seen order. Identifiers compare case-sensitively: DID paths and key
// fragments are case-sensitive. An empty input is returned as is.
func DedupeAndTrim(ids []string) []string {
	if len(ids) == 0 {
		return ids
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
