package extract

import "strings"

// Dedupe lower-cases matches and keeps the first occurrence of each value.
// Order of first appearance is preserved.
func Dedupe(matches []string) []string {
	seen := make(map[string]struct{}, len(matches))
	unique := make([]string, 0, len(matches))

	for _, m := range matches {
		low := strings.ToLower(m)
		if _, ok := seen[low]; ok {
			continue
		}
		seen[low] = struct{}{}
		unique = append(unique, low)
	}

	return unique
}
