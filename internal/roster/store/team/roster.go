package team

import "strings"

// normalizeRoster trims each entry and drops blanks and duplicate Discord IDs,
// preserving first-seen order. IDs are case-sensitive, so no folding happens
// here. Both store backends normalize on Upsert so reads agree on shape.
func normalizeRoster(roster []string) []string {
	seen := make(map[string]struct{}, len(roster))
	normalized := make([]string, 0, len(roster))
	for _, id := range roster {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		normalized = append(normalized, id)
	}
	return normalized
}
