package utils

import "strings"

// UniqueFold appends the values not already present (case-insensitively) in dst, keeping first-seen order.
func UniqueFold(dst []string, values ...string) []string {
	seen := make(map[string]struct{}, len(dst)+len(values))
	for _, v := range dst {
		seen[strings.ToLower(v)] = struct{}{}
	}

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, v)
	}

	return dst
}
