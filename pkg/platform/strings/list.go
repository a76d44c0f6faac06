// Package strings splits delimited configuration values.
package strings

import (
	"strings"
)

// SplitList splits s on sep, trims each element and drops empties and
// duplicates. Order is preserved.
//
// Example:
//
//	SplitList(" b1:9092, b2:9092,,b1:9092 ", ",")
//	// Returns: []string{"b1:9092", "b2:9092"}
func SplitList(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, sep)
	seen := make(map[string]struct{}, len(parts))
	result := make([]string, 0, len(parts))

	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}
