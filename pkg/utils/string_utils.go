package utils

import "strings"

// TrimSpaceSlice trims whitespace from all strings in a slice and filters out empty strings
func TrimSpaceSlice(items []string) []string {
	var result []string
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ParseCommaDelimited parses a comma-delimited string into a slice of trimmed, non-empty strings
func ParseCommaDelimited(input string) []string {
	if input == "" {
		return nil
	}

	parts := strings.Split(input, ",")
	return TrimSpaceSlice(parts)
}

// ParseArgumentKeys parses a comma-delimited list of detector keys.
// Keys are lowercased and dashes are accepted in place of underscores ("function-naming").
func ParseArgumentKeys(input string) []string {
	keys := ParseCommaDelimited(input)
	for i, key := range keys {
		keys[i] = strings.ReplaceAll(strings.ToLower(key), "-", "_")
	}
	return keys
}
