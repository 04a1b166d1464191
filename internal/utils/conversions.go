package utils

import "strings"

// NonEmptyStrings trims every entry and drops the blank ones
func NonEmptyStrings(slice []string) []string {
	stringSlice := make([]string, 0, len(slice))
	for _, v := range slice {
		if s := strings.TrimSpace(v); s != "" {
			stringSlice = append(stringSlice, s)
		}
	}
	return stringSlice
}
