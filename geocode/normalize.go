// Copyright 2026 The Geoconv Authors
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"strings"
)

// Turns hyphen separators into commas before the component split.
var hyphenReplacer = strings.NewReplacer("-", ",")

// Normalize cleans up a raw address string before any resolution attempt:
// hyphen separators (with or without surrounding whitespace) become ", ",
// consecutive whitespace collapses to a single space, and leading/trailing
// commas and whitespace are trimmed. Normalize is idempotent.
func Normalize(raw string) string {
	s := hyphenReplacer.Replace(raw)

	parts := strings.Split(s, ",")
	cleaned := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.Join(strings.Fields(part), " ")
		if part == "" {
			continue
		}

		cleaned = append(cleaned, part)
	}

	return strings.Join(cleaned, ", ")
}

// Components splits a normalized address on commas into its ordered, trimmed,
// non-empty parts. The leftmost component is assumed to be the most specific
// (building name), the rightmost the least specific (city or country).
func Components(normalized string) []string {
	if normalized == "" {
		return nil
	}

	parts := strings.Split(normalized, ",")
	components := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		components = append(components, part)
	}

	return components
}
