package importer

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeHeader turns a raw header cell into a field name: lowercased,
// leading/trailing whitespace stripped, internal whitespace runs collapsed
// to a single underscore.
func NormalizeHeader(header string) string {
	h := strings.ToLower(header)
	h = strings.TrimSpace(h)
	return whitespaceRun.ReplaceAllString(h, "_")
}

// MapColumns builds the field -> column-index table from a header row. When
// two headers normalize to the same field, the later occurrence wins.
func MapColumns(headers []string) map[string]int {
	mapping := make(map[string]int, len(headers))
	for i, header := range headers {
		field := NormalizeHeader(header)
		if field == "" {
			continue
		}
		mapping[field] = i
	}
	return mapping
}
