package importer

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// buildRow reads one record through the column mapping into an attribute
// bag. Cells beyond the record's length are simply absent; string values are
// trimmed. The only default applied: an empty available_on becomes yesterday
// so the product is visible as soon as the import lands.
func buildRow(mapping map[string]int, record []string) map[string]string {
	row := make(map[string]string, len(mapping))
	for field, index := range mapping {
		if index < 0 || index >= len(record) {
			continue
		}
		row[field] = strings.TrimSpace(record[index])
	}
	if row["available_on"] == "" {
		row["available_on"] = time.Now().AddDate(0, 0, -1).Format(dateLayout)
	}
	return row
}
