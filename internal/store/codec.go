package store

import (
	"encoding/csv"
	"strings"
)

// encodeRow joins fields into one CSV line. Fields containing commas,
// quotes or newlines are quoted with internal quotes doubled. Escaping is
// applied uniformly to every table.
func encodeRow(fields []string) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(fields)
	w.Flush()
	return strings.TrimRight(b.String(), "\r\n")
}

// decodeRow splits one line into fields, honoring CSV quoting and
// preserving empty trailing fields. A malformed line (e.g. an unclosed
// quote) returns an error so the caller can skip the row.
func decodeRow(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	return r.Read()
}

// cleanLine trims surrounding whitespace and strips a leading
// byte-order-mark. An empty result means the line should be skipped.
func cleanLine(line string) string {
	line = strings.TrimPrefix(line, "\uFEFF")
	return strings.TrimSpace(line)
}
