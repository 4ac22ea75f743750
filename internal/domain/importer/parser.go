package importer

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// ErrNoHeader means the payload has no usable header line, which makes the
// whole file unprocessable (an infrastructure-level fault, not a row error).
var ErrNoHeader = fmt.Errorf("import payload has no header line")

// ParsedFile is the outcome of parsing one uploaded payload.
type ParsedFile struct {
	Header []string
	Rows   []Row
}

// Parse splits the payload into physical lines, reads the first line as the
// header and maps every following non-blank line onto the header columns.
// A line whose cells are all empty or whitespace is skipped, but later rows
// keep their true source line number (the header is line 1, so the first data
// row reports line 2). Malformed rows are not rejected here: a short row is
// simply mapped incompletely and surfaces downstream as a validation error.
func Parse(payload string) (*ParsedFile, error) {
	lines := strings.Split(strings.ReplaceAll(payload, "\r\n", "\n"), "\n")

	header := splitLine(lines[0])
	if isBlank(header) {
		return nil, ErrNoHeader
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	parsed := &ParsedFile{Header: header}
	for i := 1; i < len(lines); i++ {
		cells := splitLine(lines[i])
		if isBlank(cells) {
			continue
		}

		fields := make(map[string]string, len(header))
		for j, col := range header {
			if j < len(cells) {
				fields[col] = cells[j]
			}
		}
		// Cells beyond the header width have no column name and are dropped.

		parsed.Rows = append(parsed.Rows, Row{Line: i + 1, Fields: fields})
	}

	return parsed, nil
}

// splitLine tokenizes one physical line. Each line gets its own CSV reader so
// quoting can never swallow a line boundary and shift the reported numbers.
func splitLine(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	cells, err := r.Read()
	if err != nil {
		// Keep the raw content in a single cell; the validator will reject it.
		return []string{line}
	}
	return cells
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
