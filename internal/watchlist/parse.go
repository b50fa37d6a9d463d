package watchlist

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/aristath/newswatch/internal/domain"
)

// parseTable reads a delimited table whose first row is the header.
func parseTable(r io.Reader, delimiter rune, column string) ([]domain.WatchEntry, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("table is empty")
	}

	return entriesFromRows(records[0], records[1:], column)
}

// entriesFromRows picks the identifier column out of rows, in row order.
// Rows without an identifier are skipped.
func entriesFromRows(header []string, rows [][]string, column string) ([]domain.WatchEntry, error) {
	idx := columnIndex(header, column)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found in header", column)
	}

	entries := make([]domain.WatchEntry, 0, len(rows))
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		ticker := strings.TrimSpace(row[idx])
		if ticker == "" {
			continue
		}
		entries = append(entries, domain.WatchEntry(ticker))
	}
	return entries, nil
}

// columnIndex matches exactly first, then case-insensitively.
func columnIndex(header []string, column string) int {
	clean := make([]string, len(header))
	for i, h := range header {
		clean[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	for i, h := range clean {
		if h == column {
			return i
		}
	}
	for i, h := range clean {
		if strings.EqualFold(h, column) {
			return i
		}
	}
	return -1
}
