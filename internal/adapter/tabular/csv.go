package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV reads a headed CSV table into raw rows keyed by column name,
// ready for MapHoldings or MapTargets. Separator autodetection is limited to
// the two separators seen in the wild for these exports: ';' (pt-BR Excel)
// and ','.
func ReadCSV(r io.Reader) ([]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}

	rows, err := parseCSV(data, ';')
	if err != nil || singleColumn(rows) {
		rows, err = parseCSV(data, ',')
	}
	if err != nil {
		return nil, fmt.Errorf("parse table: %w", err)
	}
	return rows, nil
}

func parseCSV(data []byte, sep rune) ([]map[string]any, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sep
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]any, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// singleColumn detects a wrong separator guess: every row collapsed into one
// column means the file uses the other separator.
func singleColumn(rows []map[string]any) bool {
	for _, row := range rows {
		if len(row) > 1 {
			return false
		}
	}
	return true
}
