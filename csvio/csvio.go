// ABOUTME: Converts between CSV and header-keyed string maps
// ABOUTME: Used by list export and bulk import; knows nothing about entities
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeader is returned for an empty input.
var ErrNoHeader = errors.New("csv has no header row")

// NormalizeHeader lowercases a header and joins words with underscores,
// so "Contact Name" reads as contact_name.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.Join(strings.Fields(strings.ToLower(h)), "_")
}

// Write emits header then one line per row, in header order. Missing keys
// are written as empty fields.
func Write(w io.Writer, header []string, rows []map[string]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	line := make([]string, len(header))
	for _, row := range rows {
		for i, h := range header {
			line[i] = row[h]
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read parses r into maps keyed by normalized header. Short rows leave the
// missing keys absent; blank rows are skipped.
func Read(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	keys := make([]string, len(header))
	seen := map[string]bool{}
	for i, h := range header {
		keys[i] = NormalizeHeader(h)
		if keys[i] != "" && seen[keys[i]] {
			return nil, fmt.Errorf("duplicate column %q", keys[i])
		}
		seen[keys[i]] = true
	}

	var rows []map[string]string
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		row := map[string]string{}
		blank := true
		for i, v := range record {
			if i >= len(keys) || keys[i] == "" {
				continue
			}
			v = strings.TrimSpace(v)
			if v != "" {
				blank = false
			}
			row[keys[i]] = v
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
