package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/casewire/casewire/internal/fact"
)

// CSVImporter handles .csv and .tsv files of document records.
// The first row is treated as headers; recognized headers are external_id,
// subject, body, from, to, cc, and timestamp. Address lists use ';' as the
// in-cell separator.
type CSVImporter struct{}

// CanHandle returns true for CSV/TSV file extensions.
func (c *CSVImporter) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".csv" || ext == ".tsv"
}

// Import parses a CSV file into document records. Rows shorter than the
// header are skipped rather than failing the whole file.
func (c *CSVImporter) Import(ctx context.Context, path string) ([]fact.SourceDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if strings.ToLower(filepath.Ext(path)) == ".tsv" {
		reader.Comma = '\t'
	}
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	cols := map[string]int{}
	for i, h := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var docs []fact.SourceDocument
	for _, row := range records[1:] {
		doc := fact.SourceDocument{
			ExternalID: field(row, "external_id"),
			Subject:    field(row, "subject"),
			Body:       field(row, "body"),
			From:       field(row, "from"),
			To:         splitAddresses(field(row, "to")),
			CC:         splitAddresses(field(row, "cc")),
		}
		if ts := field(row, "timestamp"); ts != "" {
			for _, layout := range []string{time.RFC3339, "2006-01-02"} {
				if parsed, err := time.Parse(layout, ts); err == nil {
					doc.Timestamp = parsed
					break
				}
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func splitAddresses(cell string) []string {
	if cell == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(cell, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
