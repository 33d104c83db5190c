package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/casewire/casewire/internal/cite"
	"github.com/casewire/casewire/internal/fact"
)

// JSONImporter handles .json files containing an array of document records.
type JSONImporter struct{}

// documentRecord is the interchange shape of one email/document record.
type documentRecord struct {
	ExternalID string   `json:"external_id"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	From       string   `json:"from"`
	To         []string `json:"to"`
	CC         []string `json:"cc"`
	Timestamp  string   `json:"timestamp"`
}

// CanHandle returns true for JSON file extensions.
func (j *JSONImporter) CanHandle(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".json"
}

// Import parses a JSON array of document records.
func (j *JSONImporter) Import(ctx context.Context, path string) ([]fact.SourceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []documentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}

	docs := make([]fact.SourceDocument, 0, len(records))
	for _, rec := range records {
		docs = append(docs, rec.toDocument())
	}
	return docs, nil
}

func (rec documentRecord) toDocument() fact.SourceDocument {
	doc := fact.SourceDocument{
		ExternalID: rec.ExternalID,
		Subject:    rec.Subject,
		Body:       rec.Body,
		From:       rec.From,
		To:         rec.To,
		CC:         rec.CC,
	}
	if rec.Timestamp != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if ts, err := time.Parse(layout, rec.Timestamp); err == nil {
				doc.Timestamp = ts
				break
			}
		}
	}
	return doc
}

// LoadExhibits parses a JSON array of exhibit records.
func LoadExhibits(path string) ([]cite.Exhibit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []cite.Exhibit
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid exhibit JSON in %s: %w", path, err)
	}
	return out, nil
}

// LoadGraphEvents parses a JSON array of graph-event records.
func LoadGraphEvents(path string) ([]cite.GraphEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []cite.GraphEvent
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid graph-event JSON in %s: %w", path, err)
	}
	return out, nil
}
