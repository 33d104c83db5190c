// Package ingest loads evidentiary records into the registry.
//
// Supported inputs are JSON and CSV files of email/document records, plus
// JSON lists of exhibits and graph events. The format is detected by file
// extension; parsers preserve record order and skip malformed rows instead
// of aborting the import.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/casewire/casewire/internal/fact"
	"github.com/casewire/casewire/internal/registry"
)

// Importer parses one file format into source documents.
type Importer interface {
	CanHandle(path string) bool
	Import(ctx context.Context, path string) ([]fact.SourceDocument, error)
}

// Result summarizes one import run.
type Result struct {
	Imported int
	Skipped  int
}

// Add accumulates another result into r.
func (r *Result) Add(other *Result) {
	r.Imported += other.Imported
	r.Skipped += other.Skipped
}

// Engine dispatches files to importers and writes records to the registry.
type Engine struct {
	reg       *registry.Registry
	importers []Importer
}

// NewEngine creates an import engine with all built-in importers.
func NewEngine(reg *registry.Registry) *Engine {
	return &Engine{
		reg: reg,
		importers: []Importer{
			&JSONImporter{},
			&CSVImporter{},
		},
	}
}

// ImportFile parses a file of document records and stores them. Documents
// without an external ID, and duplicates of already-ingested IDs, are
// counted as skipped.
func (e *Engine) ImportFile(ctx context.Context, path string) (*Result, error) {
	imp := e.importerFor(path)
	if imp == nil {
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}

	docs, err := imp.Import(ctx, path)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, doc := range docs {
		if strings.TrimSpace(doc.ExternalID) == "" {
			res.Skipped++
			continue
		}
		inserted, err := e.reg.AddDocument(ctx, doc)
		if err != nil {
			return res, err
		}
		if inserted {
			res.Imported++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

func (e *Engine) importerFor(path string) Importer {
	for _, imp := range e.importers {
		if imp.CanHandle(path) {
			return imp
		}
	}
	return nil
}

// FormatResult renders an import summary for the CLI.
func FormatResult(r *Result) string {
	return fmt.Sprintf("Imported %d document(s), skipped %d\n", r.Imported, r.Skipped)
}
