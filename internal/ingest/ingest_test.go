package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/casewire/casewire/internal/registry"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func testEngine(t *testing.T) (*Engine, *registry.Registry) {
	t.Helper()
	reg, err := registry.Open(":memory:")
	if err != nil {
		t.Fatalf("opening registry: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return NewEngine(reg), reg
}

func TestImportFile_JSON(t *testing.T) {
	engine, reg := testEngine(t)
	path := writeFile(t, "records.json", `[
		{"external_id": "email_001", "subject": "Escrow update", "body": "Withholding of 3.33%.",
		 "from": "escrow@pacific-escrow.com", "to": ["a@simon-law.com"], "timestamp": "2025-06-01T12:00:00Z"},
		{"external_id": "", "body": "no id"},
		{"external_id": "email_001", "body": "duplicate"}
	]`)

	res, err := engine.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if res.Imported != 1 || res.Skipped != 2 {
		t.Errorf("result = %+v, want 1 imported, 2 skipped", res)
	}

	docs, err := reg.ListDocuments(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("documents = %d, want 1", len(docs))
	}
	doc := docs[0]
	if doc.Subject != "Escrow update" || doc.From != "escrow@pacific-escrow.com" {
		t.Errorf("document = %+v", doc)
	}
	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if !doc.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", doc.Timestamp, want)
	}
}

func TestImportFile_CSV(t *testing.T) {
	engine, reg := testEngine(t)
	path := writeFile(t, "records.csv",
		"external_id,subject,body,from,to,timestamp\n"+
			`email_010,Lien notice,"FLARPL lien for $60,000.",attorney@simon-law.com,x@a.com;y@b.com,2025-04-01`+"\n")

	res, err := engine.ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if res.Imported != 1 {
		t.Fatalf("result = %+v, want 1 imported", res)
	}

	docs, _ := reg.ListDocuments(context.Background())
	doc := docs[0]
	if doc.Body != "FLARPL lien for $60,000." {
		t.Errorf("Body = %q", doc.Body)
	}
	if len(doc.To) != 2 || doc.To[0] != "x@a.com" || doc.To[1] != "y@b.com" {
		t.Errorf("To = %v, want split on ';'", doc.To)
	}
	if doc.Timestamp.IsZero() {
		t.Error("date-only timestamp not parsed")
	}
}

func TestImportFile_UnsupportedExtension(t *testing.T) {
	engine, _ := testEngine(t)
	if _, err := engine.ImportFile(context.Background(), "records.xml"); err == nil {
		t.Error("expected an error for an unsupported file type")
	}
}

func TestImportFile_InvalidJSON(t *testing.T) {
	engine, _ := testEngine(t)
	path := writeFile(t, "bad.json", `{"not": "an array"`)
	if _, err := engine.ImportFile(context.Background(), path); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}

func TestLoadExhibitsAndEvents(t *testing.T) {
	exPath := writeFile(t, "exhibits.json",
		`[{"ID": "12", "Title": "Final Closing Statement", "Path": "exhibits/12.pdf"}]`)
	exhibits, err := LoadExhibits(exPath)
	if err != nil {
		t.Fatalf("LoadExhibits: %v", err)
	}
	if len(exhibits) != 1 || exhibits[0].Title != "Final Closing Statement" {
		t.Errorf("exhibits = %+v", exhibits)
	}

	evPath := writeFile(t, "events.json",
		`[{"Title": "Escrow closed", "Date": "2025-06-15", "Detail": "Proceeds disbursed"}]`)
	events, err := LoadGraphEvents(evPath)
	if err != nil {
		t.Fatalf("LoadGraphEvents: %v", err)
	}
	if len(events) != 1 || events[0].Detail != "Proceeds disbursed" {
		t.Errorf("events = %+v", events)
	}
}

func TestResultAdd(t *testing.T) {
	total := &Result{}
	total.Add(&Result{Imported: 2, Skipped: 1})
	total.Add(&Result{Imported: 1})
	if total.Imported != 3 || total.Skipped != 1 {
		t.Errorf("total = %+v, want 3 imported, 1 skipped", total)
	}
}
