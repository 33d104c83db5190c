// Package registry provides the SQLite evidence registry for Casewire.
//
// The registry is the durable collaborator the engine itself never touches:
// it holds source documents (emails), exhibit records, graph-event records,
// and a log of corpus scans. The engine consumes plain in-memory records
// listed from here and hands back plain results.
package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/casewire/casewire/internal/cite"
	"github.com/casewire/casewire/internal/fact"
)

// Registry is the SQLite-backed evidence store.
type Registry struct {
	db   *sql.DB
	path string
}

// ScanRecord summarizes one corpus scan.
type ScanRecord struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Documents     int
	Entities      int
	Relationships int
}

// Stats holds registry counts for observability.
type Stats struct {
	Documents   int64
	Exhibits    int64
	GraphEvents int64
	Scans       int64
}

// Open opens (and if needed bootstraps) a registry database.
// Pass ":memory:" for tests.
func Open(path string) (*Registry, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating registry directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening registry: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging registry: %w", err)
	}

	r := &Registry{db: db, path: path}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}

func (r *Registry) migrate() error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			external_id TEXT PRIMARY KEY,
			subject     TEXT NOT NULL DEFAULT '',
			body        TEXT NOT NULL DEFAULT '',
			sender      TEXT NOT NULL DEFAULT '',
			recipients  TEXT NOT NULL DEFAULT '[]',
			cc          TEXT NOT NULL DEFAULT '[]',
			ts          TEXT NOT NULL DEFAULT '',
			imported_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS exhibits (
			id    TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			type  TEXT NOT NULL DEFAULT '',
			path  TEXT NOT NULL DEFAULT '',
			date  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS graph_events (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			title  TEXT NOT NULL DEFAULT '',
			date   TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS scans (
			id            TEXT PRIMARY KEY,
			started_at    TEXT NOT NULL,
			finished_at   TEXT NOT NULL,
			documents     INTEGER NOT NULL,
			entities      INTEGER NOT NULL,
			relationships INTEGER NOT NULL
		)`,
	}
	for _, stmt := range ddl {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("bootstrapping schema: %w", err)
		}
	}
	return nil
}

// AddDocument inserts a source document. Documents are immutable once
// ingested: re-importing an existing external ID is a silent no-op. Returns
// true if the document was newly inserted.
func (r *Registry) AddDocument(ctx context.Context, doc fact.SourceDocument) (bool, error) {
	if doc.ExternalID == "" {
		return false, fmt.Errorf("document has no external id")
	}

	to, _ := json.Marshal(doc.To)
	cc, _ := json.Marshal(doc.CC)
	ts := ""
	if !doc.Timestamp.IsZero() {
		ts = doc.Timestamp.UTC().Format(time.RFC3339)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (external_id, subject, body, sender, recipients, cc, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO NOTHING
	`, doc.ExternalID, doc.Subject, doc.Body, doc.From, string(to), string(cc), ts)
	if err != nil {
		return false, fmt.Errorf("inserting document %s: %w", doc.ExternalID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListDocuments returns every document ordered by external ID.
func (r *Registry) ListDocuments(ctx context.Context) ([]fact.SourceDocument, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT external_id, subject, body, sender, recipients, cc, ts
		FROM documents ORDER BY external_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var out []fact.SourceDocument
	for rows.Next() {
		var doc fact.SourceDocument
		var to, cc, ts string
		if err := rows.Scan(&doc.ExternalID, &doc.Subject, &doc.Body, &doc.From, &to, &cc, &ts); err != nil {
			return nil, fmt.Errorf("scanning document row: %w", err)
		}
		json.Unmarshal([]byte(to), &doc.To)
		json.Unmarshal([]byte(cc), &doc.CC)
		if ts != "" {
			if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
				doc.Timestamp = parsed
			}
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// AddExhibit inserts or replaces an exhibit record.
func (r *Registry) AddExhibit(ctx context.Context, ex cite.Exhibit) error {
	if ex.ID == "" {
		return fmt.Errorf("exhibit has no id")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO exhibits (id, title, type, path, date)
		VALUES (?, ?, ?, ?, ?)
	`, ex.ID, ex.Title, ex.Type, ex.Path, ex.Date)
	if err != nil {
		return fmt.Errorf("inserting exhibit %s: %w", ex.ID, err)
	}
	return nil
}

// ListExhibits returns every exhibit ordered by ID.
func (r *Registry) ListExhibits(ctx context.Context) ([]cite.Exhibit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, type, path, date FROM exhibits ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying exhibits: %w", err)
	}
	defer rows.Close()

	var out []cite.Exhibit
	for rows.Next() {
		var ex cite.Exhibit
		if err := rows.Scan(&ex.ID, &ex.Title, &ex.Type, &ex.Path, &ex.Date); err != nil {
			return nil, fmt.Errorf("scanning exhibit row: %w", err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// AddGraphEvent appends a graph-event record.
func (r *Registry) AddGraphEvent(ctx context.Context, ev cite.GraphEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO graph_events (title, date, detail) VALUES (?, ?, ?)
	`, ev.Title, ev.Date, ev.Detail)
	if err != nil {
		return fmt.Errorf("inserting graph event: %w", err)
	}
	return nil
}

// ListGraphEvents returns graph events in insertion order.
func (r *Registry) ListGraphEvents(ctx context.Context) ([]cite.GraphEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT title, date, detail FROM graph_events ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying graph events: %w", err)
	}
	defer rows.Close()

	var out []cite.GraphEvent
	for rows.Next() {
		var ev cite.GraphEvent
		if err := rows.Scan(&ev.Title, &ev.Date, &ev.Detail); err != nil {
			return nil, fmt.Errorf("scanning graph event row: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// RecordScan logs a completed corpus scan and returns its generated ID.
func (r *Registry) RecordScan(ctx context.Context, rec ScanRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scans (id, started_at, finished_at, documents, entities, relationships)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID,
		rec.StartedAt.UTC().Format(time.RFC3339),
		rec.FinishedAt.UTC().Format(time.RFC3339),
		rec.Documents, rec.Entities, rec.Relationships)
	if err != nil {
		return "", fmt.Errorf("recording scan: %w", err)
	}
	return rec.ID, nil
}

// Stats returns registry row counts.
func (r *Registry) Stats(ctx context.Context) (*Stats, error) {
	s := &Stats{}
	for _, q := range []struct {
		query string
		dst   *int64
	}{
		{`SELECT COUNT(*) FROM documents`, &s.Documents},
		{`SELECT COUNT(*) FROM exhibits`, &s.Exhibits},
		{`SELECT COUNT(*) FROM graph_events`, &s.GraphEvents},
		{`SELECT COUNT(*) FROM scans`, &s.Scans},
	} {
		if err := r.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return nil, fmt.Errorf("counting rows: %w", err)
		}
	}
	return s, nil
}
