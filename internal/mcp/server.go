// Package mcp provides a Model Context Protocol server for Casewire.
//
// It exposes the extraction engine (extract, scan, annotate, citations) as
// MCP tools and registry statistics as an MCP resource, so dashboard
// frontends and agent clients can call the engine over stdio without
// linking it.
package mcp

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/casewire/casewire/internal/annotate"
	"github.com/casewire/casewire/internal/cite"
	"github.com/casewire/casewire/internal/extract"
	"github.com/casewire/casewire/internal/fact"
	"github.com/casewire/casewire/internal/registry"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Registry  *registry.Registry
	Extractor *extract.Extractor
	Annotator *annotate.Annotator
	Version   string
	Workers   int
}

// dbMu serializes tool calls that touch the registry. The mcp-go library
// dispatches handlers concurrently, and SQLite supports only one writer at
// a time.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with all Casewire tools and
// resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	if cfg.Extractor == nil {
		cfg.Extractor = extract.NewExtractor()
	}
	if cfg.Annotator == nil {
		cfg.Annotator = annotate.New()
	}

	s := server.NewMCPServer(
		"Casewire",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerExtractTool(s, cfg.Extractor)
	registerScanTool(s, cfg)
	registerAnnotateTool(s, cfg)
	registerCitationsTool(s, cfg)
	registerStatsResource(s, cfg.Registry)

	return s
}

// entityView is the JSON projection of an extracted entity.
type entityView struct {
	ExternalID string   `json:"external_id"`
	Labels     []string `json:"labels"`
	Properties string   `json:"properties"`
	Confidence float64  `json:"confidence"`
	Tags       []string `json:"tags,omitempty"`
	SourceText string   `json:"source_text"`
}

type relationshipView struct {
	Type       string  `json:"type"`
	From       string  `json:"from"`
	To         string  `json:"to"`
	Confidence float64 `json:"confidence"`
}

func entityViews(entities []fact.Entity) []entityView {
	out := make([]entityView, 0, len(entities))
	for _, e := range entities {
		v := entityView{
			ExternalID: e.ExternalID,
			Confidence: e.Confidence,
			Tags:       e.Tags,
			SourceText: e.SourceText,
		}
		for _, l := range e.Labels {
			v.Labels = append(v.Labels, string(l))
		}
		if e.Props != nil {
			v.Properties = e.Props.Canonical()
		}
		out = append(out, v)
	}
	return out
}

func relationshipViews(rels []fact.Relationship) []relationshipView {
	out := make([]relationshipView, 0, len(rels))
	for _, r := range rels {
		out = append(out, relationshipView{
			Type:       string(r.Type),
			From:       r.From.ExternalID,
			To:         r.To.ExternalID,
			Confidence: r.Confidence,
		})
	}
	return out
}

func registerExtractTool(s *server.MCPServer, ex *extract.Extractor) {
	tool := mcp.NewTool("casewire_extract",
		mcp.WithDescription("Extract typed entities and relationships from a single email/document. Returns the extraction result as JSON."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("external_id",
			mcp.Required(),
			mcp.Description("Stable caller-supplied document identifier"),
		),
		mcp.WithString("subject",
			mcp.Description("Document subject or title"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Document body text"),
		),
		mcp.WithString("from",
			mcp.Description("Sender address"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		externalID, err := req.RequireString("external_id")
		if err != nil {
			return mcp.NewToolResultError("external_id is required"), nil
		}
		body, err := req.RequireString("body")
		if err != nil {
			return mcp.NewToolResultError("body is required"), nil
		}

		doc := fact.SourceDocument{ExternalID: externalID, Body: body}
		if subject, err := req.RequireString("subject"); err == nil {
			doc.Subject = subject
		}
		if from, err := req.RequireString("from"); err == nil {
			doc.From = from
		}

		result := ex.Extract(doc)
		payload := map[string]interface{}{
			"document_id":   result.DocumentID,
			"entities":      entityViews(result.Entities),
			"relationships": relationshipViews(result.Relationships),
			"tags":          result.Tags,
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerScanTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("casewire_scan",
		mcp.WithDescription("Scan every document in the evidence registry, merge results into a deduplicated fact graph, and record the scan. Returns graph statistics."),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		graph, docCount, err := scanRegistry(ctx, cfg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		entities, relationships := graph.Size()
		payload := map[string]interface{}{
			"documents":     docCount,
			"entities":      entities,
			"relationships": relationships,
			"tags":          graph.Tags(),
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerAnnotateTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("casewire_annotate",
		mcp.WithDescription("Insert citation markers into a narrative text using the citation index built from the registry, and append a References section. Idempotent."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Narrative text to annotate"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}

		idx, err := buildIndex(ctx, cfg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result := cfg.Annotator.Annotate(text, idx)
		return mcp.NewToolResultText(result.Text), nil
	})
}

func registerCitationsTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("casewire_citations",
		mcp.WithDescription("Build and return the topical citation index: bucket keys mapped to their best supporting exhibit, email, or graph citation."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		idx, err := buildIndex(ctx, cfg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload := map[string]interface{}{}
		for _, bucket := range idx.Buckets() {
			payload[bucket] = idx.Citations(bucket)
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerStatsResource(s *server.MCPServer, reg *registry.Registry) {
	if reg == nil {
		return
	}
	resource := mcp.NewResource(
		"casewire://stats",
		"Registry Statistics",
		mcp.WithResourceDescription("Document, exhibit, graph-event, and scan counts in the evidence registry."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		stats, err := reg.Stats(ctx)
		if err != nil {
			return nil, err
		}
		data, _ := json.MarshalIndent(stats, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}

// scanRegistry runs a full corpus scan over the registry's documents and
// records it.
func scanRegistry(ctx context.Context, cfg ServerConfig) (*fact.Graph, int, error) {
	docs, err := cfg.Registry.ListDocuments(ctx)
	if err != nil {
		return nil, 0, err
	}

	started := time.Now()
	graph, err := extract.ScanCorpus(ctx, cfg.Extractor, docs, cfg.Workers)
	if err != nil {
		return nil, 0, err
	}

	entities, relationships := graph.Size()
	_, err = cfg.Registry.RecordScan(ctx, registry.ScanRecord{
		StartedAt:     started,
		FinishedAt:    time.Now(),
		Documents:     len(docs),
		Entities:      entities,
		Relationships: relationships,
	})
	if err != nil {
		return nil, 0, err
	}
	return graph, len(docs), nil
}

// buildIndex scans the registry and assembles the citation index from the
// resulting graph plus the stored exhibit and graph-event records.
func buildIndex(ctx context.Context, cfg ServerConfig) (cite.Index, error) {
	docs, err := cfg.Registry.ListDocuments(ctx)
	if err != nil {
		return cite.Index{}, err
	}
	graph, err := extract.ScanCorpus(ctx, cfg.Extractor, docs, cfg.Workers)
	if err != nil {
		return cite.Index{}, err
	}
	exhibits, err := cfg.Registry.ListExhibits(ctx)
	if err != nil {
		return cite.Index{}, err
	}
	events, err := cfg.Registry.ListGraphEvents(ctx)
	if err != nil {
		return cite.Index{}, err
	}
	return cite.Build(graph, exhibits, events), nil
}
