// Package fact defines the typed fact model for Casewire.
//
// Facts are entities (people, organizations, documents, transactions, legal
// actions) and directed relationships between them, extracted from source
// documents. Every entity carries a content-addressed external ID so the same
// fact mentioned in multiple sources collapses to a single node when merged
// into a Graph.
package fact

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"time"
)

// EntityLabel is the type tag for an extracted entity.
type EntityLabel string

const (
	LabelPerson               EntityLabel = "Person"
	LabelOrganization         EntityLabel = "Organization"
	LabelDocumentArtifact     EntityLabel = "DocumentArtifact"
	LabelFinancialTransaction EntityLabel = "FinancialTransaction"
	LabelTaxWithholding       EntityLabel = "TaxWithholding"
	LabelLegalAction          EntityLabel = "LegalAction"

	// LabelEvent marks the document-level node that anchors every
	// relationship extracted from a single source document.
	LabelEvent EntityLabel = "Event"
)

// RelationshipType is the type tag for a directed relationship.
type RelationshipType string

const (
	RelRelatesTo       RelationshipType = "RELATES_TO"
	RelMentions        RelationshipType = "MENTIONS"
	RelHasCounterparty RelationshipType = "HAS_COUNTERPARTY"
)

// SourceDocument is one unit of raw evidentiary text. It is owned by the
// caller and immutable once ingested; the engine only reads it.
type SourceDocument struct {
	ExternalID string
	Subject    string
	Body       string
	From       string
	To         []string
	CC         []string
	Timestamp  time.Time
}

// Entity is a typed fact node extracted from a source document.
//
// ExternalID is content-addressed: two extractions that produce the same
// (primary label, canonical properties, source snippet) always yield the same
// ID. The Graph relies on this as its dedup key.
type Entity struct {
	ExternalID string
	Labels     []EntityLabel
	Props      EntityProps
	Confidence float64
	Tags       []string
	SourceText string
}

// NewEntity builds an entity and computes its content-addressed ExternalID
// from the primary label, the canonical property encoding, and the source
// snippet the entity was extracted from.
func NewEntity(primary EntityLabel, extra []EntityLabel, props EntityProps, confidence float64, sourceText string, tags ...string) Entity {
	labels := append([]EntityLabel{primary}, extra...)
	return Entity{
		ExternalID: ContentID(primary, props.Canonical(), sourceText),
		Labels:     sortedLabels(labels),
		Props:      props,
		Confidence: confidence,
		Tags:       sortedTags(tags),
		SourceText: sourceText,
	}
}

// ContentID computes the content-addressed identifier for an entity.
// NUL separators keep distinct field boundaries from colliding.
func ContentID(label EntityLabel, canonicalProps, sourceText string) string {
	h := sha256.New()
	h.Write([]byte(label))
	h.Write([]byte{0})
	h.Write([]byte(canonicalProps))
	h.Write([]byte{0})
	h.Write([]byte(sourceText))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Endpoint references one side of a relationship: either an entity or a
// document-level event node.
type Endpoint struct {
	ExternalID string
	Labels     []EntityLabel
}

// Ref returns an endpoint referencing the entity.
func (e Entity) Ref() Endpoint {
	return Endpoint{ExternalID: e.ExternalID, Labels: e.Labels}
}

// HasLabel reports whether the entity carries the given label.
func (e Entity) HasLabel(l EntityLabel) bool {
	for _, have := range e.Labels {
		if have == l {
			return true
		}
	}
	return false
}

// Relationship is a directed, typed edge between two endpoints.
type Relationship struct {
	Type       RelationshipType
	From       Endpoint
	To         Endpoint
	Props      map[string]string
	Confidence float64
}

// Key returns the dedup key for a relationship: (type, from, to).
func (r Relationship) Key() string {
	return string(r.Type) + "\x00" + r.From.ExternalID + "\x00" + r.To.ExternalID
}

// Result holds everything extracted from a single source document.
type Result struct {
	DocumentID    string
	Entities      []Entity
	Relationships []Relationship
	Tags          []string
}

func sortedLabels(labels []EntityLabel) []EntityLabel {
	seen := make(map[EntityLabel]struct{}, len(labels))
	out := make([]EntityLabel, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
