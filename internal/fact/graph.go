package fact

import "sort"

// Graph is the deduplicated fact graph accumulated over one corpus scan.
//
// Entities are keyed by their content-addressed external ID, relationships by
// (type, from, to). Merge is commutative and idempotent: merging the same
// result twice, or merging two results in either order, yields the same
// graph. The accessors return deterministic orderings so graphs can be
// compared structurally.
//
// A Graph is owned by exactly one caller per scan; it is append-only for the
// duration of the scan and is not safe for concurrent mutation.
type Graph struct {
	entities      map[string]Entity
	relationships map[string]Relationship
	tags          map[string]struct{}
}

// NewGraph returns an empty fact graph.
func NewGraph() *Graph {
	return &Graph{
		entities:      make(map[string]Entity),
		relationships: make(map[string]Relationship),
		tags:          make(map[string]struct{}),
	}
}

// Merge folds one extraction result into the graph.
//
// Entity merge-on-insert policy: tag sets are unioned, confidence takes the
// max, labels are unioned, and properties keep existing values, filling only
// fields the existing record left empty. Relationships are inserted only if
// no existing relationship shares their (type, from, to) key.
func (g *Graph) Merge(r Result) {
	for _, e := range r.Entities {
		existing, ok := g.entities[e.ExternalID]
		if !ok {
			g.entities[e.ExternalID] = e
			continue
		}
		g.entities[e.ExternalID] = mergeEntity(existing, e)
	}

	for _, rel := range r.Relationships {
		key := rel.Key()
		if _, ok := g.relationships[key]; ok {
			continue
		}
		g.relationships[key] = rel
	}

	for _, t := range r.Tags {
		g.tags[t] = struct{}{}
	}
}

// Entity looks up an entity by external ID.
func (g *Graph) Entity(id string) (Entity, bool) {
	e, ok := g.entities[id]
	return e, ok
}

// Entities returns all entities sorted by external ID.
func (g *Graph) Entities() []Entity {
	out := make([]Entity, 0, len(g.entities))
	for _, e := range g.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out
}

// EntitiesWithLabel returns all entities carrying the label, sorted by
// external ID.
func (g *Graph) EntitiesWithLabel(l EntityLabel) []Entity {
	var out []Entity
	for _, e := range g.Entities() {
		if e.HasLabel(l) {
			out = append(out, e)
		}
	}
	return out
}

// Relationships returns all relationships sorted by dedup key.
func (g *Graph) Relationships() []Relationship {
	keys := make([]string, 0, len(g.relationships))
	for k := range g.relationships {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Relationship, 0, len(keys))
	for _, k := range keys {
		out = append(out, g.relationships[k])
	}
	return out
}

// Tags returns the union of document-level tags seen during the scan, sorted.
func (g *Graph) Tags() []string {
	out := make([]string, 0, len(g.tags))
	for t := range g.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Size returns entity and relationship counts.
func (g *Graph) Size() (entities, relationships int) {
	return len(g.entities), len(g.relationships)
}

func mergeEntity(existing, incoming Entity) Entity {
	merged := existing

	merged.Labels = sortedLabels(append(append([]EntityLabel{}, existing.Labels...), incoming.Labels...))
	merged.Tags = sortedTags(append(append([]string{}, existing.Tags...), incoming.Tags...))

	if incoming.Confidence > merged.Confidence {
		merged.Confidence = incoming.Confidence
	}

	switch {
	case merged.Props == nil:
		merged.Props = incoming.Props
	case incoming.Props != nil:
		merged.Props = merged.Props.Fill(incoming.Props)
	}

	if merged.SourceText == "" {
		merged.SourceText = incoming.SourceText
	}

	return merged
}
