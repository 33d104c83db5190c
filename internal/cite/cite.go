// Package cite builds the topical citation index used by the annotator.
//
// Citations come from three read-only sources: exhibits supplied by the
// document registry, event nodes in the fact graph (email-derived), and
// graph-event records supplied by the graph store. Each topical bucket
// registers at most the best citation found; a bucket with no match is
// simply absent from the index.
package cite

import (
	"sort"
	"strings"

	"github.com/casewire/casewire/internal/fact"
)

// Kind identifies the provenance of a citation and drives the marker letter
// the annotator allocates (X/E/G).
type Kind string

const (
	KindExhibit Kind = "exhibit"
	KindEmail   Kind = "email"
	KindGraph   Kind = "graph"
)

// Citation is one supporting reference for a class of claim.
type Citation struct {
	ID     string
	Title  string
	Date   string
	Detail string
	File   string
	Kind   Kind
}

// Exhibit is an externally supplied exhibit record.
type Exhibit struct {
	ID    string
	Title string
	Type  string
	Path  string
	Date  string
}

// GraphEvent is an externally supplied graph-event record.
type GraphEvent struct {
	Title  string
	Date   string
	Detail string
}

// Bucket keys. The enumeration is fixed: the annotator's claim rules refer
// to these by name.
const (
	BucketNetProceeds    = "net_proceeds"
	BucketMortgagePayoff = "mortgage_payoff"
	BucketSODAllocation  = "sod_allocation"
	BucketMortgageRelief = "mortgage_relief"
	BucketContinuance    = "continuance"
	BucketCounselRef     = "counsel_referral"
	BucketAppraisal      = "appraisal"
	BucketWithholding    = "withholding"
	BucketGraphEvent     = "graph_event"
)

// Index maps bucket keys to their citations, best first. It is built once
// per annotation run and read-only afterwards.
type Index struct {
	buckets map[string][]Citation
}

// Lookup returns the best citation for a bucket.
func (ix Index) Lookup(bucket string) (Citation, bool) {
	cs, ok := ix.buckets[bucket]
	if !ok || len(cs) == 0 {
		return Citation{}, false
	}
	return cs[0], true
}

// Buckets returns the registered bucket keys, sorted.
func (ix Index) Buckets() []string {
	out := make([]string, 0, len(ix.buckets))
	for k := range ix.buckets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Citations returns every citation registered under a bucket.
func (ix Index) Citations(bucket string) []Citation {
	return ix.buckets[bucket]
}

// bucketSpec describes how one bucket selects its citation: an exhibit
// predicate, an event-node external-id prefix, or the graph-event feed, in
// that preference order.
type bucketSpec struct {
	key         string
	exhibit     func(Exhibit) bool
	emailPrefix string
	useGraph    bool
}

func titleHas(terms ...string) func(Exhibit) bool {
	return func(ex Exhibit) bool {
		hay := strings.ToLower(ex.Title + " " + ex.Type)
		for _, t := range terms {
			if strings.Contains(hay, t) {
				return true
			}
		}
		return false
	}
}

var bucketSpecs = []bucketSpec{
	{key: BucketNetProceeds, exhibit: titleHas("closing statement", "settlement statement", "net proceeds"), emailPrefix: BucketNetProceeds},
	{key: BucketMortgagePayoff, exhibit: titleHas("payoff"), emailPrefix: BucketMortgagePayoff},
	{key: BucketSODAllocation, exhibit: titleHas("statement of decision"), emailPrefix: BucketSODAllocation},
	{key: BucketMortgageRelief, exhibit: titleHas("mortgage relief", "forbearance"), emailPrefix: BucketMortgageRelief},
	{key: BucketContinuance, exhibit: titleHas("continuance"), emailPrefix: BucketContinuance},
	{key: BucketCounselRef, exhibit: titleHas("referral"), emailPrefix: BucketCounselRef},
	{key: BucketAppraisal, exhibit: titleHas("appraisal"), emailPrefix: BucketAppraisal},
	{key: BucketWithholding, exhibit: titleHas("form 593", "withholding"), emailPrefix: BucketWithholding},
	{key: BucketGraphEvent, useGraph: true},
}

// Build constructs the citation index from the fact graph plus the external
// citation sources. For each bucket it registers the best-matching exhibit,
// else the best email-derived citation (event nodes whose external ID uses
// the bucket_* prefix convention), else the first available graph event.
func Build(graph *fact.Graph, exhibits []Exhibit, events []GraphEvent) Index {
	ix := Index{buckets: map[string][]Citation{}}

	var eventNodes []fact.Entity
	if graph != nil {
		eventNodes = graph.EntitiesWithLabel(fact.LabelEvent)
	}

	for _, spec := range bucketSpecs {
		if c, ok := selectCitation(spec, exhibits, eventNodes, events); ok {
			ix.buckets[spec.key] = append(ix.buckets[spec.key], c)
		}
	}
	return ix
}

func selectCitation(spec bucketSpec, exhibits []Exhibit, eventNodes []fact.Entity, events []GraphEvent) (Citation, bool) {
	if spec.exhibit != nil {
		for _, ex := range exhibits {
			if spec.exhibit(ex) {
				return Citation{
					ID:     ex.ID,
					Title:  ex.Title,
					Date:   ex.Date,
					Detail: ex.Title,
					File:   ex.Path,
					Kind:   KindExhibit,
				}, true
			}
		}
	}

	if spec.emailPrefix != "" {
		// eventNodes are sorted by external ID, so the first prefix hit is
		// deterministic across runs.
		for _, node := range eventNodes {
			if !strings.HasPrefix(node.ExternalID, spec.emailPrefix+"_") {
				continue
			}
			c := Citation{ID: node.ExternalID, Kind: KindEmail}
			if props, ok := node.Props.(fact.EventProps); ok {
				c.Title = props.Subject
				c.Date = props.Date
				c.Detail = props.Subject
			}
			if c.Detail == "" {
				c.Detail = node.SourceText
			}
			return c, true
		}
	}

	if spec.useGraph && len(events) > 0 {
		ev := events[0]
		detail := ev.Detail
		if detail == "" {
			detail = ev.Title
		}
		return Citation{
			Title:  ev.Title,
			Date:   ev.Date,
			Detail: detail,
			Kind:   KindGraph,
		}, true
	}

	return Citation{}, false
}
