// Package extract turns raw evidentiary documents into typed facts.
//
// The extraction pipeline identifies structured information from email
// messages and similar records without any NLP model:
// - Organizations derived from header-address domains
// - Currency amounts and percentages
// - Tax-withholding facts (amount, rate, Franchise Tax Board counterparty)
// - Document artifacts (Form 593, FLARPL, RFO, Substitution of Attorney)
// - Legal actions (liens, withholdings, ex parte applications, hearings)
// - Month-day-year dates as timeline tags
//
// Extraction is document-isolated and deterministic: the same document with
// the same rule tables always produces a byte-identical Result.
package extract

import (
	"regexp"
	"strings"

	"github.com/casewire/casewire/internal/classify"
)

// Extractor applies the rule tables to single documents. It is a stateless
// value: construct it once from static rule tables and pass it to callers.
type Extractor struct {
	docRules    []classify.Rule
	actionRules []classify.Rule
	denyDomains map[string]struct{}
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDocumentRules replaces the built-in document-keyword rule table.
func WithDocumentRules(rules []classify.Rule) Option {
	return func(e *Extractor) { e.docRules = rules }
}

// WithActionRules replaces the built-in legal-action rule table.
func WithActionRules(rules []classify.Rule) Option {
	return func(e *Extractor) { e.actionRules = rules }
}

// WithDenyDomains replaces the consumer email-provider deny-list.
func WithDenyDomains(domains []string) Option {
	return func(e *Extractor) {
		e.denyDomains = make(map[string]struct{}, len(domains))
		for _, d := range domains {
			e.denyDomains[strings.ToLower(d)] = struct{}{}
		}
	}
}

// NewExtractor creates an extractor with the built-in rule tables.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		docRules:    DefaultDocumentRules(),
		actionRules: DefaultActionRules(),
		denyDomains: defaultDenyDomains(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultWithholdingRate is the statutory California real-estate withholding
// rate, used when no percentage appears in the text.
const DefaultWithholdingRate = 3.33

var (
	moneyRE   = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`)
	percentRE = regexp.MustCompile(`(\d+(?:\.\d+)?)\s?%`)
	dateRE    = regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`)

	// withholdingRE doubles as the keyword test and the source-snippet
	// capture for synthesized withholding entities.
	withholdingRE = regexp.MustCompile(`(?i)withhold\w*|\bFTB\b|form\s*593|franchise\s+tax\s+board`)

	whitespaceRE = regexp.MustCompile(`\s+`)
	addressRE    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
)

// DefaultDocumentRules is the built-in document-keyword rule table. Matching
// any signal ("any hit") emits a DocumentArtifact plus a MENTIONS edge.
func DefaultDocumentRules() []classify.Rule {
	return []classify.Rule{
		{
			Label:    "Form 593",
			Keywords: []string{"form 593"},
			Patterns: classify.MustPatterns(`(?i)form\s*593`),
			Tags:     []string{"tax-form"},
		},
		{
			Label:    "FLARPL",
			Keywords: []string{"flarpl", "lien release"},
			Patterns: classify.MustPatterns(`(?i)\bFLARPL\b`, `(?i)attorney'?s?\s+real\s+property\s+lien`),
			Tags:     []string{"lien-instrument"},
		},
		{
			Label:    "Request for Order",
			Keywords: []string{"request for order"},
			Patterns: classify.MustPatterns(`(?i)request\s+for\s+order`, `(?i)\bRFO\b`),
			Tags:     []string{"court-filing"},
		},
		{
			Label:    "Substitution of Attorney",
			Keywords: []string{"substitution of attorney"},
			Patterns: classify.MustPatterns(`(?i)substitution\s+of\s+attorney`),
			Tags:     []string{"court-filing"},
		},
	}
}

// DefaultActionRules is the built-in legal-action rule table.
func DefaultActionRules() []classify.Rule {
	return []classify.Rule{
		{
			Label:    "Lien",
			Keywords: []string{"lien"},
			Patterns: classify.MustPatterns(`(?i)\blien\b`),
			Tags:     []string{"lien"},
		},
		{
			Label:    "Tax Withholding",
			Keywords: []string{"withholding"},
			Patterns: classify.MustPatterns(`(?i)withhold\w*`),
			Tags:     []string{"withholding"},
		},
		{
			Label:    "Ex Parte",
			Keywords: []string{"ex parte"},
			Patterns: classify.MustPatterns(`(?i)ex\s+parte`),
			Tags:     []string{"ex-parte"},
		},
		{
			Label:    "Hearing",
			Keywords: []string{"hearing", "motion"},
			Patterns: classify.MustPatterns(`(?i)\bhearing\b`, `(?i)\bmotion\b`),
			Tags:     []string{"hearing"},
		},
	}
}

func defaultDenyDomains() map[string]struct{} {
	domains := []string{
		"gmail.com", "yahoo.com", "hotmail.com", "outlook.com",
		"aol.com", "icloud.com", "msn.com", "live.com",
		"comcast.net", "protonmail.com",
	}
	out := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		out[d] = struct{}{}
	}
	return out
}

// normalizeWhitespace collapses runs of whitespace to single spaces.
func normalizeWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
}

// orgNameFromDomain converts "simon-law.com" into "Simon Law". The last
// label (the TLD) is dropped; remaining labels are split on dashes and
// title-cased.
func orgNameFromDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	labels := strings.Split(domain, ".")
	if len(labels) > 1 {
		labels = labels[:len(labels)-1]
	}

	var words []string
	for _, label := range labels {
		for _, part := range strings.Split(label, "-") {
			if part == "" {
				continue
			}
			words = append(words, strings.ToUpper(part[:1])+part[1:])
		}
	}
	return strings.Join(words, " ")
}

// firstMatchSnippet returns the left-most signal hit for a rule: the first
// regex match if any pattern fires, otherwise the first keyword occurrence.
// Scanning is left-to-right over the normalized text so content-addressed
// IDs are reproducible.
func firstMatchSnippet(text string, rule classify.Rule) string {
	bestPos := -1
	snippet := ""

	for _, re := range rule.Patterns {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if bestPos == -1 || loc[0] < bestPos {
			bestPos = loc[0]
			snippet = text[loc[0]:loc[1]]
		}
	}
	if snippet != "" {
		return snippet
	}

	lower := strings.ToLower(text)
	for _, kw := range rule.Keywords {
		pos := strings.Index(lower, strings.ToLower(kw))
		if pos == -1 {
			continue
		}
		if bestPos == -1 || pos < bestPos {
			bestPos = pos
			snippet = text[pos : pos+len(kw)]
		}
	}
	return snippet
}

// uniqueInOrder deduplicates while preserving first-seen order.
func uniqueInOrder(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
