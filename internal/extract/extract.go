package extract

import (
	"strconv"
	"strings"

	"github.com/casewire/casewire/internal/classify"
	"github.com/casewire/casewire/internal/fact"
)

// Diagnostic tags attached to results for malformed input. A bad record is
// skipped with a tag, never a corpus-wide failure.
const (
	TagMissingExternalID = "malformed:missing_external_id"

	// TagDefaultRate marks withholding entities whose rate was not found in
	// text and fell back to the statutory default.
	TagDefaultRate = "rate:default"
)

// franchiseTaxBoardEntity is the canonical FTB organization node. Its inputs
// are constants, so every document that mentions a withholding produces the
// identical external ID and the graph collapses them to one node.
func franchiseTaxBoardEntity() fact.Entity {
	return fact.NewEntity(
		fact.LabelOrganization,
		nil,
		fact.OrganizationProps{Name: "Franchise Tax Board"},
		1.0,
		"Franchise Tax Board",
		"government",
	)
}

// Extract runs the extraction pipeline on one document. The steps run in a
// fixed order because later steps consume outputs of earlier ones (the
// withholding step reuses the first extracted amount and percentage).
func (e *Extractor) Extract(doc fact.SourceDocument) fact.Result {
	res := fact.Result{DocumentID: doc.ExternalID}

	if strings.TrimSpace(doc.ExternalID) == "" {
		res.Tags = append(res.Tags, TagMissingExternalID)
		return res
	}

	text := normalizeWhitespace(doc.Subject + " " + doc.Body)

	event := eventEntity(doc)
	res.Entities = append(res.Entities, event)
	eventRef := event.Ref()

	// Step 2: organizations from header-address domains.
	res.Entities = append(res.Entities, e.extractOrganizations(doc)...)

	// Step 3: currency amounts.
	amounts := e.extractAmounts(text, eventRef, &res)

	// Step 4: percentages (consumed by step 5 only).
	percents := extractPercentages(text)

	// Step 5: tax withholding.
	e.extractWithholding(text, amounts, percents, eventRef, &res)

	// Step 6: document artifacts.
	e.extractArtifacts(text, eventRef, &res)

	// Step 7: legal actions.
	e.extractActions(text, eventRef, &res)

	// Step 8: dates feed timeline alignment only, not the fact graph.
	for _, d := range uniqueInOrder(dateRE.FindAllString(text, -1)) {
		res.Tags = append(res.Tags, "date:"+d)
	}
	res.Tags = uniqueInOrder(res.Tags)

	return res
}

// eventEntity builds the document-level event node. It is keyed by the
// caller-supplied external ID, not a content hash, so re-importing the same
// document merges onto the same node.
func eventEntity(doc fact.SourceDocument) fact.Entity {
	date := ""
	if !doc.Timestamp.IsZero() {
		date = doc.Timestamp.Format("2006-01-02")
	}
	return fact.Entity{
		ExternalID: doc.ExternalID,
		Labels:     []fact.EntityLabel{fact.LabelEvent},
		Props:      fact.EventProps{Subject: doc.Subject, Date: date},
		Confidence: 1.0,
		SourceText: doc.Subject,
	}
}

// extractOrganizations derives organization entities from the domain portion
// of every header address, excluding consumer email providers. Header order
// (From, To, CC) is preserved; duplicate domains keep the first occurrence.
func (e *Extractor) extractOrganizations(doc fact.SourceDocument) []fact.Entity {
	addresses := append([]string{doc.From}, doc.To...)
	addresses = append(addresses, doc.CC...)

	var out []fact.Entity
	seen := map[string]struct{}{}
	for _, addr := range addresses {
		m := addressRE.FindStringSubmatch(addr)
		if m == nil {
			continue
		}
		domain := strings.ToLower(m[1])
		if _, deny := e.denyDomains[domain]; deny {
			continue
		}
		if _, dup := seen[domain]; dup {
			continue
		}
		seen[domain] = struct{}{}

		out = append(out, fact.NewEntity(
			fact.LabelOrganization,
			nil,
			fact.OrganizationProps{Name: orgNameFromDomain(domain), Domain: domain},
			0.75,
			domain,
		))
	}
	return out
}

// extractAmounts finds currency substrings left-to-right. Each becomes a
// FinancialTransaction entity linked from the event node, and the parsed
// values are returned in order for the withholding step.
func (e *Extractor) extractAmounts(text string, eventRef fact.Endpoint, res *fact.Result) []float64 {
	var amounts []float64
	seen := map[string]struct{}{}

	for _, m := range moneyRE.FindAllStringSubmatch(text, -1) {
		amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		amounts = append(amounts, amount)

		snippet := m[0]
		if _, dup := seen[snippet]; dup {
			continue
		}
		seen[snippet] = struct{}{}

		entity := fact.NewEntity(
			fact.LabelFinancialTransaction,
			nil,
			fact.TransactionProps{Amount: amount, Currency: "USD", TransactionType: "Mentioned"},
			0.85,
			snippet,
		)
		res.Entities = append(res.Entities, entity)
		res.Relationships = append(res.Relationships, fact.Relationship{
			Type:       fact.RelRelatesTo,
			From:       eventRef,
			To:         entity.Ref(),
			Confidence: 0.85,
		})
	}
	return amounts
}

func extractPercentages(text string) []float64 {
	var out []float64
	for _, m := range percentRE.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// extractWithholding synthesizes a TaxWithholding entity when any
// withholding keyword appears. The amount is the first extracted amount (if
// any); the rate is the first extracted percentage, falling back to the
// statutory default. The canonical Franchise Tax Board organization is the
// counterparty.
func (e *Extractor) extractWithholding(text string, amounts, percents []float64, eventRef fact.Endpoint, res *fact.Result) {
	snippet := withholdingRE.FindString(text)
	if snippet == "" {
		return
	}

	props := fact.WithholdingProps{Currency: "USD", Percentage: DefaultWithholdingRate}
	tags := []string{"withholding", TagDefaultRate}
	if len(percents) > 0 {
		props.Percentage = percents[0]
		tags = []string{"withholding"}
	}
	if len(amounts) > 0 {
		props.Amount = amounts[0]
		props.HasAmount = true
	}

	withholding := fact.NewEntity(
		fact.LabelTaxWithholding,
		[]fact.EntityLabel{fact.LabelFinancialTransaction},
		props,
		0.9,
		snippet,
		tags...,
	)
	ftb := franchiseTaxBoardEntity()

	res.Entities = append(res.Entities, withholding, ftb)
	res.Relationships = append(res.Relationships,
		fact.Relationship{
			Type:       fact.RelRelatesTo,
			From:       eventRef,
			To:         withholding.Ref(),
			Confidence: 0.9,
		},
		fact.Relationship{
			Type:       fact.RelHasCounterparty,
			From:       withholding.Ref(),
			To:         ftb.Ref(),
			Confidence: 0.9,
		},
	)
}

// extractArtifacts emits one DocumentArtifact per matched document-keyword
// rule, in rule declaration order.
func (e *Extractor) extractArtifacts(text string, eventRef fact.Endpoint, res *fact.Result) {
	for _, rule := range e.docRules {
		if classify.Score(text, rule) <= 0 {
			continue
		}
		snippet := firstMatchSnippet(text, rule)

		entity := fact.NewEntity(
			fact.LabelDocumentArtifact,
			nil,
			fact.ArtifactProps{Title: rule.Label, ArtifactType: firstTag(rule)},
			0.8,
			snippet,
			rule.Tags...,
		)
		res.Entities = append(res.Entities, entity)
		res.Relationships = append(res.Relationships, fact.Relationship{
			Type:       fact.RelMentions,
			From:       eventRef,
			To:         entity.Ref(),
			Confidence: 0.8,
		})
		res.Tags = append(res.Tags, rule.Tags...)
	}
}

// extractActions emits one LegalAction per matched legal-action rule.
func (e *Extractor) extractActions(text string, eventRef fact.Endpoint, res *fact.Result) {
	for _, rule := range e.actionRules {
		if classify.Score(text, rule) <= 0 {
			continue
		}
		snippet := firstMatchSnippet(text, rule)

		entity := fact.NewEntity(
			fact.LabelLegalAction,
			nil,
			fact.ActionProps{ActionType: rule.Label, Description: snippet},
			0.8,
			snippet,
			rule.Tags...,
		)
		res.Entities = append(res.Entities, entity)
		res.Relationships = append(res.Relationships, fact.Relationship{
			Type:       fact.RelRelatesTo,
			From:       eventRef,
			To:         entity.Ref(),
			Confidence: 0.8,
		})
		res.Tags = append(res.Tags, rule.Tags...)
	}
}

func firstTag(rule classify.Rule) string {
	if len(rule.Tags) > 0 {
		return rule.Tags[0]
	}
	return ""
}
