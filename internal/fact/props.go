package fact

import "strconv"

// EntityProps is the typed property payload of an entity. Each entity label
// has its own concrete struct, so callers get compile-time guarantees about
// which fields exist, instead of an open string-keyed map.
//
// Canonical returns a stable key=value encoding used for content addressing.
// Fill returns the receiver with zero-valued fields filled from other; it is
// the property half of the graph merge policy (existing values win, absent
// values are taken from the incoming record).
type EntityProps interface {
	Canonical() string
	Fill(other EntityProps) EntityProps
}

// PersonProps describes a Person entity.
type PersonProps struct {
	Name string
}

func (p PersonProps) Canonical() string {
	return "name=" + p.Name
}

func (p PersonProps) Fill(other EntityProps) EntityProps {
	o, ok := other.(PersonProps)
	if !ok {
		return p
	}
	if p.Name == "" {
		p.Name = o.Name
	}
	return p
}

// OrganizationProps describes an Organization entity.
type OrganizationProps struct {
	Name   string
	Domain string
}

func (p OrganizationProps) Canonical() string {
	return "domain=" + p.Domain + "|name=" + p.Name
}

func (p OrganizationProps) Fill(other EntityProps) EntityProps {
	o, ok := other.(OrganizationProps)
	if !ok {
		return p
	}
	if p.Name == "" {
		p.Name = o.Name
	}
	if p.Domain == "" {
		p.Domain = o.Domain
	}
	return p
}

// TransactionProps describes a FinancialTransaction entity.
type TransactionProps struct {
	Amount          float64
	Currency        string
	TransactionType string
}

func (p TransactionProps) Canonical() string {
	return "amount=" + formatAmount(p.Amount) +
		"|currency=" + p.Currency +
		"|type=" + p.TransactionType
}

func (p TransactionProps) Fill(other EntityProps) EntityProps {
	o, ok := other.(TransactionProps)
	if !ok {
		return p
	}
	if p.Amount == 0 {
		p.Amount = o.Amount
	}
	if p.Currency == "" {
		p.Currency = o.Currency
	}
	if p.TransactionType == "" {
		p.TransactionType = o.TransactionType
	}
	return p
}

// WithholdingProps describes a TaxWithholding entity. HasAmount distinguishes
// "no amount found in text" from a genuine zero.
type WithholdingProps struct {
	Amount     float64
	HasAmount  bool
	Percentage float64
	Currency   string
}

func (p WithholdingProps) Canonical() string {
	amount := ""
	if p.HasAmount {
		amount = formatAmount(p.Amount)
	}
	return "amount=" + amount +
		"|currency=" + p.Currency +
		"|percentage=" + formatAmount(p.Percentage)
}

func (p WithholdingProps) Fill(other EntityProps) EntityProps {
	o, ok := other.(WithholdingProps)
	if !ok {
		return p
	}
	if !p.HasAmount && o.HasAmount {
		p.Amount = o.Amount
		p.HasAmount = true
	}
	if p.Percentage == 0 {
		p.Percentage = o.Percentage
	}
	if p.Currency == "" {
		p.Currency = o.Currency
	}
	return p
}

// ArtifactProps describes a DocumentArtifact entity.
type ArtifactProps struct {
	Title        string
	ArtifactType string
}

func (p ArtifactProps) Canonical() string {
	return "title=" + p.Title + "|type=" + p.ArtifactType
}

func (p ArtifactProps) Fill(other EntityProps) EntityProps {
	o, ok := other.(ArtifactProps)
	if !ok {
		return p
	}
	if p.Title == "" {
		p.Title = o.Title
	}
	if p.ArtifactType == "" {
		p.ArtifactType = o.ArtifactType
	}
	return p
}

// ActionProps describes a LegalAction entity.
type ActionProps struct {
	ActionType  string
	Description string
}

func (p ActionProps) Canonical() string {
	return "action=" + p.ActionType + "|description=" + p.Description
}

func (p ActionProps) Fill(other EntityProps) EntityProps {
	o, ok := other.(ActionProps)
	if !ok {
		return p
	}
	if p.ActionType == "" {
		p.ActionType = o.ActionType
	}
	if p.Description == "" {
		p.Description = o.Description
	}
	return p
}

// EventProps describes a document-level event node. Event nodes are keyed by
// the caller-supplied document ID rather than a content hash, so the same
// document imported twice still collapses to one node.
type EventProps struct {
	Subject string
	Date    string
}

func (p EventProps) Canonical() string {
	return "date=" + p.Date + "|subject=" + p.Subject
}

func (p EventProps) Fill(other EntityProps) EntityProps {
	o, ok := other.(EventProps)
	if !ok {
		return p
	}
	if p.Subject == "" {
		p.Subject = o.Subject
	}
	if p.Date == "" {
		p.Date = o.Date
	}
	return p
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
