package fact

import (
	"reflect"
	"testing"
)

func transactionEntity(amount float64, source string, tags ...string) Entity {
	return NewEntity(LabelFinancialTransaction, nil,
		TransactionProps{Amount: amount, Currency: "USD"}, 0.85, source, tags...)
}

func TestContentID_Stable(t *testing.T) {
	a := ContentID(LabelOrganization, "domain=x|name=X", "snippet")
	b := ContentID(LabelOrganization, "domain=x|name=X", "snippet")
	if a != b {
		t.Error("same inputs produced different content IDs")
	}
	if a == ContentID(LabelPerson, "domain=x|name=X", "snippet") {
		t.Error("label change did not change the content ID")
	}
	if a == ContentID(LabelOrganization, "domain=x|name=X", "other") {
		t.Error("source text change did not change the content ID")
	}
}

func TestContentID_FieldBoundaries(t *testing.T) {
	// "ab"+"c" must not collide with "a"+"bc".
	a := ContentID(LabelPerson, "ab", "c")
	b := ContentID(LabelPerson, "a", "bc")
	if a == b {
		t.Error("field boundary collision in content ID")
	}
}

func TestNewEntity_SortsLabelsAndTags(t *testing.T) {
	e := NewEntity(LabelTaxWithholding, []EntityLabel{LabelFinancialTransaction},
		WithholdingProps{Percentage: 3.33}, 0.9, "src", "withholding", "rate:default", "withholding")

	wantLabels := []EntityLabel{LabelFinancialTransaction, LabelTaxWithholding}
	if !reflect.DeepEqual(e.Labels, wantLabels) {
		t.Errorf("Labels = %v, want %v", e.Labels, wantLabels)
	}
	wantTags := []string{"rate:default", "withholding"}
	if !reflect.DeepEqual(e.Tags, wantTags) {
		t.Errorf("Tags = %v, want %v (sorted, deduplicated)", e.Tags, wantTags)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	e := transactionEntity(60000, "FLARPL lien for $60,000", "lien")
	r := Result{
		Entities: []Entity{e},
		Relationships: []Relationship{{
			Type: RelRelatesTo,
			From: Endpoint{ExternalID: "doc_1"},
			To:   e.Ref(),
		}},
		Tags: []string{"lien"},
	}

	once := NewGraph()
	once.Merge(r)

	twice := NewGraph()
	twice.Merge(r)
	twice.Merge(r)

	if !graphsEqual(once, twice) {
		t.Error("merging the same result twice changed the graph")
	}
}

func TestMerge_Commutative(t *testing.T) {
	a := Result{Entities: []Entity{transactionEntity(60000, "lien for $60,000")}, Tags: []string{"lien"}}
	b := Result{Entities: []Entity{transactionEntity(13694.62, "will total $13,694.62")}, Tags: []string{"withholding"}}

	ab := NewGraph()
	ab.Merge(a)
	ab.Merge(b)

	ba := NewGraph()
	ba.Merge(b)
	ba.Merge(a)

	if !graphsEqual(ab, ba) {
		t.Error("merge order changed the graph")
	}
}

func TestMerge_EntityPolicy(t *testing.T) {
	first := Entity{
		ExternalID: "org_1",
		Labels:     []EntityLabel{LabelOrganization},
		Props:      OrganizationProps{Domain: "simon-law.com"},
		Confidence: 0.6,
		Tags:       []string{"correspondence"},
	}
	second := Entity{
		ExternalID: "org_1",
		Labels:     []EntityLabel{LabelOrganization, LabelLegalAction},
		Props:      OrganizationProps{Name: "Simon Law", Domain: "ignored.example"},
		Confidence: 0.9,
		Tags:       []string{"lien"},
		SourceText: "Simon Law",
	}

	g := NewGraph()
	g.Merge(Result{Entities: []Entity{first}})
	g.Merge(Result{Entities: []Entity{second}})

	got, ok := g.Entity("org_1")
	if !ok {
		t.Fatal("merged entity missing")
	}
	if got.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want max 0.9", got.Confidence)
	}
	wantLabels := []EntityLabel{LabelLegalAction, LabelOrganization}
	if !reflect.DeepEqual(got.Labels, wantLabels) {
		t.Errorf("Labels = %v, want union %v", got.Labels, wantLabels)
	}
	wantTags := []string{"correspondence", "lien"}
	if !reflect.DeepEqual(got.Tags, wantTags) {
		t.Errorf("Tags = %v, want union %v", got.Tags, wantTags)
	}
	props := got.Props.(OrganizationProps)
	if props.Name != "Simon Law" {
		t.Errorf("Name = %q, want filled from incoming", props.Name)
	}
	if props.Domain != "simon-law.com" {
		t.Errorf("Domain = %q, want existing value kept", props.Domain)
	}
	if got.SourceText != "Simon Law" {
		t.Errorf("SourceText = %q, want filled when empty", got.SourceText)
	}
}

func TestMerge_RelationshipFirstWriteWins(t *testing.T) {
	rel := Relationship{
		Type:       RelHasCounterparty,
		From:       Endpoint{ExternalID: "w_1"},
		To:         Endpoint{ExternalID: "ftb"},
		Confidence: 0.8,
	}
	later := rel
	later.Confidence = 0.1

	g := NewGraph()
	g.Merge(Result{Relationships: []Relationship{rel}})
	g.Merge(Result{Relationships: []Relationship{later}})

	rels := g.Relationships()
	if len(rels) != 1 {
		t.Fatalf("relationships = %d, want 1", len(rels))
	}
	if rels[0].Confidence != 0.8 {
		t.Errorf("Confidence = %v, want first write kept", rels[0].Confidence)
	}
}

func TestEntitiesWithLabel(t *testing.T) {
	g := NewGraph()
	g.Merge(Result{Entities: []Entity{
		transactionEntity(100, "a"),
		NewEntity(LabelOrganization, nil, OrganizationProps{Name: "FTB"}, 0.9, ""),
	}})

	orgs := g.EntitiesWithLabel(LabelOrganization)
	if len(orgs) != 1 {
		t.Fatalf("organizations = %d, want 1", len(orgs))
	}
	txs := g.EntitiesWithLabel(LabelFinancialTransaction)
	if len(txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txs))
	}
}

func graphsEqual(a, b *Graph) bool {
	return reflect.DeepEqual(a.Entities(), b.Entities()) &&
		reflect.DeepEqual(a.Relationships(), b.Relationships()) &&
		reflect.DeepEqual(a.Tags(), b.Tags())
}
