package annotate

import (
	"strings"
	"testing"

	"github.com/casewire/casewire/internal/cite"
	"github.com/casewire/casewire/internal/fact"
)

func exhibitIndex(exhibits ...cite.Exhibit) cite.Index {
	return cite.Build(nil, exhibits, nil)
}

func TestAnnotate_InsertsMarkerAfterClaim(t *testing.T) {
	idx := exhibitIndex(cite.Exhibit{ID: "12", Title: "Final Closing Statement", Path: "exhibits/12.pdf"})
	ann := New()

	got := ann.Annotate("Total proceeds were $280,355.83 at closing.", idx)

	want := "Total proceeds were $280,355.83 [X1] at closing.\n\n## References\n- [X1] Final Closing Statement\n"
	if got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
	if len(got.References) != 1 || got.References[0].Marker != "[X1]" {
		t.Errorf("References = %+v, want one [X1]", got.References)
	}
}

func TestAnnotate_Idempotent(t *testing.T) {
	idx := exhibitIndex(
		cite.Exhibit{ID: "12", Title: "Final Closing Statement"},
		cite.Exhibit{ID: "4", Title: "Residential Appraisal Report"},
	)
	ann := New()
	text := "Total proceeds were $280,355.83. The appraisal valued the home at $1,250,000.00."

	first := ann.Annotate(text, idx)
	second := ann.Annotate(first.Text, idx)

	if second.Text != first.Text {
		t.Errorf("second pass changed the text:\nfirst:  %q\nsecond: %q", first.Text, second.Text)
	}
	if len(second.References) != 0 {
		t.Errorf("second pass allocated %d new markers, want 0", len(second.References))
	}
	if n := strings.Count(second.Text, "[X1]"); n != 2 {
		// Once inline, once in the References list.
		t.Errorf("[X1] appears %d times, want 2", n)
	}
}

func TestAnnotate_MarkerNumberingMonotonic(t *testing.T) {
	text := "Total proceeds were $280,355.83. The appraisal valued the home at $1,250,000.00."
	ann := New()

	// First pass only knows about the closing statement.
	first := ann.Annotate(text, exhibitIndex(cite.Exhibit{ID: "12", Title: "Final Closing Statement"}))
	if !strings.Contains(first.Text, "$280,355.83 [X1]") {
		t.Fatalf("first pass text = %q, want [X1] after the proceeds amount", first.Text)
	}

	// Second pass gains the appraisal exhibit; the new marker must continue
	// the numbering, not restart at [X1].
	second := ann.Annotate(first.Text, exhibitIndex(
		cite.Exhibit{ID: "12", Title: "Final Closing Statement"},
		cite.Exhibit{ID: "4", Title: "Residential Appraisal Report"},
	))
	if !strings.Contains(second.Text, "$1,250,000.00 [X2]") {
		t.Errorf("second pass text = %q, want [X2] after the appraisal amount", second.Text)
	}
	if strings.Count(second.Text, "[X1]") != 2 {
		t.Errorf("second pass disturbed the existing [X1] marker: %q", second.Text)
	}
}

func TestAnnotate_NoCitationsNoChange(t *testing.T) {
	ann := New()
	text := "Total proceeds were $280,355.83 at closing."

	got := ann.Annotate(text, cite.Build(nil, nil, nil))
	if got.Text != text {
		t.Errorf("Text = %q, want unchanged input", got.Text)
	}
	if strings.Contains(got.Text, "## References") {
		t.Error("References section appended with no markers allocated")
	}
}

func TestAnnotate_EmailKindMarker(t *testing.T) {
	g := fact.NewGraph()
	g.Merge(fact.Result{Entities: []fact.Entity{{
		ExternalID: "continuance_2025_05_12",
		Labels:     []fact.EntityLabel{fact.LabelEvent},
		Props:      fact.EventProps{Subject: "Hearing continued to May 12", Date: "2025-05-12"},
		Confidence: 1.0,
	}}})
	idx := cite.Build(g, nil, nil)

	got := New().Annotate("The court granted a continuance of the hearing.", idx)

	if !strings.Contains(got.Text, "continuance [E1]") {
		t.Errorf("Text = %q, want an [E1] email marker", got.Text)
	}
	if !strings.Contains(got.Text, "- [E1] Hearing continued to May 12") {
		t.Errorf("Text = %q, want the event subject as the reference detail", got.Text)
	}
}

func TestAnnotate_WithholdingClaim(t *testing.T) {
	idx := exhibitIndex(cite.Exhibit{ID: "7", Title: "Form 593 Real Estate Withholding Statement"})

	got := New().Annotate("Escrow applied withholding of 3.33% to the seller's share.", idx)
	if !strings.Contains(got.Text, "3.33% [X1]") {
		t.Errorf("Text = %q, want [X1] after the withholding rate", got.Text)
	}
}

func TestSplitReferences(t *testing.T) {
	narrative, tail := splitReferences("Body text.\n\n## References\n- [X1] A\n")
	if narrative != "Body text.\n" {
		t.Errorf("narrative = %q", narrative)
	}
	if !strings.HasPrefix(tail, "\n## References") {
		t.Errorf("tail = %q", tail)
	}

	narrative, tail = splitReferences("No references here.")
	if narrative != "No references here." || tail != "" {
		t.Errorf("split = (%q, %q), want whole text as narrative", narrative, tail)
	}
}

func TestSeedCounters(t *testing.T) {
	counters := seedCounters("a [X3] b [E1] c [X2]")
	if counters['X'] != 3 || counters['E'] != 1 || counters['G'] != 0 {
		t.Errorf("counters = %v, want X=3 E=1 G=0", counters)
	}
}

func TestHasMarkerAfter(t *testing.T) {
	s := "claim [X1] rest"
	if !hasMarkerAfter(s, 5, 'X') {
		t.Error("marker after pos 5 not detected")
	}
	if hasMarkerAfter(s, 5, 'E') {
		t.Error("wrong-letter marker detected")
	}
	if hasMarkerAfter("claim [X] rest", 5, 'X') {
		t.Error("marker with no digits detected")
	}
}
