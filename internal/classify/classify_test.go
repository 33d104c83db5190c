package classify

import (
	"reflect"
	"testing"
)

func rulesForTest() []Rule {
	return []Rule{
		{
			Label:    "lien",
			Keywords: []string{"lien", "encumbrance"},
			Patterns: MustPatterns(`(?i)\bFLARPL\b`),
		},
		{
			Label:    "withholding",
			Keywords: []string{"withholding", "ftb"},
			Patterns: MustPatterns(`(?i)form\s*593`),
		},
	}
}

func TestScore_Weighting(t *testing.T) {
	rule := Rule{
		Keywords: []string{"lien", "encumbrance"},
		Patterns: MustPatterns(`(?i)\bFLARPL\b`),
	}

	// One keyword hit out of (2 keywords + 1 regex): 1/3.
	got := Score("a lien was recorded", rule)
	want := 1.0 / 3.0
	if got != want {
		t.Errorf("Score = %v, want %v", got, want)
	}

	// Regex hits count double: (1 + 2) / 3 = 1.0.
	got = Score("a FLARPL lien was recorded", rule)
	if got != 1.0 {
		t.Errorf("Score with regex hit = %v, want 1.0", got)
	}
}

func TestScore_ClampedToOne(t *testing.T) {
	rule := Rule{
		Keywords: []string{"lien"},
		Patterns: MustPatterns(`(?i)lien`),
	}
	// (1 + 2) / 2 = 1.5 before clamping.
	if got := Score("lien", rule); got != 1.0 {
		t.Errorf("Score = %v, want clamp to 1.0", got)
	}
}

func TestScore_EmptyRule(t *testing.T) {
	if got := Score("anything", Rule{}); got != 0 {
		t.Errorf("Score of empty rule = %v, want 0", got)
	}
}

func TestScore_CaseInsensitiveKeywords(t *testing.T) {
	rule := Rule{Keywords: []string{"Withholding"}}
	if got := Score("WITHHOLDING required", rule); got != 1.0 {
		t.Errorf("Score = %v, want 1.0", got)
	}
}

func TestClassify_BestAndThreshold(t *testing.T) {
	rules := rulesForTest()

	best, matched := Classify("withholding per Form 593 sent to the FTB", rules, MinContentScore)
	if best == nil {
		t.Fatal("expected a best match")
	}
	if best.Rule.Label != "withholding" {
		t.Errorf("best rule = %q, want withholding", best.Rule.Label)
	}
	if len(matched) != 1 || matched[0].Rule.Label != "withholding" {
		t.Errorf("matched = %+v, want only withholding above threshold", matched)
	}
}

func TestClassify_NoMatchIsAbsence(t *testing.T) {
	best, matched := Classify("nothing relevant here", rulesForTest(), MinContentScore)
	if best != nil {
		t.Errorf("best = %+v, want nil", best)
	}
	if len(matched) != 0 {
		t.Errorf("matched = %+v, want none", matched)
	}
}

func TestClassify_TieBrokenByDeclarationOrder(t *testing.T) {
	rules := []Rule{
		{Label: "first", Keywords: []string{"shared"}},
		{Label: "second", Keywords: []string{"shared"}},
	}
	best, _ := Classify("the shared term", rules, 0)
	if best == nil || best.Rule.Label != "first" {
		t.Fatalf("best = %+v, want first rule on tie", best)
	}
}

func TestScoreAll_Deterministic(t *testing.T) {
	rules := rulesForTest()
	text := "FLARPL lien and Form 593 withholding"

	a := ScoreAll(text, rules)
	b := ScoreAll(text, rules)
	if !reflect.DeepEqual(a, b) {
		t.Error("ScoreAll not deterministic for identical input")
	}
	if a[0].Index != 0 || a[1].Index != 1 {
		t.Errorf("ScoreAll order = %v, want declaration order", a)
	}
}
