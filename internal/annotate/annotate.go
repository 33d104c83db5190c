// Package annotate inserts citation markers into legal narrative text.
//
// Each claim rule pairs a regex recognizing a factual assertion with the
// citation bucket that supports it. Annotation scans the narrative, plans a
// set of non-overlapping marker insertions, applies them in one pass over
// the original text, and appends a References section. Running annotate on
// its own output is a no-op.
package annotate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/casewire/casewire/internal/cite"
)

// referencesHeading separates the narrative from the appended reference
// list. Claim scanning never crosses into an existing References tail.
const referencesHeading = "## References"

// Reference is one entry in the References section.
type Reference struct {
	Marker string
	Detail string
}

// Result is the outcome of one annotation pass.
type Result struct {
	Text       string
	References []Reference
}

// Annotator applies an ordered claim-rule list. It is a stateless value;
// marker numbering state lives only inside a single Annotate call.
type Annotator struct {
	rules []ClaimRule
}

// New creates an annotator. With no rules it uses the built-in table.
func New(rules ...ClaimRule) *Annotator {
	if len(rules) == 0 {
		rules = DefaultClaimRules()
	}
	return &Annotator{rules: rules}
}

// markerRE recognizes existing inline markers, used to seed per-kind
// counters so re-annotation never reuses an allocated number.
var markerRE = regexp.MustCompile(`\[([XEG])(\d+)\]`)

// Annotate inserts a marker after the first unmarked occurrence of each
// recognized claim, in rule order, and appends the References section. A
// claim whose pattern already has a marked occurrence anywhere in the
// narrative is treated as satisfied and skipped; that guard is what makes
// repeated runs idempotent. If no markers are allocated the text is
// returned unchanged.
func (a *Annotator) Annotate(text string, idx cite.Index) Result {
	narrative, tail := splitReferences(text)

	counters := seedCounters(text)

	type insertion struct {
		pos    int
		marker string
	}
	var plan []insertion
	var refs []Reference
	taken := map[int]struct{}{}

	for _, rule := range a.rules {
		citation, ok := idx.Lookup(rule.Bucket)
		if !ok {
			continue
		}
		letter := kindLetter(citation.Kind)

		locs := rule.Pattern.FindAllStringIndex(narrative, -1)
		pos := -1
		satisfied := false
		for _, loc := range locs {
			if hasMarkerAfter(narrative, loc[1], letter) {
				satisfied = true
				break
			}
			if pos == -1 {
				if _, clash := taken[loc[1]]; !clash {
					pos = loc[1]
				}
			}
		}
		if satisfied || pos == -1 {
			continue
		}

		counters[letter]++
		marker := fmt.Sprintf("[%c%d]", letter, counters[letter])
		plan = append(plan, insertion{pos: pos, marker: marker})
		taken[pos] = struct{}{}
		refs = append(refs, Reference{Marker: marker, Detail: citation.Detail})
	}

	if len(plan) == 0 {
		return Result{Text: text}
	}

	sort.SliceStable(plan, func(i, j int) bool { return plan[i].pos < plan[j].pos })

	var b strings.Builder
	b.Grow(len(text) + len(plan)*8)
	last := 0
	for _, in := range plan {
		b.WriteString(narrative[last:in.pos])
		b.WriteString(" ")
		b.WriteString(in.marker)
		last = in.pos
	}
	b.WriteString(narrative[last:])

	out := b.String()
	switch {
	case tail != "":
		// Existing References section: keep it and append the new entries.
		out += tail
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
	default:
		out = strings.TrimRight(out, "\n") + "\n\n" + referencesHeading + "\n"
	}
	for _, r := range refs {
		out += fmt.Sprintf("- %s %s\n", r.Marker, r.Detail)
	}

	return Result{Text: out, References: refs}
}

// splitReferences separates the narrative from an existing References tail.
func splitReferences(text string) (narrative, tail string) {
	if i := strings.Index(text, "\n"+referencesHeading); i >= 0 {
		return text[:i], text[i:]
	}
	if strings.HasPrefix(text, referencesHeading) {
		return "", text
	}
	return text, ""
}

// seedCounters scans the whole text for existing markers so new allocations
// continue each kind's numbering instead of restarting at 1.
func seedCounters(text string) map[byte]int {
	counters := map[byte]int{'X': 0, 'E': 0, 'G': 0}
	for _, m := range markerRE.FindAllStringSubmatch(text, -1) {
		letter := m[1][0]
		n := 0
		fmt.Sscanf(m[2], "%d", &n)
		if n > counters[letter] {
			counters[letter] = n
		}
	}
	return counters
}

// hasMarkerAfter reports whether the text at pos is immediately followed by
// " [<letter><digits>]".
func hasMarkerAfter(s string, pos int, letter byte) bool {
	rest := s[pos:]
	if len(rest) < 5 || rest[0] != ' ' || rest[1] != '[' || rest[2] != letter {
		return false
	}
	i := 3
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	return i > 3 && i < len(rest) && rest[i] == ']'
}

func kindLetter(k cite.Kind) byte {
	switch k {
	case cite.KindExhibit:
		return 'X'
	case cite.KindEmail:
		return 'E'
	default:
		return 'G'
	}
}
