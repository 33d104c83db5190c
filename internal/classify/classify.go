// Package classify provides weighted keyword + regex pattern scoring.
//
// A Rule names a classification target and carries keyword and regex signals.
// Scoring is a pure function of (text, rules): keyword containment counts
// once, a regex hit counts double because it encodes more specific structure
// than bare containment. The same scorer backs both entity extraction and
// document tagging.
package classify

import (
	"regexp"
	"strings"
)

// MinContentScore is the default threshold for secondary content tags.
// Primary classification treats any positive score as a hit.
const MinContentScore = 0.3

// Rule is a named classification rule. Rules are static configuration:
// loaded once, never mutated at runtime.
type Rule struct {
	Label    string
	Keywords []string
	Patterns []*regexp.Regexp
	Tags     []string

	// Category and Relevance are used by the document tagger; entity
	// extraction rules leave them empty.
	Category  string
	Relevance string
}

// Match pairs a rule with its score for one input text. Index is the rule's
// declaration position, which doubles as the deterministic tie-breaker.
type Match struct {
	Rule  Rule
	Score float64
	Index int
}

// Score computes the bounded confidence score of one rule against text:
// (keywordHits + 2*regexHits) / (totalKeywords + totalRegexes), clamped to
// [0,1]. Text is matched case-insensitively for keywords; regexes match the
// text as-is.
func Score(text string, rule Rule) float64 {
	total := len(rule.Keywords) + len(rule.Patterns)
	if total == 0 {
		return 0
	}

	lower := strings.ToLower(text)
	hits := 0.0
	for _, kw := range rule.Keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			hits++
		}
	}
	for _, re := range rule.Patterns {
		if re.MatchString(text) {
			hits += 2
		}
	}

	score := hits / float64(total)
	if score > 1 {
		score = 1
	}
	return score
}

// ScoreAll scores every rule against text, preserving declaration order.
func ScoreAll(text string, rules []Rule) []Match {
	out := make([]Match, 0, len(rules))
	for i, r := range rules {
		out = append(out, Match{Rule: r, Score: Score(text, r), Index: i})
	}
	return out
}

// Classify returns the best-scoring rule (nil if nothing scored above zero)
// and every rule whose score exceeds minScore, in declaration order. Ties on
// the best score are broken by declaration order: the first rule wins.
func Classify(text string, rules []Rule, minScore float64) (best *Match, matched []Match) {
	for _, m := range ScoreAll(text, rules) {
		if m.Score > minScore {
			matched = append(matched, m)
		}
		if m.Score <= 0 {
			continue
		}
		if best == nil || m.Score > best.Score {
			b := m
			best = &b
		}
	}
	return best, matched
}
