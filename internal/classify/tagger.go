package classify

import (
	"strings"
	"time"
)

// FileRecord is the file-tagging input variant: a scanned case file rather
// than an email message.
type FileRecord struct {
	Filename  string
	Content   string
	FileType  string
	Size      int64
	CreatedAt time.Time
}

// DocumentTags is the tagging result for one file record.
type DocumentTags struct {
	Category  string
	Relevance string
	Score     float64
	Tags      []string
}

// TagDocument classifies a case file into a category/relevance pair using the
// best-scoring rule, and collects content tags from every rule that clears
// MinContentScore. No rule matching at all yields an empty result, not an
// error.
func TagDocument(rec FileRecord, rules []Rule) DocumentTags {
	text := rec.Filename + " " + rec.Content

	best, matched := Classify(text, rules, MinContentScore)

	var out DocumentTags
	if best != nil {
		out.Category = best.Rule.Category
		out.Relevance = best.Rule.Relevance
		out.Score = best.Score
	}

	seen := map[string]struct{}{}
	if ft := normalizeFileType(rec.FileType); ft != "" {
		seen["filetype:"+ft] = struct{}{}
		out.Tags = append(out.Tags, "filetype:"+ft)
	}
	for _, m := range matched {
		for _, t := range m.Rule.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out.Tags = append(out.Tags, t)
		}
	}
	return out
}

// DefaultTagRules is the built-in rule table for case-file tagging. Rule
// order matters: earlier rules win score ties.
func DefaultTagRules() []Rule {
	return []Rule{
		{
			Label:     "court-filing",
			Keywords:  []string{"motion", "declaration", "order", "stipulation", "pleading"},
			Patterns:  MustPatterns(`(?i)\b(?:FL|MC|CIV)-\d{3}\b`, `(?i)request\s+for\s+order`),
			Tags:      []string{"filing"},
			Category:  "pleadings",
			Relevance: "high",
		},
		{
			Label:     "financial-record",
			Keywords:  []string{"statement", "payoff", "escrow", "closing", "invoice"},
			Patterns:  MustPatterns(`\$\d{1,3}(?:,\d{3})*(?:\.\d{2})?`),
			Tags:      []string{"financial"},
			Category:  "financial",
			Relevance: "high",
		},
		{
			Label:     "appraisal-report",
			Keywords:  []string{"appraisal", "appraised", "comparable", "valuation"},
			Patterns:  MustPatterns(`(?i)appraised\s+value`),
			Tags:      []string{"appraisal"},
			Category:  "valuation",
			Relevance: "medium",
		},
		{
			Label:     "correspondence",
			Keywords:  []string{"re:", "fwd:", "dear", "regards", "sincerely"},
			Patterns:  MustPatterns(`(?i)^(?:re|fwd?):`),
			Tags:      []string{"correspondence"},
			Category:  "correspondence",
			Relevance: "low",
		},
		{
			Label:     "tax-form",
			Keywords:  []string{"form 593", "withholding", "franchise tax board", "ftb"},
			Patterns:  MustPatterns(`(?i)form\s*593`),
			Tags:      []string{"tax"},
			Category:  "tax",
			Relevance: "high",
		},
	}
}

// normalizeFileType lowercases and strips a leading dot from a file type.
func normalizeFileType(t string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "."))
}
