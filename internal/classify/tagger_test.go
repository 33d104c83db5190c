package classify

import (
	"testing"
)

func TestTagDocument_FinancialRecord(t *testing.T) {
	rec := FileRecord{
		Filename: "final_closing_statement.pdf",
		Content:  "Escrow closing statement. Net proceeds $280,355.83.",
		FileType: ".pdf",
	}

	got := TagDocument(rec, DefaultTagRules())

	if got.Category != "financial" || got.Relevance != "high" {
		t.Errorf("category/relevance = %s/%s, want financial/high", got.Category, got.Relevance)
	}
	if got.Score <= 0 {
		t.Errorf("Score = %v, want positive", got.Score)
	}

	wantTags := map[string]bool{"filetype:pdf": false, "financial": false}
	for _, tag := range got.Tags {
		if _, ok := wantTags[tag]; ok {
			wantTags[tag] = true
		}
	}
	for tag, seen := range wantTags {
		if !seen {
			t.Errorf("tag %q missing from %v", tag, got.Tags)
		}
	}
}

func TestTagDocument_TaxForm(t *testing.T) {
	rec := FileRecord{
		Filename: "form_593.pdf",
		Content:  "Form 593 Real Estate Withholding Statement, Franchise Tax Board.",
		FileType: "pdf",
	}

	got := TagDocument(rec, DefaultTagRules())
	if got.Category != "tax" {
		t.Errorf("Category = %q, want tax", got.Category)
	}
}

func TestTagDocument_NoMatch(t *testing.T) {
	got := TagDocument(FileRecord{Filename: "notes.txt", Content: "groceries"}, DefaultTagRules())
	if got.Category != "" || got.Relevance != "" || got.Score != 0 {
		t.Errorf("result = %+v, want empty classification", got)
	}
}

func TestTagDocument_FileTypeTagOnly(t *testing.T) {
	got := TagDocument(FileRecord{Filename: "x.bin", FileType: ".BIN"}, DefaultTagRules())
	if len(got.Tags) != 1 || got.Tags[0] != "filetype:bin" {
		t.Errorf("Tags = %v, want only the normalized filetype tag", got.Tags)
	}
}

func TestNormalizeFileType(t *testing.T) {
	tests := []struct{ in, want string }{
		{".PDF", "pdf"},
		{"pdf", "pdf"},
		{"  .Docx ", "docx"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeFileType(tt.in); got != tt.want {
			t.Errorf("normalizeFileType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
