package cmd

import (
	"strings"
	"testing"
)

func TestSplitMarkdown(t *testing.T) {
	content := `# Employee Handbook

Welcome to the company.

## Vacation Policy

You accrue 20 days per year.

## Remote Work

Work from anywhere in your home country.
`
	sections := splitMarkdown(content)
	if len(sections) != 3 {
		t.Fatalf("got %d sections, want 3", len(sections))
	}

	tests := []struct {
		title    string
		contains string
	}{
		{"Employee Handbook", "Welcome to the company."},
		{"Vacation Policy", "20 days"},
		{"Remote Work", "home country"},
	}
	for i, tt := range tests {
		if sections[i].title != tt.title {
			t.Errorf("section[%d].title = %q, want %q", i, sections[i].title, tt.title)
		}
		if !strings.Contains(sections[i].body, tt.contains) {
			t.Errorf("section[%d].body = %q, want it to contain %q", i, sections[i].body, tt.contains)
		}
	}
}

func TestSplitMarkdownNoHeadings(t *testing.T) {
	sections := splitMarkdown("just a plain paragraph\n")
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(sections))
	}
	if sections[0].title != "" {
		t.Errorf("title = %q, want empty", sections[0].title)
	}
}

func TestSplitMarkdownEmpty(t *testing.T) {
	if sections := splitMarkdown(""); len(sections) != 0 {
		t.Errorf("empty input yielded %d sections, want 0", len(sections))
	}
}
