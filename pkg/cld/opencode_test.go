package cld

import (
	"context"
	"testing"
)

func testConfig(t *testing.T, o *Overrides) Config {
	t.Helper()
	cfg, err := DefaultConfig().Merge(o)
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}
	return cfg
}

func ingestText(t *testing.T, text string) ([]Document, []Span) {
	t.Helper()
	return Ingest(context.Background(), []Input{{ID: "d", Text: text}})
}

func themeLabels(themes []Code) []string {
	labels := make([]string, len(themes))
	for i, theme := range themes {
		labels[i] = theme.Label
	}
	return labels
}

func TestExtractThemes(t *testing.T) {
	cfg := testConfig(t, nil)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "cue phrases are not themes",
			text: "Underperformance triggers scrapping.",
			want: []string{"underperformance", "scrapping"},
		},
		{
			name: "stop words reject candidates",
			text: "The performance of the system",
			want: []string{"performance", "system"},
		},
		{
			name: "purely numeric phrases rejected",
			text: "2023. 2024. performance.",
			want: []string{"performance"},
		},
		{
			name: "mapped phrase pre-collapses to canonical label",
			text: "There was poor performance.",
			want: []string{"underperformance"},
		},
		{
			name: "longer window wins over sub-phrases",
			text: "Resource allocation.",
			want: []string{"resource allocation"},
		},
		{
			name: "no qualifying phrases",
			text: "It is. So be it.",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, spans := ingestText(t, tt.text)
			got := themeLabels(ExtractThemes(docs, spans, cfg))
			if len(got) != len(tt.want) {
				t.Fatalf("labels = %v, want %v", got, tt.want)
			}
			wanted := make(map[string]bool, len(tt.want))
			for _, label := range tt.want {
				wanted[label] = true
			}
			for _, label := range got {
				if !wanted[label] {
					t.Errorf("unexpected theme %q (got %v, want %v)", label, got, tt.want)
				}
			}
		})
	}
}

func TestExtractThemesAccumulatesEvidence(t *testing.T) {
	cfg := testConfig(t, nil)
	docs, spans := ingestText(t, "Performance matters. Performance again.")

	themes := ExtractThemes(docs, spans, cfg)

	var performance *Code
	for i := range themes {
		if themes[i].Label == "performance" {
			performance = &themes[i]
		}
	}
	if performance == nil {
		t.Fatalf("expected a performance theme, got %v", themeLabels(themes))
	}
	if len(performance.Evidence) != 2 {
		t.Errorf("expected 2 evidence spans, got %d", len(performance.Evidence))
	}
	if performance.ID != "theme:performance" {
		t.Errorf("unexpected theme id %q", performance.ID)
	}
}

func TestExtractThemesGroupAssignment(t *testing.T) {
	cfg := testConfig(t, nil)
	docs, spans := ingestText(t, "The regulation was new. The market confidence was there. The rider numbers were there. The weather was fine.")

	themes := ExtractThemes(docs, spans, cfg)

	groups := make(map[string]Group)
	for _, theme := range themes {
		groups[theme.Label] = theme.Group
	}

	tests := []struct {
		label string
		want  Group
	}{
		{"regulation", GroupPolicy},
		{"market confidence", GroupIndustry},
		{"rider numbers", GroupUsers},
		{"weather", GroupOther},
	}
	for _, tt := range tests {
		got, ok := groups[tt.label]
		if !ok {
			t.Errorf("theme %q not extracted (got %v)", tt.label, themeLabels(themes))
			continue
		}
		if got != tt.want {
			t.Errorf("group for %q = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases and strips punctuation", "Hello, World!", []string{"hello", "world"}},
		{"keeps hyphens", "e-scooter usage", []string{"e-scooter", "usage"}},
		{"empty", "  ...  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("tokenize(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}
