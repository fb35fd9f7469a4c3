package cld

import (
	"math"
	"testing"
)

func testVariables(labels ...string) []Code {
	variables := make([]Code, len(labels))
	for i, label := range labels {
		variables[i] = Code{
			ID:    "var:" + label,
			Label: label,
			Type:  CodeVariable,
			Group: GroupOther,
		}
	}
	return variables
}

func extractFromText(t *testing.T, text string, variables []Code, cfg Config) []CausalEdge {
	t.Helper()
	docs, spans := ingestText(t, text)
	return ExtractEdges(docs, spans, variables, cfg)
}

func TestExtractEdgesDirectional(t *testing.T) {
	cfg := testConfig(t, nil)

	tests := []struct {
		name         string
		text         string
		variables    []Code
		wantFrom     string
		wantTo       string
		wantPolarity Polarity
	}{
		{
			name:         "generic cue defaults to positive",
			text:         "Underperformance triggers scrapping.",
			variables:    testVariables("underperformance", "scrapping"),
			wantFrom:     "var:underperformance",
			wantTo:       "var:scrapping",
			wantPolarity: PolarityPositive,
		},
		{
			name:         "negative cue yields inverting edge",
			text:         "Performance reduces underperformance.",
			variables:    testVariables("performance", "underperformance"),
			wantFrom:     "var:performance",
			wantTo:       "var:underperformance",
			wantPolarity: PolarityNegative,
		},
		{
			name:         "reduces family reorder keeps canonical orientation",
			text:         "Underperformance lowers performance.",
			variables:    testVariables("performance", "underperformance"),
			wantFrom:     "var:performance",
			wantTo:       "var:underperformance",
			wantPolarity: PolarityNegative,
		},
		{
			name:         "closest variables to the cue win",
			text:         "Scrapping and underperformance lead to performance concerns and investment.",
			variables:    testVariables("scrapping", "underperformance", "performance", "investment"),
			wantFrom:     "var:underperformance",
			wantTo:       "var:performance",
			wantPolarity: PolarityPositive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edges := extractFromText(t, tt.text, tt.variables, cfg)
			if len(edges) != 1 {
				t.Fatalf("expected 1 edge, got %d: %+v", len(edges), edges)
			}
			edge := edges[0]
			if edge.FromVariableID != tt.wantFrom || edge.ToVariableID != tt.wantTo {
				t.Errorf("edge = %s -> %s, want %s -> %s",
					edge.FromVariableID, edge.ToVariableID, tt.wantFrom, tt.wantTo)
			}
			if edge.Polarity != tt.wantPolarity {
				t.Errorf("polarity = %q, want %q", edge.Polarity, tt.wantPolarity)
			}
			wantID := "e:" + tt.wantFrom + "->" + tt.wantTo + ":" + string(tt.wantPolarity)
			if edge.ID != wantID {
				t.Errorf("edge id = %q, want %q", edge.ID, wantID)
			}
			if len(edge.Evidence) != 1 {
				t.Errorf("expected 1 evidence span, got %d", len(edge.Evidence))
			}
			if edge.Confidence < cfg.Confidence.Base || edge.Confidence > 1 {
				t.Errorf("confidence %g outside [base, 1]", edge.Confidence)
			}
		})
	}
}

func TestExtractEdgesConfidence(t *testing.T) {
	cfg := testConfig(t, nil)

	// "triggers" is the only cue hit: base + cueWeight + positiveBonus.
	edges := extractFromText(t, "Underperformance triggers scrapping.",
		testVariables("underperformance", "scrapping"), cfg)
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	want := cfg.Confidence.Base + cfg.Confidence.CueWeight + cfg.Confidence.PositiveBonus
	if math.Abs(edges[0].Confidence-want) > 1e-9 {
		t.Errorf("confidence = %g, want %g", edges[0].Confidence, want)
	}

	// "reduces" also contains the cue "reduce": two distinct cue hits plus
	// the negative bonus.
	edges = extractFromText(t, "Performance reduces underperformance.",
		testVariables("performance", "underperformance"), cfg)
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	want = cfg.Confidence.Base + 2*cfg.Confidence.CueWeight + cfg.Confidence.NegativeBonus
	if math.Abs(edges[0].Confidence-want) > 1e-9 {
		t.Errorf("confidence = %g, want %g", edges[0].Confidence, want)
	}
}

func TestExtractEdgesFallbackPairs(t *testing.T) {
	cfg := testConfig(t, nil)

	// The cue sits at the start of the sentence, so directional extraction
	// finds nothing on the left and the pairwise fallback kicks in.
	edges := extractFromText(t, "Due to underperformance, scrapping happened.",
		testVariables("underperformance", "scrapping"), cfg)
	if len(edges) != 1 {
		t.Fatalf("expected 1 fallback edge, got %d: %+v", len(edges), edges)
	}
	if edges[0].FromVariableID != "var:underperformance" || edges[0].ToVariableID != "var:scrapping" {
		t.Errorf("unexpected fallback edge %s -> %s", edges[0].FromVariableID, edges[0].ToVariableID)
	}

	// Four variables give six ordered pairs; the per-sentence cap bounds it.
	edges = extractFromText(t, "Due to performance, underperformance, scrapping and investment.",
		testVariables("performance", "underperformance", "scrapping", "investment"), cfg)
	if len(edges) != cfg.Confidence.MaxPerSentenceEdges {
		t.Errorf("expected %d capped edges, got %d", cfg.Confidence.MaxPerSentenceEdges, len(edges))
	}
}

func TestExtractEdgesNoCue(t *testing.T) {
	cfg := testConfig(t, nil)
	edges := extractFromText(t, "Performance and underperformance were discussed.",
		testVariables("performance", "underperformance"), cfg)
	if len(edges) != 0 {
		t.Errorf("expected no edges without a cue, got %+v", edges)
	}
}

func TestExtractEdgesNoVariables(t *testing.T) {
	cfg := testConfig(t, nil)
	edges := extractFromText(t, "Underperformance triggers scrapping.", nil, cfg)
	if len(edges) != 0 {
		t.Errorf("expected no edges without variables, got %+v", edges)
	}
}

func TestWholeWordIndex(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		substr string
		want   int
	}{
		{"match at start", "performance matters", "performance", 0},
		{"no match inside a word", "underperformance matters", "performance", -1},
		{"match after punctuation", "more scrapping, less waste", "scrapping", 5},
		{"multi-word term", "good resource allocation here", "resource allocation", 5},
		{"empty needle", "anything", "", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wholeWordIndex(tt.s, tt.substr); got != tt.want {
				t.Errorf("wholeWordIndex(%q, %q) = %d, want %d", tt.s, tt.substr, got, tt.want)
			}
		})
	}
}
