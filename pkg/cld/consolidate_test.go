package cld

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func edge(from, to string, polarity Polarity, confidence float64) CausalEdge {
	return CausalEdge{
		ID:             "e:" + from + "->" + to + ":" + string(polarity),
		FromVariableID: from,
		ToVariableID:   to,
		Polarity:       polarity,
		Confidence:     confidence,
		Evidence:       []Span{{DocID: "d", Start: 0, End: 10, TextPreview: "evidence"}},
	}
}

func TestConsolidateMergesDuplicates(t *testing.T) {
	cfg := testConfig(t, nil)

	edges := Consolidate([]CausalEdge{
		edge("var:a", "var:b", PolarityPositive, 0.5),
		edge("var:a", "var:b", PolarityPositive, 0.7),
		edge("var:a", "var:b", PolarityNegative, 0.6),
	}, cfg)

	if len(edges) != 2 {
		t.Fatalf("expected 2 consolidated edges, got %d", len(edges))
	}

	merged := edges[0]
	want := (0.5+0.7)/2 + mergeUplift
	if math.Abs(merged.Confidence-want) > 1e-9 {
		t.Errorf("merged confidence = %g, want %g", merged.Confidence, want)
	}
	if len(merged.Evidence) != 2 {
		t.Errorf("expected concatenated evidence, got %d spans", len(merged.Evidence))
	}

	// Opposite polarity never merges.
	if edges[1].Polarity != PolarityNegative || len(edges[1].Evidence) != 1 {
		t.Errorf("negative edge was merged incorrectly: %+v", edges[1])
	}
}

func TestConsolidateConfidenceCappedAtOne(t *testing.T) {
	cfg := testConfig(t, nil)

	edges := Consolidate([]CausalEdge{
		edge("var:a", "var:b", PolarityPositive, 1.0),
		edge("var:a", "var:b", PolarityPositive, 1.0),
	}, cfg)

	if len(edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(edges))
	}
	if edges[0].Confidence > 1 {
		t.Errorf("confidence exceeds 1: %g", edges[0].Confidence)
	}
}

func TestConsolidatePrunesLowConfidence(t *testing.T) {
	cfg := testConfig(t, nil)

	edges := Consolidate([]CausalEdge{
		edge("var:a", "var:b", PolarityPositive, cfg.PruneThreshold-0.01),
		edge("var:b", "var:c", PolarityPositive, cfg.PruneThreshold),
	}, cfg)

	if len(edges) != 1 {
		t.Fatalf("expected pruning to leave 1 edge, got %d", len(edges))
	}
	if edges[0].FromVariableID != "var:b" {
		t.Errorf("wrong edge survived: %+v", edges[0])
	}
}

func TestConsolidateIdempotent(t *testing.T) {
	cfg := testConfig(t, nil)

	raw := []CausalEdge{
		edge("var:a", "var:b", PolarityPositive, 0.5),
		edge("var:a", "var:b", PolarityPositive, 0.7),
		edge("var:b", "var:a", PolarityNegative, 0.9),
	}

	once := Consolidate(raw, cfg)
	twice := Consolidate(once, cfg)

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("consolidation is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestBuildGraph(t *testing.T) {
	variables := testVariables("a", "b")
	edges := []CausalEdge{edge("var:a", "var:b", PolarityPositive, 0.5)}

	g := BuildGraph(variables, edges)

	if len(g.Variables) != 2 || len(g.Edges) != 1 {
		t.Errorf("unexpected graph shape: %d variables, %d edges", len(g.Variables), len(g.Edges))
	}
}
