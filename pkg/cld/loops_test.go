package cld

import (
	"testing"
)

func cycleGraph(polarities ...Polarity) Graph {
	labels := []string{"a", "b", "c", "d", "e", "f"}[:len(polarities)]
	variables := testVariables(labels...)
	edges := make([]CausalEdge, len(polarities))
	for i, polarity := range polarities {
		from := "var:" + labels[i]
		to := "var:" + labels[(i+1)%len(labels)]
		edges[i] = edge(from, to, polarity, 0.8)
	}
	return BuildGraph(variables, edges)
}

func TestFindLoopsClassification(t *testing.T) {
	tests := []struct {
		name       string
		polarities []Polarity
		want       LoopType
	}{
		{"all positive is reinforcing", []Polarity{PolarityPositive, PolarityPositive, PolarityPositive}, LoopReinforcing},
		{"one negative is balancing", []Polarity{PolarityPositive, PolarityPositive, PolarityNegative}, LoopBalancing},
		{"two negatives cancel out", []Polarity{PolarityNegative, PolarityNegative}, LoopReinforcing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loops := FindLoops(cycleGraph(tt.polarities...), 6)
			if len(loops) != 1 {
				t.Fatalf("expected 1 loop, got %d", len(loops))
			}
			loop := loops[0]
			if loop.Type != tt.want {
				t.Errorf("loop type = %q, want %q", loop.Type, tt.want)
			}
			if len(loop.NodeIDs) != len(tt.polarities) || len(loop.EdgeIDs) != len(tt.polarities) {
				t.Errorf("loop shape: %d nodes, %d edges, want %d of each",
					len(loop.NodeIDs), len(loop.EdgeIDs), len(tt.polarities))
			}
			if len(loop.Evidence) != len(loop.EdgeIDs) {
				t.Errorf("loop evidence should duplicate edge ids: %v vs %v", loop.Evidence, loop.EdgeIDs)
			}
		})
	}
}

func TestFindLoopsDeduplicatesRotations(t *testing.T) {
	// A 3-cycle is reachable from all three of its nodes; it must be
	// reported exactly once.
	loops := FindLoops(cycleGraph(PolarityPositive, PolarityPositive, PolarityPositive), 6)
	if len(loops) != 1 {
		t.Errorf("expected rotations to collapse into 1 loop, got %d", len(loops))
	}
}

func TestFindLoopsRespectsMaxDepth(t *testing.T) {
	g := cycleGraph(PolarityPositive, PolarityPositive, PolarityPositive)

	if loops := FindLoops(g, 2); len(loops) != 0 {
		t.Errorf("3-cycle must not be found at depth 2, got %d loops", len(loops))
	}
	if loops := FindLoops(g, 3); len(loops) != 1 {
		t.Errorf("3-cycle must be found at depth 3, got %d loops", len(loops))
	}
}

func TestFindLoopsSelfLoop(t *testing.T) {
	variables := testVariables("a")
	g := BuildGraph(variables, []CausalEdge{edge("var:a", "var:a", PolarityNegative, 0.8)})

	loops := FindLoops(g, 6)
	if len(loops) != 1 {
		t.Fatalf("expected self-loop to be reported, got %d loops", len(loops))
	}
	if loops[0].Type != LoopBalancing {
		t.Errorf("negative self-loop should balance, got %q", loops[0].Type)
	}
}

func TestFindLoopsAcyclicGraph(t *testing.T) {
	variables := testVariables("a", "b", "c")
	g := BuildGraph(variables, []CausalEdge{
		edge("var:a", "var:b", PolarityPositive, 0.8),
		edge("var:b", "var:c", PolarityPositive, 0.8),
	})

	if loops := FindLoops(g, 6); len(loops) != 0 {
		t.Errorf("acyclic graph produced loops: %+v", loops)
	}
}

func TestFindLoopsDeterministicIDs(t *testing.T) {
	g := cycleGraph(PolarityPositive, PolarityNegative, PolarityPositive)

	first := FindLoops(g, 6)
	second := FindLoops(g, 6)

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected 1 loop per run, got %d and %d", len(first), len(second))
	}
	if first[0].ID != second[0].ID {
		t.Errorf("loop ids differ across runs: %q vs %q", first[0].ID, second[0].ID)
	}
}
