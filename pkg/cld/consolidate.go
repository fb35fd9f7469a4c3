package cld

// mergeUplift is added on top of the confidence average each time a
// duplicate edge is merged, so edges observed multiple times score higher
// without ever exceeding 1.
const mergeUplift = 0.05

// Consolidate merges duplicate edges (same from/to/polarity) and prunes
// edges below the configured confidence threshold. Evidence lists are
// concatenated, not deduplicated: repetition signals strength. Consolidating
// an already-consolidated edge set is a no-op.
func Consolidate(edges []CausalEdge, cfg Config) []CausalEdge {
	index := make(map[string]int)
	var merged []CausalEdge

	for _, edge := range edges {
		key := edge.FromVariableID + "|" + edge.ToVariableID + "|" + string(edge.Polarity)
		if at, ok := index[key]; ok {
			merged[at].Evidence = append(merged[at].Evidence, edge.Evidence...)
			combined := (merged[at].Confidence+edge.Confidence)/2 + mergeUplift
			if combined > 1 {
				combined = 1
			}
			merged[at].Confidence = combined
			continue
		}
		index[key] = len(merged)
		kept := edge
		kept.Evidence = append([]Span(nil), edge.Evidence...)
		merged = append(merged, kept)
	}

	var surviving []CausalEdge
	for _, edge := range merged {
		if edge.Confidence >= cfg.PruneThreshold {
			surviving = append(surviving, edge)
		}
	}
	return surviving
}

// BuildGraph assembles the consolidated view. Variables must be the
// variable-type codes the edges were extracted against.
func BuildGraph(variables []Code, edges []CausalEdge) Graph {
	return Graph{Variables: variables, Edges: edges}
}
