package cld

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// FindLoops discovers all simple cycles of up to maxDepth edges in the
// consolidated graph and classifies each as reinforcing or balancing by the
// sign product of its edges. The depth bound keeps worst-case cost tractable
// on dense graphs; very long cycles are deliberately not reported.
func FindLoops(g Graph, maxDepth int) []Loop {
	if maxDepth < 1 || len(g.Edges) == 0 {
		return nil
	}

	adjacency := make(map[string][]CausalEdge, len(g.Variables))
	for _, edge := range g.Edges {
		adjacency[edge.FromVariableID] = append(adjacency[edge.FromVariableID], edge)
	}

	seen := make(map[string]struct{})
	var loops []Loop

	for _, start := range g.Variables {
		pathNodes := []string{start.ID}
		var pathEdges []CausalEdge
		onPath := map[string]bool{start.ID: true}

		var walk func(node string)
		walk = func(node string) {
			for _, edge := range adjacency[node] {
				if len(pathEdges)+1 > maxDepth {
					return
				}
				next := edge.ToVariableID
				if next == start.ID {
					// Closing the cycle; the closing edge itself satisfies
					// the at-least-one-edge requirement.
					cycleEdges := append(append([]CausalEdge(nil), pathEdges...), edge)
					key := cycleKey(cycleEdges)
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
					loops = append(loops, newLoop(key, pathNodes, cycleEdges))
					continue
				}
				if onPath[next] {
					continue
				}
				onPath[next] = true
				pathNodes = append(pathNodes, next)
				pathEdges = append(pathEdges, edge)
				walk(next)
				pathEdges = pathEdges[:len(pathEdges)-1]
				pathNodes = pathNodes[:len(pathNodes)-1]
				delete(onPath, next)
			}
		}
		walk(start.ID)
	}

	return loops
}

// cycleKey identifies a cycle independently of its rotation or starting
// node: the sorted, concatenated set of its edge ids.
func cycleKey(edges []CausalEdge) string {
	ids := make([]string, len(edges))
	for i, edge := range edges {
		ids[i] = edge.ID
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

func newLoop(key string, nodes []string, edges []CausalEdge) Loop {
	edgeIDs := make([]string, len(edges))
	for i, edge := range edges {
		edgeIDs[i] = edge.ID
	}
	sum := sha256.Sum256([]byte(key))
	return Loop{
		ID:       "loop:" + hex.EncodeToString(sum[:])[:12],
		NodeIDs:  append([]string(nil), nodes...),
		EdgeIDs:  edgeIDs,
		Type:     classifyLoop(edges),
		Evidence: append([]string(nil), edgeIDs...),
	}
}

// classifyLoop multiplies the edge signs around the cycle: a non-negative
// product is reinforcing, a negative one balancing.
func classifyLoop(edges []CausalEdge) LoopType {
	sign := 1
	for _, edge := range edges {
		if edge.Polarity == PolarityNegative {
			sign = -sign
		}
	}
	if sign >= 0 {
		return LoopReinforcing
	}
	return LoopBalancing
}
