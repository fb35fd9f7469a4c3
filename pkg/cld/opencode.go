package cld

import (
	"strings"
	"unicode"
)

// ExtractThemes scans sentence spans for candidate short phrases and returns
// them as theme codes, each carrying one evidence span per sentence it
// appears in. It never fails; input with no qualifying phrases yields an
// empty slice.
//
// Window sizes run from ThemeMaxWords down to 1 and an accepted phrase
// consumes its tokens, so longer, more specific phrases win before their
// sub-phrases are considered. This keeps "resource allocation" from also
// surfacing "resource" and "allocation" without a second merge pass.
func ExtractThemes(docs []Document, sentences []Span, cfg Config) []Code {
	texts := docTextIndex(docs)

	index := make(map[string]int)
	var themes []Code

	for _, sentence := range sentences {
		tokens := tokenize(sentenceText(texts, sentence))
		if len(tokens) == 0 {
			continue
		}

		used := make([]bool, len(tokens))
		seen := make(map[string]struct{})

		maxWords := cfg.ThemeMaxWords
		if maxWords > len(tokens) {
			maxWords = len(tokens)
		}

		for w := maxWords; w >= 1; w-- {
			for i := 0; i+w <= len(tokens); i++ {
				if anyUsed(used, i, i+w) {
					continue
				}
				phrase := strings.Join(tokens[i:i+w], " ")
				if rejectTheme(phrase, tokens[i:i+w], cfg) {
					continue
				}
				for j := i; j < i+w; j++ {
					used[j] = true
				}

				label := phrase
				if mapped, ok := cfg.ThemeToVariable[phrase]; ok {
					label = mapped
				}
				if _, dup := seen[label]; dup {
					continue
				}
				seen[label] = struct{}{}

				id := "theme:" + label
				if at, ok := index[id]; ok {
					themes[at].Evidence = append(themes[at].Evidence, sentence)
					continue
				}
				index[id] = len(themes)
				themes = append(themes, Code{
					ID:       id,
					Label:    label,
					Type:     CodeTheme,
					Group:    cfg.groupFor(label),
					Evidence: []Span{sentence},
				})
			}
		}
	}

	return themes
}

// rejectTheme applies the open-coding filters: minimum length, stop words,
// causal-cue overlap (themes must not themselves be cue phrases), and purely
// numeric phrases.
func rejectTheme(phrase string, tokens []string, cfg Config) bool {
	if len(phrase) < cfg.ThemeMinLength {
		return true
	}
	for _, token := range tokens {
		if cfg.isStopWord(token) {
			return true
		}
	}
	for _, cue := range cfg.allCues {
		if strings.Contains(phrase, cue) {
			return true
		}
	}
	return isNumericPhrase(tokens)
}

func isNumericPhrase(tokens []string) bool {
	for _, token := range tokens {
		for _, r := range token {
			if !unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}

func anyUsed(used []bool, from, to int) bool {
	for i := from; i < to; i++ {
		if used[i] {
			return true
		}
	}
	return false
}

// tokenize lowercases a sentence, strips everything but letters, digits and
// hyphens, and splits on whitespace.
func tokenize(s string) []string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

func docTextIndex(docs []Document) map[string]string {
	texts := make(map[string]string, len(docs))
	for _, doc := range docs {
		texts[doc.ID] = doc.Text
	}
	return texts
}

// sentenceText recovers the full trimmed sentence from the owning document,
// falling back to the span preview when the document is not available.
func sentenceText(texts map[string]string, span Span) string {
	text, ok := texts[span.DocID]
	if !ok || span.Start < 0 || span.End > len(text) || span.Start >= span.End {
		return span.TextPreview
	}
	return strings.TrimSpace(text[span.Start:span.End])
}
