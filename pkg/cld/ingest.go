package cld

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// maxPreviewLen bounds the excerpt stored on a Span.
const maxPreviewLen = 160

// ingestParallelism caps the per-document fan-out during ingest.
const ingestParallelism = 4

// NormalizeText unifies newlines so span offsets are stable across input
// sources.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// Ingest normalizes the inputs and segments every document into
// sentence-level spans. It never fails: empty or malformed documents simply
// contribute no spans. Documents are processed in parallel, then spans are
// sorted by (doc id, start) so downstream stages see a deterministic order
// regardless of scheduling.
func Ingest(ctx context.Context, inputs []Input) ([]Document, []Span) {
	docs := make([]Document, len(inputs))
	spansPerDoc := make([][]Span, len(inputs))

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(ingestParallelism)
	var mu sync.Mutex

	for i, input := range inputs {
		i, input := i, input
		eg.Go(func() error {
			doc := Document{
				ID:        input.ID,
				Title:     input.Title,
				SourceURI: input.SourceURI,
				Text:      NormalizeText(input.Text),
			}
			spans := segmentSentences(doc)

			mu.Lock()
			docs[i] = doc
			spansPerDoc[i] = spans
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; ingest degrades to zero spans instead.
	_ = eg.Wait()

	var all []Span
	for _, spans := range spansPerDoc {
		all = append(all, spans...)
	}
	sort.SliceStable(all, func(a, b int) bool {
		if all[a].DocID != all[b].DocID {
			return all[a].DocID < all[b].DocID
		}
		return all[a].Start < all[b].Start
	})

	return docs, all
}

// segmentSentences splits a document into sentence spans. `.`, `!` and `?`
// terminate a sentence and newlines are hard boundaries. Offsets are byte
// positions of the untrimmed segment within the normalized text; the preview
// is the trimmed content, capped at maxPreviewLen.
func segmentSentences(doc Document) []Span {
	text := doc.Text
	var spans []Span

	segStart := 0
	flush := func(end int) {
		if end <= segStart {
			segStart = end
			return
		}
		segment := text[segStart:end]
		trimmed := strings.TrimSpace(segment)
		if trimmed != "" {
			spans = append(spans, Span{
				DocID:       doc.ID,
				Start:       segStart,
				End:         end,
				TextPreview: truncate(trimmed, maxPreviewLen),
			})
		}
		segStart = end
	}

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			// Consume a run of terminators so "?!" stays one sentence.
			j := i + 1
			for j < len(text) && (text[j] == '.' || text[j] == '!' || text[j] == '?') {
				j++
			}
			flush(j)
			i = j - 1
		case '\n':
			flush(i)
			segStart = i + 1
		}
	}
	flush(len(text))

	return spans
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
