package processor

import (
	"iter"
	"slices"
	"strings"

	"github.com/xhad/bookrag/internal/models"
)

// DefaultChunkSize is the chunk budget in characters used when none is
// configured.
const DefaultChunkSize = 1200

const sentenceDelimiter = ". "

type ProcessorConfig struct {
	ChunkSize int
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}

	return Processor{
		config: config,
	}
}

// ChunkSize returns the effective chunk budget.
func (p Processor) ChunkSize() int {
	return p.config.ChunkSize
}

// Process splits a crawled page into chunks. IDs are left unset; the caller
// owns identifier assignment.
func (p Processor) Process(doc models.SourceDocument) []models.Chunk {
	var chunks []models.Chunk
	for text := range Chunks(doc.Content, p.config.ChunkSize) {
		chunks = append(chunks, models.Chunk{
			URL:  doc.URL,
			Text: text,
		})
	}
	return chunks
}

// Chunks lazily splits text into trimmed, non-empty pieces of at most budget
// characters. A piece ends at the last ". " inside the budget, which is
// consumed; without one the text is cut at the budget. The sequence can be
// ranged over any number of times.
func Chunks(text string, budget int) iter.Seq[string] {
	if budget <= 0 {
		budget = DefaultChunkSize
	}

	return func(yield func(string) bool) {
		rest := strings.TrimSpace(text)
		for {
			limit, over := prefixEnd(rest, budget)
			if !over {
				break
			}
			cut, next := splitPoint(rest, limit)
			piece := strings.TrimSpace(rest[:cut])
			rest = strings.TrimSpace(rest[next:])
			if piece == "" {
				continue
			}
			if !yield(piece) {
				return
			}
		}
		if rest != "" {
			yield(rest)
		}
	}
}

// Split collects Chunks into a slice.
func Split(text string, budget int) []string {
	return slices.Collect(Chunks(text, budget))
}

// prefixEnd returns the byte offset just past the first n characters of text
// and whether text holds more than n characters.
func prefixEnd(text string, n int) (int, bool) {
	count := 0
	for i := range text {
		if count == n {
			return i, true
		}
		count++
	}
	return len(text), false
}

// splitPoint returns where the current piece ends and where the next one
// starts, given the byte offset limit of the budget window.
func splitPoint(text string, limit int) (cut, next int) {
	if i := strings.LastIndex(text[:limit], sentenceDelimiter); i >= 0 {
		return i, i + len(sentenceDelimiter)
	}
	return limit, limit
}
