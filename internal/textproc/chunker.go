// Package textproc provides text cleaning, chunking, and analysis helpers
// for the content pipeline.
package textproc

import "strings"

// sentenceBoundaryLookback is how far back from a naive cut point the chunker
// searches for a sentence terminator.
const sentenceBoundaryLookback = 100

// sentenceEnders are terminators the chunker snaps chunk boundaries to.
var sentenceEnders = []string{". ", "! ", "? ", ".\n", "!\n", "?\n"}

// Chunker splits text into overlapping, sentence-boundary-respecting segments
// sized for embedding.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a Chunker with the given target chunk size and overlap,
// both in characters. Non-positive sizes fall back to 512/50.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if overlap < 0 {
		overlap = 50
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk splits text into overlapping chunks.
//
// Text at or below the chunk size is returned as a single chunk; empty text
// yields no chunks. Each non-final boundary is snapped backward to the nearest
// sentence terminator within the lookback window, falling back to the nearest
// preceding whitespace, then to the raw character boundary. The walk advances
// by at least one character per chunk, so the call always terminates even
// when overlap >= chunk size.
func (c *Chunker) Chunk(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len(text) <= c.chunkSize {
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + c.chunkSize
		if end < len(text) {
			searchStart := end - sentenceBoundaryLookback
			if searchStart < start {
				searchStart = start
			}
			if boundary := findSentenceBoundary(text, searchStart, end); boundary > start {
				end = boundary
			}
		} else {
			end = len(text)
		}

		if chunk := strings.TrimSpace(text[start:end]); chunk != "" {
			chunks = append(chunks, chunk)
		}

		// Advance with overlap, always moving at least one character forward.
		next := end - c.overlap
		if next < start+1 {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// findSentenceBoundary returns the position just past the latest sentence
// terminator in text[start:end], falling back to the latest whitespace, then
// to end itself.
func findSentenceBoundary(text string, start, end int) int {
	window := text[start:end]

	best := -1
	for _, ender := range sentenceEnders {
		if pos := strings.LastIndex(window, ender); pos >= 0 && pos+len(ender) > best {
			best = pos + len(ender)
		}
	}
	if best > 0 {
		return start + best
	}

	if lastSpace := strings.LastIndex(window, " "); lastSpace > 0 {
		return start + lastSpace
	}
	return end
}
