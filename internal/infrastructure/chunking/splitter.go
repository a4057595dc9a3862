package chunking

import (
	"strings"
	"unicode"
)

// Splitter cuts text into overlapping fixed-size windows measured in runes.
// Cut points snap back to the nearest sentence or whitespace boundary so
// chunks rarely split a word in half.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 900
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var out []string
	start := 0
	for start < len(runes) {
		end := start + s.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = snapToBoundary(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - s.Overlap
		if next < start+1 {
			next = start + 1
		}
		start = next
	}
	return out
}

// snapToBoundary walks back from end looking for a sentence break, then any
// whitespace, within the last quarter of the window. Falls back to the hard
// cut when the window has no break at all.
func snapToBoundary(runes []rune, start, end int) int {
	limit := end - (end-start)/4
	if limit < start+1 {
		limit = start + 1
	}

	for i := end; i > limit; i-- {
		switch runes[i-1] {
		case '.', '!', '?', '\n':
			return i
		}
	}
	for i := end; i > limit; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
