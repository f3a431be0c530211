package chunking

import "strings"

// Splitter cuts text into overlapping character windows. Windows are
// measured in runes; every emitted chunk is trimmed and non-empty, and no
// chunk exceeds ChunkSize runes. Splitting the same text always yields
// the same chunks.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1200
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
	text = strings.TrimSpace(strings.ReplaceAll(text, "\x00", " "))
	if text == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)
	out := make([]string, 0, n/s.ChunkSize+1)
	start := 0
	for start < n {
		end := start + s.ChunkSize
		if end > n {
			end = n
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == n {
			break
		}
		// The window must always advance, even when a caller-supplied
		// overlap swallows the whole step.
		next := end - s.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return out
}
