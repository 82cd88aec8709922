// Package chunker splits extracted document text into overlapping fixed-size
// segments, the unit of embedding and retrieval.
package chunker

import "fmt"

// Split cuts text into windows of size runes, each window starting
// size-overlap runes after the previous one. The final window may be shorter
// and is still emitted. Text no longer than size yields exactly one chunk.
// Empty (or whitespace-free empty) input yields no chunks.
//
// Boundaries are measured in runes so multi-byte text never splits
// mid-character. The function is pure and deterministic.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", overlap, size)
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}, nil
	}

	step := size - overlap
	chunks := make([]string, 0, (len(runes)-overlap+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}
