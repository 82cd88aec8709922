package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_SingleChunkWhenTextFits(t *testing.T) {
	chunks, err := Split("short text", 1000, 200)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplit_EmptyTextYieldsNoChunks(t *testing.T) {
	chunks, err := Split("", 1000, 200)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_RejectsBadOverlap(t *testing.T) {
	_, err := Split("text", 100, 100)
	assert.Error(t, err)

	_, err = Split("text", 100, -1)
	assert.Error(t, err)

	_, err = Split("text", 0, 0)
	assert.Error(t, err)
}

func TestSplit_WindowsAndTrailingChunk(t *testing.T) {
	// 10 runes, size 4, overlap 1 -> step 3: [0:4) [3:7) [6:10)
	chunks, err := Split("abcdefghij", 4, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"abcd", "defg", "ghij"}, chunks)
}

func TestSplit_ShortFinalChunkEmitted(t *testing.T) {
	// 9 runes, size 4, overlap 2 -> step 2: [0:4) [2:6) [4:8) [6:9)
	chunks, err := Split("abcdefghi", 4, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"abcd", "cdef", "efgh", "ghi"}, chunks)
	assert.Less(t, len(chunks[len(chunks)-1]), 4)
}

func TestSplit_ReconstructionProperty(t *testing.T) {
	cases := []struct {
		length, size, overlap int
	}{
		{1, 10, 0},
		{10, 10, 3},
		{11, 10, 3},
		{250, 40, 10},
		{999, 100, 0},
		{1000, 100, 99},
		{3571, 500, 137},
	}

	alphabet := []rune("abcdefghijklmnopqrstuvwxyz0123456789")
	for _, tc := range cases {
		runes := make([]rune, tc.length)
		for i := range runes {
			runes[i] = alphabet[i%len(alphabet)]
		}
		text := string(runes)

		chunks, err := Split(text, tc.size, tc.overlap)
		require.NoError(t, err)

		// Concatenation with overlaps removed reconstructs the input.
		var b strings.Builder
		for i, c := range chunks {
			if i == 0 {
				b.WriteString(c)
				continue
			}
			b.WriteString(string([]rune(c)[tc.overlap:]))
		}
		assert.Equal(t, text, b.String(), "size=%d overlap=%d length=%d", tc.size, tc.overlap, tc.length)

		// Chunk count matches ceil((L-O)/(C-O)) for L > O, else 1.
		var want int
		if tc.length <= tc.size {
			want = 1
		} else {
			step := tc.size - tc.overlap
			want = (tc.length - tc.overlap + step - 1) / step
		}
		assert.Len(t, chunks, want, "size=%d overlap=%d length=%d", tc.size, tc.overlap, tc.length)

		// No chunk exceeds the configured size.
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), tc.size)
		}
	}
}

func TestSplit_MultiByteRunesNeverSplit(t *testing.T) {
	text := strings.Repeat("한국어 텍스트 ", 40)
	chunks, err := Split(text, 50, 10)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.True(t, strings.ContainsRune("한국어 텍스트", []rune(c)[0]))
		assert.Equal(t, c, string([]rune(c)), "chunk must be valid UTF-8")
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("deterministic input ", 100)
	a, err := Split(text, 128, 32)
	require.NoError(t, err)
	b, err := Split(text, 128, 32)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
