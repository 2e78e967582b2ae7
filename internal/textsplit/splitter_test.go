package textsplit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_HardCutsWithOverlap(t *testing.T) {
	// 120 characters with no semantic boundaries forces hard cuts.
	text := strings.Repeat("a", 40) + strings.Repeat("b", 40) + strings.Repeat("c", 40)
	s := New(50, 10)
	chunks := s.Split(text)

	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len([]rune(chunk)), 50)
	}
	// Consecutive chunks share exactly the configured overlap.
	require.Equal(t, chunks[0][40:], chunks[1][:10])
	require.Equal(t, chunks[1][40:], chunks[2][:10])
}

func TestSplit_ChunkBounds(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet, consectetur adipiscing elit. ", 40)
	s := New(100, 20)
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if n := len([]rune(chunk)); n > 100 {
			t.Fatalf("chunk %d exceeds size: %d", i, n)
		}
	}
}

func TestSplit_Coverage(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 30)
	s := New(80, 15)
	chunks := s.Split(text)

	// Every position of the input must be covered by some chunk: walking the
	// chunks and matching each against the original at or before the previous
	// end reconstructs full coverage.
	pos := 0
	for i, chunk := range chunks {
		idx := strings.Index(text[maxInt(0, pos-15):], chunk)
		if idx < 0 {
			t.Fatalf("chunk %d not found near position %d", i, pos)
		}
		start := maxInt(0, pos-15) + idx
		if start > pos {
			t.Fatalf("gap before chunk %d: coverage ends at %d, chunk starts at %d", i, pos, start)
		}
		pos = start + len(chunk)
	}
	require.Equal(t, len(text), pos)
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	text := strings.Repeat("x", 60) + "\n\n" + strings.Repeat("y", 60)
	s := New(100, 0)
	chunks := s.Split(text)
	require.Len(t, chunks, 2)
	require.Equal(t, strings.Repeat("x", 60)+"\n\n", chunks[0])
	require.Equal(t, strings.Repeat("y", 60), chunks[1])
}

func TestSplit_ShortInputSingleChunk(t *testing.T) {
	s := New(1000, 100)
	chunks := s.Split("short text")
	require.Equal(t, []string{"short text"}, chunks)
}

func TestSplit_EmptyInput(t *testing.T) {
	s := New(1000, 100)
	require.Nil(t, s.Split(""))
}

func TestNew_ClampsOversizedOverlap(t *testing.T) {
	s := New(100, 200)
	require.Equal(t, 25, s.Overlap())
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
