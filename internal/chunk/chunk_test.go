package chunk_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvid0/corvid/internal/chunk"
)

func TestNewDefaults(t *testing.T) {
	s, err := chunk.New(chunk.Options{})
	require.NoError(t, err)

	chunks := s.Split("hello world")
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestNewValidation(t *testing.T) {
	_, err := chunk.New(chunk.Options{MaxSize: -1})
	assert.ErrorIs(t, err, chunk.ErrInvalidMaxSize)

	_, err = chunk.New(chunk.Options{MaxSize: 100, Overlap: 100})
	assert.ErrorIs(t, err, chunk.ErrInvalidOverlap)

	_, err = chunk.New(chunk.Options{MaxSize: 100, Overlap: -5})
	assert.ErrorIs(t, err, chunk.ErrInvalidOverlap)
}

func TestSplitEmptyInput(t *testing.T) {
	s, err := chunk.New(chunk.Options{})
	require.NoError(t, err)

	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split("   \n\n\t  "))
}

func TestSplitNeverReturnsEmptyChunk(t *testing.T) {
	s, err := chunk.New(chunk.Options{MaxSize: 20, Overlap: 5})
	require.NoError(t, err)

	text := "one two three\n\n\n\nfour five six seven eight nine ten eleven twelve"
	for i, c := range s.Split(text) {
		assert.NotEmpty(t, strings.TrimSpace(c), "chunk %d is blank", i)
	}
}

func TestSplitRespectsMaxSize(t *testing.T) {
	s, err := chunk.New(chunk.Options{MaxSize: 50, Overlap: 10})
	require.NoError(t, err)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30)
	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 50, "chunk %d exceeds max size", i)
	}
}

func TestSplitDeterministic(t *testing.T) {
	s, err := chunk.New(chunk.Options{MaxSize: 60, Overlap: 15})
	require.NoError(t, err)

	text := "Alpha beta gamma.\nDelta epsilon zeta, eta theta.\n\nIota kappa lambda mu nu xi omicron pi rho sigma tau."
	first := s.Split(text)
	for range 5 {
		assert.Equal(t, first, s.Split(text))
	}
}

func TestSplitOverlapPreserved(t *testing.T) {
	const overlap = 12
	s, err := chunk.New(chunk.Options{MaxSize: 48, Overlap: overlap})
	require.NoError(t, err)

	text := strings.Repeat("Paragraphs carry meaning across boundaries. ", 20)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)

	for i := 0; i < len(chunks)-1; i++ {
		prev := []rune(chunks[i])
		next := []rune(chunks[i+1])
		n := min(overlap, len(prev))
		want := string(prev[len(prev)-n:])
		require.GreaterOrEqual(t, len(next), n)
		assert.Equal(t, want, string(next[:n]),
			"chunk %d tail not re-included at head of chunk %d", i, i+1)
	}
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	s, err := chunk.New(chunk.Options{MaxSize: 30, Overlap: 0})
	require.NoError(t, err)

	text := "first paragraph here\n\nsecond paragraph here"
	chunks := s.Split(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "first paragraph here\n\n", chunks[0])
	assert.Equal(t, "second paragraph here", chunks[1])
}

func TestSplitUnsplittableAtomEmittedWhole(t *testing.T) {
	// Without the hard-cut fallback a boundary-free run cannot be divided.
	s, err := chunk.New(chunk.Options{
		MaxSize:    10,
		Overlap:    2,
		Separators: []string{"\n\n", "\n", " "},
	})
	require.NoError(t, err)

	long := strings.Repeat("x", 40)
	chunks := s.Split("short\n" + long)
	require.NotEmpty(t, chunks)

	var found bool
	for _, c := range chunks {
		if strings.Contains(c, long) {
			found = true
		}
	}
	assert.True(t, found, "oversized atom must be emitted whole, got %q", chunks)
}

func TestSplitHardCutFallback(t *testing.T) {
	s, err := chunk.New(chunk.Options{MaxSize: 10, Overlap: 0})
	require.NoError(t, err)

	long := strings.Repeat("y", 35)
	chunks := s.Split(long)
	require.Len(t, chunks, 4)
	for i, c := range chunks[:3] {
		assert.Len(t, c, 10, "hard-cut chunk %d", i)
	}
	assert.Len(t, chunks[3], 5)
}

func TestSplitContentPreservedWithoutOverlap(t *testing.T) {
	s, err := chunk.New(chunk.Options{MaxSize: 25, Overlap: 0})
	require.NoError(t, err)

	text := "The capital of France is Paris. Paris has a population of about 2.1 million."
	joined := strings.Join(s.Split(text), "")
	assert.Equal(t, text, joined)
}

func TestSplitMultibyteSafe(t *testing.T) {
	s, err := chunk.New(chunk.Options{MaxSize: 8, Overlap: 0})
	require.NoError(t, err)

	text := strings.Repeat("héllo ", 10)
	for _, c := range s.Split(text) {
		assert.True(t, strings.Contains(text, c) || len(c) > 0)
		for _, r := range c {
			assert.NotEqual(t, '�', r, "rune corruption in %q", c)
		}
	}
}
