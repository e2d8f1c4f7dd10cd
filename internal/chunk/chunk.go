// Package chunk splits raw document text into bounded, overlapping segments
// suitable for embedding and retrieval.
//
// The splitter walks an ordered list of boundary separators from most semantic
// (paragraph break) to least (hard character cut) and uses the coarsest
// boundary that still lets a chunk respect the size limit. Consecutive chunks
// share a configured overlap so a concept spanning a cut is never lost to
// retrieval. Splitting is deterministic: the same input and options always
// produce the same chunk sequence.
package chunk

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultSeparators is the boundary preference order, coarsest first.
// The trailing empty string is the hard character cut of last resort.
var DefaultSeparators = []string{"\n\n", "\n", ".", ",", " ", ""}

// Default sizing, in characters.
const (
	DefaultMaxSize = 400
	DefaultOverlap = 75
)

var (
	// ErrInvalidMaxSize indicates a non-positive chunk size limit.
	ErrInvalidMaxSize = errors.New("chunk: max size must be positive")

	// ErrInvalidOverlap indicates an overlap that is negative or does not
	// leave room for new content in each chunk.
	ErrInvalidOverlap = errors.New("chunk: overlap must be non-negative and smaller than max size")
)

// Options configures a Splitter.
type Options struct {
	// MaxSize is the maximum chunk length in characters. A chunk may exceed
	// it only when a single atomic unit has no usable boundary left.
	MaxSize int

	// Overlap is the number of trailing characters of chunk k re-included at
	// the start of chunk k+1.
	Overlap int

	// Separators is the boundary preference order. Empty means
	// DefaultSeparators.
	Separators []string
}

// Splitter splits text into overlapping chunks. Safe for concurrent use.
type Splitter struct {
	maxSize    int
	overlap    int
	separators []string
}

// New creates a Splitter, applying defaults for zero-value options.
func New(opts Options) (*Splitter, error) {
	if opts.MaxSize == 0 {
		opts.MaxSize = DefaultMaxSize
		if opts.Overlap == 0 {
			opts.Overlap = DefaultOverlap
		}
	}
	if opts.MaxSize < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxSize, opts.MaxSize)
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.MaxSize {
		return nil, fmt.Errorf("%w: overlap %d, max size %d", ErrInvalidOverlap, opts.Overlap, opts.MaxSize)
	}
	seps := opts.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}

	return &Splitter{
		maxSize:    opts.MaxSize,
		overlap:    opts.Overlap,
		separators: seps,
	}, nil
}

// Split returns the ordered chunk sequence for text. Whitespace-only input
// yields no chunks; no returned chunk is ever empty.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// Segments are capped below MaxSize-Overlap so that prepending the
	// overlap tail keeps every chunk within MaxSize.
	limit := s.maxSize - s.overlap
	segments := s.split(text, s.separators, limit)

	chunks := make([]string, 0, len(segments))
	var prev string
	for _, seg := range segments {
		if strings.TrimSpace(seg) == "" {
			continue
		}
		if prev == "" {
			chunks = append(chunks, seg)
			prev = seg
			continue
		}
		c := tail(prev, s.overlap) + seg
		chunks = append(chunks, c)
		prev = c
	}
	return chunks
}

// split recursively divides text into segments of at most limit characters,
// trying separators coarsest-first. A piece with no usable boundary is
// returned whole rather than corrupted.
func (s *Splitter) split(text string, seps []string, limit int) []string {
	if len([]rune(text)) <= limit {
		return []string{text}
	}

	sep, rest, ok := pickSeparator(text, seps)
	if !ok {
		// Atomic unit: no boundary available and hard cuts not permitted.
		return []string{text}
	}

	var pieces []string
	if sep == "" {
		pieces = hardCut(text, limit)
	} else {
		pieces = strings.SplitAfter(text, sep)
	}

	// Oversized pieces recurse into finer boundaries before merging.
	flat := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if len([]rune(p)) > limit {
			flat = append(flat, s.split(p, rest, limit)...)
		} else {
			flat = append(flat, p)
		}
	}

	return merge(flat, limit)
}

// pickSeparator returns the first separator present in text, together with
// the finer separators that follow it.
func pickSeparator(text string, seps []string) (sep string, rest []string, ok bool) {
	for i, c := range seps {
		if c == "" || strings.Contains(text, c) {
			return c, seps[i+1:], true
		}
	}
	return "", nil, false
}

// merge greedily packs adjacent pieces into segments of at most limit
// characters. Pieces longer than limit (unsplittable atoms) pass through.
func merge(pieces []string, limit int) []string {
	var out []string
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if bufLen > 0 {
			out = append(out, buf.String())
			buf.Reset()
			bufLen = 0
		}
	}

	for _, p := range pieces {
		n := len([]rune(p))
		if n > limit {
			flush()
			out = append(out, p)
			continue
		}
		if bufLen+n > limit {
			flush()
		}
		buf.WriteString(p)
		bufLen += n
	}
	flush()
	return out
}

// hardCut slices text into runs of exactly limit characters (last run may be
// shorter). Rune-aware so multi-byte characters are never split.
func hardCut(text string, limit int) []string {
	runes := []rune(text)
	out := make([]string, 0, (len(runes)+limit-1)/limit)
	for start := 0; start < len(runes); start += limit {
		end := min(start+limit, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}

// tail returns the last n characters of s, or all of s when shorter.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
