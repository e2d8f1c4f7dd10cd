// Package testutil provides deterministic fakes for tests. Nothing in this
// package performs network or model calls.
package testutil

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

const defaultDim = 64

// Embedder is a deterministic bag-of-words embedder. Each token is hashed
// into a fixed-size bucket vector, so texts sharing vocabulary produce
// similar vectors and identical texts produce identical vectors. That is
// enough signal for ranking assertions without a real model.
type Embedder struct {
	Dim int
	Err error // when set, Embed returns this error
}

// NewEmbedder creates an Embedder with the default dimensionality.
func NewEmbedder() *Embedder {
	return &Embedder{Dim: defaultDim}
}

// Embed returns one vector per input text.
func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.Err != nil {
		return nil, e.Err
	}

	dim := e.Dim
	if dim <= 0 {
		dim = defaultDim
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, dim)
		for _, token := range tokenize(text) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(token))
			v[h.Sum32()%uint32(dim)]++
		}
		out[i] = v
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
