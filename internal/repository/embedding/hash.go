package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// HashEmbedder is an offline bag-of-words embedder: every token is hashed to a
// signed bucket. Same tokens always land in the same bucket, so texts sharing
// words get a positive inner product.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 512
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, h.dim)
		for _, tok := range tokenize(text) {
			f := fnv.New64a()
			_, _ = f.Write([]byte(tok))
			sum := f.Sum64()

			sign := float32(1)
			if sum>>63 == 1 {
				sign = -1
			}
			v[sum%uint64(h.dim)] += sign
		}
		out[i] = v
	}
	return out, nil
}

func (h *HashEmbedder) Dimension() int {
	return h.dim
}

func (h *HashEmbedder) ModelName() string {
	return fmt.Sprintf("hash-%d", h.dim)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
