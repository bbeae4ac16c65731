// Package embedding provides the text embedder backing the semantic
// cache. There is no real all-MiniLM-L6-v2 (or any other neural
// embedding model) implementation available as a pure-Go dependency
// anywhere in this module's dependency surface, so Embedder produces a
// deterministic, hash-derived 384-dimensional vector instead: the same
// text always embeds to the same vector, and vectors are L2-normalized
// so cosine similarity behaves the way the semantic cache expects. This
// is a stand-in for a real sentence-embedding model, not a faithful
// semantic approximation of one — see DESIGN.md for the justification.
package embedding

import (
	"crypto/sha256"
	"math"
	"strings"
)

// Dimension is the vector width the semantic cache's collection is
// configured for. It mirrors the all-MiniLM-L6-v2 reference model's
// dimensionality named by the gateway's external data model.
const Dimension = 384

// Embedder turns text into a fixed-width float32 vector.
type Embedder struct{}

// New returns a ready Embedder. It holds no state and loads nothing at
// construction time, unlike a real model load — there is no model to
// load.
func New() *Embedder {
	return &Embedder{}
}

// Embed deterministically derives a Dimension-length unit vector from
// text. Word-level hashing (rather than whole-string hashing) means
// texts sharing vocabulary produce vectors that are closer in cosine
// distance than unrelated texts, giving the similarity search something
// meaningful to do even without a trained model.
func (e *Embedder) Embed(text string) []float32 {
	vec := make([]float32, Dimension)

	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		words = []string{""}
	}

	for _, w := range words {
		sum := sha256.Sum256([]byte(w))
		for i := 0; i < Dimension; i++ {
			b := sum[i%len(sum)]
			// spread the byte across [-1, 1] and accumulate per word so
			// repeated/similar vocabulary reinforces the same dimensions.
			vec[i] += (float32(b)/127.5 - 1.0)
		}
	}

	normalize(vec)
	return vec
}

func normalize(vec []float32) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range vec {
		vec[i] /= norm
	}
}
