// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

/*
embedding.go - Deterministic Phrase Embeddings

The semantic sub-score needs phrase vectors but the server ships without a
model download. HashedBackend derives a fixed vector per word from a hash
of the word itself: unrelated words land in near-orthogonal directions in
a 64-dimensional space, while phrases sharing words land close together.
That is enough signal for ranking keyword relevance, and it is fully
deterministic, so scoring stays a pure function of its inputs.

Swapping in a real embedding model means implementing EmbeddingBackend.
*/

//nolint:staticcheck // File documentation, not package doc
package nlp

import (
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/techwatch/techwatch/internal/cache"
)

// embeddingDim is the vector dimensionality of the hashed backend.
const embeddingDim = 64

// EmbeddingBackend produces a fixed-dimension vector for a text. Vectors
// for equal inputs must be equal; the scorer depends on that.
type EmbeddingBackend interface {
	Embed(text string) []float64
}

// HashedBackend is the default EmbeddingBackend: deterministic hashed word
// vectors averaged per phrase, with an LRU phrase cache in front.
type HashedBackend struct {
	dim    int
	phrase *cache.VectorCache
}

// NewHashedBackend builds the default backend with a 10k-phrase cache.
func NewHashedBackend() *HashedBackend {
	return &HashedBackend{
		dim:    embeddingDim,
		phrase: cache.NewVectorCache(10000, time.Hour),
	}
}

// Embed returns the unit-length phrase vector for text. Texts with no
// tokens embed to the zero vector.
func (b *HashedBackend) Embed(text string) []float64 {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" {
		return make([]float64, b.dim)
	}
	if vec, ok := b.phrase.Get(key); ok {
		return vec
	}

	vec := make([]float64, b.dim)
	words := tokenize(key)
	for _, word := range words {
		wv := b.wordVector(word)
		for i := range vec {
			vec[i] += wv[i]
		}
	}
	if len(words) > 0 {
		for i := range vec {
			vec[i] /= float64(len(words))
		}
	}
	normalize(vec)

	b.phrase.Add(key, vec)
	return vec
}

// wordVector expands an FNV hash of the word into a unit vector through a
// splitmix64 stream, so the same word always maps to the same direction.
func (b *HashedBackend) wordVector(word string) []float64 {
	h := fnv.New64a()
	h.Write([]byte(word)) //nolint:errcheck // hash.Hash never errors
	state := h.Sum64()

	vec := make([]float64, b.dim)
	for i := range vec {
		state += 0x9e3779b97f4a7c15
		z := state
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		z ^= z >> 31
		vec[i] = float64(int64(z)) / float64(math.MaxInt64)
	}
	normalize(vec)
	return vec
}

// normalize scales vec to unit length in place. Zero vectors stay zero.
func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

// cosine returns the cosine similarity of two vectors, 0 when either is
// zero or the lengths differ.
func cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
