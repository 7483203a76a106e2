// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

/*
scorer.go - Hybrid Relevance Scorer

Scores an item's text against the watched keyword set with three signals:

 1. Exact match: which keywords literally occur in the text, weighted.
 2. Semantic: cosine similarity of phrase embeddings, top-5 weighted.
 3. TF-IDF: cosine similarity over a vectorizer fitted per call on the
    text plus the keywords, top-5 weighted.

overall = 0.4*exact + 0.3*semantic + 0.3*tfidf, then the combo multiplier,
capped at 100. Given the same backend the scorer is a pure function, so
rescoring an unchanged item is always a no-op difference-wise.
*/

//nolint:staticcheck // File documentation, not package doc
package nlp

import (
	"math"
	"sort"

	"github.com/techwatch/techwatch/internal/cache"
	"github.com/techwatch/techwatch/internal/models"
)

// topSimilarities bounds how many keyword similarities feed the semantic
// and TF-IDF averages.
const topSimilarities = 5

// Scores carries the three sub-scores, each 0-100.
type Scores struct {
	Exact    float64 `json:"exact"`
	Semantic float64 `json:"semantic"`
	TFIDF    float64 `json:"tfidf"`
}

// Result is the full scoring outcome for one text.
type Result struct {
	OverallScore     float64          `json:"overall_score"`
	Category         string           `json:"category"`
	MatchedKeywords  []models.Keyword `json:"matched_keywords"`
	Scores           Scores           `json:"scores"`
	ComboMultiplier  float64          `json:"combo_multiplier"`
	ComboReason      string           `json:"combo_reason,omitempty"`
	MatchedDataTools []string         `json:"matched_data_tools,omitempty"`
}

// Scorer scores texts against keyword sets. Safe for concurrent use when
// the backend is.
type Scorer struct {
	backend EmbeddingBackend
}

// NewScorer builds a scorer. A nil backend gets the hashed default.
func NewScorer(backend EmbeddingBackend) *Scorer {
	if backend == nil {
		backend = NewHashedBackend()
	}
	return &Scorer{backend: backend}
}

// Score rates text against keywords. Empty text or an empty keyword set
// scores zero with category "other".
func (s *Scorer) Score(text string, keywords []models.Keyword) Result {
	if text == "" || len(keywords) == 0 {
		return Result{Category: "other", ComboMultiplier: 1.0}
	}

	patterns := make([]string, len(keywords))
	for i, kw := range keywords {
		patterns[i] = kw.Keyword
	}
	matcher := cache.NewKeywordMatcher(patterns)
	matchedIdx := matcher.MatchedIndexes(text)

	matched := make([]models.Keyword, 0, len(matchedIdx))
	var matchedWeight float64
	for _, idx := range matchedIdx {
		matched = append(matched, keywords[idx])
		matchedWeight += keywords[idx].Weight
	}

	scores := Scores{
		Exact:    exactScore(len(matched), matchedWeight),
		Semantic: s.semanticScore(text, keywords),
		TFIDF:    tfidfScore(text, keywords),
	}
	overall := 0.4*scores.Exact + 0.3*scores.Semantic + 0.3*scores.TFIDF

	combo := comboForText(text)
	overall = math.Min(100, overall*combo.Multiplier)

	return Result{
		OverallScore:     overall,
		Category:         categoryFor(matched),
		MatchedKeywords:  matched,
		Scores:           scores,
		ComboMultiplier:  combo.Multiplier,
		ComboReason:      combo.Reason,
		MatchedDataTools: combo.MatchedTools,
	}
}

// exactScore rewards match count logarithmically plus the matched weight
// mass: min(100, 20*log2(n+1)) + min(30, 3*sum(weights)).
func exactScore(matchCount int, matchedWeight float64) float64 {
	if matchCount == 0 {
		return 0
	}
	countScore := math.Min(100, 20*math.Log2(float64(matchCount)+1))
	weightScore := math.Min(30, 3*matchedWeight)
	return countScore + weightScore
}

// semanticScore averages the top-5 weighted embedding similarities, x100.
func (s *Scorer) semanticScore(text string, keywords []models.Keyword) float64 {
	textVec := s.backend.Embed(text)

	sims := make([]float64, 0, len(keywords))
	for _, kw := range keywords {
		sim := cosine(textVec, s.backend.Embed(kw.Keyword))
		sims = append(sims, sim*kw.Weight)
	}
	return clampScore(topAverage(sims) * 100)
}

// tfidfScore fits a vectorizer on the text plus all keywords, then
// averages the top-5 weighted cosine similarities, x100.
func tfidfScore(text string, keywords []models.Keyword) float64 {
	corpus := make([]string, 0, len(keywords)+1)
	corpus = append(corpus, text)
	for _, kw := range keywords {
		corpus = append(corpus, kw.Keyword)
	}

	vectorizer := fitTFIDF(corpus)
	textVec := vectorizer.transform(text)

	sims := make([]float64, 0, len(keywords))
	for _, kw := range keywords {
		sim := cosine(textVec, vectorizer.transform(kw.Keyword))
		sims = append(sims, sim*kw.Weight)
	}
	return clampScore(topAverage(sims) * 100)
}

// topAverage returns the mean of the topSimilarities largest values.
func topAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	if len(sorted) > topSimilarities {
		sorted = sorted[:topSimilarities]
	}

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return sum / float64(len(sorted))
}

// categoryFor picks the category with the largest matched weight mass.
// Ties break by first appearance; no matches means "other".
func categoryFor(matched []models.Keyword) string {
	if len(matched) == 0 {
		return "other"
	}

	weightBy := make(map[string]float64)
	var order []string
	for _, kw := range matched {
		category := kw.Category
		if category == "" {
			category = "other"
		}
		if _, seen := weightBy[category]; !seen {
			order = append(order, category)
		}
		weightBy[category] += kw.Weight
	}

	best := order[0]
	for _, category := range order[1:] {
		if weightBy[category] > weightBy[best] {
			best = category
		}
	}
	return best
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
