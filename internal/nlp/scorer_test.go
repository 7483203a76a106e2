// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package nlp

import (
	"math"
	"testing"

	"github.com/techwatch/techwatch/internal/models"
)

func testKeywords() []models.Keyword {
	return []models.Keyword{
		{Keyword: "python", Weight: 1.0, Category: "programming"},
		{Keyword: "machine learning", Weight: 1.3, Category: "ai_ml"},
		{Keyword: "claude", Weight: 1.5, Category: "ai_ml"},
		{Keyword: "kubernetes", Weight: 1.0, Category: "infrastructure"},
	}
}

func TestScoreEmptyInputs(t *testing.T) {
	scorer := NewScorer(nil)

	for _, tc := range []struct {
		name     string
		text     string
		keywords []models.Keyword
	}{
		{"empty text", "", testKeywords()},
		{"no keywords", "some text", nil},
	} {
		result := scorer.Score(tc.text, tc.keywords)
		if result.OverallScore != 0 {
			t.Errorf("%s: expected score 0, got %f", tc.name, result.OverallScore)
		}
		if result.Category != "other" {
			t.Errorf("%s: expected category other, got %q", tc.name, result.Category)
		}
		if result.ComboMultiplier != 1.0 {
			t.Errorf("%s: expected multiplier 1.0, got %f", tc.name, result.ComboMultiplier)
		}
	}
}

func TestScoreMatchedKeywords(t *testing.T) {
	scorer := NewScorer(nil)

	result := scorer.Score("Machine Learning pipelines in Python", testKeywords())
	if len(result.MatchedKeywords) != 2 {
		t.Fatalf("expected 2 matched keywords, got %v", result.MatchedKeywords)
	}
	if result.MatchedKeywords[0].Keyword != "python" {
		t.Errorf("expected keyword order preserved, got %q first", result.MatchedKeywords[0].Keyword)
	}
	if result.OverallScore <= 0 || result.OverallScore > 100 {
		t.Errorf("score out of bounds: %f", result.OverallScore)
	}
	if result.Scores.Exact <= 0 {
		t.Errorf("expected a positive exact score, got %f", result.Scores.Exact)
	}
}

func TestScoreBounds(t *testing.T) {
	scorer := NewScorer(nil)
	heavy := []models.Keyword{
		{Keyword: "go", Weight: 100, Category: "programming"},
		{Keyword: "rust", Weight: 100, Category: "programming"},
	}
	result := scorer.Score("go and rust and go and rust", heavy)
	if result.OverallScore < 0 || result.OverallScore > 100 {
		t.Errorf("score out of bounds: %f", result.OverallScore)
	}
	for _, sub := range []float64{result.Scores.Exact, result.Scores.Semantic, result.Scores.TFIDF} {
		if sub < 0 || sub > 130 {
			t.Errorf("sub-score out of range: %f", sub)
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	scorer := NewScorer(nil)
	text := "Running Claude over machine learning datasets with Python"

	first := scorer.Score(text, testKeywords())
	for i := 0; i < 3; i++ {
		again := scorer.Score(text, testKeywords())
		if again.OverallScore != first.OverallScore {
			t.Fatalf("score changed between calls: %f vs %f", first.OverallScore, again.OverallScore)
		}
		if again.Scores != first.Scores {
			t.Fatalf("sub-scores changed between calls: %+v vs %+v", first.Scores, again.Scores)
		}
		if again.Category != first.Category {
			t.Fatalf("category changed between calls: %q vs %q", first.Category, again.Category)
		}
	}
}

func TestScoreCategory(t *testing.T) {
	scorer := NewScorer(nil)

	// ai_ml wins on weight mass: 1.3 + 1.5 vs 1.0.
	result := scorer.Score("claude does machine learning better than python", testKeywords())
	if result.Category != "ai_ml" {
		t.Errorf("expected ai_ml, got %q", result.Category)
	}

	result = scorer.Score("kubernetes operators", testKeywords())
	if result.Category != "infrastructure" {
		t.Errorf("expected infrastructure, got %q", result.Category)
	}

	result = scorer.Score("nothing relevant here", testKeywords())
	if result.Category != "other" {
		t.Errorf("expected other, got %q", result.Category)
	}
}

func TestScoreCategoryTieBreaksFirstSeen(t *testing.T) {
	keywords := []models.Keyword{
		{Keyword: "python", Weight: 1.0, Category: "programming"},
		{Keyword: "llm", Weight: 1.0, Category: "ai_ml"},
	}
	result := NewScorer(nil).Score("llm agents in python", keywords)
	if result.Category != "programming" {
		t.Errorf("expected first-seen category on tie, got %q", result.Category)
	}
}

func TestScoreComboScenario(t *testing.T) {
	scorer := NewScorer(nil)
	keywords := []models.Keyword{
		{Keyword: "claude", Weight: 4, Category: "ai_ml"},
		{Keyword: "power bi", Weight: 3, Category: "data_engineering"},
		{Keyword: "sql", Weight: 2.5, Category: "data_engineering"},
		{Keyword: "python", Weight: 2.5, Category: "programming"},
	}
	text := "claude for power bi and sql and python pandas"

	result := scorer.Score(text, keywords)
	if result.ComboMultiplier != 2.0 {
		t.Fatalf("expected multiplier 2.0, got %f (%s)", result.ComboMultiplier, result.ComboReason)
	}
	if len(result.MatchedDataTools) < 3 {
		t.Errorf("expected at least 3 matched tools, got %v", result.MatchedDataTools)
	}
	if result.OverallScore > 100 {
		t.Errorf("score above cap: %f", result.OverallScore)
	}

	base := 0.4*result.Scores.Exact + 0.3*result.Scores.Semantic + 0.3*result.Scores.TFIDF
	if result.OverallScore <= base {
		t.Errorf("expected multiplier to lift the score: overall=%f base=%f", result.OverallScore, base)
	}
	if result.OverallScore > 2.0*base+1e-9 {
		t.Errorf("overall exceeds 2x base: overall=%f base=%f", result.OverallScore, base)
	}
}

func TestExactScoreFormula(t *testing.T) {
	if got := exactScore(0, 0); got != 0 {
		t.Errorf("expected 0 for no matches, got %f", got)
	}

	// 20*log2(2) + 3*1.0 = 23.
	if got := exactScore(1, 1.0); math.Abs(got-23) > 1e-9 {
		t.Errorf("expected 23, got %f", got)
	}

	// Weight term caps at 30.
	if got := exactScore(1, 50); math.Abs(got-50) > 1e-9 {
		t.Errorf("expected 20+30=50, got %f", got)
	}
}

func TestTopAverage(t *testing.T) {
	if got := topAverage(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %f", got)
	}
	if got := topAverage([]float64{1, 2}); got != 1.5 {
		t.Errorf("expected 1.5, got %f", got)
	}
	// Seven values: only the top five count.
	got := topAverage([]float64{7, 6, 5, 4, 3, 2, 1})
	if got != 5 {
		t.Errorf("expected mean of top five = 5, got %f", got)
	}
}
