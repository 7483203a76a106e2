// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package nlp

import (
	"fmt"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := tokenize("Hello, World! foo_bar v2.0")
	want := []string{"hello", "world", "foo", "bar", "v2", "0"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTermsDropsStopWordsAndAddsBigrams(t *testing.T) {
	got := terms("the quick brown fox")
	joined := strings.Join(got, "|")
	if strings.Contains(joined, "the") {
		t.Errorf("stop word leaked: %v", got)
	}
	if !strings.Contains(joined, "quick brown") || !strings.Contains(joined, "brown fox") {
		t.Errorf("expected bigrams, got %v", got)
	}
}

func TestTFIDFSimilarity(t *testing.T) {
	corpus := []string{
		"duckdb query engine performance",
		"duckdb",
		"gardening",
	}
	v := fitTFIDF(corpus)

	text := v.transform(corpus[0])
	relevant := cosine(text, v.transform("duckdb"))
	irrelevant := cosine(text, v.transform("gardening"))

	if relevant <= 0 {
		t.Errorf("expected positive similarity for shared term, got %f", relevant)
	}
	if irrelevant != 0 {
		t.Errorf("expected zero similarity with no shared terms, got %f", irrelevant)
	}
	if relevant <= irrelevant {
		t.Error("relevant keyword should outrank irrelevant one")
	}
}

func TestTFIDFDeterministicFit(t *testing.T) {
	corpus := []string{"alpha beta gamma", "beta gamma delta", "gamma delta alpha"}
	a := fitTFIDF(corpus)
	b := fitTFIDF(corpus)

	vecA := a.transform("alpha gamma")
	vecB := b.transform("alpha gamma")
	if len(vecA) != len(vecB) {
		t.Fatalf("vector sizes differ: %d vs %d", len(vecA), len(vecB))
	}
	for i := range vecA {
		if vecA[i] != vecB[i] {
			t.Fatalf("fit is not deterministic at index %d", i)
		}
	}
}

func TestTFIDFFeatureCap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 1200; i++ {
		fmt.Fprintf(&b, "w%d ", i)
	}
	v := fitTFIDF([]string{b.String()})
	if len(v.idf) > tfidfMaxFeatures {
		t.Errorf("vocabulary exceeds cap: %d", len(v.idf))
	}
}
