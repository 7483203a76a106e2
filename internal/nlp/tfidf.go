// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package nlp

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// tfidfMaxFeatures caps the vocabulary of a fitted vectorizer.
const tfidfMaxFeatures = 500

// stopWords are excluded from tokenization before n-grams are built.
var stopWords = map[string]bool{
	"a": true, "about": true, "after": true, "all": true, "also": true,
	"an": true, "and": true, "any": true, "are": true, "as": true,
	"at": true, "be": true, "because": true, "been": true, "but": true,
	"by": true, "can": true, "could": true, "do": true, "for": true,
	"from": true, "had": true, "has": true, "have": true, "he": true,
	"her": true, "his": true, "how": true, "i": true, "if": true,
	"in": true, "into": true, "is": true, "it": true, "its": true,
	"just": true, "more": true, "most": true, "my": true, "no": true,
	"not": true, "of": true, "on": true, "one": true, "only": true,
	"or": true, "other": true, "our": true, "out": true, "over": true,
	"she": true, "so": true, "some": true, "than": true, "that": true,
	"the": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "to": true, "up": true,
	"was": true, "we": true, "were": true, "what": true, "when": true,
	"which": true, "who": true, "will": true, "with": true, "would": true,
	"you": true, "your": true,
}

// tokenize lowercases text and splits it on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// terms builds the 1- and 2-gram term list of a document with stop-words
// removed.
func terms(text string) []string {
	var kept []string
	for _, tok := range tokenize(text) {
		if !stopWords[tok] {
			kept = append(kept, tok)
		}
	}

	out := make([]string, 0, len(kept)*2)
	out = append(out, kept...)
	for i := 0; i+1 < len(kept); i++ {
		out = append(out, kept[i]+" "+kept[i+1])
	}
	return out
}

// tfidfVectorizer maps documents to L2-normalized TF-IDF vectors over a
// vocabulary fitted on a corpus. Fitting is deterministic: at the feature
// cap, terms are kept by descending corpus frequency with lexicographic
// tie-break.
type tfidfVectorizer struct {
	vocab map[string]int
	idf   []float64
}

// fitTFIDF builds a vectorizer over the corpus.
func fitTFIDF(corpus []string) *tfidfVectorizer {
	docFreq := make(map[string]int)
	totalFreq := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, term := range terms(doc) {
			totalFreq[term]++
			if !seen[term] {
				seen[term] = true
				docFreq[term]++
			}
		}
	}

	vocabTerms := make([]string, 0, len(totalFreq))
	for term := range totalFreq {
		vocabTerms = append(vocabTerms, term)
	}
	sort.Slice(vocabTerms, func(i, j int) bool {
		if totalFreq[vocabTerms[i]] != totalFreq[vocabTerms[j]] {
			return totalFreq[vocabTerms[i]] > totalFreq[vocabTerms[j]]
		}
		return vocabTerms[i] < vocabTerms[j]
	})
	if len(vocabTerms) > tfidfMaxFeatures {
		vocabTerms = vocabTerms[:tfidfMaxFeatures]
	}

	v := &tfidfVectorizer{
		vocab: make(map[string]int, len(vocabTerms)),
		idf:   make([]float64, len(vocabTerms)),
	}
	n := float64(len(corpus))
	for i, term := range vocabTerms {
		v.vocab[term] = i
		// Smoothed IDF keeps terms present in every document non-zero.
		v.idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	return v
}

// transform maps a document to its L2-normalized TF-IDF vector.
func (v *tfidfVectorizer) transform(doc string) []float64 {
	vec := make([]float64, len(v.idf))
	for _, term := range terms(doc) {
		if idx, ok := v.vocab[term]; ok {
			vec[idx]++
		}
	}
	for i := range vec {
		vec[i] *= v.idf[i]
	}
	normalize(vec)
	return vec
}
