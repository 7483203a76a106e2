// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package cache

import "strings"

// KeywordMatcher finds all occurrences of a keyword set in a text with the
// Aho-Corasick algorithm: O(n + m + z) for text length n, total pattern
// length m, and z matches, instead of one Contains scan per keyword. The
// scorer and the trend detector run every active keyword against every
// item, which is exactly the multi-pattern case the automaton is built for.
//
// Matching is case-insensitive. The automaton is immutable once built, so
// it is safe for concurrent Search calls.
type KeywordMatcher struct {
	root     *matcherNode
	patterns []string
}

type matcherNode struct {
	children map[rune]*matcherNode
	failure  *matcherNode
	// output holds indices of patterns ending at this node.
	output []int
}

func newMatcherNode() *matcherNode {
	return &matcherNode{children: make(map[rune]*matcherNode)}
}

// NewKeywordMatcher builds an automaton over the given keywords. Empty
// keywords are dropped; duplicates are kept and report separately.
func NewKeywordMatcher(keywords []string) *KeywordMatcher {
	m := &KeywordMatcher{root: newMatcherNode()}
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		m.insert(len(m.patterns), strings.ToLower(kw))
		m.patterns = append(m.patterns, kw)
	}
	m.buildFailureLinks()
	return m
}

func (m *KeywordMatcher) insert(index int, pattern string) {
	node := m.root
	for _, ch := range pattern {
		child, ok := node.children[ch]
		if !ok {
			child = newMatcherNode()
			node.children[ch] = child
		}
		node = child
	}
	node.output = append(node.output, index)
}

// buildFailureLinks wires each node to its longest proper suffix via BFS.
func (m *KeywordMatcher) buildFailureLinks() {
	var queue []*matcherNode
	for _, child := range m.root.children {
		child.failure = m.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for ch, child := range current.children {
			queue = append(queue, child)

			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}
			if fail == nil {
				child.failure = m.root
			} else {
				child.failure = fail.children[ch]
				child.output = append(child.output, child.failure.output...)
			}
		}
	}
}

// MatchedIndexes returns the set of pattern indexes present in text, in
// pattern order. Each pattern reports at most once however often it occurs.
func (m *KeywordMatcher) MatchedIndexes(text string) []int {
	if len(m.patterns) == 0 {
		return nil
	}

	seen := make(map[int]bool)
	node := m.root
	for _, ch := range strings.ToLower(text) {
		for node != nil && node.children[ch] == nil {
			node = node.failure
		}
		if node == nil {
			node = m.root
			continue
		}
		node = node.children[ch]
		for _, idx := range node.output {
			seen[idx] = true
		}
	}

	matched := make([]int, 0, len(seen))
	for idx := range m.patterns {
		if seen[idx] {
			matched = append(matched, idx)
		}
	}
	return matched
}

// Matched returns the keywords present in text, in insertion order.
func (m *KeywordMatcher) Matched(text string) []string {
	indexes := m.MatchedIndexes(text)
	matched := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		matched = append(matched, m.patterns[idx])
	}
	return matched
}

// Contains reports whether any keyword occurs in text.
func (m *KeywordMatcher) Contains(text string) bool {
	if len(m.patterns) == 0 {
		return false
	}
	node := m.root
	for _, ch := range strings.ToLower(text) {
		for node != nil && node.children[ch] == nil {
			node = node.failure
		}
		if node == nil {
			node = m.root
			continue
		}
		node = node.children[ch]
		if len(node.output) > 0 {
			return true
		}
	}
	return false
}

// PatternCount returns the number of keywords in the automaton.
func (m *KeywordMatcher) PatternCount() int {
	return len(m.patterns)
}
