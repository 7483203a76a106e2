// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package nlp

import "testing"

func TestComboMultiplierTiers(t *testing.T) {
	cases := []struct {
		name string
		text string
		want float64
	}{
		{"no claude no tools", "kubernetes cluster upgrade notes", 1.0},
		{"tools without claude", "python pandas sql cheatsheet", 1.0},
		{"claude without tools", "claude can write poetry now", 1.0},
		{"claude one tool", "using claude to generate sql", 1.3},
		{"claude two tools", "claude writes sql and python", 1.5},
		{"claude three tools", "claude with sql, python and dbt models", 2.0},
		{"claude many tools", "claude for power bi and sql and python pandas", 2.0},
	}
	for _, tc := range cases {
		combo := comboForText(tc.text)
		if combo.Multiplier != tc.want {
			t.Errorf("%s: multiplier = %f, want %f (%s)", tc.name, combo.Multiplier, tc.want, combo.Reason)
		}
	}
}

func TestComboDistinctToolCount(t *testing.T) {
	// Repeating one tool does not climb tiers.
	combo := comboForText("claude sql sql sql sql")
	if combo.Multiplier != 1.3 {
		t.Errorf("expected 1.3 for one distinct tool, got %f", combo.Multiplier)
	}
	if len(combo.MatchedTools) != 1 {
		t.Errorf("expected one distinct tool, got %v", combo.MatchedTools)
	}
}

func TestComboAnthropicCounts(t *testing.T) {
	combo := comboForText("anthropic api with duckdb and airflow")
	if combo.Multiplier != 1.5 {
		t.Errorf("expected anthropic to trigger the combo, got %f", combo.Multiplier)
	}
}
