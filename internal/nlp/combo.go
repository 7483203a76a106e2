// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package nlp

import (
	"fmt"

	"github.com/techwatch/techwatch/internal/cache"
)

// The combo multiplier boosts items where Claude shows up next to data
// tooling. Those intersections are the highest-value reads for the
// audience this instance is tuned for, so they outrank either topic alone.

// claudeKeywords mark Claude/Anthropic content.
var claudeKeywords = []string{
	"claude",
	"anthropic",
	"mcp",
	"model context protocol",
}

// dataTools are counted as distinct tools for the combo tiers.
var dataTools = []string{
	"power bi",
	"sql",
	"python",
	"pandas",
	"dbt",
	"snowflake",
	"duckdb",
	"airflow",
	"spark",
	"tableau",
	"excel",
	"jupyter",
}

var (
	claudeMatcher = cache.NewKeywordMatcher(claudeKeywords)
	toolsMatcher  = cache.NewKeywordMatcher(dataTools)
)

// Combo is the multiplier decision for one text.
type Combo struct {
	Multiplier   float64
	Reason       string
	MatchedTools []string
}

// comboForText grades the text: 1.0 without a Claude mention, then 1.3 /
// 1.5 / 2.0 for a Claude mention alongside 1 / 2 / 3+ distinct data tools.
func comboForText(text string) Combo {
	if !claudeMatcher.Contains(text) {
		return Combo{Multiplier: 1.0}
	}

	tools := toolsMatcher.Matched(text)
	switch {
	case len(tools) >= 3:
		return Combo{
			Multiplier:   2.0,
			Reason:       fmt.Sprintf("claude + %d data tools", len(tools)),
			MatchedTools: tools,
		}
	case len(tools) == 2:
		return Combo{
			Multiplier:   1.5,
			Reason:       "claude + 2 data tools",
			MatchedTools: tools,
		}
	case len(tools) == 1:
		return Combo{
			Multiplier:   1.3,
			Reason:       "claude + 1 data tool",
			MatchedTools: tools,
		}
	default:
		return Combo{Multiplier: 1.0, Reason: "claude without data tools"}
	}
}
