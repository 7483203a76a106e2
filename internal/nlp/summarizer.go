// TechWatch - Multi-Source Tech Content Ingestion and Scoring
// Copyright 2026 TechWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/techwatch/techwatch

package nlp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/techwatch/techwatch/internal/logging"
)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"
	summarizerModel      = "claude-sonnet-4-5"

	// minSummaryContent skips items whose body carries no substance.
	minSummaryContent = 50

	// maxSummaryContent truncates long bodies before the API call.
	maxSummaryContent = 8000
)

// Summarizer generates short item summaries through the Anthropic Messages
// API. Summaries are a nice-to-have: the daily pass is best-effort and the
// whole feature is off without an API key.
type Summarizer struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewSummarizer builds a summarizer. An empty API key disables it.
func NewSummarizer(apiKey string) *Summarizer {
	return NewSummarizerAt(apiKey, anthropicMessagesURL, nil)
}

// NewSummarizerAt builds a summarizer against a custom Messages endpoint.
// Tests point it at a local server. A nil client gets a sane default.
func NewSummarizerAt(apiKey, endpoint string, client *http.Client) *Summarizer {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Summarizer{apiKey: apiKey, baseURL: endpoint, http: client}
}

// Enabled reports whether an API key is configured.
func (s *Summarizer) Enabled() bool {
	return s != nil && s.apiKey != ""
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Summarize returns a factual summary of at most maxWords words, or an
// empty string when the content is too short to bother.
func (s *Summarizer) Summarize(ctx context.Context, title, content string, maxWords int) (string, error) {
	if !s.Enabled() {
		return "", fmt.Errorf("summarizer is not configured")
	}
	if len(strings.TrimSpace(content)) < minSummaryContent {
		logging.Debug().Str("title", title).Msg("Content too short to summarize")
		return "", nil
	}
	if len(content) > maxSummaryContent {
		content = content[:maxSummaryContent]
	}

	prompt := fmt.Sprintf(
		"Summarize the following article concisely and factually in at most %d words. "+
			"Focus on the key points and important information.\n\n"+
			"Title: %s\n\nContent:\n%s\n\nSummary (max %d words):",
		maxWords, title, content, maxWords)

	payload, err := json.Marshal(messagesRequest{
		Model:       summarizerModel,
		MaxTokens:   500,
		Temperature: 0.3,
		Messages:    []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("messages request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("anthropic api error %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("anthropic api returned status %d", resp.StatusCode)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("anthropic api returned no content")
	}

	summary := strings.TrimSpace(parsed.Content[0].Text)
	logging.Debug().Str("title", truncateLog(title)).Int("words", len(strings.Fields(summary))).
		Msg("Generated summary")
	return summary, nil
}

func truncateLog(s string) string {
	if len(s) > 50 {
		return s[:50] + "..."
	}
	return s
}
