package ai

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

//go:embed prompts/job_match.md
var jobMatchPrompt string

var jobMatchTemplate = template.Must(template.New("job_match").Parse(jobMatchPrompt))

// Candidate is one listing offered to the model
type Candidate struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Location    string `json:"location,omitempty"`
	Wage        string `json:"wage,omitempty"`
	Experience  string `json:"experience,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// MatchOptions tunes one Match call
type MatchOptions struct {
	// MaxResults caps how many IDs the model may return; default 20.
	MaxResults int
}

// Matcher selects the candidates that fit a natural-language prompt
type Matcher interface {
	Match(ctx context.Context, prompt string, candidates []Candidate, opts MatchOptions) ([]string, error)
}

// GeminiMatcher calls the Gemini API over HTTP
type GeminiMatcher struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	// MaxCandidates bounds how many candidates are sent per call; default 100.
	MaxCandidates int
}

// NewGeminiMatcher constructs a GeminiMatcher
func NewGeminiMatcher(apiKey, model string, httpClient *http.Client) *GeminiMatcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &GeminiMatcher{
		APIKey:        apiKey,
		Model:         model,
		BaseURL:       geminiBaseURL,
		HTTPClient:    httpClient,
		MaxCandidates: 100,
	}
}

// Match asks the model which candidates fit the prompt and returns their IDs.
// The result preserves candidate order, contains no duplicates, and may be
// empty. Candidates past the MaxCandidates bound are not considered.
func (g *GeminiMatcher) Match(ctx context.Context, prompt string, candidates []Candidate, opts MatchOptions) ([]string, error) {
	if g.APIKey == "" || g.Model == "" {
		return nil, errors.New("gemini api key and model are required")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("prompt must not be blank")
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	maxCandidates := g.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 100
	}
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	text, err := g.request(ctx, prompt, candidates, maxResults)
	if err != nil {
		return nil, err
	}

	returned, err := parseMatchJSON(stripCodeFences(text))
	if err != nil {
		return nil, err
	}

	// Keep only real candidate IDs, in candidate order, without duplicates
	wanted := make(map[string]bool, len(returned))
	for _, id := range returned {
		wanted[id] = true
	}
	var ids []string
	for _, c := range candidates {
		if wanted[c.ID] {
			ids = append(ids, c.ID)
			delete(wanted, c.ID)
		}
	}
	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, nil
}

func (g *GeminiMatcher) request(ctx context.Context, prompt string, candidates []Candidate, maxResults int) (string, error) {
	encoded, err := json.Marshal(candidates)
	if err != nil {
		return "", fmt.Errorf("encode candidates: %w", err)
	}

	var full bytes.Buffer
	err = jobMatchTemplate.Execute(&full, map[string]interface{}{
		"Prompt":     prompt,
		"Candidates": string(encoded),
		"MaxResults": maxResults,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	body := geminiRequest{Contents: []geminiContent{{Parts: []geminiPart{{Text: full.String()}}}}}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	baseURL := g.BaseURL
	if baseURL == "" {
		baseURL = geminiBaseURL
	}
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", baseURL, g.Model, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request gemini: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return extractText(parsed)
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func extractText(resp geminiResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini response missing candidates")
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", errors.New("gemini response missing content parts")
	}
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}

func stripCodeFences(input string) string {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimSpace(trimmed)
		if idx := strings.LastIndex(trimmed, "```"); idx != -1 {
			trimmed = strings.TrimSpace(trimmed[:idx])
		}
	}
	return trimmed
}

func parseMatchJSON(input string) ([]string, error) {
	var payload struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal([]byte(input), &payload); err != nil {
		return nil, fmt.Errorf("parse match json: %w", err)
	}
	return payload.IDs, nil
}
