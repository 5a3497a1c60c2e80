package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Analyzer extracts structured medicine information from free-text
// prescription text. Implemented by the Gemini client below; the
// prescription service only depends on this interface.
type Analyzer interface {
	AnalyzePrescription(ctx context.Context, medicineText string) (json.RawMessage, error)
}

// GeminiClient calls the Google Generative Language REST API.
type GeminiClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGeminiClient creates a client for the given API base URL and key.
func NewGeminiClient(baseURL, apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   "gemini-pro",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether an API key is available.
func (g *GeminiClient) Configured() bool {
	return g.apiKey != ""
}

const analyzePrompt = `Analyze this prescription and extract medicine information in JSON format:

%s

Return ONLY a valid JSON object with this structure:
{
  "medicines": [
    {
      "name": "Medicine name",
      "dosage": "Dosage amount",
      "frequency": "How often to take",
      "duration": "How long to take",
      "instructions": "Special instructions"
    }
  ],
  "sop_schedule": [
    {
      "time": "HH:MM",
      "task": "Task description",
      "medicines": ["Medicine names"]
    }
  ]
}`

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// AnalyzePrescription sends the prescription text to the model and returns
// the JSON object extracted from its reply.
func (g *GeminiClient) AnalyzePrescription(ctx context.Context, medicineText string) (json.RawMessage, error) {
	if !g.Configured() {
		return nil, fmt.Errorf("gemini: api key not configured")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: fmt.Sprintf(analyzePrompt, medicineText)}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini: endpoint returned status %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini: empty response")
	}

	return extractJSON(gr.Candidates[0].Content.Parts[0].Text)
}

// extractJSON pulls the first top-level JSON object out of a model reply,
// which may wrap it in prose or code fences.
func extractJSON(text string) (json.RawMessage, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("gemini: no JSON object in response")
	}
	candidate := text[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, fmt.Errorf("gemini: invalid JSON in response")
	}
	return json.RawMessage(candidate), nil
}
