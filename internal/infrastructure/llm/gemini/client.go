package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nattawat-k/fracture-triage/internal/core/domain"
	"github.com/nattawat-k/fracture-triage/internal/infrastructure/resilience"
)

// Client generates clinical insight narratives through the Gemini
// generateContent API.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model, apiKey string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *Client) Generate(ctx context.Context, ft domain.FractureType, confidence float64, lang domain.Language) (domain.ClinicalInsights, error) {
	prompt := buildInsightsPrompt(ft, confidence, lang)

	var raw string
	err := c.executor.Execute(ctx, "gemini_generate", func(ctx context.Context) error {
		var err error
		raw, err = c.generateContent(ctx, prompt)
		return err
	}, classifyGeminiError)
	if err != nil {
		return domain.ClinicalInsights{}, wrapTemporaryIfNeeded("generate insights", err)
	}

	var parsed struct {
		ContextualSummary     string   `json:"contextualSummary"`
		DifferentialDiagnosis []string `json:"differentialDiagnosis"`
		RecommendedNextSteps  []string `json:"recommendedNextSteps"`
		ClinicalRisks         []string `json:"clinicalRisks"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return domain.ClinicalInsights{}, fmt.Errorf("parse insights json: %w", err)
	}
	if parsed.ContextualSummary == "" {
		return domain.ClinicalInsights{}, fmt.Errorf("insights response missing contextual summary")
	}

	insights := domain.ClinicalInsights{
		ContextualSummary:     parsed.ContextualSummary,
		DifferentialDiagnosis: parsed.DifferentialDiagnosis,
		RecommendedNextSteps:  parsed.RecommendedNextSteps,
		ClinicalRisks:         parsed.ClinicalRisks,
	}
	if insights.DifferentialDiagnosis == nil {
		insights.DifferentialDiagnosis = []string{}
	}
	if insights.RecommendedNextSteps == nil {
		insights.RecommendedNextSteps = []string{}
	}
	if insights.ClinicalRisks == nil {
		insights.ClinicalRisks = []string{}
	}
	return insights, nil
}

func (c *Client) generateContent(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.2,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &HTTPStatusError{
			Operation:  "generate",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}

	var response generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return strings.TrimSpace(response.Candidates[0].Content.Parts[0].Text), nil
}

// extractJSONObject tolerates markdown fences and prose around the
// object the model was told to return alone.
func extractJSONObject(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if after, ok := strings.CutPrefix(cleaned, "```json"); ok {
		cleaned = after
	} else if after, ok := strings.CutPrefix(cleaned, "```"); ok {
		cleaned = after
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		return cleaned[start : end+1]
	}
	return cleaned
}
