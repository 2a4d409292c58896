package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ladlehq/ladle/internal/logger"
)

// GeminiProvider talks to the Gemini generateContent endpoint over
// plain HTTP JSON. The response envelope is multi-layered: a candidate
// list, per-candidate finish reasons and safety ratings, and content
// split across ordered parts.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGeminiProvider creates a new Gemini provider.
func NewGeminiProvider(cfg ProviderConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &GeminiProvider{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type geminiRequest struct {
	Contents          []geminiContent       `json:"contents"`
	SystemInstruction *geminiContent        `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenConfig       `json:"generationConfig"`
	SafetySettings    []geminiSafetySetting `json:"safetySettings,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature      float64        `json:"temperature"`
	TopP             float64        `json:"topP,omitempty"`
	MaxOutputTokens  int            `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// Execute sends a generateContent request and parses the envelope.
//
// Failure classes are distinguished for callers: a safety block is a
// *BlockedError, an empty candidate list is a *NoCandidatesError, and a
// malformed payload is a *ParseError.
func (p *GeminiProvider) Execute(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	geminiReq := geminiRequest{
		GenerationConfig: geminiGenConfig{
			Temperature:     req.Temperature,
			TopP:            req.TopP,
			MaxOutputTokens: req.MaxTokens,
		},
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			geminiReq.SystemInstruction = &geminiContent{
				Parts: []geminiPart{{Text: msg.Content}},
			}
		case RoleUser:
			geminiReq.Contents = append(geminiReq.Contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		}
	}

	if req.JSONSchema != nil {
		geminiReq.GenerationConfig.ResponseMimeType = "application/json"
		geminiReq.GenerationConfig.ResponseSchema = req.JSONSchema
	}

	for category, threshold := range req.SafetyThresholds {
		geminiReq.SafetySettings = append(geminiReq.SafetySettings, geminiSafetySetting{
			Category:  category,
			Threshold: threshold,
		})
	}

	body, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.baseURL, p.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, truncate(string(payload), 200))
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(payload, &geminiResp); err != nil {
		return nil, &ParseError{Cause: err, PayloadLen: len(payload)}
	}

	return p.parseEnvelope(&geminiResp, time.Since(start))
}

// parseEnvelope walks the candidate envelope and produces a Response.
func (p *GeminiProvider) parseEnvelope(resp *geminiResponse, duration time.Duration) (*Response, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, &BlockedError{Reason: resp.PromptFeedback.BlockReason}
	}

	if len(resp.Candidates) == 0 {
		return nil, &NoCandidatesError{}
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == "SAFETY" || candidate.FinishReason == "PROHIBITED_CONTENT" {
		return nil, &BlockedError{Reason: candidate.FinishReason}
	}

	// Content may be split across multiple parts. They must be
	// concatenated in order before JSON decoding; taking only the first
	// part silently truncates longer recipes.
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	content := sb.String()

	if content == "" {
		return nil, &NoCandidatesError{Detail: "candidate carried no text parts"}
	}

	if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
		logger.Warn("gemini response may be truncated",
			"finish_reason", candidate.FinishReason,
			"parts", len(candidate.Content.Parts),
			"content_size", len(content))
	}

	model := resp.ModelVersion
	if model == "" {
		model = p.model
	}

	return &Response{
		Content:      content,
		FinishReason: candidate.FinishReason,
		Usage: Usage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		},
		Model:    model,
		Duration: duration,
	}, nil
}

// Name returns the provider identifier.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Model returns the configured model name.
func (p *GeminiProvider) Model() string {
	return p.model
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

var _ Provider = (*GeminiProvider)(nil)
