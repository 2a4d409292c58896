package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) (*GeminiProvider, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewGeminiProvider(ProviderConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gemini-test",
	})
	if err != nil {
		t.Fatalf("NewGeminiProvider() error = %v", err)
	}
	return provider, server
}

func TestGeminiRequiresAPIKey(t *testing.T) {
	if _, err := NewGeminiProvider(ProviderConfig{}); err == nil {
		t.Error("expected an error without an API key")
	}
}

func TestGeminiConcatenatesParts(t *testing.T) {
	provider, _ := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{
						{"text": `{"isRecipe":`},
						{"text": `true,"confidence":0.9,`},
						{"text": `"recipes":[]}`},
					},
				},
				"finishReason": "MAX_TOKENS",
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     100,
				"candidatesTokenCount": 50,
			},
		})
	})

	resp, err := provider.Execute(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "extract"}},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := `{"isRecipe":true,"confidence":0.9,"recipes":[]}`
	if resp.Content != want {
		t.Errorf("content = %q, want %q", resp.Content, want)
	}
	if resp.FinishReason != "MAX_TOKENS" {
		t.Errorf("finishReason = %q", resp.FinishReason)
	}
	if resp.Usage.InputTokens != 100 || resp.Usage.OutputTokens != 50 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestGeminiPromptBlocked(t *testing.T) {
	provider, _ := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"promptFeedback": map[string]any{"blockReason": "SAFETY"},
		})
	})

	_, err := provider.Execute(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "extract"}},
	})

	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("error = %v, want BlockedError", err)
	}
	if blocked.Reason != "SAFETY" {
		t.Errorf("reason = %q", blocked.Reason)
	}
	if KindOf(err) != FailureBlocked {
		t.Errorf("kind = %v, want BLOCKED", KindOf(err))
	}
}

func TestGeminiCandidateBlockedBySafety(t *testing.T) {
	provider, _ := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content":      map[string]any{"parts": []map[string]any{{"text": "partial"}}},
				"finishReason": "SAFETY",
			}},
		})
	})

	_, err := provider.Execute(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "extract"}},
	})

	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("error = %v, want BlockedError", err)
	}
}

func TestGeminiNoCandidates(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{
			name: "empty candidate list",
			body: map[string]any{"candidates": []any{}},
		},
		{
			name: "candidate with no text parts",
			body: map[string]any{
				"candidates": []map[string]any{{
					"content":      map[string]any{"parts": []any{}},
					"finishReason": "STOP",
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, _ := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.body)
			})

			_, err := provider.Execute(context.Background(), Request{
				Messages: []Message{{Role: RoleUser, Content: "extract"}},
			})

			var noCandidates *NoCandidatesError
			if !errors.As(err, &noCandidates) {
				t.Fatalf("error = %v, want NoCandidatesError", err)
			}
		})
	}
}

func TestGeminiMalformedEnvelope(t *testing.T) {
	provider, _ := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": [`))
	})

	_, err := provider.Execute(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "extract"}},
	})

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want ParseError", err)
	}
	if KindOf(err) != FailureParse {
		t.Errorf("kind = %v, want PARSE_ERROR", KindOf(err))
	}
}

func TestGeminiHTTPError(t *testing.T) {
	provider, _ := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := provider.Execute(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "extract"}},
	})
	if err == nil {
		t.Fatal("expected an error on HTTP 429")
	}
	if KindOf(err) != FailureOther {
		t.Errorf("kind = %v, want OTHER", KindOf(err))
	}
}

func TestGeminiRequestShape(t *testing.T) {
	var captured map[string]any
	provider, _ := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content":      map[string]any{"parts": []map[string]any{{"text": "{}"}}},
				"finishReason": "STOP",
			}},
		})
	})

	_, err := provider.Execute(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "you extract recipes"},
			{Role: RoleUser, Content: "the page"},
		},
		MaxTokens:        1024,
		Temperature:      0.1,
		JSONSchema:       map[string]any{"type": "object"},
		SafetyThresholds: map[string]string{"HARM_CATEGORY_HARASSMENT": "BLOCK_ONLY_HIGH"},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if _, ok := captured["systemInstruction"]; !ok {
		t.Error("expected a systemInstruction block")
	}
	genCfg, _ := captured["generationConfig"].(map[string]any)
	if genCfg["responseMimeType"] != "application/json" {
		t.Error("expected responseMimeType application/json when a schema is set")
	}
	if _, ok := genCfg["responseSchema"]; !ok {
		t.Error("expected the response schema to be forwarded")
	}
	if _, ok := captured["safetySettings"]; !ok {
		t.Error("expected safety settings to be forwarded")
	}
}
