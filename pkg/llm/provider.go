// Package llm provides a unified interface for the LLM backends used
// for recipe extraction.
package llm

import (
	"context"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Message represents a chat message.
type Message struct {
	Role    Role
	Content string
}

// Request represents a completion request to the LLM.
// Generation parameters and safety thresholds are fixed configuration
// carried on every request, not computed per call.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	TopP        float64

	// JSONSchema constrains the model's output shape. It is attached to
	// the request as a constraint, not as documentation.
	JSONSchema map[string]any

	// SafetyThresholds maps harm category to block threshold for
	// providers that support per-category safety settings.
	SafetyThresholds map[string]string
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response represents the result of an LLM execution.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
	Model        string
	Duration     time.Duration
}

// Provider is the interface all LLM backends implement.
type Provider interface {
	// Execute sends a completion request and returns the response.
	// The caller-supplied context bounds the network call; on timeout
	// the failure classifies as OTHER, not as retry exhaustion.
	Execute(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider identifier (e.g., "gemini", "openai").
	Name() string

	// Model returns the configured model name.
	Model() string
}

// ProviderConfig holds common configuration for providers.
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout: 120 * time.Second,
	}
}
