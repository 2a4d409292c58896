// Package extractor coordinates prompt construction, the LLM call, and
// semantic validation into a bounded feedback-retry loop.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ladlehq/ladle/internal/logger"
	"github.com/ladlehq/ladle/pkg/cleaner"
	"github.com/ladlehq/ladle/pkg/llm"
	"github.com/ladlehq/ladle/pkg/recipe"
)

// Config holds the fixed generation and retry parameters.
type Config struct {
	// MaxAttempts bounds the number of model calls per extraction.
	MaxAttempts int

	Temperature float64
	TopP        float64
	MaxTokens   int

	// MaxContentSize truncates cleaned content before prompting.
	// 0 means no limit.
	MaxContentSize int

	// SafetyThresholds maps harm category to block threshold, passed
	// through to providers that support per-category settings.
	SafetyThresholds map[string]string

	// NotRecipeConfidence is the confidence above which a negative
	// isRecipe verdict on reduced input is flagged as a possible
	// over-clean.
	NotRecipeConfidence float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		Temperature:    0.1,
		TopP:           0.95,
		MaxTokens:      8192,
		MaxContentSize: 150_000,
		SafetyThresholds: map[string]string{
			"HARM_CATEGORY_HARASSMENT":        "BLOCK_ONLY_HIGH",
			"HARM_CATEGORY_HATE_SPEECH":       "BLOCK_ONLY_HIGH",
			"HARM_CATEGORY_SEXUALLY_EXPLICIT": "BLOCK_ONLY_HIGH",
			"HARM_CATEGORY_DANGEROUS_CONTENT": "BLOCK_ONLY_HIGH",
		},
		NotRecipeConfidence: 0.8,
	}
}

// Result is the decoded model output plus per-call provenance.
type Result struct {
	// IsRecipe is the page-level classification. When false, Recipes is
	// empty and the page is confidently not a recipe.
	IsRecipe bool

	// Confidence is the model's certainty in [0,1].
	Confidence float64

	// InternalReasoning is the model's optional free-text reasoning.
	InternalReasoning string

	Recipes []recipe.Recipe

	// Strategy and Reduction describe the cleanup that fed this call.
	Strategy  string
	Reduction float64

	// Attempts is the number of model calls performed.
	Attempts int

	Usage    llm.Usage
	Duration time.Duration
}

// RetryExhaustedError is returned when validation keeps failing past
// the attempt ceiling. It is a terminal failure and is never cached, so
// a transient model mistake cannot poison the cache.
type RetryExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("extraction failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.LastErr
}

// resultPayload is the wire shape decoded from the model's constrained
// output.
type resultPayload struct {
	IsRecipe          bool            `json:"isRecipe"`
	Confidence        float64         `json:"confidence"`
	InternalReasoning string          `json:"internalReasoning"`
	Recipes           []recipe.Recipe `json:"recipes"`
}

// Extractor runs the REQUESTING -> VALIDATING -> {SUCCESS, RETRYING,
// EXHAUSTED} loop against one provider. Cleanup runs once, before the
// loop; only the model call is retried.
type Extractor struct {
	provider  llm.Provider
	validator *recipe.Validator
	config    Config
	now       func() time.Time
}

// New creates an extractor backed by the given provider.
func New(provider llm.Provider, cfg Config) *Extractor {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Extractor{
		provider:  provider,
		validator: recipe.NewValidator(),
		config:    cfg,
		now:       time.Now,
	}
}

// Extract runs the bounded retry loop over the cleaned document.
//
// Validation failures and protocol violations re-enter the loop with
// feedback. Blocked content, parse errors, and transport failures are
// terminal for the whole extraction: retrying a deterministic failure
// wastes tokens.
func (e *Extractor) Extract(ctx context.Context, doc *cleaner.Document) (*Result, error) {
	var (
		feedback      *Feedback
		lastErr       error
		totalUsage    llm.Usage
		totalDuration time.Duration
	)

	for attempt := 1; attempt <= e.config.MaxAttempts; attempt++ {
		logger.Debug("extraction attempt",
			"attempt", attempt,
			"max_attempts", e.config.MaxAttempts,
			"strategy", doc.Strategy,
			"retrying", feedback != nil)

		payload, usage, duration, err := e.request(ctx, doc.Content, feedback)
		totalUsage.InputTokens += usage.InputTokens
		totalUsage.OutputTokens += usage.OutputTokens
		totalDuration += duration

		if err != nil {
			logger.Debug("extraction attempt failed",
				"attempt", attempt,
				"kind", llm.KindOf(err),
				"error", err)
			return nil, err
		}

		// VALIDATING: protocol invariant first, then semantic rules.
		if violation := protocolViolation(payload); violation != "" {
			logger.Warn("model violated extraction protocol",
				"attempt", attempt, "violation", violation)
			lastErr = fmt.Errorf("protocol violation: %s", violation)
			feedback = &Feedback{ValidationError: violation}
			continue
		}

		if !payload.IsRecipe {
			e.logNotRecipe(payload, doc)
			return e.result(payload, doc, attempt, totalUsage, totalDuration), nil
		}

		if fb := e.validateAll(payload.Recipes); fb != nil {
			logger.Debug("recipe failed validation, retrying with feedback",
				"attempt", attempt, "error", fb.ValidationError)
			lastErr = fmt.Errorf("validation failed: %s", fb.ValidationError)
			feedback = fb
			continue
		}

		// SUCCESS
		logger.Debug("extraction succeeded",
			"attempts", attempt,
			"recipes", len(payload.Recipes),
			"confidence", payload.Confidence)
		return e.result(payload, doc, attempt, totalUsage, totalDuration), nil
	}

	// EXHAUSTED
	return nil, &RetryExhaustedError{Attempts: e.config.MaxAttempts, LastErr: lastErr}
}

// request performs one REQUESTING transition: build the prompt, call
// the provider, decode the constrained output.
func (e *Extractor) request(ctx context.Context, content string, feedback *Feedback) (*resultPayload, llm.Usage, time.Duration, error) {
	schema, err := ResultSchema()
	if err != nil {
		return nil, llm.Usage{}, 0, err
	}

	prompt := BuildPrompt(content, e.now(), feedback, e.config.MaxContentSize)

	resp, err := e.provider.Execute(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
		MaxTokens:        e.config.MaxTokens,
		Temperature:      e.config.Temperature,
		TopP:             e.config.TopP,
		JSONSchema:       schema,
		SafetyThresholds: e.config.SafetyThresholds,
	})
	if err != nil {
		return nil, llm.Usage{}, 0, err
	}

	jsonContent := StripMarkdownCodeBlock(resp.Content)

	var payload resultPayload
	if err := json.Unmarshal([]byte(jsonContent), &payload); err != nil {
		return nil, resp.Usage, resp.Duration, &llm.ParseError{Cause: err, PayloadLen: len(resp.Content)}
	}

	return &payload, resp.Usage, resp.Duration, nil
}

// validateAll checks every decoded recipe; the first failure becomes
// the retry feedback.
func (e *Extractor) validateAll(recipes []recipe.Recipe) *Feedback {
	for i := range recipes {
		if err := e.validator.Validate(&recipes[i]); err != nil {
			return &Feedback{
				Previous:        &recipes[i],
				ValidationError: err.Error(),
			}
		}
	}
	return nil
}

// logNotRecipe distinguishes a genuine non-recipe page from a verdict
// that may be an artifact of over-aggressive cleanup. The signal is
// surfaced in logs only; no automatic re-clean is attempted.
func (e *Extractor) logNotRecipe(payload *resultPayload, doc *cleaner.Document) {
	if payload.Confidence >= e.config.NotRecipeConfidence && doc.Strategy != cleaner.StrategyRaw && doc.Reduction > 0 {
		logger.Warn("confident not-recipe verdict on reduced input, HTML may have been over-cleaned",
			"confidence", payload.Confidence,
			"strategy", doc.Strategy,
			"reduction", doc.Reduction)
		return
	}
	logger.Debug("page classified as not a recipe",
		"confidence", payload.Confidence,
		"strategy", doc.Strategy)
}

func (e *Extractor) result(payload *resultPayload, doc *cleaner.Document, attempts int, usage llm.Usage, duration time.Duration) *Result {
	for i := range payload.Recipes {
		if payload.Recipes[i].SchemaVersion == "" {
			payload.Recipes[i].SchemaVersion = recipe.SchemaVersion
		}
	}
	return &Result{
		IsRecipe:          payload.IsRecipe,
		Confidence:        payload.Confidence,
		InternalReasoning: payload.InternalReasoning,
		Recipes:           payload.Recipes,
		Strategy:          doc.Strategy,
		Reduction:         doc.Reduction,
		Attempts:          attempts,
		Usage:             usage,
		Duration:          duration,
	}
}

// protocolViolation checks the output contract the schema alone cannot
// express: the classification and the recipe list must agree.
func protocolViolation(payload *resultPayload) string {
	if payload.IsRecipe && len(payload.Recipes) == 0 {
		return "isRecipe is true but the recipes array is empty; include every recipe found on the page"
	}
	if !payload.IsRecipe && len(payload.Recipes) > 0 {
		return "isRecipe is false but the recipes array is not empty; it must be empty for non-recipe pages"
	}
	return ""
}
