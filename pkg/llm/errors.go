package llm

import (
	"errors"
	"fmt"
)

// FailureKind classifies extraction client failures so callers can
// decide whether to retry the whole request, show a specific message,
// or treat the page as not a recipe.
type FailureKind string

const (
	// FailureBlocked means the model's safety filter rejected the
	// request or the candidate. Terminal.
	FailureBlocked FailureKind = "BLOCKED"

	// FailureParse means the payload did not decode against the
	// declared schema. Terminal for that attempt.
	FailureParse FailureKind = "PARSE_ERROR"

	// FailureOther covers transport errors, timeouts, and empty
	// candidate lists.
	FailureOther FailureKind = "OTHER"
)

// BlockedError indicates a safety-filter rejection.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("content blocked by safety filter: %s", e.Reason)
}

// NoCandidatesError indicates the response envelope carried no
// candidates at all. Distinct from a safety block.
type NoCandidatesError struct {
	Detail string
}

func (e *NoCandidatesError) Error() string {
	if e.Detail == "" {
		return "response contained no candidates"
	}
	return "response contained no candidates: " + e.Detail
}

// ParseError indicates the payload did not decode against the declared
// schema. PayloadLen is recorded for diagnosis without logging the raw
// payload itself.
type ParseError struct {
	Cause      error
	PayloadLen int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse payload (%d bytes): %v", e.PayloadLen, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// KindOf classifies any error arising from an extraction call.
func KindOf(err error) FailureKind {
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return FailureBlocked
	}
	var parse *ParseError
	if errors.As(err, &parse) {
		return FailureParse
	}
	return FailureOther
}
