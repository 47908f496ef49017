package entities

import (
	"errors"
	"fmt"
)

// ErrEmptyMessage is returned when a chat request carries no message.
// It is the only chat error that reaches the HTTP layer.
var ErrEmptyMessage = errors.New("message is required")

// ErrInvalidDocument is returned when a knowledge upload has no usable
// name or no content.
var ErrInvalidDocument = errors.New("document name and content are required")

// Sentinel kinds of the AI path. Match with errors.Is against an *AIError.
var (
	ErrConfig         = errors.New("llm credential not configured")
	ErrBudgetExceeded = errors.New("session cost ceiling reached")
	ErrTimeout        = errors.New("llm call timed out")
	ErrProvider       = errors.New("llm provider error")
	ErrResponseParse  = errors.New("llm response could not be parsed")
	ErrNetwork        = errors.New("llm transport failure")
)

// AIError is the failure half of the AI path result. Kind is one of the
// sentinels above; Err carries the underlying cause, if any.
type AIError struct {
	Kind error
	Err  error
}

// NewAIError wraps cause under the given kind.
func NewAIError(kind, cause error) *AIError {
	return &AIError{Kind: kind, Err: cause}
}

func (e *AIError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *AIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Reason returns a short stable label for metrics and the fallbackReason field.
func (e *AIError) Reason() string {
	switch e.Kind {
	case ErrConfig:
		return "config"
	case ErrBudgetExceeded:
		return "budget_exceeded"
	case ErrTimeout:
		return "timeout"
	case ErrProvider:
		return "provider"
	case ErrResponseParse:
		return "response_parse"
	case ErrNetwork:
		return "network"
	}
	return "unknown"
}
