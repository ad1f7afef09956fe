package llm

import (
	"errors"
	"fmt"
)

// ErrStructuredOutputUnsupported is returned when a provider or model rejects a
// request for structured (JSON) output. Callers may retry in plain mode.
var ErrStructuredOutputUnsupported = errors.New("structured output not supported")

// GenerationError represents a failed call to the text-generation service.
type GenerationError struct {
	Model   string
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	prefix := "generation failed"
	if e.Model != "" {
		prefix = fmt.Sprintf("generation failed (%s)", e.Model)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
