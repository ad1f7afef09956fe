package parsing

import "fmt"

// ParseError represents a primary extraction result that could not be used.
// It never escapes the package boundary as a failure: callers receive it only as
// the reason a fallback extraction was chosen.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
