package parsing

import (
	"encoding/json"
	"strings"

	"github.com/jonathan/resume-assistant/internal/schemas"
	"github.com/jonathan/resume-assistant/internal/types"
	schemadocs "github.com/jonathan/resume-assistant/schemas"
)

// Resolution is the outcome of arbitrating between a primary extraction and
// the fallback parser.
type Resolution struct {
	Profile      types.Profile
	UsedFallback bool
	// Reason explains why the primary output was rejected; nil when it was used.
	Reason error
}

// ResolveProfile turns a primary extraction into a profile, falling back to
// FallbackParse(input) when the primary output does not decode to a JSON
// object, fails the profile schema, or carries no content. The returned profile
// is always normalized.
func ResolveProfile(primary, input string) Resolution {
	doc, err := decodePrimary(primary)
	if err != nil {
		return Resolution{Profile: FallbackParse(input), UsedFallback: true, Reason: err}
	}
	return Resolution{Profile: Normalize(doc)}
}

// ExtractJSONObject returns the text between the first "{" and the last "}",
// or the trimmed input when no such span exists.
func ExtractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return strings.TrimSpace(text)
	}
	return text[start : end+1]
}

func decodePrimary(primary string) (map[string]any, error) {
	if strings.TrimSpace(primary) == "" {
		return nil, &ParseError{Message: "primary output is empty"}
	}

	var decoded any
	if err := json.Unmarshal([]byte(primary), &decoded); err != nil {
		return nil, &ParseError{Message: "primary output is not valid JSON", Cause: err}
	}

	if IsEffectivelyEmpty(decoded) {
		return nil, &ParseError{Message: "primary output has no profile content"}
	}

	if err := schemas.ValidateValue(schemadocs.Profile, decoded); err != nil {
		return nil, &ParseError{Message: "primary output does not match the profile schema", Cause: err}
	}

	return decoded.(map[string]any), nil
}
