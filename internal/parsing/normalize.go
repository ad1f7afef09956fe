package parsing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/resume-assistant/internal/types"
)

// Normalize coerces a loosely typed profile document into a Profile.
//
// List fields accept a list (each element stringified and trimmed, empties
// dropped), a single scalar (kept as a one-element list when non-empty) or a
// missing/null value (empty list). Name and summary are carried over as
// strings; null stays nil. Normalize is idempotent.
func Normalize(raw map[string]any) types.Profile {
	return types.Profile{
		Name:           toOptionalString(raw["name"]),
		Education:      toList(raw["education"]),
		Skills:         toList(raw["skills"]),
		Experience:     toList(raw["experience"]),
		Projects:       toList(raw["projects"]),
		Certifications: toList(raw["certifications"]),
		Summary:        toOptionalString(raw["summary"]),
	}
}

// IsEffectivelyEmpty reports whether a decoded profile document carries no
// usable content. Anything other than a JSON object is empty; an object is empty
// when every profile field is absent or falsy.
func IsEffectivelyEmpty(doc any) bool {
	raw, ok := doc.(map[string]any)
	if !ok {
		return true
	}
	for _, field := range types.ProfileFields {
		if truthy(raw[field]) {
			return false
		}
	}
	return true
}

func toList(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case []any:
		items := make([]string, 0, len(v))
		for _, elem := range v {
			if elem == nil {
				continue
			}
			if s := strings.TrimSpace(stringify(elem)); s != "" {
				items = append(items, s)
			}
		}
		return items
	case []string:
		items := make([]string, 0, len(v))
		for _, elem := range v {
			if s := strings.TrimSpace(elem); s != "" {
				items = append(items, s)
			}
		}
		return items
	default:
		if s := strings.TrimSpace(stringify(v)); s != "" {
			return []string{s}
		}
		return []string{}
	}
}

func toOptionalString(value any) *string {
	if value == nil {
		return nil
	}
	return types.StringPtr(stringify(value))
}

// stringify renders a decoded JSON value as text. Whole numbers print without a
// fractional part; objects and arrays print as compact JSON.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case map[string]any, []any:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return fmt.Sprint(v)
		}
		return strings.TrimRight(buf.String(), "\n")
	default:
		return fmt.Sprint(v)
	}
}

// truthy mirrors JSON-level falsiness: null, false, 0, "" and empty collections.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
