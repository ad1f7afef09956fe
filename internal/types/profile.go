// Package types provides type definitions for structured data used throughout the resume-assistant system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"bytes"
	"encoding/json"
)

// Profile is the structured view of a candidate recovered from free-form resume text.
// List fields are never nil once normalized and hold only trimmed, non-empty entries.
type Profile struct {
	Name           *string  `json:"name"`
	Education      []string `json:"education"`
	Skills         []string `json:"skills"`
	Experience     []string `json:"experience"`
	Projects       []string `json:"projects"`
	Certifications []string `json:"certifications"`
	Summary        *string  `json:"summary"`
}

// ProfileFields lists the profile keys in their canonical order.
var ProfileFields = []string{"name", "education", "skills", "experience", "projects", "certifications", "summary"}

// NewProfile returns a profile with every list initialized to an empty slice.
func NewProfile() Profile {
	return Profile{
		Education:      []string{},
		Skills:         []string{},
		Experience:     []string{},
		Projects:       []string{},
		Certifications: []string{},
	}
}

// IsEmpty reports whether every field is falsy: nil or empty name and summary, empty lists.
func (p Profile) IsEmpty() bool {
	if p.Name != nil && *p.Name != "" {
		return false
	}
	if p.Summary != nil && *p.Summary != "" {
		return false
	}
	return len(p.Education) == 0 &&
		len(p.Skills) == 0 &&
		len(p.Experience) == 0 &&
		len(p.Projects) == 0 &&
		len(p.Certifications) == 0
}

// MarshalJSON renders nil lists as [] so consumers never see null collections.
func (p Profile) MarshalJSON() ([]byte, error) {
	type alias Profile
	out := alias(p)
	for _, list := range []*[]string{&out.Education, &out.Skills, &out.Experience, &out.Projects, &out.Certifications} {
		if *list == nil {
			*list = []string{}
		}
	}
	return encodeJSON(out, "")
}

// JSON returns the profile as indented JSON. Characters such as & and < are
// written as-is.
func (p Profile) JSON() (string, error) {
	data, err := encodeJSON(p, "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func encodeJSON(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
