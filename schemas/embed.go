// Package schemas holds the JSON Schema documents for structured artifacts.
package schemas

import (
	_ "embed"
)

// Profile is the JSON Schema for a structured candidate profile.
//
//go:embed profile.schema.json
var Profile string
