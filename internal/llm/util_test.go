package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "latex code block",
			input:    "```latex\n\\documentclass{article}\n```",
			expected: `\documentclass{article}`,
		},
		{
			name:     "single line fence with tag",
			input:    "```json{\"a\":1}```",
			expected: `{"a":1}`,
		},
		{
			name:     "plain text is trimmed only",
			input:    "  ## Overall Score\n8/10  ",
			expected: "## Overall Score\n8/10",
		},
		{
			name:     "unterminated fence",
			input:    "```json\n{\"a\": 1}",
			expected: `{"a": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripCodeFences(tt.input))
		})
	}
}

func TestCleanJSONBlock(t *testing.T) {
	assert.Equal(t, `{"key": "value"}`, CleanJSONBlock("```json\n{\"key\": \"value\"}\n```"))
	assert.Equal(t, `{"key": "value"}`, CleanJSONBlock(`{"key": "value"}`))
}
