package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-assistant/internal/types"
)

const sampleResume = `Jane Roe
Skills
- Go, Kubernetes | SQL
Experience
Staff Engineer | Example Corp | 2020–2024
- Led the platform team`

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  func(t *testing.T) []string
	}{
		{
			name: "file argument",
			args: func(t *testing.T) []string { return []string{"parse", writeFile(t, "resume.txt", sampleResume)} },
		},
		{
			name: "input flag",
			args: func(t *testing.T) []string { return []string{"parse", "--input", writeFile(t, "resume.txt", sampleResume)} },
		},
		{
			name:  "stdin",
			stdin: sampleResume,
			args:  func(*testing.T) []string { return []string{"parse", "-"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(nil, tt.stdin)

			require.NoError(t, ta.execute(tt.args(t)...))

			var profile types.Profile
			require.NoError(t, json.Unmarshal(ta.stdout.Bytes(), &profile))
			require.NotNil(t, profile.Name)
			assert.Equal(t, "Jane Roe", *profile.Name)
			assert.Equal(t, []string{"Go", "Kubernetes", "SQL"}, profile.Skills)
			assert.Equal(t, []string{"Staff Engineer | Example Corp | 2020–2024 — Led the platform team"}, profile.Experience)
			assert.Equal(t, []string{}, profile.Education)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	ta := newTestApp(nil, "")
	err := ta.execute("parse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--input must be provided")

	err = ta.execute("parse", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input is empty")
}
