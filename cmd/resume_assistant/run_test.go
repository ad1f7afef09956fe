package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-assistant/internal/llm/llmtest"
)

func TestRunCommand_ClassifiesAndComposes(t *testing.T) {
	client := analyzeOnly("Requirements: Go, Postgres")
	ta := newTestApp(client, "")
	input := writeFile(t, "input.txt", "What does this job need?")
	job := writeFile(t, "job.txt", "Backend engineer.   Go and Postgres.")

	require.NoError(t, ta.execute("run", "--input", input, "--job", job))

	assert.Equal(t, "## Job Analysis\nRequirements: Go, Postgres\n", ta.stdout.String())
	calls := client.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0].User(), "What does this job need?")
	assert.Contains(t, calls[1].User(), "Backend engineer. Go and Postgres.")
	assert.True(t, client.Closed())
}

func TestRunCommand_HelpListsModePaths(t *testing.T) {
	long := newRunCmd(defaultApp()).Long

	assert.Contains(t, long, "FULL_PIPELINE  collector -> analyzer -> writer -> reviewer\n")
	assert.Contains(t, long, "WRITE_ONLY     analyzer -> writer\n")
	assert.Contains(t, long, "REVIEW_ONLY    analyzer -> reviewer\n")
	assert.Contains(t, long, "ANALYZE_ONLY   analyzer\n")
}

func TestRunCommand_ModeHintSkipsRouter(t *testing.T) {
	client := llmtest.New(llmtest.Text("analysis"))
	ta := newTestApp(client, "")
	input := writeFile(t, "input.txt", "analyze")

	require.NoError(t, ta.execute("run", "-i", input, "--mode", "ANALYZE_ONLY"))

	assert.Len(t, client.Calls(), 1)
	assert.Contains(t, ta.stdout.String(), "analysis")
}

func TestRunCommand_ReadsStdin(t *testing.T) {
	client := llmtest.New(llmtest.Text("analysis"))
	ta := newTestApp(client, "request from stdin")

	require.NoError(t, ta.execute("run", "--input", "-", "--mode", "ANALYZE_ONLY"))

	require.Len(t, client.Calls(), 1)
	assert.Contains(t, ta.stdout.String(), "## Job Analysis")
}

func TestRunCommand_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing input", args: []string{"run"}, wantErr: "--input must be provided"},
		{name: "missing file", args: []string{"run", "--input", "/does/not/exist.txt"}, wantErr: "input file not found"},
		{name: "both stdin", args: []string{"run", "--input", "-", "--job", "-"}, wantErr: "cannot both read stdin"},
		{name: "bad mode", args: []string{"run", "--input", "-", "--mode", "EVERYTHING"}, wantErr: "'mode' failed"},
		{
			name:    "job and url",
			args:    []string{"run", "--input", "-", "--job", "x.txt", "--job-url", "https://example.com"},
			wantErr: "mutually exclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llmtest.New()
			ta := newTestApp(client, "text")

			err := ta.execute(tt.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, client.Calls())
		})
	}
}

func TestRunCommand_MissingAPIKey(t *testing.T) {
	ta := newTestApp(nil, "text")
	ta.newClient = defaultApp().newClient

	err := ta.execute("run", "--input", "-")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY environment variable or --api-key flag is required")
}

func TestRunCommand_FlagsOverrideConfig(t *testing.T) {
	client := llmtest.New(llmtest.Text("analysis"))
	ta := newTestApp(client, "")
	input := writeFile(t, "input.txt", "hello")
	cfgPath := writeFile(t, "config.json", `{"input": "`+input+`", "mode": "WRITE_ONLY"}`)

	require.NoError(t, ta.execute("run", "--config", cfgPath, "--mode", "ANALYZE_ONLY"))

	assert.Len(t, client.Calls(), 1)
	assert.Equal(t, "## Job Analysis\nanalysis\n", ta.stdout.String())
}

func TestRunCommand_FallbackMode(t *testing.T) {
	input := writeFile(t, "input.txt", "hmm")

	t.Run("ambiguous fails by default", func(t *testing.T) {
		client := llmtest.New(llmtest.Text("INTENT: SOMETHING_ELSE"))
		ta := newTestApp(client, "")

		err := ta.execute("run", "--input", input)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "router")
		assert.Empty(t, ta.stdout.String())
	})

	t.Run("fallback mode continues", func(t *testing.T) {
		client := llmtest.New(llmtest.Text("INTENT: SOMETHING_ELSE"), llmtest.Text("analysis"))
		ta := newTestApp(client, "")

		require.NoError(t, ta.execute("run", "--input", input, "--fallback-mode", "ANALYZE_ONLY"))
		assert.Contains(t, ta.stdout.String(), "## Job Analysis\nanalysis")
	})
}

func TestRunCommand_VerboseAndStream(t *testing.T) {
	client := llmtest.New(llmtest.Text("Requirements listed here"))
	client.ChunkSize = 5
	ta := newTestApp(client, "")
	input := writeFile(t, "input.txt", "analyze")

	require.NoError(t, ta.execute("run", "--input", input, "--mode", "ANALYZE_ONLY", "--stream", "--verbose"))

	stderr := ta.stderr.String()
	assert.Contains(t, stderr, "[analyzer]\nRequirements listed here")
	assert.Contains(t, stderr, "RUN SUMMARY")
	assert.Contains(t, stderr, "router → analyzer → output_composer")
	assert.Equal(t, "## Job Analysis\nRequirements listed here\n", ta.stdout.String())

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Streamed)
}
