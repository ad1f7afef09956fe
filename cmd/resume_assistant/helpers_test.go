package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/llm/llmtest"
)

type testApp struct {
	*app
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	env    map[string]string
}

// newTestApp returns an app whose model calls go to client and whose
// environment is empty apart from env.
func newTestApp(client llm.Client, stdin string) *testApp {
	ta := &testApp{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		env:    map[string]string{"LOG_LEVEL": "error"},
	}
	ta.app = &app{
		stdin:  strings.NewReader(stdin),
		stdout: ta.stdout,
		stderr: ta.stderr,
		getenv: func(key string) string { return ta.env[key] },
		newClient: func(context.Context, *llm.Config, string) (llm.Client, error) {
			return client, nil
		},
	}
	return ta
}

func (ta *testApp) execute(args ...string) error {
	root := newRootCmd(ta.app)
	root.SetArgs(args)
	return root.Execute()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// analyzeOnly scripts a router reply followed by an analyzer reply.
func analyzeOnly(analysis string) *llmtest.Client {
	return llmtest.New(llmtest.Text("INTENT: ANALYZE_ONLY"), llmtest.Text(analysis))
}
