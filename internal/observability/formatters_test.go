package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-assistant/internal/pipeline"
	"github.com/jonathan/resume-assistant/internal/types"
)

func TestPrintProfile(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	profile := &types.Profile{
		Name:      types.StringPtr("Ada Lovelace"),
		Skills:    []string{"Go", "Python", "SQL", "Rust", "C", "Haskell", "Lisp"},
		Education: []string{"University of London 1835"},
	}
	p.PrintProfile(profile, true)
	out := buf.String()

	assert.Contains(t, out, "USER PROFILE")
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "fallback parser")
	assert.Contains(t, out, "Skills (7)")
	assert.Contains(t, out, "... and 2 more")
	assert.NotContains(t, out, "Lisp")
	assert.NotContains(t, out, "Projects")
}

func TestPrintProfile_NoName(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProfile(&types.Profile{}, false)

	assert.Contains(t, buf.String(), "(not found)")
	assert.Contains(t, buf.String(), "model")
}

func TestPrintProfile_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProfile(nil, false)
	assert.Empty(t, buf.String())
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.printBox("TITLE", strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), line)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestPrintStage(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintStage(pipeline.ProgressEvent{Step: pipeline.StepRunStarted, RunID: "r1", Message: "Run started"})
	p.PrintStage(pipeline.ProgressEvent{Step: "analyzer", Message: "Analyzing job description"})

	out := buf.String()
	assert.Contains(t, out, "[r1] Run started")
	assert.Contains(t, out, "analyzer")
	assert.Contains(t, out, "Analyzing job description")
}

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	rc := pipeline.NewRequestContext("in", "jd")
	rc.Profile = &types.Profile{Name: types.StringPtr("Grace")}
	result := &pipeline.Result{
		RunID:   uuid.New(),
		Mode:    pipeline.ModeWriteOnly,
		Output:  "## Job Analysis\n...",
		Context: rc,
	}
	p.PrintRunSummary(result)
	out := buf.String()

	assert.Contains(t, out, "RUN SUMMARY")
	assert.Contains(t, out, "WRITE_ONLY")
	assert.Contains(t, out, "router → analyzer → writer → output_composer")
	assert.Contains(t, out, "Grace")

	buf.Reset()
	p.PrintRunSummary(nil)
	assert.Empty(t, buf.String())
}
