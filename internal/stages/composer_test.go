package stages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-assistant/internal/pipeline"
)

func TestCompose(t *testing.T) {
	rc := &pipeline.RequestContext{
		ProfileJSON: "P",
		JobAnalysis: "A",
		Resume:      "R",
		Feedback:    "F",
	}

	tests := []struct {
		mode pipeline.Mode
		want string
	}{
		{pipeline.ModeFullPipeline, "## User Profile\nP\n\n## Job Analysis\nA\n\n## Generated Resume\nR\n\n## Resume Feedback\nF"},
		{pipeline.ModeWriteOnly, "## Job Analysis\nA\n\n## Generated Resume\nR"},
		{pipeline.ModeReviewOnly, "## Job Analysis\nA\n\n## Resume Feedback\nF"},
		{pipeline.ModeAnalyzeOnly, "## Job Analysis\nA"},
		{"", "## Job Analysis\nA"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			c := *rc
			c.Mode = tt.mode
			assert.Equal(t, tt.want, Compose(&c))
		})
	}
}

func TestComposer_Handle(t *testing.T) {
	rc := pipeline.NewRequestContext("in", "jd")
	require.NoError(t, rc.SetMode(pipeline.ModeAnalyzeOnly))
	rc.JobAnalysis = "analysis"

	require.NoError(t, Composer{}.Handle(context.Background(), rc))
	assert.Equal(t, "## Job Analysis\nanalysis", rc.Output)
}
