package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadText(t *testing.T) {
	path := writeFile(t, "me.txt", "John Doe\r\nEducation\r\nMIT 2020-2024\r\n")

	text, err := ReadText(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "John Doe\nEducation\nMIT 2020-2024\n", text)

	text, err = ReadText(Stdin, strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", text)
}

func TestReadText_Errors(t *testing.T) {
	_, err := ReadText("/nonexistent/file.txt", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")

	_, err = ReadText(writeFile(t, "blank.txt", " \n\t\n"), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = ReadText(Stdin, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestJobDescription(t *testing.T) {
	fetcher := JobFetcherFunc(func(ctx context.Context, url string) (string, error) {
		if url == "https://jobs.example/broken" {
			return "", errors.New("404")
		}
		return "Fetched   posting for " + url, nil
	})
	path := writeFile(t, "job.txt", "Backend   Engineer\n\n\n\nGo")

	tests := []struct {
		name    string
		src     JobSource
		want    string
		wantErr string
	}{
		{name: "empty source", src: JobSource{}, want: ""},
		{name: "inline text", src: JobSource{Text: "  Data   Engineer "}, want: "Data Engineer"},
		{name: "file", src: JobSource{Path: path}, want: "Backend Engineer\n\nGo"},
		{name: "url", src: JobSource{URL: "https://jobs.example/1"}, want: "Fetched posting for https://jobs.example/1"},
		{name: "url failure", src: JobSource{URL: "https://jobs.example/broken"}, wantErr: "failed to fetch job description"},
		{name: "conflicting sources", src: JobSource{Text: "x", URL: "https://jobs.example/1"}, wantErr: "mutually exclusive"},
		{name: "missing file", src: JobSource{Path: "/nonexistent/job.txt"}, wantErr: "file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JobDescription(context.Background(), tt.src, nil, fetcher)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJobDescription_URLWithoutFetcher(t *testing.T) {
	_, err := JobDescription(context.Background(), JobSource{URL: "https://jobs.example/1"}, nil, nil)
	assert.Error(t, err)
}
