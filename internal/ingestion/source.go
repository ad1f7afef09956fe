package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// ErrEmptyInput is returned when a source yields no text.
var ErrEmptyInput = errors.New("input is empty")

// JobFetcher retrieves the text of a job posting.
type JobFetcher interface {
	JobText(ctx context.Context, url string) (string, error)
}

// JobFetcherFunc adapts a function to JobFetcher.
type JobFetcherFunc func(ctx context.Context, url string) (string, error)

// JobText calls f.
func (f JobFetcherFunc) JobText(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// ReadText reads path, or stdin when path is "-". The text is returned as
// read apart from line-ending normalization.
func ReadText(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == Stdin {
		data, err = io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("file not found: %w", err)
			}
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}
	return text, nil
}

// JobSource names where a job description comes from. At most one of the
// fields may be set.
type JobSource struct {
	Text string
	Path string
	URL  string
}

// JobDescription resolves src to cleaned job description text. An empty
// source yields "" and no error.
func JobDescription(ctx context.Context, src JobSource, stdin io.Reader, fetcher JobFetcher) (string, error) {
	set := 0
	for _, v := range []string{src.Text, src.Path, src.URL} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return "", fmt.Errorf("job description text, file and URL are mutually exclusive")
	}

	switch {
	case src.URL != "":
		if fetcher == nil {
			return "", fmt.Errorf("no fetcher configured for job URL")
		}
		text, err := fetcher.JobText(ctx, src.URL)
		if err != nil {
			return "", fmt.Errorf("failed to fetch job description: %w", err)
		}
		warnOnInjection(ctx, src.URL, text)
		return CleanText(text), nil
	case src.Path != "":
		text, err := ReadText(src.Path, stdin)
		if err != nil {
			return "", err
		}
		return CleanText(text), nil
	default:
		return CleanText(src.Text), nil
	}
}
