package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects which path through the stage graph a request takes.
type Mode string

const (
	ModeFullPipeline Mode = "FULL_PIPELINE"
	ModeWriteOnly    Mode = "WRITE_ONLY"
	ModeReviewOnly   Mode = "REVIEW_ONLY"
	ModeAnalyzeOnly  Mode = "ANALYZE_ONLY"
)

// Modes lists every recognized mode.
var Modes = []Mode{ModeFullPipeline, ModeWriteOnly, ModeReviewOnly, ModeAnalyzeOnly}

// modeAliases maps normalized classifier answers, including the older
// "analyze_job" intent, onto modes.
var modeAliases = map[string]Mode{
	"FULL_PIPELINE": ModeFullPipeline,
	"WRITE_ONLY":    ModeWriteOnly,
	"REVIEW_ONLY":   ModeReviewOnly,
	"ANALYZE_ONLY":  ModeAnalyzeOnly,
	"ANALYZE_JOB":   ModeAnalyzeOnly,
}

// ErrClassificationAmbiguous is returned when a classifier answer does not
// name a recognized mode.
var ErrClassificationAmbiguous = errors.New("classification ambiguous")

// ErrModeAlreadySet is returned when a stage tries to reassign the mode.
var ErrModeAlreadySet = errors.New("mode already set")

// ClassificationError carries the raw classifier answer that could not be
// mapped to a mode.
type ClassificationError struct {
	Raw string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("%v: %q", ErrClassificationAmbiguous, e.Raw)
}

func (e *ClassificationError) Unwrap() error {
	return ErrClassificationAmbiguous
}

// Valid reports whether m is one of the four recognized modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeFullPipeline, ModeWriteOnly, ModeReviewOnly, ModeAnalyzeOnly:
		return true
	}
	return false
}

func (m Mode) String() string {
	return string(m)
}

// ParseMode maps a classifier answer to a Mode. Surrounding whitespace,
// quotes, trailing punctuation, letter case and an "INTENT:" prefix are
// tolerated; anything else yields a *ClassificationError.
func ParseMode(raw string) (Mode, error) {
	s := strings.TrimSpace(raw)
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := cutPrefixFold(line, "INTENT:"); ok {
			s = rest
			break
		}
	}

	s = strings.Trim(strings.TrimSpace(s), "`'\".[]")
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")

	if m, ok := modeAliases[s]; ok {
		return m, nil
	}
	return "", &ClassificationError{Raw: raw}
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}
