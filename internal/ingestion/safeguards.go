package ingestion

import (
	"context"
	"regexp"

	"github.com/rs/zerolog"
)

// injectionPatterns match phrasing aimed at the model rather than a reader.
// Job postings routinely say "you are a team player", so only instruction
// overrides are matched.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(the\s+)?(previous|prior|above)\s+instructions?`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(the\s+)?(previous|prior|above)`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|everything)`),
	regexp.MustCompile(`(?i)new\s+instructions?:`),
	regexp.MustCompile(`(?i)(reveal|print|repeat)\s+(your|the)\s+system\s+prompt`),
}

// ScanForInjection returns the instruction-override phrases found in text,
// in pattern order. It never modifies the text.
func ScanForInjection(text string) []string {
	var found []string
	for _, p := range injectionPatterns {
		if m := p.FindString(text); m != "" {
			found = append(found, m)
		}
	}
	return found
}

// warnOnInjection logs suspicious phrases in text from an untrusted source.
// Processing continues either way.
func warnOnInjection(ctx context.Context, source, text string) {
	found := ScanForInjection(text)
	if len(found) == 0 {
		return
	}
	zerolog.Ctx(ctx).Warn().
		Str("source", source).
		Strs("phrases", found).
		Msg("possible prompt injection in external content")
}
