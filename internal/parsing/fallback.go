package parsing

import (
	"strings"

	"github.com/jonathan/resume-assistant/internal/types"
)

// resumeMarkers are the section words whose presence marks text as a pasted resume.
var resumeMarkers = []string{"education", "skills", "employment", "experience", "projects"}

// minResumeMarkers is how many distinct markers LooksLikeResume requires.
const minResumeMarkers = 2

// LooksLikeResume reports whether text mentions at least two of the common
// resume section words. Matching is a case-insensitive substring test.
func LooksLikeResume(text string) bool {
	lower := strings.ToLower(text)
	hits := 0
	for _, marker := range resumeMarkers {
		if strings.Contains(lower, marker) {
			hits++
		}
	}
	return hits >= minResumeMarkers
}

// FallbackParse builds a profile from raw resume text using section headings
// and line heuristics only. It never fails; unrecognized text yields an
// effectively empty profile. Summary is always nil.
func FallbackParse(text string) types.Profile {
	lines := splitLines(text)
	profile := types.NewProfile()

	if len(lines) > 0 {
		profile.Name = candidateName(lines[0])
	}

	sections := Segment(lines)
	education := sections.Lines(SectionEducation)

	profile.Education = CompactSection(education)
	profile.Skills = ParseSkills(sections.Lines(SectionSkills))
	profile.Experience = GroupRoleBlocks(sections.Lines(SectionExperience))
	profile.Projects = GroupRoleBlocks(sections.Lines(SectionProjects))

	certLines := make([]string, 0, len(education)+len(sections.Lines(SectionCertifications)))
	certLines = append(certLines, education...)
	certLines = append(certLines, sections.Lines(SectionCertifications)...)
	profile.Certifications = ExtractCertifications(certLines)

	return profile
}

// splitLines splits text into right-trimmed lines and drops blank ones.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t\f\v")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// candidateName returns the trimmed first line unless it looks like contact details.
func candidateName(first string) *string {
	name := strings.TrimSpace(first)
	if strings.Contains(name, "@") ||
		strings.Contains(name, "|") ||
		strings.Contains(strings.ToLower(name), "http") {
		return nil
	}
	return types.StringPtr(name)
}
