package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegment_AssignsLinesToSections(t *testing.T) {
	lines := []string{
		"Jane Roe",
		"jane@example.com",
		"Education",
		"  BSc Physics 2015  ",
		"WORK EXPERIENCE",
		"Analyst | Acme | 2016",
		"Software Projects",
		"Tracker",
		"Additional Information",
		"Fluent in Spanish",
	}

	sections := Segment(lines)

	assert.Equal(t, []string{"BSc Physics 2015"}, sections.Lines(SectionEducation))
	assert.Equal(t, []string{"Analyst | Acme | 2016"}, sections.Lines(SectionExperience))
	assert.Equal(t, []string{"Tracker"}, sections.Lines(SectionProjects))
	assert.Equal(t, []string{"Fluent in Spanish"}, sections.Lines(SectionAdditional))
	assert.Nil(t, sections.Lines(SectionSkills))
}

func TestSegment_AliasesShareSection(t *testing.T) {
	sections := Segment([]string{"Employment", "First", "Experience", "Second"})

	assert.Equal(t, []string{"First", "Second"}, sections.Lines(SectionExperience))
}

func TestSegment_NoHeadings(t *testing.T) {
	sections := Segment([]string{"hello", "world"})
	for _, s := range []Section{SectionEducation, SectionSkills, SectionExperience, SectionProjects, SectionCertifications, SectionAdditional} {
		assert.Nil(t, sections.Lines(s), s)
	}
}

func TestSegment_HeadingWithoutContent(t *testing.T) {
	sections := Segment([]string{"Skills"})

	assert.NotNil(t, sections.Lines(SectionSkills))
	assert.Empty(t, sections.Lines(SectionSkills))
}

func TestSegment_HeadingMustBeWholeLine(t *testing.T) {
	sections := Segment([]string{"Skills", "Skills: Go, Rust"})
	assert.Equal(t, []string{"Skills: Go, Rust"}, sections.Lines(SectionSkills))
}
