package parsing

import "strings"

// Section is a canonical resume section name.
type Section string

// Canonical sections recognized by the segmenter.
const (
	SectionEducation      Section = "education"
	SectionSkills         Section = "skills"
	SectionExperience     Section = "experience"
	SectionProjects       Section = "projects"
	SectionCertifications Section = "certifications"
	SectionAdditional     Section = "additional"
)

// sectionHeadings maps a lower-cased heading line to its canonical section.
var sectionHeadings = map[string]Section{
	"education":              SectionEducation,
	"skills":                 SectionSkills,
	"employment":             SectionExperience,
	"experience":             SectionExperience,
	"work experience":        SectionExperience,
	"projects":               SectionProjects,
	"software projects":      SectionProjects,
	"certifications":         SectionCertifications,
	"additional information": SectionAdditional,
}

// SectionMap holds the content lines of each section seen.
type SectionMap struct {
	lines map[Section][]string
}

func newSectionMap() *SectionMap {
	return &SectionMap{lines: make(map[Section][]string)}
}

func (m *SectionMap) open(s Section) {
	if _, ok := m.lines[s]; !ok {
		m.lines[s] = []string{}
	}
}

func (m *SectionMap) add(s Section, line string) {
	m.open(s)
	m.lines[s] = append(m.lines[s], line)
}

// Lines returns the content lines collected under s, or nil if s never appeared.
func (m *SectionMap) Lines(s Section) []string {
	return m.lines[s]
}

// Segment splits resume lines into canonical sections.
//
// A line whose trimmed, lower-cased text is a known heading switches the current
// section and is not itself content. Other lines are appended, trimmed, to the
// current section. Lines before the first recognized heading are dropped.
func Segment(lines []string) *SectionMap {
	sections := newSectionMap()

	var current Section
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if s, ok := sectionHeadings[strings.ToLower(trimmed)]; ok {
			current = s
			sections.open(current)
			continue
		}
		if current != "" {
			sections.add(current, trimmed)
		}
	}

	return sections
}
