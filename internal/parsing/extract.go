package parsing

import (
	"regexp"
	"strings"
)

// skillSeparator splits a skills line on pipes and commas.
var skillSeparator = regexp.MustCompile(`[|,]`)

// certificationMarkers are the lower-case substrings that mark a certification-like line.
var certificationMarkers = []string{"cert", "award", "scholarship"}

// CompactSection folds section lines into one entry per heading-like line.
// Bullet text is stripped of its marker; other lines are kept verbatim. Each
// entry is its lines joined with a single space.
func CompactSection(lines []string) []string {
	var items []string
	var buffer []string

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		if item := strings.TrimSpace(strings.Join(buffer, " ")); item != "" {
			items = append(items, item)
		}
		buffer = nil
	}

	for _, line := range lines {
		switch {
		case IsHeading(line):
			flush()
			buffer = append(buffer, line)
		case isBullet(line):
			buffer = append(buffer, stripBullet(line))
		default:
			buffer = append(buffer, line)
		}
	}
	flush()

	return nonNil(items)
}

// ParseSkills flattens skills lines into individual skill names.
// A "Category: a, b | c" line contributes only the text after the first colon.
// Order and duplicates are preserved.
func ParseSkills(lines []string) []string {
	skills := []string{}
	for _, line := range lines {
		clean := stripBullet(line)
		if clean == "" {
			continue
		}
		if _, rhs, found := strings.Cut(clean, ":"); found {
			clean = rhs
		}
		for _, part := range skillSeparator.Split(clean, -1) {
			if part = strings.TrimSpace(part); part != "" {
				skills = append(skills, part)
			}
		}
	}
	return skills
}

// GroupRoleBlocks groups experience or project lines into one string per role.
// A heading-like line opens a block; following lines become its details and the
// block renders as "<head> — <d1>; <d2>", or just "<head>" with no details.
func GroupRoleBlocks(lines []string) []string {
	var blocks []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		if block := joinBlock(current); block != "" {
			blocks = append(blocks, block)
		}
		current = nil
	}

	for _, line := range lines {
		switch {
		case IsHeading(line):
			flush()
			current = []string{line}
		case isBullet(line):
			current = append(current, stripBullet(line))
		default:
			current = append(current, line)
		}
	}
	flush()

	return nonNil(blocks)
}

func joinBlock(block []string) string {
	head := strings.TrimSpace(block[0])

	var details []string
	for _, line := range block[1:] {
		if line = strings.TrimSpace(line); line != "" {
			details = append(details, line)
		}
	}
	if len(details) == 0 {
		return head
	}
	return head + " — " + strings.Join(details, "; ")
}

// ExtractCertifications returns the bullet-stripped lines that mention a
// certification, award or scholarship.
func ExtractCertifications(lines []string) []string {
	certs := []string{}
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, marker := range certificationMarkers {
			if strings.Contains(lower, marker) {
				if cert := stripBullet(line); cert != "" {
					certs = append(certs, cert)
				}
				break
			}
		}
	}
	return certs
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
