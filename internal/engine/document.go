package engine

import (
	"regexp"
	"strings"
)

// Section is one named block of the minutes document.
type Section struct {
	Name    string
	Content string
}

// Document is the structured minutes. Owned exclusively by the Engine; the
// presentation layer only ever sees snapshots.
type Document struct {
	Title           string
	Sections        []Section
	TemplateName    string
	LastFullRegenAt int64
	Version         int
}

// Empty reports whether the document has no generated content yet.
func (d *Document) Empty() bool {
	return d.Version == 0
}

// Markdown reassembles the document as markdown text.
func (d *Document) Markdown() string {
	var b strings.Builder
	if d.Title != "" {
		b.WriteString(d.Title)
		if !strings.HasSuffix(d.Title, "\n") {
			b.WriteString("\n")
		}
	}
	for _, s := range d.Sections {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("## " + s.Name + "\n")
		if s.Content != "" {
			b.WriteString("\n" + strings.TrimRight(s.Content, "\n") + "\n")
		}
	}
	return b.String()
}

// snapshot returns a deep copy safe to hand to the presentation layer.
func (d *Document) snapshot() Document {
	out := *d
	out.Sections = make([]Section, len(d.Sections))
	copy(out.Sections, d.Sections)
	return out
}

var sectionHeadingRe = regexp.MustCompile(`(?m)^##\s+(.+?)\s*$`)

// parseSections splits generated markdown into sections. Sections named in
// sectionList come first in template order; unrecognized sections are
// appended verbatim in generated order rather than dropped. Text before the
// first section heading becomes the title block.
func parseSections(text string, sectionList []string) (title string, sections []Section) {
	matches := sectionHeadingRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(text), nil
	}

	title = strings.TrimSpace(text[:matches[0][0]])

	parsed := make([]Section, 0, len(matches))
	for i, m := range matches {
		name := text[m[2]:m[3]]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := strings.TrimSpace(text[m[1]:end])
		parsed = append(parsed, Section{Name: name, Content: content})
	}

	known := map[string]bool{}
	for _, name := range sectionList {
		known[name] = true
	}

	used := make([]bool, len(parsed))
	for _, name := range sectionList {
		for i, s := range parsed {
			if !used[i] && s.Name == name {
				sections = append(sections, s)
				used[i] = true
				break
			}
		}
	}
	for i, s := range parsed {
		if !used[i] {
			sections = append(sections, s)
		}
	}
	return title, sections
}
