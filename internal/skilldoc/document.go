// Package skilldoc reads and mutates skill documents: markdown files with
// a YAML front-matter block and a structured "Learnings" section that
// accumulates applied reflections. The body outside the front matter is
// preserved byte for byte on every round trip.
package skilldoc

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

const (
	// frontMatterDelim separates the YAML metadata block from the
	// markdown body.
	frontMatterDelim = "---"

	// learningsHeading is the section that applied reflections are
	// appended to.
	learningsHeading = "Learnings"

	// dateLayout is the date form used in front matter and learning
	// entry headings.
	dateLayout = "2006-01-02"
)

// Meta is the front-matter block of a skill document. Unknown keys
// survive a round trip via Extra.
type Meta struct {
	Name            string         `yaml:"name,omitempty"`
	Description     string         `yaml:"description,omitempty"`
	Version         int            `yaml:"version"`
	ReflectionCount int            `yaml:"reflection_count"`
	LastReflection  string         `yaml:"last_reflection,omitempty"`
	Extra           map[string]any `yaml:",inline"`
}

// Learning is one applied reflection as it appears in the Learnings
// section.
type Learning struct {
	// Timestamp is when the reflection was applied.
	Timestamp time.Time

	// SessionID identifies the conversation the signal came from.
	SessionID string

	// Fingerprint is the signal fingerprint; entries are deduplicated
	// on it.
	Fingerprint string

	// Confidence is the consensus confidence (high, medium, low).
	Confidence string

	// Signal is the raw correction text.
	Signal string

	// Change describes what the skill should do differently.
	Change string

	// Rationale explains why.
	Rationale string
}

// Document is a parsed skill document.
type Document struct {
	// Name is the skill directory name.
	Name string

	// Path is the absolute path of the SKILL.md file.
	Path string

	// Meta is the parsed front matter.
	Meta Meta

	// Body is the markdown after the front matter, unmodified.
	Body string
}

// fingerprintLinePattern matches the fingerprint bullet inside a learning
// entry.
var fingerprintLinePattern = regexp.MustCompile(
	`(?m)^- \*\*Fingerprint\*\*: ([0-9a-f]{64})\s*$`,
)

// learningHeadingPattern matches the heading of a single learning entry.
var learningHeadingPattern = regexp.MustCompile(
	`(?m)^### (\d{4}-\d{2}-\d{2}) (\S+) \((high|medium|low)\)\s*$`,
)

// Parse decodes a raw skill document. A missing front-matter block yields
// zero metadata with the full input as body.
func Parse(name, path string, raw []byte) (*Document, error) {
	doc := &Document{
		Name: name,
		Path: path,
	}

	body, metaBlock, ok := splitFrontMatter(raw)
	if !ok {
		doc.Body = string(raw)
		return doc, nil
	}

	if err := yaml.Unmarshal(metaBlock, &doc.Meta); err != nil {
		return nil, fmt.Errorf("parse front matter of %s: %w",
			path, err)
	}
	doc.Body = string(body)

	return doc, nil
}

// splitFrontMatter returns (body, yamlBlock, true) when raw starts with a
// front-matter fence.
func splitFrontMatter(raw []byte) ([]byte, []byte, bool) {
	delim := []byte(frontMatterDelim + "\n")
	if !bytes.HasPrefix(raw, delim) {
		return nil, nil, false
	}

	rest := raw[len(delim):]
	end := bytes.Index(rest, []byte("\n"+frontMatterDelim+"\n"))
	if end < 0 {
		return nil, nil, false
	}

	metaBlock := rest[:end+1]
	body := rest[end+1+len(delim):]

	return body, metaBlock, true
}

// Encode serializes the document back to file form. The body is emitted
// exactly as parsed.
func (d *Document) Encode() ([]byte, error) {
	metaBlock, err := yaml.Marshal(&d.Meta)
	if err != nil {
		return nil, fmt.Errorf("encode front matter of %s: %w",
			d.Name, err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontMatterDelim + "\n")
	buf.Write(metaBlock)
	buf.WriteString(frontMatterDelim + "\n")
	buf.WriteString(d.Body)

	return buf.Bytes(), nil
}

// ContainsFingerprint reports whether a learning entry for the given
// fingerprint already exists in the body.
func (d *Document) ContainsFingerprint(fp string) bool {
	for _, m := range fingerprintLinePattern.FindAllStringSubmatch(
		d.Body, -1,
	) {
		if m[1] == fp {
			return true
		}
	}

	return false
}

// Learnings parses the entries of the Learnings section in storage
// order. Entries that do not match the expected shape are skipped.
func (d *Document) Learnings() []Learning {
	start, end, ok := d.learningsSection()
	if !ok {
		return nil
	}
	section := d.Body[start:end]

	heads := learningHeadingPattern.FindAllStringSubmatchIndex(
		section, -1,
	)
	learnings := make([]Learning, 0, len(heads))

	for i, h := range heads {
		blockEnd := len(section)
		if i+1 < len(heads) {
			blockEnd = heads[i+1][0]
		}
		block := section[h[0]:blockEnd]

		ts, err := time.Parse(dateLayout, section[h[2]:h[3]])
		if err != nil {
			continue
		}

		l := Learning{
			Timestamp:   ts,
			Signal:      section[h[4]:h[5]],
			Confidence:  section[h[6]:h[7]],
			Change:      learningChange(block),
			Fingerprint: learningField(block, "Fingerprint"),
			SessionID:   learningField(block, "Session"),
			Rationale:   learningField(block, "Rationale"),
		}
		learnings = append(learnings, l)
	}

	return learnings
}

// learningField extracts a bold bullet field ("- **Name**: value") from a
// learning block.
func learningField(block, name string) string {
	prefix := "- **" + name + "**: "
	for _, line := range strings.Split(block, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(line[len(prefix):])
		}
	}

	return ""
}

// learningChange returns the free-text paragraph between an entry heading
// and its first bullet.
func learningChange(block string) string {
	lines := strings.Split(block, "\n")
	var para []string
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "- **") ||
			strings.HasPrefix(line, "### ") {

			break
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			para = append(para, trimmed)
		}
	}

	return strings.Join(para, " ")
}

// renderLearning formats one entry as markdown. The shape must stay
// parseable by Learnings and fingerprintLinePattern.
func renderLearning(l Learning) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### %s %s (%s)\n\n",
		l.Timestamp.Format(dateLayout), l.Signal, l.Confidence)
	if l.Change != "" {
		b.WriteString(l.Change + "\n\n")
	}
	if l.Rationale != "" {
		fmt.Fprintf(&b, "- **Rationale**: %s\n", l.Rationale)
	}
	if l.SessionID != "" {
		fmt.Fprintf(&b, "- **Session**: %s\n", l.SessionID)
	}
	fmt.Fprintf(&b, "- **Fingerprint**: %s\n", l.Fingerprint)

	return b.String()
}

// appendLearning inserts a rendered entry at the end of the Learnings
// section, creating the section if the document lacks one. Metadata is
// untouched; callers bump it.
func (d *Document) appendLearning(l Learning) {
	entry := renderLearning(l)

	_, end, ok := d.learningsSection()
	if !ok {
		body := d.Body
		if body != "" && !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		d.Body = body + "\n## " + learningsHeading + "\n\n" + entry
		return
	}

	head := strings.TrimRight(d.Body[:end], "\n")
	tail := d.Body[end:]
	d.Body = head + "\n\n" + entry + tail
}

// replaceLearning rewrites the existing entry carrying the same
// fingerprint as l. It reports false when no such entry exists.
func (d *Document) replaceLearning(l Learning) bool {
	start, end, ok := d.learningBlock(l.Fingerprint)
	if !ok {
		return false
	}

	entry := strings.TrimRight(renderLearning(l), "\n") + "\n"
	d.Body = d.Body[:start] + entry + d.Body[end:]

	return true
}

// learningBlock locates the byte span of the entry containing the given
// fingerprint, from its "###" heading to the next heading or section end.
func (d *Document) learningBlock(fp string) (int, int, bool) {
	secStart, secEnd, ok := d.learningsSection()
	if !ok {
		return 0, 0, false
	}
	section := d.Body[secStart:secEnd]

	heads := learningHeadingPattern.FindAllStringIndex(section, -1)
	for i, h := range heads {
		blockEnd := len(section)
		if i+1 < len(heads) {
			blockEnd = heads[i+1][0]
		}
		block := section[h[0]:blockEnd]

		m := fingerprintLinePattern.FindStringSubmatch(block)
		if m != nil && m[1] == fp {
			return secStart + h[0], secStart + blockEnd, true
		}
	}

	return 0, 0, false
}

// learningsSection returns the byte span of the Learnings section body:
// from just after its "##" heading line to the next level-1/2 heading or
// end of document. The markdown AST drives the boundaries so fenced code
// blocks containing "##" lines are not mistaken for headings.
func (d *Document) learningsSection() (int, int, bool) {
	src := []byte(d.Body)
	root := goldmark.DefaultParser().Parse(gmtext.NewReader(src))

	inSection := false
	start := 0
	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		h, isHeading := node.(*ast.Heading)
		if !isHeading {
			continue
		}

		if inSection && h.Level <= 2 {
			return start, headingLineStart(src, h), true
		}

		if h.Level == 2 && headingText(src, h) == learningsHeading {
			inSection = true
			start = headingLineEnd(src, h)
		}
	}

	if inSection {
		return start, len(src), true
	}

	return 0, 0, false
}

// headingText concatenates the source text of a heading's lines.
func headingText(src []byte, h *ast.Heading) string {
	var b strings.Builder
	lines := h.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}

	return strings.TrimSpace(b.String())
}

// headingLineStart returns the offset of the first byte of the heading's
// line, including the "##" marker.
func headingLineStart(src []byte, h *ast.Heading) int {
	lines := h.Lines()
	if lines.Len() == 0 {
		return 0
	}

	i := lines.At(0).Start
	for i > 0 && src[i-1] != '\n' {
		i--
	}

	return i
}

// headingLineEnd returns the offset just past the heading's final
// newline.
func headingLineEnd(src []byte, h *ast.Heading) int {
	lines := h.Lines()
	if lines.Len() == 0 {
		return 0
	}

	i := lines.At(lines.Len() - 1).Stop
	for i < len(src) && src[i] != '\n' {
		i++
	}
	if i < len(src) {
		i++
	}

	return i
}
