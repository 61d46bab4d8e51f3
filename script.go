package shaderscript

import "strings"

// Script is the raw test script text plus a forward-only read cursor. The
// text is never mutated; sections and the command block are spans into it.
type Script struct {
	text string
	pos  int
}

// NewScript wraps script text for scanning. A script whose last line lacks
// a trailing newline is still valid.
func NewScript(text string) *Script {
	return &Script{text: text}
}

// Text returns the full script text.
func (s *Script) Text() string { return s.text }

// Len returns the script length in bytes.
func (s *Script) Len() int { return len(s.text) }

// nextLine returns the next line without its newline, the byte offset of
// the line start, and whether a line was available. The cursor never
// rewinds.
func (s *Script) nextLine() (line string, start int, ok bool) {
	if s.pos >= len(s.text) {
		return "", s.pos, false
	}
	start = s.pos
	if i := strings.IndexByte(s.text[s.pos:], '\n'); i >= 0 {
		line = s.text[s.pos : s.pos+i]
		s.pos += i + 1
	} else {
		line = s.text[s.pos:]
		s.pos = len(s.text)
	}
	return line, start, true
}

// seek moves the cursor to an absolute byte offset. Used to start command
// scanning at the recorded command-block offset.
func (s *Script) seek(offset int) {
	if offset > len(s.text) {
		offset = len(s.text)
	}
	s.pos = offset
}

// SectionTag names one parser state of the section state machine.
type SectionTag int

const (
	SectionNone SectionTag = iota
	SectionRequirements
	SectionVertex
	SectionGeometry
	SectionFragment
	SectionTest
)

// String returns the section header without brackets, or a placeholder for
// the implicit states.
func (t SectionTag) String() string {
	switch t {
	case SectionNone:
		return "none"
	case SectionRequirements:
		return "require"
	case SectionVertex:
		return "vertex shader"
	case SectionGeometry:
		return "geometry shader"
	case SectionFragment:
		return "fragment shader"
	case SectionTest:
		return "test"
	default:
		return "unknown"
	}
}

// stageKind maps a shader section to its pipeline stage. Only valid for
// the three shader tags.
func (t SectionTag) stageKind() StageKind {
	switch t {
	case SectionVertex:
		return StageVertex
	case SectionGeometry:
		return StageGeometry
	default:
		return StageFragment
	}
}

// isShader reports whether the tag is one of the shader stage sections.
func (t SectionTag) isShader() bool {
	return t == SectionVertex || t == SectionGeometry || t == SectionFragment
}

// Section is one delimited region of the script: a tag plus the byte span
// it owns. Spans are views into the script text, computed eagerly at each
// transition.
type Section struct {
	Tag        SectionTag
	Start, End int
}
