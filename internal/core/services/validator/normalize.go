package validator

import (
	"strings"
	"unicode/utf8"
)

// Normalize canonicalizes program output before comparison:
// CRLF and lone CR become LF, every run of spaces and tabs becomes one
// space, each line is trimmed and finally the whole text is trimmed.
// Blank lines inside the text are kept, case and punctuation are untouched.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = collapseHorizontal(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// collapseHorizontal trims the line and squeezes inner space/tab runs.
// Bytes that are not valid UTF-8 are copied unchanged.
func collapseHorizontal(line string) string {
	var b strings.Builder
	b.Grow(len(line))
	pending := false
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		if r == ' ' || r == '\t' {
			pending = b.Len() > 0
			i += size
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteString(line[i : i+size])
		i += size
	}
	return strings.TrimSpace(b.String())
}
