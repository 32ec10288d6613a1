package content

import (
	"regexp"
	"strings"
)

// ![alt](data:image/<type>;base64,<data>) with no newline inside the alt text
var base64ImageRegex = regexp.MustCompile(`!\[[^\]\n]*\]\(data:image/[^;)\s]*;base64,[^)\s]*\)`)

// StripBase64Images removes markdown images whose source is an inline
// base64 data URI. Other images and text are left alone.
func StripBase64Images(text string) string {
	for {
		stripped := base64ImageRegex.ReplaceAllString(text, "")
		if stripped == text {
			return stripped
		}
		text = stripped
	}
}

// Dedent removes the longest leading whitespace shared by all non-blank
// lines. Lines with only whitespace become empty.
func Dedent(text string) string {
	lines := strings.Split(text, "\n")

	var margin string
	marginSet := false
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if !marginSet {
			margin = indent
			marginSet = true
			continue
		}
		margin = commonPrefix(margin, indent)
	}

	if margin == "" {
		return strings.Join(lines, "\n")
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, margin)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
