package content

import (
	"testing"

	"github.com/muratoffalex/linkreader/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToMarkdown(t *testing.T) {
	html := `<html><head><style>body{color:red}</style><script>alert(1)</script></head>
<body><h1>Title</h1><p>Hello <a href="https://example.com">world</a></p>
<img src="data:image/png;base64,AAAA"><noscript>enable js</noscript></body></html>`

	markdown, err := HTMLToMarkdown(html)

	require.NoError(t, err)
	assert.Contains(t, markdown, "# Title")
	assert.Contains(t, markdown, "Hello world")
	assert.NotContains(t, markdown, "https://example.com")
	assert.NotContains(t, markdown, "alert")
	assert.NotContains(t, markdown, "color:red")
	assert.NotContains(t, markdown, "base64")
	assert.NotContains(t, markdown, "enable js")
}

func TestIsHTML(t *testing.T) {
	assert.True(t, IsHTML("  <!DOCTYPE html><html></html>"))
	assert.True(t, IsHTML("<html lang=\"en\">"))
	assert.True(t, IsHTML("<div><body class=\"x\">text</body></div>"))
	assert.False(t, IsHTML("# Markdown title"))
	assert.False(t, IsHTML("plain text"))
	assert.False(t, IsHTML("Lesson 1: put content in the <body> element."))
}

func TestIsHTMLContentType(t *testing.T) {
	assert.True(t, IsHTMLContentType("text/html; charset=utf-8"))
	assert.True(t, IsHTMLContentType("application/xhtml+xml"))
	assert.False(t, IsHTMLContentType("application/pdf"))
}

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer(logger.NewTestLogger())

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain text trimmed",
			input:    "\n\n  hello world  \n",
			expected: "hello world",
		},
		{
			name:     "indented text",
			input:    "\n    first\n      second\n",
			expected: "first\n  second",
		},
		{
			name:     "markdown with base64 image",
			input:    "# Post\n\n![img](data:image/jpeg;base64,/9j/4AAQ)\n\nbody",
			expected: "# Post\n\n\n\nbody",
		},
		{
			name:     "only an image",
			input:    "![img](data:image/png;base64,iVBOR)",
			expected: "",
		},
		{
			name:     "plain text mentioning html tags",
			input:    "Title: HTML basics\n\nLesson 1: put content in the <body> element.\nLesson 2: *emphasis*\nLesson 3: done",
			expected: "Title: HTML basics\n\nLesson 1: put content in the <body> element.\nLesson 2: *emphasis*\nLesson 3: done",
		},
		{
			name:     "whitespace",
			input:    " \n\t ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := n.Normalize(tt.input)
			assert.Equal(t, tt.expected, result)
			assert.Equal(t, result, n.Normalize(result))
		})
	}

	t.Run("html document", func(t *testing.T) {
		result := n.Normalize("<!DOCTYPE html><html><body><p>Hello <b>there</b></p><script>x()</script></body></html>")

		assert.Equal(t, "Hello **there**", result)
		assert.Equal(t, result, n.Normalize(result))
	})
}
