package scrape

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html>
<head>
	<title>Board of Trustees</title>
	<style>body { color: red; }</style>
	<script>var secret = "leaked";</script>
</head>
<body>
	<h1>Board of Trustees</h1>
	<p>The board	meets   monthly.</p>
	<script>console.log("inline");</script>
	<noscript>Enable JavaScript!</noscript>
</body>
</html>`

var allowedChars = regexp.MustCompile(`^[A-Za-z0-9\s.,!?;:()\-]*$`)

func TestExtract_StripsScriptAndStyle(t *testing.T) {
	page, err := Extract(samplePage)
	require.NoError(t, err)

	assert.Equal(t, "Board of Trustees", page.Title)
	assert.Contains(t, page.Content, "The board meets monthly.")
	assert.NotContains(t, page.Content, "leaked")
	assert.NotContains(t, page.Content, "console.log")
	assert.NotContains(t, page.Content, "color: red")
	assert.NotContains(t, page.Content, "Enable JavaScript")
}

func TestExtract_TitleFallback(t *testing.T) {
	page, err := Extract(`<html><body><p>Hello there</p></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "No Title", page.Title)
	assert.Equal(t, "Hello there", page.Content)
}

func TestExtract_ContentCharsetRestricted(t *testing.T) {
	page, err := Extract(`<html><body><p>Caf&eacute; menu &mdash; 100% “fresh” drinks &amp; snacks</p></body></html>`)
	require.NoError(t, err)

	assert.True(t, allowedChars.MatchString(page.Content),
		"content contains characters outside the allowed set: %q", page.Content)
}

func TestExtract_TruncatesLongContent(t *testing.T) {
	body := strings.Repeat("word ", 2000) // 10000 chars before normalization
	page, err := Extract("<html><body><p>" + body + "</p></body></html>")
	require.NoError(t, err)

	assert.LessOrEqual(t, len(page.Content), 5000)
	assert.True(t, strings.HasPrefix(page.Content, "word word"))
}

func TestExtract_EmptyBody(t *testing.T) {
	page, err := Extract(`<html><head><title>Empty</title></head><body></body></html>`)
	require.NoError(t, err)

	assert.Equal(t, "Empty", page.Title)
	assert.Empty(t, page.Content)
}

func TestCleanText_CollapsesWhitespace(t *testing.T) {
	got := CleanText("a\t\tb\n\nc   d")
	assert.Equal(t, "a b c d", got)
}

func TestCleanText_RemovesDisallowed(t *testing.T) {
	got := CleanText("hello @world# (really) - yes_no")
	assert.Equal(t, "hello world (really) - yesno", got)
	assert.True(t, allowedChars.MatchString(got))
}

func TestCleanText_Idempotent(t *testing.T) {
	inputs := []string{
		"plain text",
		"a € b",
		"  spaced   out\ttext  ",
		"symbols *** everywhere &&&",
	}
	for _, in := range inputs {
		once := CleanText(in)
		twice := CleanText(once)
		assert.Equal(t, once, twice, "CleanText not idempotent for %q", in)
	}
}
