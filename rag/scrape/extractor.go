package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// maxContentChars bounds the normalized content of a single page.
	maxContentChars = 5000

	// fallbackTitle is used when a page carries no <title> element.
	fallbackTitle = "No Title"
)

// Page is the extractor output for one fetched URL.
type Page struct {
	Title   string
	Content string
}

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	disallowed     = regexp.MustCompile(`[^A-Za-z0-9\s.,!?;:()\-]`)
)

// Extract parses raw HTML, drops script/style/noscript subtrees, and returns
// the page title plus the normalized visible text.
func Extract(rawHTML string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Page{}, err
	}

	doc.Find("script, style, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = fallbackTitle
	}

	content := CleanText(doc.Find("body").Text())
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	return Page{Title: title, Content: content}, nil
}

// CleanText collapses whitespace runs to single spaces, strips characters
// outside the allowed set (alphanumerics, whitespace and basic punctuation),
// and trims the result. Collapsing must happen before any truncation so the
// character budget applies to display-length text. Idempotent.
func CleanText(text string) string {
	text = whitespaceRuns.ReplaceAllString(text, " ")
	text = disallowed.ReplaceAllString(text, "")
	// Removing a character between two spaces leaves a double space, so
	// collapse once more to keep the function idempotent.
	text = whitespaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
