package edgar

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// ExtractText strips markup from a filing document and returns plain readable
// text with whitespace collapsed. Non-HTML input passes through with the same
// whitespace normalization.
func ExtractText(raw string) (string, error) {
	if !strings.Contains(raw, "<") {
		return collapseWhitespace(raw), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", err
	}

	// Boilerplate that never carries filing content.
	doc.Find("script, style, head").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}

	return collapseWhitespace(text), nil
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
