// Package htmlsanitize cleans HTML written by admins (rich text and body
// fields) and strips markup from public form input.
package htmlsanitize

import (
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richText  = newRichTextPolicy()
	plainText = bluemonday.StrictPolicy()

	// tagLike matches anything that looks like an opening or closing tag.
	tagLike    = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	blankLines = regexp.MustCompile(`\n\s*\n`)
)

// newRichTextPolicy extends bluemonday's UGC policy with what the admin
// editor produces: tables, inline formatting marks and data attributes.
func newRichTextPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption")
	p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
	p.AllowAttrs("class").OnElements("table", "tr", "th", "td", "figure", "span")
	p.AllowAttrs("style").OnElements("table", "th", "td")
	p.AllowElements("u", "s", "sub", "sup", "mark", "figure", "figcaption")
	p.AllowDataAttributes()
	p.RequireNoReferrerOnLinks(true)
	return p
}

// Sanitize removes scripts, event handlers and unknown elements from admin
// HTML while keeping formatting, lists, links and tables.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return richText.Sanitize(s)
}

// Strip removes every tag and returns plain text with entities unescaped.
// Used for form fields that are never rendered as HTML.
func Strip(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}

// isMarkup reports whether s contains at least one tag.
func isMarkup(s string) bool {
	return tagLike.MatchString(s)
}

// paragraphs escapes plain text and turns blank-line separated blocks into
// <p> elements, single newlines into <br>.
func paragraphs(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, block := range blankLines.Split(text, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(template.HTMLEscapeString(block), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

// PrepareForDisplay returns body content ready for a template. Content
// with markup is sanitized; anything else is treated as plain text.
func PrepareForDisplay(content string) template.HTML {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if isMarkup(content) {
		return template.HTML(Sanitize(content))
	}
	return template.HTML(paragraphs(content))
}
