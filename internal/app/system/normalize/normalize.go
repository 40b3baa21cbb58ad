// Package normalize canonicalizes user supplied strings (emails, names,
// slugs, upload names) before storage or comparison.
package normalize

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Email trims and lower-cases an address. Duplicate checks for newsletter
// subscribers rely on this form.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a person or company name and collapses inner whitespace.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Phone trims a phone number and collapses internal runs of whitespace.
func Phone(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ASCII strips diacritics ("Café" -> "Cafe") and drops any remaining non-ASCII runes.
func ASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, out)
}

// Slug derives a URL slug: lower-case ASCII letters and digits joined by
// single hyphens. Slug(Slug(s)) == Slug(s).
func Slug(s string) string {
	s = strings.ToLower(ASCII(s))
	var b strings.Builder
	pendingHyphen := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}
	return b.String()
}

// Filename reduces an uploaded file name to a safe storage-key segment. The
// extension is returned separately, lower-cased and including the dot.
func Filename(name string) (base, ext string) {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	ext = strings.ToLower(path.Ext(name))
	if len(ext) > 10 || Slug(ext) == "" {
		ext = ""
	}
	base = Slug(strings.TrimSuffix(name, path.Ext(name)))
	if len(base) > 80 {
		base = strings.TrimRight(base[:80], "-")
	}
	if base == "" {
		base = "file"
	}
	return base, ext
}

// Folder cleans an upload folder name. Each path segment is slugged and empty
// segments are dropped, so "../Team Photos//2024" becomes "team-photos/2024".
func Folder(s string) string {
	var parts []string
	for _, seg := range strings.Split(strings.ReplaceAll(s, "\\", "/"), "/") {
		if seg = Slug(seg); seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "/")
}
