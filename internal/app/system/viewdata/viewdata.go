// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"
	"time"

	"github.com/gorilla/csrf"
)

// Link is one navigation entry.
type Link struct {
	Label    string
	URL      string
	Children []Link
}

// FooterColumn is a titled group of footer links.
type FooterColumn struct {
	Heading string
	Links   []Link
}

// Social is a footer social link. IconURL is empty when no icon is set or the
// referenced media no longer exists.
type Social struct {
	Platform string
	URL      string
	IconURL  string
}

// Flash is a one-shot message shown after a form post.
type Flash struct {
	Kind    string // success, error
	Message string
}

// BaseVM contains the layout fields shared by every site page.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.New(r, settings, "Page Title"),
//	}
type BaseVM struct {
	// Site settings (wire form, references expanded)
	SiteName        string
	Tagline         string
	LogoURL         string
	FaviconURL      string
	Nav             []Link
	FooterAbout     string
	FooterColumns   []FooterColumn
	Socials         []Social
	Copyright       string
	ContactEmail    string
	ContactPhone    string
	ContactAddress  string
	GoogleTagID     string
	PlausibleDomain string

	// Page context
	Title       string
	Description string
	OGImage     string
	CurrentPath string
	Year        int

	// Security
	CSRFToken string // CSRF token for forms (use in hidden input field)

	Flash *Flash
}

// New creates a BaseVM from the expanded wire form of the site settings.
// settings may be nil, in which case only the page context is filled.
func New(r *http.Request, settings map[string]any, title string) BaseVM {
	vm := BaseVM{
		Title:       title,
		CurrentPath: r.URL.Path,
		Year:        time.Now().Year(),
		CSRFToken:   csrf.Token(r),
	}
	if settings == nil {
		return vm
	}

	vm.SiteName = str(settings, "siteName")
	vm.Tagline = str(settings, "tagline")
	vm.LogoURL = mediaURL(settings["logo"])
	vm.FaviconURL = mediaURL(settings["favicon"])
	vm.Nav = links(settings["nav"])

	if footer, ok := settings["footer"].(map[string]any); ok {
		vm.FooterAbout = str(footer, "about")
		vm.Copyright = str(footer, "copyright")
		for _, c := range maps(footer["columns"]) {
			vm.FooterColumns = append(vm.FooterColumns, FooterColumn{
				Heading: str(c, "heading"),
				Links:   links(c["links"]),
			})
		}
		for _, s := range maps(footer["socials"]) {
			social := Social{Platform: str(s, "platform"), URL: str(s, "url")}
			if icon, ok := s["icon"].(map[string]any); ok {
				social.IconURL = str(icon, "url")
			}
			vm.Socials = append(vm.Socials, social)
		}
	}
	if contact, ok := settings["contact"].(map[string]any); ok {
		vm.ContactEmail = str(contact, "email")
		vm.ContactPhone = str(contact, "phone")
		vm.ContactAddress = str(contact, "address")
	}
	if a, ok := settings["analytics"].(map[string]any); ok {
		vm.GoogleTagID = str(a, "googleTagId")
		vm.PlausibleDomain = str(a, "plausibleDomain")
	}
	if seo, ok := settings["seo"].(map[string]any); ok {
		vm.Description = str(seo, "metaDescription")
		vm.OGImage = mediaURL(seo["ogImage"])
	}
	return vm
}

// ApplySEO overrides the page description and share image with a document's
// own seo block when it sets them.
func (vm *BaseVM) ApplySEO(doc map[string]any) {
	seo, ok := doc["seo"].(map[string]any)
	if !ok {
		return
	}
	if t := str(seo, "metaTitle"); t != "" {
		vm.Title = t
	}
	if d := str(seo, "metaDescription"); d != "" {
		vm.Description = d
	}
	if u := mediaURL(seo["ogImage"]); u != "" {
		vm.OGImage = u
	}
}

// PageTitle is the <title> text.
func (vm BaseVM) PageTitle() string {
	switch {
	case vm.Title == "":
		return vm.SiteName
	case vm.SiteName == "":
		return vm.Title
	}
	return vm.Title + " | " + vm.SiteName
}

// MediaURL returns the url of an expanded media reference, or "".
func MediaURL(v any) string { return mediaURL(v) }

func mediaURL(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	return str(m, "url")
}

func links(v any) []Link {
	var out []Link
	for _, m := range maps(v) {
		out = append(out, Link{
			Label:    str(m, "label"),
			URL:      str(m, "url"),
			Children: links(m["children"]),
		})
	}
	return out
}

func maps(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
