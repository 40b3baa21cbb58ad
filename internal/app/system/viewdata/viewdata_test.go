package viewdata

import (
	"net/http/httptest"
	"testing"
	"time"
)

func wireSettings() map[string]any {
	return map[string]any{
		"siteName": "Strata",
		"tagline":  "Engineering, delivered",
		"logo":     map[string]any{"id": "m1", "url": "/files/logo.webp"},
		"nav": []any{
			map[string]any{"label": "Services", "url": "/services", "children": []any{
				map[string]any{"label": "Cloud", "url": "/services/cloud"},
			}},
			"not a link",
		},
		"footer": map[string]any{
			"about":     "About us",
			"copyright": "All rights reserved.",
			"columns": []any{
				map[string]any{"heading": "Company", "links": []any{
					map[string]any{"label": "About", "url": "/about"},
				}},
			},
			"socials": []any{
				map[string]any{"platform": "linkedin", "url": "https://linkedin.com/x", "icon": map[string]any{"url": "/files/li.svg"}},
				map[string]any{"platform": "x", "url": "https://x.com/x", "icon": nil},
			},
		},
		"contact":   map[string]any{"email": "hello@strata.example", "phone": "+1 555 0100"},
		"analytics": map[string]any{"plausibleDomain": "strata.example"},
		"seo":       map[string]any{"metaDescription": "Default description", "ogImage": map[string]any{"url": "/files/og.png"}},
	}
}

func TestNew_FromSettings(t *testing.T) {
	r := httptest.NewRequest("GET", "/services?page=2", nil)
	vm := New(r, wireSettings(), "Services")

	if vm.SiteName != "Strata" || vm.Tagline != "Engineering, delivered" {
		t.Errorf("name/tagline = %q/%q", vm.SiteName, vm.Tagline)
	}
	if vm.LogoURL != "/files/logo.webp" {
		t.Errorf("LogoURL = %q", vm.LogoURL)
	}
	if vm.FaviconURL != "" {
		t.Errorf("FaviconURL = %q, want empty for a missing favicon", vm.FaviconURL)
	}
	if len(vm.Nav) != 1 || len(vm.Nav[0].Children) != 1 || vm.Nav[0].Children[0].URL != "/services/cloud" {
		t.Errorf("Nav = %+v", vm.Nav)
	}
	if len(vm.FooterColumns) != 1 || vm.FooterColumns[0].Links[0].Label != "About" {
		t.Errorf("FooterColumns = %+v", vm.FooterColumns)
	}
	if len(vm.Socials) != 2 {
		t.Fatalf("Socials = %+v", vm.Socials)
	}
	if vm.Socials[0].IconURL != "/files/li.svg" || vm.Socials[1].IconURL != "" {
		t.Errorf("social icons = %q, %q", vm.Socials[0].IconURL, vm.Socials[1].IconURL)
	}
	if vm.ContactEmail != "hello@strata.example" || vm.PlausibleDomain != "strata.example" {
		t.Errorf("contact/analytics = %q/%q", vm.ContactEmail, vm.PlausibleDomain)
	}
	if vm.Description != "Default description" || vm.OGImage != "/files/og.png" {
		t.Errorf("seo = %q/%q", vm.Description, vm.OGImage)
	}
	if vm.CurrentPath != "/services" {
		t.Errorf("CurrentPath = %q, want /services", vm.CurrentPath)
	}
	if vm.Year != time.Now().Year() {
		t.Errorf("Year = %d", vm.Year)
	}
}

func TestNew_NilSettings(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	vm := New(r, nil, "Home")
	if vm.Title != "Home" || vm.SiteName != "" || vm.Nav != nil {
		t.Errorf("unexpected vm %+v", vm)
	}
}

func TestApplySEO(t *testing.T) {
	r := httptest.NewRequest("GET", "/about", nil)
	vm := New(r, wireSettings(), "About")

	vm.ApplySEO(map[string]any{"seo": map[string]any{"metaTitle": "About Strata", "metaDescription": ""}})
	if vm.Title != "About Strata" {
		t.Errorf("Title = %q", vm.Title)
	}
	if vm.Description != "Default description" {
		t.Errorf("empty metaDescription should keep the default, got %q", vm.Description)
	}

	vm.ApplySEO(map[string]any{"title": "no seo block"})
	if vm.Title != "About Strata" {
		t.Errorf("document without seo changed Title to %q", vm.Title)
	}
}

func TestPageTitle(t *testing.T) {
	tests := []struct {
		vm   BaseVM
		want string
	}{
		{BaseVM{SiteName: "Strata", Title: "Careers"}, "Careers | Strata"},
		{BaseVM{SiteName: "Strata"}, "Strata"},
		{BaseVM{Title: "Careers"}, "Careers"},
	}
	for _, tt := range tests {
		if got := tt.vm.PageTitle(); got != tt.want {
			t.Errorf("PageTitle() = %q, want %q", got, tt.want)
		}
	}
}
