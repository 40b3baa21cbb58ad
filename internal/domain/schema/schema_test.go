package schema

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dalemusser/stratasite/internal/domain/models"
)

func TestBlocksMatchEnumeration(t *testing.T) {
	if len(Blocks) != len(models.AllBlockTypes) {
		t.Fatalf("len(Blocks) = %d, want %d", len(Blocks), len(models.AllBlockTypes))
	}
	for i, bt := range models.AllBlockTypes {
		if Blocks[i].Type != bt {
			t.Errorf("Blocks[%d].Type = %q, want %q", i, Blocks[i].Type, bt)
		}
	}
}

// bsonKeys collects the top-level bson keys of a struct, following inline embeds.
func bsonKeys(t reflect.Type, out map[string]reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, opts, _ := strings.Cut(f.Tag.Get("bson"), ",")
		if f.Anonymous && strings.Contains(opts, "inline") {
			bsonKeys(f.Type, out)
			continue
		}
		if name == "" || name == "-" {
			continue
		}
		out[name] = f.Type
	}
}

func TestBlockFieldsExistOnVariants(t *testing.T) {
	for _, b := range Blocks {
		sec := models.NewSection(b.Type)
		keys := map[string]reflect.Type{}
		bsonKeys(reflect.TypeOf(sec).Elem(), keys)
		for _, f := range b.Fields {
			if _, ok := keys[f.Key]; !ok {
				t.Errorf("%s: field %q (key %q) not on %T", b.Type, f.Name, f.Key, sec)
			}
		}
	}
}

func TestCollectionFieldsExistOnModels(t *testing.T) {
	docs := map[string]any{
		Pages:              models.Page{},
		Media:              models.Media{},
		Jobs:               models.Job{},
		Projects:           models.Project{},
		Resources:          models.Resource{},
		Services:           models.Service{},
		Partners:           models.Partner{},
		Testimonials:       models.Testimonial{},
		Awards:             models.Award{},
		Solutions:          models.Solution{},
		Stats:              models.Stat{},
		Timeline:           models.TimelineEntry{},
		PopularSearches:    models.PopularSearch{},
		ContactSubmissions: models.ContactSubmission{},
		Resumes:            models.Resume{},
		Newsletter:         models.NewsletterSubscriber{},
	}
	for _, c := range Collections {
		doc, ok := docs[c.Name]
		if !ok {
			t.Errorf("no model registered in test for %q", c.Name)
			continue
		}
		keys := map[string]reflect.Type{}
		bsonKeys(reflect.TypeOf(doc), keys)
		for _, f := range c.Fields {
			if _, ok := keys[f.Key]; !ok {
				t.Errorf("%s: field %q (key %q) not on %T", c.Name, f.Name, f.Key, doc)
			}
		}
		for _, name := range append(c.Admin.List, c.Admin.Filter...) {
			if _, ok := c.Field(name); !ok {
				t.Errorf("%s: admin view names unknown field %q", c.Name, name)
			}
		}
		sortField := strings.TrimPrefix(c.DefaultSort, "-")
		if _, ok := c.Field(sortField); !ok {
			t.Errorf("%s: default sort %q is not a field", c.Name, c.DefaultSort)
		}
	}
}

func TestPageRefPaths(t *testing.T) {
	pages, ok := Lookup(Pages)
	if !ok {
		t.Fatal("pages not registered")
	}
	got := map[string]RefPath{}
	for _, p := range pages.RefPaths() {
		got[p.String()] = p
	}

	want := map[string]string{
		"seo.og_image":                                 Media,
		"sections[heroSection].background_image":       Media,
		"sections[jobListSection].jobs":                Jobs,
		"sections[resourceGallerySection].resources":   Resources,
		"sections[serviceGridSection].services":        Services,
		"sections[solutionGridSection].solutions":      Solutions,
		"sections[projectShowcaseSection].projects":    Projects,
		"sections[teamSection].members.photo":          Media,
		"sections[featureListSection].features.icon":   Media,
	}
	for path, target := range want {
		p, ok := got[path]
		if !ok {
			t.Errorf("missing ref path %q", path)
			continue
		}
		if p.Target != target {
			t.Errorf("%s target = %q, want %q", path, p.Target, target)
		}
	}
	if !got["sections[jobListSection].jobs"].List {
		t.Error("jobs path should be a list reference")
	}
}

func TestSettingsIconPath(t *testing.T) {
	var found bool
	for _, p := range Settings.RefPaths() {
		if p.String() == "footer.socials.icon" {
			found = true
			if !p.Icon || p.Target != Media {
				t.Errorf("icon path = %+v", p)
			}
		}
	}
	if !found {
		t.Error("footer.socials.icon not declared")
	}
}
