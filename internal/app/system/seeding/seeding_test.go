package seeding

import (
	"testing"

	pagestore "github.com/dalemusser/stratasite/internal/app/store/pages"
	settingsstore "github.com/dalemusser/stratasite/internal/app/store/settings"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
	"go.uber.org/zap"
)

func TestDefaultPages(t *testing.T) {
	want := map[string]bool{
		models.PageSlugHome:    true,
		models.PageSlugAbout:   true,
		models.PageSlugContact: true,
		models.PageSlugCareers: true,
	}
	pages := DefaultPages()
	if len(pages) != len(want) {
		t.Fatalf("len(DefaultPages()) = %d, want %d", len(pages), len(want))
	}
	for _, p := range pages {
		if !want[p.Slug] {
			t.Errorf("unexpected seed page %q", p.Slug)
		}
		if p.Status != models.StatusPublished {
			t.Errorf("page %q status = %v, want published", p.Slug, p.Status)
		}
		if len(p.Sections) == 0 {
			t.Errorf("page %q has no sections", p.Slug)
		}
	}
}

func TestSeedAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := SeedAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("SeedAll() error = %v", err)
	}

	pages := pagestore.New(db)
	home, err := pages.GetBySlug(ctx, models.PageSlugHome)
	if err != nil {
		t.Fatalf("GetBySlug(home) error = %v", err)
	}
	if _, ok := home.Sections[0].(*models.HeroSection); !ok {
		t.Errorf("home Sections[0] = %T, want *models.HeroSection", home.Sections[0])
	}

	// Re-seeding keeps edits.
	if _, err := db.Collection("pages").UpdateOne(ctx,
		map[string]any{"slug": models.PageSlugAbout},
		map[string]any{"$set": map[string]any{"title": "Who we are"}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := SeedAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("second SeedAll() error = %v", err)
	}
	about, err := pages.GetBySlug(ctx, models.PageSlugAbout)
	if err != nil {
		t.Fatalf("GetBySlug(about) error = %v", err)
	}
	if about.Title != "Who we are" {
		t.Errorf("Title = %q, want edited title kept", about.Title)
	}

	all, err := pages.List(ctx, false)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 4 {
		t.Errorf("len(List()) = %d, want 4", len(all))
	}

	settings, err := settingsstore.New(db).Get(ctx)
	if err != nil {
		t.Fatalf("settings Get() error = %v", err)
	}
	if settings.SiteName == "" {
		t.Error("seeded settings should have a site name")
	}
}
