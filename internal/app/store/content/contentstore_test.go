package contentstore

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"github.com/dalemusser/stratasite/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func collection(t *testing.T, name string) *schema.Collection {
	t.Helper()
	c, ok := schema.Lookup(name)
	if !ok {
		t.Fatalf("collection %q not registered", name)
	}
	return c
}

func fixedClock(s *Store) time.Time {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return now
}

func TestSave_CreateStampsAndDerivesSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	now := fixedClock(s)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	projects := collection(t, schema.Projects)

	p := &models.Project{Title: "Data Platform Rebuild"}
	p.Status = models.StatusPublished
	if err := s.Save(ctx, projects, p, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if p.ID.IsZero() {
		t.Fatal("Save() did not assign an id")
	}
	if p.Slug != "data-platform-rebuild" {
		t.Errorf("Slug = %q, want data-platform-rebuild", p.Slug)
	}
	if p.PublishedAt == nil || !p.PublishedAt.Equal(now) {
		t.Errorf("PublishedAt = %v, want %v", p.PublishedAt, now)
	}

	var stored models.Project
	if err := s.Get(ctx, projects, p.ID, &stored); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Title != p.Title || !stored.CreatedAt.Equal(now) {
		t.Errorf("stored = %+v", stored)
	}
}

func TestSave_CreateIgnoresClientSlugForAutoTypes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := &models.Project{Title: "Data Platform Rebuild", Slug: "my-own-slug"}
	if err := s.Save(ctx, collection(t, schema.Projects), p, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if p.Slug != "data-platform-rebuild" {
		t.Errorf("project slug = %q, want data-platform-rebuild", p.Slug)
	}

	svc := &models.Service{Title: "Cloud", Slug: "Cloud Ops"}
	if err := s.Save(ctx, collection(t, schema.Services), svc, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if svc.Slug != "cloud-ops" {
		t.Errorf("service slug = %q, want the client slug normalized", svc.Slug)
	}
}

func TestSave_DuplicateSlugsGetSuffix(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	projects := collection(t, schema.Projects)

	var slugs []string
	for i := 0; i < 3; i++ {
		p := &models.Project{Title: "Launch"}
		if err := s.Save(ctx, projects, p, nil); err != nil {
			t.Fatalf("Save() #%d error = %v", i, err)
		}
		slugs = append(slugs, p.Slug)
	}
	want := []string{"launch", "launch-2", "launch-3"}
	for i := range want {
		if slugs[i] != want[i] {
			t.Errorf("slug[%d] = %q, want %q", i, slugs[i], want[i])
		}
	}
}

func TestSave_UpdateKeepsIdentityAndRules(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	projects := collection(t, schema.Projects)

	prev := &models.Project{Title: "Old Name"}
	prev.Status = models.StatusPublished
	if err := s.Save(ctx, projects, prev, nil); err != nil {
		t.Fatalf("create error = %v", err)
	}

	next := &models.Project{Title: "New Name"}
	next.Status = models.StatusPublished
	next.ID = prev.ID
	if err := s.Save(ctx, projects, next, prev); err != nil {
		t.Fatalf("update error = %v", err)
	}
	if next.Slug != "new-name" {
		t.Errorf("auto slug after rename = %q, want new-name", next.Slug)
	}
	if !next.CreatedAt.Equal(prev.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", prev.CreatedAt, next.CreatedAt)
	}
	if next.PublishedAt == nil || !next.PublishedAt.Equal(*prev.PublishedAt) {
		t.Errorf("PublishedAt = %v, want carried %v", next.PublishedAt, prev.PublishedAt)
	}

	back := &models.Project{Title: "New Name"}
	back.ID = prev.ID
	back.Status = models.StatusDraft
	if err := s.Save(ctx, projects, back, next); !errors.Is(err, models.ErrUnpublish) {
		t.Errorf("unpublish error = %v, want ErrUnpublish", err)
	}
}

func TestSave_ManualSlugKeptOnRename(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	services := collection(t, schema.Services)

	prev := &models.Service{Title: "Cloud", Slug: "Cloud Ops"}
	if err := s.Save(ctx, services, prev, nil); err != nil {
		t.Fatalf("create error = %v", err)
	}
	if prev.Slug != "cloud-ops" {
		t.Errorf("normalized slug = %q, want cloud-ops", prev.Slug)
	}

	next := &models.Service{Title: "Cloud Engineering", Slug: prev.Slug}
	next.ID = prev.ID
	if err := s.Save(ctx, services, next, prev); err != nil {
		t.Fatalf("update error = %v", err)
	}
	if next.Slug != "cloud-ops" {
		t.Errorf("slug after rename = %q, want cloud-ops", next.Slug)
	}
}

func TestSave_UpdateMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	jobs := collection(t, schema.Jobs)

	prev := &models.Job{Title: "Engineer", Status: models.JobActive}
	prev.ID = primitive.NewObjectID()
	next := &models.Job{Title: "Engineer", Status: models.JobClosed}
	if err := s.Save(ctx, jobs, next, prev); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("Save() error = %v, want ErrNoDocuments", err)
	}
}

func TestFindCountAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	jobs := collection(t, schema.Jobs)

	var ids []primitive.ObjectID
	for i, st := range []string{models.JobActive, models.JobActive, models.JobClosed} {
		j := &models.Job{Title: "Role", Status: st, Order: i}
		if err := s.Save(ctx, jobs, j, nil); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		ids = append(ids, j.ID)
	}

	n, err := s.Count(ctx, jobs, bson.M{"status": models.JobActive})
	if err != nil || n != 2 {
		t.Errorf("Count(active) = %d, %v; want 2", n, err)
	}

	docs, err := s.Find(ctx, jobs, bson.M{}, options.Find().SetSort(bson.D{{Key: "order", Value: -1}}))
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if len(docs) != 3 || docs[0]["status"] != models.JobClosed {
		t.Errorf("Find() = %v", docs)
	}

	raw, err := s.GetRaw(ctx, jobs, bson.M{"_id": ids[0]})
	if err != nil || raw["title"] != "Role" {
		t.Errorf("GetRaw() = %v, %v", raw, err)
	}

	if err := s.Delete(ctx, jobs, ids[0]); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, jobs, ids[0]); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("second Delete() error = %v, want ErrNoDocuments", err)
	}
	deleted, err := s.DeleteMany(ctx, jobs, ids[1:])
	if err != nil || deleted != 2 {
		t.Errorf("DeleteMany() = %d, %v; want 2", deleted, err)
	}
	if deleted, _ := s.DeleteMany(ctx, jobs, nil); deleted != 0 {
		t.Errorf("DeleteMany(nil) = %d, want 0", deleted)
	}
}

func TestClone(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	resources := collection(t, schema.Resources)

	orig := &models.Resource{Title: "Buyer Guide", Excerpt: "How to choose"}
	orig.Status = models.StatusPublished
	if err := s.Save(ctx, resources, orig, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	doc, err := s.Clone(ctx, resources, orig.ID)
	if err != nil {
		t.Fatalf("Clone() error = %v", err)
	}
	cp := doc.(*models.Resource)
	if cp.ID == orig.ID || cp.ID.IsZero() {
		t.Errorf("clone id = %v, want a new id", cp.ID)
	}
	if cp.Slug != "buyer-guide-copy" {
		t.Errorf("clone slug = %q, want buyer-guide-copy", cp.Slug)
	}
	if cp.Status != models.StatusDraft || cp.PublishedAt != nil {
		t.Errorf("clone publishing = %+v, want draft", cp.Publishing)
	}
	if cp.Excerpt != orig.Excerpt {
		t.Errorf("clone excerpt = %q", cp.Excerpt)
	}

	if _, err := s.Clone(ctx, resources, primitive.NewObjectID()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("Clone(missing) error = %v, want ErrNoDocuments", err)
	}
}

func TestExistingAndFindByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	services := collection(t, schema.Services)

	a := &models.Service{Title: "Advisory", Active: true}
	if err := s.Save(ctx, services, a, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	missing := primitive.NewObjectID()

	exists, err := s.ExistingIDs(ctx, schema.Services, []primitive.ObjectID{a.ID, missing})
	if err != nil {
		t.Fatalf("ExistingIDs() error = %v", err)
	}
	if !exists[a.ID] || exists[missing] {
		t.Errorf("ExistingIDs() = %v", exists)
	}

	docs, err := s.FindByIDs(ctx, schema.Services, []primitive.ObjectID{a.ID, missing})
	if err != nil {
		t.Fatalf("FindByIDs() error = %v", err)
	}
	if len(docs) != 1 || docs[a.ID]["title"] != "Advisory" {
		t.Errorf("FindByIDs() = %v", docs)
	}

	empty, err := s.FindByIDs(ctx, schema.Services, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("FindByIDs(nil) = %v, %v", empty, err)
	}
}

func TestUniqueSlug_BlankBase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	got, err := s.UniqueSlug(ctx, collection(t, schema.Projects), "", primitive.NilObjectID)
	if err != nil || got != "untitled" {
		t.Errorf("UniqueSlug(\"\") = %q, %v; want untitled", got, err)
	}
}
