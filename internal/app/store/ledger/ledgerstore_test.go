package ledgerstore

import (
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/testutil"
)

func TestCreateAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{RequestID: "a", Method: "POST", Path: "/api/contact-submissions", StatusCode: 400, StartedAt: base},
		{RequestID: "b", Method: "POST", Path: "/api/media", StatusCode: 500, StartedAt: base.Add(time.Minute)},
		{RequestID: "c", Method: "GET", Path: "/api/graphql", StatusCode: 400, StartedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := store.Create(ctx, e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := store.List(ctx, ListFilter{}, 10, 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if all.TotalDocs != 3 || len(all.Entries) != 3 {
		t.Fatalf("List() total = %d len = %d, want 3", all.TotalDocs, len(all.Entries))
	}
	if all.Entries[0].RequestID != "c" {
		t.Errorf("first entry = %q, want newest (c)", all.Entries[0].RequestID)
	}

	server, err := store.List(ctx, ListFilter{MinStatus: 500}, 10, 1)
	if err != nil {
		t.Fatalf("List(MinStatus) error = %v", err)
	}
	if server.TotalDocs != 1 || server.Entries[0].RequestID != "b" {
		t.Errorf("List(MinStatus=500) = %+v", server.Entries)
	}

	byPath, err := store.List(ctx, ListFilter{Path: "/api/contact"}, 10, 1)
	if err != nil {
		t.Fatalf("List(Path) error = %v", err)
	}
	if byPath.TotalDocs != 1 {
		t.Errorf("List(Path) total = %d, want 1", byPath.TotalDocs)
	}

	got, err := store.GetByRequestID(ctx, "b")
	if err != nil {
		t.Fatalf("GetByRequestID() error = %v", err)
	}
	if got.Path != "/api/media" {
		t.Errorf("GetByRequestID() path = %q", got.Path)
	}
}
