package mediastore

import (
	"errors"
	"testing"

	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestCreateGetDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := &models.Media{
		Filename: "logo.png",
		MimeType: "image/png",
		FileSize: 2048,
		URL:      "/files/media/2026/10/logo.png",
		S3Key:    "media/2026/10/logo.png",
		Width:    120,
		Height:   40,
	}
	if err := store.Create(ctx, m); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if m.ID.IsZero() || m.CreatedAt.IsZero() {
		t.Fatal("Create() should stamp id and createdAt")
	}

	got, err := store.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.S3Key != m.S3Key || got.Width != 120 {
		t.Errorf("Get() = %+v, want key %q width 120", got, m.S3Key)
	}

	if err := store.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, m.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("second Delete() error = %v, want ErrNoDocuments", err)
	}
}

func TestDuplicateKeyRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Create(ctx, &models.Media{S3Key: "media/a.pdf"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err := store.Create(ctx, &models.Media{S3Key: "media/a.pdf"})
	if !mongo.IsDuplicateKeyError(err) {
		t.Errorf("Create() with same key error = %v, want duplicate key", err)
	}
}

func TestGetManyAndKeys(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := &models.Media{S3Key: "media/a.jpg"}
	b := &models.Media{S3Key: "media/b.jpg"}
	for _, m := range []*models.Media{a, b} {
		if err := store.Create(ctx, m); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := store.GetMany(ctx, []primitive.ObjectID{a.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("GetMany() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("GetMany() = %v, want only %s", got, a.ID.Hex())
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if !keys["media/a.jpg"] || !keys["media/b.jpg"] || len(keys) != 2 {
		t.Errorf("Keys() = %v", keys)
	}
}
