package integrity

import (
	"bytes"
	"context"
	"testing"

	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	mediastore "github.com/dalemusser/stratasite/internal/app/store/media"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"github.com/dalemusser/stratasite/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestIDs(t *testing.T) {
	id := primitive.NewObjectID()
	single := schema.RefPath{Segments: []string{"image"}, Target: schema.Media}
	list := schema.RefPath{Segments: []string{"gallery"}, Target: schema.Media, List: true}
	icon := schema.RefPath{Segments: []string{"icon"}, Target: schema.Media, Icon: true}

	assert.Equal(t, []primitive.ObjectID{id}, ids(single, id))
	assert.Empty(t, ids(single, id.Hex()), "plain refs must be ObjectIDs")
	assert.Equal(t, []primitive.ObjectID{id, id}, ids(list, []any{id, "x", nil, id}))
	assert.Equal(t, []primitive.ObjectID{id}, ids(icon, id.Hex()))
	assert.Empty(t, ids(icon, "https://cdn.example.com/x.svg"))
}

func coll(t *testing.T, name string) *schema.Collection {
	c, ok := schema.Lookup(name)
	require.True(t, ok)
	return c
}

func TestSweep(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	content := contentstore.New(db)
	media := mediastore.New(db)
	blobs := testutil.NewMemStore()

	owned := &models.Media{Filename: "a.png", S3Key: "media/a.png", URL: "/files/media/a.png", MimeType: "image/png"}
	require.NoError(t, media.Create(ctx, owned))
	require.NoError(t, blobs.Put(ctx, owned.S3Key, bytes.NewReader([]byte("a")), 1, "image/png"))
	require.NoError(t, blobs.Put(ctx, "media/stray.png", bytes.NewReader([]byte("b")), 1, "image/png"))

	gone := primitive.NewObjectID()
	job := &models.Job{Title: "Engineer", Status: "active", Image: &owned.ID}
	require.NoError(t, content.Save(ctx, coll(t, schema.Jobs), job, nil))

	page := &models.Page{Title: "Home", Sections: models.Sections{
		&models.HeroSection{Heading: "Hi", BackgroundImage: &gone},
		&models.JobListSection{Jobs: []primitive.ObjectID{job.ID, gone}},
	}}
	require.NoError(t, content.Save(ctx, coll(t, schema.Pages), page, nil))

	_, err := db.Collection(schema.SiteSettings).InsertOne(ctx, bson.M{
		"_id":    models.SiteSettingsID,
		"footer": bson.M{"socials": bson.A{bson.M{"platform": "x", "icon": gone.Hex()}}},
	})
	require.NoError(t, err)

	s := New(Config{DB: db, Source: content, Media: media, Blobs: blobs, Logger: zap.NewNop()})
	rep, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Dangling)
	assert.Equal(t, 1, rep.Orphans)

	res, err := s.List(ctx, KindDanglingRef, 50, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.TotalDocs)
	paths := map[string]bool{}
	for _, f := range res.Docs {
		paths[f.Collection+" "+f.Path] = true
		assert.Equal(t, gone.Hex(), f.MissingID)
		assert.False(t, f.DetectedAt.IsZero())
	}
	assert.True(t, paths["pages sections[heroSection].background_image"])
	assert.True(t, paths["pages sections[jobListSection].jobs"])
	assert.True(t, paths["site_settings footer.socials.icon"])

	orphans, err := s.List(ctx, KindOrphanBlob, 50, 1)
	require.NoError(t, err)
	require.Len(t, orphans.Docs, 1)
	assert.Equal(t, "media/stray.png", orphans.Docs[0].Key)

	// fixing the page resolves its findings on the next run
	_, err = db.Collection(schema.Pages).UpdateOne(ctx, bson.M{"_id": page.ID}, bson.M{"$set": bson.M{"sections": bson.A{}}})
	require.NoError(t, err)
	rep, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Dangling)
	assert.EqualValues(t, 2, rep.Resolved)
}

type failingSource struct{ Source }

func (failingSource) ExistingIDs(context.Context, string, []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	return nil, assert.AnError
}

func TestScanPropagatesErrors(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	content := contentstore.New(db)
	img := primitive.NewObjectID()
	require.NoError(t, content.Save(ctx, coll(t, schema.Jobs), &models.Job{Title: "x", Status: "active", Image: &img}, nil))

	_, err := New(Config{Source: failingSource{content}}).Scan(ctx)
	assert.ErrorIs(t, err, assert.AnError)
}
