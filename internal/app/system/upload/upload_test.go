package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/imageproc"
	"github.com/dalemusser/stratasite/internal/app/system/objectstore"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type memRecords struct {
	mu        sync.Mutex
	docs      map[primitive.ObjectID]*models.Media
	createErr error
}

func newRecords() *memRecords {
	return &memRecords{docs: map[primitive.ObjectID]*models.Media{}}
}

func (m *memRecords) Create(_ context.Context, media *models.Media) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	models.Stamp(media, time.Now())
	m.docs[media.ID] = media
	return nil
}

func (m *memRecords) Get(_ context.Context, id primitive.ObjectID) (*models.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[id]; ok {
		return d, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *memRecords) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(m.docs, id)
	return nil
}

type stubScanner struct{ err error }

func (s stubScanner) Scan(context.Context, io.Reader) error { return s.err }

func newPipeline(store objectstore.Store, rec Records) *Pipeline {
	p := New(Config{Store: store, Records: rec, Image: imageproc.Options{MaxDimension: 64}})
	p.now = func() time.Time { return time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC) }
	p.suffix = func() string { return "a1b2c3" }
	return p
}

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 10, 20, 30, 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func codeOf(err error) apierr.Code {
	if ae := apierr.From(err); ae != nil {
		return ae.Code
	}
	return ""
}

func TestKey(t *testing.T) {
	now := time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "media/2026/03/"+"1772877600000"+"-team-photo-abc123.jpg", Key("media", "team-photo", ".jpg", now, "abc123"))
}

func TestUploadImage(t *testing.T) {
	store := testutil.NewMemStore()
	rec := newRecords()
	p := newPipeline(store, rec)

	m, err := p.Upload(context.Background(), Input{
		Data:     pngFixture(t, 256, 128),
		Filename: "Team Photo.PNG",
		MimeType: "image/png",
		Folder:   "../Team Photos",
		Alt:      " The team ",
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^team-photos/2026/03/\d+-team-photo-a1b2c3\.png$`), m.S3Key)
	assert.Equal(t, "image/png", m.MimeType)
	assert.Equal(t, 64, m.Width)
	assert.Equal(t, 32, m.Height)
	assert.Equal(t, "The team", m.Alt)
	assert.Equal(t, "Team Photo.PNG", m.OriginalFilename)
	assert.Equal(t, "team-photos", m.Folder)
	assert.Equal(t, "/files/"+m.S3Key, m.URL)

	obj, ok := store.Object(m.S3Key)
	require.True(t, ok)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.EqualValues(t, len(obj.Data), m.FileSize)
	assert.Contains(t, rec.docs, m.ID)
}

func TestUploadImageFallback(t *testing.T) {
	store := testutil.NewMemStore()
	p := newPipeline(store, newRecords())

	data := []byte("\xff\xd8\xffnot really a jpeg")
	m, err := p.Upload(context.Background(), Input{Data: data, Filename: "broken.jpg", MimeType: "image/jpeg"})
	require.NoError(t, err)

	obj, _ := store.Object(m.S3Key)
	assert.Equal(t, data, obj.Data, "original bytes stored")
	assert.Equal(t, "image/jpeg", m.MimeType)
	assert.Zero(t, m.Width)
	assert.True(t, strings.HasPrefix(m.S3Key, "media/"))
}

func TestUploadRejections(t *testing.T) {
	p := newPipeline(testutil.NewMemStore(), newRecords())
	ctx := context.Background()

	_, err := p.Upload(ctx, Input{Data: []byte("MZ"), Filename: "x.exe", MimeType: "application/x-msdownload"})
	assert.Equal(t, apierr.CodeValidation, codeOf(err))

	_, err = p.Upload(ctx, Input{Filename: "empty.pdf", MimeType: "application/pdf"})
	assert.Equal(t, apierr.CodeValidation, codeOf(err))
}

func TestUploadStorageFailure(t *testing.T) {
	store := testutil.NewMemStore()
	store.PutErr = testutil.ErrBackend
	rec := newRecords()
	p := newPipeline(store, rec)

	_, err := p.Upload(context.Background(), Input{Data: []byte("%PDF-1.4"), Filename: "cv.pdf", MimeType: "application/pdf"})
	assert.Equal(t, apierr.CodeUpload, codeOf(err))
	assert.Empty(t, rec.docs, "no record on storage failure")
}

func TestUploadRecordFailureRemovesBlob(t *testing.T) {
	store := testutil.NewMemStore()
	rec := newRecords()
	rec.createErr = errors.New("insert failed")
	p := newPipeline(store, rec)

	_, err := p.Upload(context.Background(), Input{Data: []byte("%PDF-1.4"), Filename: "cv.pdf", MimeType: "application/pdf"})
	require.Error(t, err)
	assert.Zero(t, store.Len())
	assert.Len(t, store.Deleted, 1)
}

func TestUploadScan(t *testing.T) {
	ctx := context.Background()
	in := Input{Data: []byte("%PDF-1.4"), Filename: "cv.pdf", MimeType: "application/pdf"}

	p := newPipeline(testutil.NewMemStore(), newRecords())
	p.scanner = stubScanner{err: ErrInfected}
	_, err := p.Upload(ctx, in)
	assert.Equal(t, apierr.CodeValidation, codeOf(err))

	p.scanner = stubScanner{err: errors.New("connection refused")}
	_, err = p.Upload(ctx, in)
	assert.Equal(t, apierr.CodeUpload, codeOf(err))

	p.scanner = stubScanner{}
	_, err = p.Upload(ctx, in)
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	store := testutil.NewMemStore()
	rec := newRecords()
	p := newPipeline(store, rec)
	ctx := context.Background()

	a, err := p.Upload(ctx, Input{Data: []byte("%PDF-1.4"), Filename: "a.pdf", MimeType: "application/pdf"})
	require.NoError(t, err)
	b, err := p.Upload(ctx, Input{Data: []byte("%PDF-1.4"), Filename: "b.pdf", MimeType: "application/pdf"})
	require.NoError(t, err)

	// blob already gone: record is still removed
	delete(store.Objects, a.S3Key)
	require.NoError(t, p.Delete(ctx, a.ID))
	assert.NotContains(t, rec.docs, a.ID)

	assert.Equal(t, apierr.CodeNotFound, codeOf(p.Delete(ctx, a.ID)))

	n, err := p.DeleteMany(ctx, []primitive.ObjectID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, store.Len())
}

func TestUploadServesStoredContent(t *testing.T) {
	dir := t.TempDir()
	store, err := objectstore.NewLocal(objectstore.Options{LocalPath: dir, LocalURL: "/files"})
	require.NoError(t, err)
	p := newPipeline(store, newRecords())

	data := pngFixture(t, 16, 16)
	m, err := p.Upload(context.Background(), Input{Data: data, Filename: "icon.png", MimeType: "image/png"})
	require.NoError(t, err)

	srv := httptest.NewServer(http.StripPrefix("/files/", http.FileServer(http.Dir(dir))))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/files/" + m.S3Key)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, m.FileSize, len(body))
	assert.Equal(t, m.MimeType, resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasSuffix(m.URL, m.S3Key))
}
