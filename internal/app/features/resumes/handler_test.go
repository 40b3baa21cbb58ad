package resumes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/notify"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeStore struct{ saved []*models.Resume }

func (f *fakeStore) CreateResume(_ context.Context, r *models.Resume) error {
	r.ID = primitive.NewObjectID()
	r.Status = models.IntakeNew
	f.saved = append(f.saved, r)
	return nil
}

type fakeMedia map[primitive.ObjectID]*models.Media

func (f fakeMedia) Get(_ context.Context, id primitive.ObjectID) (*models.Media, error) {
	if m, ok := f[id]; ok {
		return m, nil
	}
	return nil, mongo.ErrNoDocuments
}

type fakeJobs map[primitive.ObjectID]models.Job

func (f fakeJobs) Get(_ context.Context, c *schema.Collection, id primitive.ObjectID, doc models.Document) error {
	if c.Name != schema.Jobs {
		return errors.New("unexpected collection " + c.Name)
	}
	j, ok := f[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	*doc.(*models.Job) = j
	return nil
}

type fakeSettings struct{ s models.SiteSettings }

func (f fakeSettings) Get(context.Context) (*models.SiteSettings, error) { return &f.s, nil }

type recorder struct{ msgs []notify.Message }

func (r *recorder) Notify(_ context.Context, m notify.Message) { r.msgs = append(r.msgs, m) }

type fixture struct {
	h     *Handler
	store *fakeStore
	sent  *recorder
	pdf   primitive.ObjectID
	image primitive.ObjectID
	job   primitive.ObjectID
}

func newFixture() *fixture {
	f := &fixture{
		store: &fakeStore{},
		sent:  &recorder{},
		pdf:   primitive.NewObjectID(),
		image: primitive.NewObjectID(),
		job:   primitive.NewObjectID(),
	}
	media := fakeMedia{
		f.pdf:   {Base: models.Base{ID: f.pdf}, MimeType: "application/pdf", URL: "/files/resumes/cv.pdf"},
		f.image: {Base: models.Base{ID: f.image}, MimeType: "image/png", URL: "/files/media/me.png"},
	}
	jobs := fakeJobs{f.job: {Base: models.Base{ID: f.job}, Title: "Backend Engineer", Status: "active"}}
	settings := models.DefaultSiteSettings()
	settings.Contact.HREmail = "hr@example.com"
	settings.Contact.NotifyEmail = "ops@example.com"

	f.h = NewHandler(f.store, media, jobs, fakeSettings{s: settings}, f.sent,
		apierr.NewWriter(zap.NewNop(), "dev"), zap.NewNop(), "https://example.com")
	return f
}

func (f *fixture) post(t *testing.T, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/resumes", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	f.h.Create(rec, req)
	return rec
}

func details(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body apierr.Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apierr.CodeValidation, body.Error.Code)
	return body.Error.Details
}

func TestCreate_WithJob(t *testing.T) {
	f := newFixture()
	rec := f.post(t, map[string]string{
		"fullName": "Jo Park", "number": "555-010-9999", "email": "JO@example.com",
		"jobId": f.job.Hex(), "resumeUpload": f.pdf.Hex(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, f.store.saved, 1)
	saved := f.store.saved[0]
	assert.Equal(t, "jo@example.com", saved.Email)
	assert.Equal(t, f.job, *saved.JobID)
	assert.Equal(t, f.pdf, saved.ResumeUpload)

	require.Len(t, f.sent.msgs, 1)
	msg := f.sent.msgs[0]
	assert.Equal(t, "hr@example.com", msg.To)
	assert.Equal(t, notify.KindResume, msg.Kind)
	assert.Contains(t, msg.Subject, "Backend Engineer")
	assert.Contains(t, msg.TextBody, "https://example.com/files/resumes/cv.pdf")
}

func TestCreate_GeneralApplication(t *testing.T) {
	f := newFixture()
	rec := f.post(t, map[string]string{"fullName": "Jo Park", "number": "5550109999", "resumeUpload": f.pdf.Hex()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Nil(t, f.store.saved[0].JobID)
	require.Len(t, f.sent.msgs, 1)
	assert.True(t, strings.Contains(f.sent.msgs[0].Subject, "General application"))
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		body  func(f *fixture) map[string]string
		field string
	}{
		{"missing upload", func(f *fixture) map[string]string {
			return map[string]string{"fullName": "Jo Park", "number": "5550109999"}
		}, "resumeUpload"},
		{"malformed upload id", func(f *fixture) map[string]string {
			return map[string]string{"fullName": "Jo Park", "number": "5550109999", "resumeUpload": "abc"}
		}, "resumeUpload"},
		{"unknown upload", func(f *fixture) map[string]string {
			return map[string]string{"fullName": "Jo Park", "number": "5550109999", "resumeUpload": primitive.NewObjectID().Hex()}
		}, "resumeUpload"},
		{"upload is an image", func(f *fixture) map[string]string {
			return map[string]string{"fullName": "Jo Park", "number": "5550109999", "resumeUpload": f.image.Hex()}
		}, "resumeUpload"},
		{"unknown job", func(f *fixture) map[string]string {
			return map[string]string{"fullName": "Jo Park", "number": "5550109999", "resumeUpload": f.pdf.Hex(), "jobId": primitive.NewObjectID().Hex()}
		}, "jobId"},
		{"short name", func(f *fixture) map[string]string {
			return map[string]string{"fullName": "J", "number": "5550109999", "resumeUpload": f.pdf.Hex()}
		}, "fullName"},
		{"bad phone", func(f *fixture) map[string]string {
			return map[string]string{"fullName": "Jo Park", "number": "12", "resumeUpload": f.pdf.Hex()}
		}, "number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			rec := f.post(t, tt.body(f))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, details(t, rec), tt.field)
			assert.Empty(t, f.store.saved)
			assert.Empty(t, f.sent.msgs)
		})
	}
}
