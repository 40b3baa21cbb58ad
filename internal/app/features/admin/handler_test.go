package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	"github.com/dalemusser/stratasite/internal/app/system/adminauth"
	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/contentquery"
	"github.com/dalemusser/stratasite/internal/app/system/refexpand"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeMedia struct {
	deleted []primitive.ObjectID
	bulk    []string
}

func (f *fakeMedia) DeleteOne(_ context.Context, id primitive.ObjectID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeMedia) DeleteIDs(_ context.Context, ids []string) (int, error) {
	f.bulk = append(f.bulk, ids...)
	return len(ids), nil
}

type memSettings struct {
	s models.SiteSettings
}

func (m *memSettings) Get(context.Context) (*models.SiteSettings, error) {
	out := m.s
	return &out, nil
}

func (m *memSettings) Save(_ context.Context, s models.SiteSettings) error {
	now := time.Now()
	s.ID = "site"
	s.UpdatedAt = &now
	m.s = s
	return nil
}

type fakeLockout struct {
	locked   bool
	failures int
	cleared  bool
}

func (f *fakeLockout) CheckAllowed(context.Context, string) (bool, int, *time.Time) {
	if f.locked {
		until := time.Now().Add(5 * time.Minute)
		return false, 0, &until
	}
	return true, 5 - f.failures, nil
}

func (f *fakeLockout) RecordFailure(context.Context, string) (bool, *time.Time) {
	f.failures++
	if f.failures >= 3 {
		until := time.Now().Add(5 * time.Minute)
		return true, &until
	}
	return false, nil
}

func (f *fakeLockout) ClearOnSuccess(context.Context, string) error {
	f.cleared = true
	return nil
}

type env struct {
	router http.Handler
	auth   *adminauth.Authenticator
	token  string
	media  *fakeMedia
}

func newEnv(t *testing.T, d Deps) *env {
	t.Helper()
	auth, err := adminauth.New(adminauth.Config{Email: "admin@example.com", Password: "secret-pass", Secret: "test-secret", TTL: time.Hour})
	require.NoError(t, err)
	tok, _, err := auth.Issue("admin@example.com")
	require.NoError(t, err)

	media := &fakeMedia{}
	if d.Media == nil {
		d.Media = media
	}
	if d.Settings == nil {
		d.Settings = &memSettings{s: models.SiteSettings{ID: "site", SiteName: "Strata"}}
	}
	d.Errors = apierr.NewWriter(zap.NewNop(), "test")
	d.Logger = zap.NewNop()

	r := chi.NewRouter()
	r.Mount("/admin/api", Routes(NewHandler(d), auth))
	return &env{router: r, auth: auth, token: tok, media: media}
}

func (e *env) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func errCode(out map[string]any) string {
	e, _ := out["error"].(map[string]any)
	s, _ := e["code"].(string)
	return s
}

func TestAdminRequiresToken(t *testing.T) {
	e := newEnv(t, Deps{})
	e.token = ""
	code, out := e.do(t, http.MethodGet, "/admin/api/collections", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, string(apierr.CodeInvalidToken), errCode(out))
}

func TestCollectionsEndpoint(t *testing.T) {
	e := newEnv(t, Deps{})
	code, out := e.do(t, http.MethodGet, "/admin/api/collections", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, out["collections"])
	assert.Len(t, out["blocks"], 25)
}

func TestUnknownCollection(t *testing.T) {
	e := newEnv(t, Deps{})
	code, out := e.do(t, http.MethodGet, "/admin/api/widgets", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, string(apierr.CodeNotFound), errCode(out))
}

func TestMediaCreateRejected(t *testing.T) {
	e := newEnv(t, Deps{})
	code, out := e.do(t, http.MethodPost, "/admin/api/media", map[string]any{"filename": "x.png"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(apierr.CodeValidation), errCode(out))
}

func TestMediaActions(t *testing.T) {
	e := newEnv(t, Deps{})
	id := primitive.NewObjectID()

	code, out := e.do(t, http.MethodPost, "/admin/api/media/actions/delete", map[string]any{"id": id.Hex()})
	require.Equal(t, http.StatusOK, code, out)
	require.Len(t, e.media.deleted, 1)
	assert.Equal(t, id, e.media.deleted[0])

	code, out = e.do(t, http.MethodPost, "/admin/api/media/actions/bulk-delete", map[string]any{"ids": []string{"a", "b"}})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, out["deleted"])

	code, _ = e.do(t, http.MethodPost, "/admin/api/media/actions/clone", map[string]any{"id": id.Hex()})
	assert.Equal(t, http.StatusNotFound, code)

	code, out = e.do(t, http.MethodPost, "/admin/api/media/actions/delete", map[string]any{"id": "nope"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(apierr.CodeInvalidID), errCode(out))
}

func TestSiteSettings(t *testing.T) {
	e := newEnv(t, Deps{})

	code, out := e.do(t, http.MethodGet, "/admin/api/site-settings", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Strata", out["doc"].(map[string]any)["siteName"])

	code, out = e.do(t, http.MethodPut, "/admin/api/site-settings", map[string]any{"siteName": "  "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(apierr.CodeValidation), errCode(out))

	code, out = e.do(t, http.MethodPut, "/admin/api/site-settings", map[string]any{"siteName": " Strata Inc ", "tagline": "Built to last"})
	require.Equal(t, http.StatusOK, code, out)
	doc := out["doc"].(map[string]any)
	assert.Equal(t, "Strata Inc", doc["siteName"])
	assert.Equal(t, "admin@example.com", doc["updatedByName"])
}

func TestOptionalEndpointsWithoutBackends(t *testing.T) {
	e := newEnv(t, Deps{})
	code, _ := e.do(t, http.MethodGet, "/admin/api/request-log", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = e.do(t, http.MethodPost, "/admin/api/integrity/sweep", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDocumentLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contentstore.New(db)
	e := newEnv(t, Deps{Store: store, Reader: contentquery.New(store, refexpand.New(store, nil))})

	code, out := e.do(t, http.MethodPost, "/admin/api/jobs", map[string]any{
		"title":      "Site Engineer",
		"department": "Field",
		"status":     "active",
	})
	require.Equal(t, http.StatusCreated, code, out)
	assert.Equal(t, "Job created", out["message"])
	id := out["doc"].(map[string]any)["id"].(string)
	require.NotEmpty(t, id)

	code, out = e.do(t, http.MethodPatch, "/admin/api/jobs/"+id, map[string]any{"status": "closed"})
	require.Equal(t, http.StatusOK, code, out)
	assert.Equal(t, "closed", out["doc"].(map[string]any)["status"])
	assert.Equal(t, "Field", out["doc"].(map[string]any)["department"])

	code, out = e.do(t, http.MethodGet, "/admin/api/jobs/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Site Engineer", out["doc"].(map[string]any)["title"])

	code, out = e.do(t, http.MethodGet, "/admin/api/jobs?status=closed", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, out["totalDocs"])

	code, out = e.do(t, http.MethodGet, "/admin/api/jobs?status=active", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, out["totalDocs"])

	code, _ = e.do(t, http.MethodDelete, "/admin/api/jobs/"+id, nil)
	require.Equal(t, http.StatusOK, code)

	code, out = e.do(t, http.MethodGet, "/admin/api/jobs/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, string(apierr.CodeNotFound), errCode(out))

	code, _ = e.do(t, http.MethodDelete, "/admin/api/jobs/"+id, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestPublishedResourceCannotReturnToDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contentstore.New(db)
	e := newEnv(t, Deps{Store: store, Reader: contentquery.New(store, refexpand.New(store, nil))})

	code, out := e.do(t, http.MethodPost, "/admin/api/resources", map[string]any{
		"title":  "Field Guide",
		"status": "published",
	})
	require.Equal(t, http.StatusCreated, code, out)
	doc := out["doc"].(map[string]any)
	id := doc["id"].(string)
	assert.Equal(t, "field-guide", doc["slug"])
	assert.NotEmpty(t, doc["publishedAt"])

	code, out = e.do(t, http.MethodPatch, "/admin/api/resources/"+id, map[string]any{"status": "draft"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, string(apierr.CodeValidation), errCode(out))

	code, out = e.do(t, http.MethodPost, "/admin/api/resources/actions/clone", map[string]any{"id": id})
	require.Equal(t, http.StatusCreated, code, out)
	assert.Equal(t, "Resource cloned", out["message"])
	clone := out["doc"].(map[string]any)
	assert.NotEqual(t, id, clone["id"])
	assert.NotEqual(t, "field-guide", clone["slug"])
}

func TestLogin(t *testing.T) {
	auth, err := adminauth.New(adminauth.Config{Email: "admin@example.com", Password: "secret-pass", Secret: "test-secret", TTL: time.Hour})
	require.NoError(t, err)
	lock := &fakeLockout{}
	errs := apierr.NewWriter(zap.NewNop(), "test")
	h := UserRoutes(NewUsers(auth, lock, errs, zap.NewNop(), true), auth)

	login := func(email, password string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(LoginInput{Email: email, Password: password})
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := login("admin@example.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 1, lock.failures)

	rec = login("not-an-email", "x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = login("admin@example.com", "secret-pass")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, lock.cleared)

	var out LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "admin", out.User.Role)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == adminauth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	h.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), "admin@example.com")

	lock.locked = true
	rec = login("admin@example.com", "secret-pass")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	auth, err := adminauth.New(adminauth.Config{Email: "admin@example.com", Password: "secret-pass", Secret: "test-secret", TTL: time.Hour})
	require.NoError(t, err)
	lock := &fakeLockout{failures: 2}
	h := UserRoutes(NewUsers(auth, lock, apierr.NewWriter(zap.NewNop(), "test"), zap.NewNop(), false), auth)

	body, _ := json.Marshal(LoginInput{Email: "admin@example.com", Password: "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), string(apierr.CodeRateLimited))
}
