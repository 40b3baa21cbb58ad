package ledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ledgerstore "github.com/dalemusser/stratasite/internal/app/store/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type chanRecorder chan ledgerstore.Entry

func (c chanRecorder) Create(_ context.Context, e ledgerstore.Entry) error {
	c <- e
	return nil
}

func serve(t *testing.T, status int, respBody string, req *http.Request) (chanRecorder, *httptest.ResponseRecorder) {
	t.Helper()
	rec := make(chanRecorder, 1)
	h := Middleware(DefaultConfig(rec, zap.NewNop()))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = r.Body.Read(make([]byte, 1024))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return rec, w
}

func TestRecordsErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/users/login?x=1",
		strings.NewReader(`{"email":"admin@example.com","password":"hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	rec, w := serve(t, http.StatusUnauthorized,
		`{"success":false,"error":{"code":"INVALID_CREDENTIALS","message":"Invalid email or password"}}`, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	select {
	case e := <-rec:
		assert.Equal(t, "/api/users/login", e.Path)
		assert.Equal(t, "x=1", e.Query)
		assert.Equal(t, 401, e.StatusCode)
		assert.Equal(t, "INVALID_CREDENTIALS", e.ErrorCode)
		assert.Equal(t, "anonymous", e.Actor)
		assert.NotContains(t, e.RequestBodyPreview, "hunter2")
		assert.Contains(t, e.RequestBodyPreview, "admin@example.com")
		assert.Len(t, e.RequestBodyHash, 8)
		assert.NotEmpty(t, e.RequestID)
	case <-time.After(2 * time.Second):
		t.Fatal("no entry recorded")
	}
}

func TestSkipsSuccess(t *testing.T) {
	rec, w := serve(t, http.StatusOK, `{"data":{}}`, httptest.NewRequest(http.MethodGet, "/api/graphql", nil))
	require.Equal(t, http.StatusOK, w.Code)
	select {
	case e := <-rec:
		t.Fatalf("unexpected entry %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPreviewTruncates(t *testing.T) {
	body := []byte(strings.Repeat("a", 20))
	assert.Equal(t, strings.Repeat("a", 10)+"...", preview(body, 10, nil))
	assert.Equal(t, `{"password":"[redacted]"}`, preview([]byte(`{"password":"x"}`), 100, []string{"password"}))
}
