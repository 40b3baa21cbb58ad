package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/notify"
	"github.com/dalemusser/stratasite/internal/app/system/ratelimit"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memStore struct {
	mu    sync.Mutex
	saved []*models.ContactSubmission
	err   error
}

func (m *memStore) CreateContact(_ context.Context, c *models.ContactSubmission) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = primitive.NewObjectID()
	c.Status = models.IntakeNew
	c.CreatedAt = time.Now().UTC()
	m.saved = append(m.saved, c)
	return nil
}

type staticSettings struct {
	s   models.SiteSettings
	err error
}

func (s staticSettings) Get(context.Context) (*models.SiteSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &s.s, nil
}

type recorder struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recorder) Notify(_ context.Context, m notify.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
}

func newHandler(store *memStore, settings SettingsReader, n notify.Notifier) *Handler {
	return NewHandler(store, settings, n, apierr.NewWriter(zap.NewNop(), "dev"), zap.NewNop(), "https://example.com/")
}

func settingsWith(notifyEmail, email string) staticSettings {
	s := models.DefaultSiteSettings()
	s.Contact.NotifyEmail = notifyEmail
	s.Contact.Email = email
	return staticSettings{s: s}
}

func post(t *testing.T, h http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreate_ValidationReportsName(t *testing.T) {
	store := &memStore{}
	h := newHandler(store, settingsWith("ops@example.com", ""), &recorder{})

	rec := post(t, http.HandlerFunc(h.Create), map[string]string{
		"name": "A", "email": "a@b.com", "phone": "123", "interestedField": "Other", "message": "",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var body apierr.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != apierr.CodeValidation {
		t.Errorf("code = %q, want %q", body.Error.Code, apierr.CodeValidation)
	}
	if _, ok := body.Error.Details["name"]; !ok {
		t.Errorf("details = %v, want a name entry", body.Error.Details)
	}
	if _, ok := body.Error.Details["phone"]; !ok {
		t.Errorf("details = %v, want a phone entry", body.Error.Details)
	}
	if len(store.saved) != 0 {
		t.Errorf("saved %d submissions, want 0", len(store.saved))
	}
}

func TestCreate_Accepted(t *testing.T) {
	store := &memStore{}
	n := &recorder{}
	h := newHandler(store, settingsWith("ops@example.com", "hello@example.com"), n)

	rec := post(t, http.HandlerFunc(h.Create), map[string]string{
		"name": "Al", "email": " Al@B.com ", "phone": "9876543210", "interestedField": "Other",
		"message": "<b>Call</b> me",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var resp struct {
		Success bool    `json:"success"`
		Message string  `json:"message"`
		Doc     Summary `json:"doc"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Doc.ID.IsZero() {
		t.Error("doc.id should be set")
	}
	if resp.Message != SuccessMessage {
		t.Errorf("message = %q, want %q", resp.Message, SuccessMessage)
	}

	if len(store.saved) != 1 {
		t.Fatalf("saved %d submissions, want 1", len(store.saved))
	}
	got := store.saved[0]
	if got.Email != "al@b.com" {
		t.Errorf("email = %q, want %q", got.Email, "al@b.com")
	}
	if got.Message != "Call me" {
		t.Errorf("message = %q, want tags stripped", got.Message)
	}
	if got.IPAddress != "203.0.113.7" {
		t.Errorf("ip = %q, want %q", got.IPAddress, "203.0.113.7")
	}

	if len(n.msgs) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(n.msgs))
	}
	if n.msgs[0].To != "ops@example.com" || n.msgs[0].Kind != notify.KindContact {
		t.Errorf("staff message = %+v", n.msgs[0])
	}
	if n.msgs[0].ReplyTo != "al@b.com" {
		t.Errorf("staff message ReplyTo = %q, want the submitter", n.msgs[0].ReplyTo)
	}
	if !strings.Contains(n.msgs[0].TextBody, "https://example.com/admin/api/contact_submissions/"+got.ID.Hex()) {
		t.Errorf("staff message missing admin link: %s", n.msgs[0].TextBody)
	}
	if n.msgs[1].To != "al@b.com" || n.msgs[1].Kind != notify.KindContactConfirmation {
		t.Errorf("confirmation = %+v", n.msgs[1])
	}
}

func TestSubmit_UserAgentCutOnRuneBoundary(t *testing.T) {
	store := &memStore{}
	h := newHandler(store, settingsWith("ops@example.com", ""), &recorder{})

	// 511 ASCII bytes then a two-byte rune straddling the 512-byte limit.
	ua := strings.Repeat("a", 511) + "é" + strings.Repeat("b", 20)
	in := Input{Name: "Al", Email: "al@b.com", Phone: "9876543210", InterestedField: "Other", Message: "hi"}
	sub, err := h.Submit(context.Background(), in, "203.0.113.9", ua)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !utf8.ValidString(sub.UserAgent) {
		t.Errorf("stored user agent is not valid UTF-8")
	}
	if sub.UserAgent != strings.Repeat("a", 511) {
		t.Errorf("user agent = %d bytes, want the 511 bytes before the split rune", len(sub.UserAgent))
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"héllo", 2, "h"},
		{"héllo", 3, "hé"},
		{"日本語", 4, "日"},
		{"ok\xffok", 10, "okok"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestSubmit_NotifyFallsBackToContactEmail(t *testing.T) {
	n := &recorder{}
	h := newHandler(&memStore{}, settingsWith("", "hello@example.com"), n)

	_, err := h.Submit(context.Background(), Input{
		Name: "Dana", Email: "dana@example.com", Phone: "+1 555 010 9999", InterestedField: "Consulting",
	}, "", "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(n.msgs) == 0 || n.msgs[0].To != "hello@example.com" {
		t.Errorf("staff recipient = %+v, want hello@example.com", n.msgs)
	}
}

func TestSubmit_SettingsFailureStillConfirms(t *testing.T) {
	n := &recorder{}
	h := newHandler(&memStore{}, staticSettings{err: errors.New("mongo down")}, n)

	_, err := h.Submit(context.Background(), Input{
		Name: "Dana", Email: "dana@example.com", Phone: "5550109999", InterestedField: "Careers",
	}, "", "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(n.msgs) != 1 || n.msgs[0].Kind != notify.KindContactConfirmation {
		t.Errorf("messages = %+v, want only the confirmation", n.msgs)
	}
}

func TestSubmit_UnknownInterest(t *testing.T) {
	h := newHandler(&memStore{}, settingsWith("", ""), &recorder{})
	_, err := h.Submit(context.Background(), Input{
		Name: "Dana", Email: "dana@example.com", Phone: "5550109999", InterestedField: "Gardening",
	}, "", "")

	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != apierr.CodeValidation {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}
	if _, ok := ae.Details["interestedField"]; !ok {
		t.Errorf("details = %v, want interestedField", ae.Details)
	}
}

func TestCreate_StoreFailure(t *testing.T) {
	h := newHandler(&memStore{err: errors.New("write failed")}, settingsWith("", ""), &recorder{})
	rec := post(t, http.HandlerFunc(h.Create), map[string]string{
		"name": "Al", "email": "al@b.com", "phone": "9876543210", "interestedField": "Other",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestCreate_MalformedJSON(t *testing.T) {
	h := newHandler(&memStore{}, settingsWith("", ""), &recorder{})
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRoutes_RateLimited(t *testing.T) {
	h := newHandler(&memStore{}, settingsWith("", ""), &recorder{})
	router := Routes(h, ratelimit.NewMemory(), ratelimit.Rule{Limit: 1, Window: time.Hour}, zap.NewNop())

	body := map[string]string{"name": "Al", "email": "al@b.com", "phone": "9876543210", "interestedField": "Other"}
	if rec := post(t, router, body); rec.Code != http.StatusCreated {
		t.Fatalf("first status = %d, want %d", rec.Code, http.StatusCreated)
	}
	rec := post(t, router, body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
}
