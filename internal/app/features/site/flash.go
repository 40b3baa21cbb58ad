package site

import (
	"net/http"

	"github.com/dalemusser/stratasite/internal/app/system/viewdata"
	"github.com/gorilla/sessions"
)

const (
	flashSession = "stratasite-flash"
	flashSuccess = "success"
	flashError   = "error"
)

// Flashes carries one-shot messages across the redirect that follows a form
// post, in a signed cookie.
type Flashes struct {
	store sessions.Store
}

// NewFlashes creates a flash store signed with key. secure marks the cookie
// Secure.
func NewFlashes(key []byte, secure bool) *Flashes {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Flashes{store: store}
}

// Add queues a message for the next page view.
func (f *Flashes) Add(w http.ResponseWriter, r *http.Request, kind, msg string) error {
	sess, err := f.store.Get(r, flashSession)
	if err != nil && sess == nil {
		return err
	}
	sess.AddFlash(msg, kind)
	return sess.Save(r, w)
}

// Pop returns and clears the queued message, or nil. Errors win over
// successes when both are present.
func (f *Flashes) Pop(w http.ResponseWriter, r *http.Request) *viewdata.Flash {
	sess, err := f.store.Get(r, flashSession)
	if err != nil || sess == nil {
		return nil
	}
	var out *viewdata.Flash
	for _, kind := range []string{flashSuccess, flashError} {
		for _, v := range sess.Flashes(kind) {
			if msg, ok := v.(string); ok {
				out = &viewdata.Flash{Kind: kind, Message: msg}
			}
		}
	}
	if out != nil {
		_ = sess.Save(r, w)
	}
	return out
}
