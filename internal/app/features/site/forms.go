package site

import (
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/features/contact"
	"github.com/dalemusser/stratasite/internal/app/features/newsletter"
	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/network"
	"github.com/dalemusser/stratasite/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// ContactPost handles the contact form (POST /forms/contact) and redirects
// back to the page it was posted from.
func (h *Handler) ContactPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.back(w, r, flashError, "The form could not be read. Please try again.")
		return
	}
	if !h.allow(r, "contact", h.contactRule) {
		h.back(w, r, flashError, "Too many submissions. Please try again later.")
		return
	}

	in := contact.Input{
		Name:            r.PostFormValue("name"),
		Email:           r.PostFormValue("email"),
		Phone:           r.PostFormValue("phone"),
		InterestedField: r.PostFormValue("interestedField"),
		Message:         r.PostFormValue("message"),
	}
	if _, err := h.contact.Submit(r.Context(), in, network.ClientIP(r), r.UserAgent()); err != nil {
		h.back(w, r, flashError, h.formError(r, err))
		return
	}
	h.back(w, r, flashSuccess, contact.SuccessMessage)
}

// NewsletterPost handles the newsletter form (POST /forms/newsletter).
func (h *Handler) NewsletterPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.back(w, r, flashError, "The form could not be read. Please try again.")
		return
	}
	if !h.allow(r, "newsletter", h.signupRule) {
		h.back(w, r, flashError, "Too many submissions. Please try again later.")
		return
	}

	in := newsletter.Input{
		Email:  r.PostFormValue("email"),
		Name:   r.PostFormValue("name"),
		Source: r.PostFormValue("source"),
	}
	_, resubscribed, err := h.newsletter.Signup(r.Context(), in)
	switch {
	case err != nil && apierr.From(err).Code == apierr.CodeAlreadySubscribed:
		h.back(w, r, flashSuccess, "You are already subscribed.")
	case err != nil:
		h.back(w, r, flashError, h.formError(r, err))
	case resubscribed:
		h.back(w, r, flashSuccess, "Welcome back! You have been resubscribed.")
	default:
		h.back(w, r, flashSuccess, "Thanks for subscribing.")
	}
}

// allow applies the per-IP form rule. Limiter failures let the post through.
func (h *Handler) allow(r *http.Request, scope string, rule ratelimit.Rule) bool {
	if h.limiter == nil || rule.Limit == 0 {
		return true
	}
	d, err := h.limiter.Allow(r.Context(), "site-"+scope, network.ClientIP(r), rule)
	if err != nil {
		h.logger.Warn("rate limiter unavailable, allowing form post",
			zap.String("scope", scope), zap.Error(err))
		return true
	}
	return d.Allowed
}

// formError turns a submission error into a message for the visitor.
// Validation messages are full sentences that already name their field, so
// they are listed as is, ordered by field.
func (h *Handler) formError(r *http.Request, err error) string {
	ae := apierr.From(err)
	if ae.Status() >= http.StatusInternalServerError {
		h.errLog.Log(r, "form submission failed", err)
		return "Something went wrong. Please try again later."
	}
	if len(ae.Details) == 0 {
		return ae.Message
	}
	keys := make([]string, 0, len(ae.Details))
	for k := range ae.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, ae.Details[k])
	}
	return "Please check the form: " + strings.Join(parts, " ")
}

// back sets a flash and redirects to the form's return path.
func (h *Handler) back(w http.ResponseWriter, r *http.Request, kind, msg string) {
	if h.flashes != nil {
		if err := h.flashes.Add(w, r, kind, msg); err != nil {
			h.logger.Warn("failed to set flash", zap.Error(err))
		}
	}
	http.Redirect(w, r, returnPath(r), http.StatusSeeOther)
}

// returnPath is the form's "return" field when it is a local path, else "/".
func returnPath(r *http.Request) string {
	p := strings.TrimSpace(r.PostFormValue("return"))
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, `\`) {
		return "/"
	}
	u, err := url.Parse(p)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return u.RequestURI()
}
