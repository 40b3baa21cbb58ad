// Package newsletter manages mailing list signups.
//
// Endpoints:
//   - POST   /api/newsletter         - Subscribe (201 new, 200 resubscribed)
//   - DELETE /api/newsletter/{email} - Unsubscribe (idempotent)
package newsletter

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/mailer"
	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/app/system/notify"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Store persists subscribers. intakestore.Store satisfies it.
type Store interface {
	Subscribe(ctx context.Context, email, name, source string) (*models.NewsletterSubscriber, bool, error)
	Unsubscribe(ctx context.Context, email string) (*models.NewsletterSubscriber, error)
}

// SettingsReader supplies the staff notification address.
type SettingsReader interface {
	Get(ctx context.Context) (*models.SiteSettings, error)
}

// Handler handles newsletter requests.
type Handler struct {
	store    Store
	settings SettingsReader
	notifier notify.Notifier
	errs     *apierr.Writer
	logger   *zap.Logger
}

// NewHandler creates a newsletter handler.
func NewHandler(store Store, settings SettingsReader, notifier notify.Notifier, errs *apierr.Writer, logger *zap.Logger) *Handler {
	return &Handler{store: store, settings: settings, notifier: notifier, errs: errs, logger: logger}
}

// Input is the signup body.
type Input struct {
	Email  string `json:"email" validate:"required,email,max=254"`
	Name   string `json:"name" validate:"max=100"`
	Source string `json:"source" validate:"max=100"`
}

// Subscribe handles POST /api/newsletter.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	sub, resubscribed, err := h.Signup(r.Context(), in)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	if resubscribed {
		jsonutil.Doc(w, http.StatusOK, "Welcome back! You have been resubscribed.", sub)
		return
	}
	jsonutil.Doc(w, http.StatusCreated, "Thanks for subscribing.", sub)
}

// Signup validates and stores a subscription. It is shared with the site's
// newsletter form.
func (h *Handler) Signup(ctx context.Context, in Input) (*models.NewsletterSubscriber, bool, error) {
	in.Email = normalize.Email(in.Email)
	in.Name = normalize.Name(in.Name)
	in.Source = strings.TrimSpace(in.Source)

	if res := inputval.Validate(in); res.HasErrors() {
		metrics.Intake("newsletter", "invalid")
		return nil, false, res.Err()
	}

	sub, resubscribed, err := h.store.Subscribe(ctx, in.Email, in.Name, in.Source)
	if err != nil {
		if errors.Is(err, models.ErrAlreadySubscribed) {
			metrics.Intake("newsletter", "duplicate")
		} else {
			metrics.Intake("newsletter", "error")
		}
		return nil, false, err
	}

	metrics.Intake("newsletter", "accepted")
	h.logger.Info("newsletter signup",
		zap.String("source", in.Source),
		zap.Bool("resubscribed", resubscribed))

	h.announce(ctx, sub, resubscribed)
	return sub, resubscribed, nil
}

// announce emails staff about the signup. Delivery problems are only logged
// by the notifier.
func (h *Handler) announce(ctx context.Context, sub *models.NewsletterSubscriber, resubscribed bool) {
	settings, err := h.settings.Get(ctx)
	if err != nil || settings == nil {
		h.logger.Warn("site settings unavailable; newsletter email not sent", zap.Error(err))
		return
	}
	staff := settings.Contact.NotifyEmail
	if staff == "" {
		staff = settings.Contact.Email
	}
	if staff == "" {
		h.logger.Warn("no notification address configured; newsletter email not sent")
		return
	}

	subject, text, html := mailer.NewsletterNotificationEmail(mailer.NewsletterNotificationEmailData{
		SiteName:     settings.SiteName,
		Email:        sub.Email,
		Name:         sub.Name,
		Source:       sub.Source,
		Resubscribed: resubscribed,
	})
	h.notifier.Notify(ctx, notify.Message{
		Kind: notify.KindNewsletter, To: staff, ReplyTo: sub.Email,
		Subject: subject, TextBody: text, HTMLBody: html,
	})
}

// Unsubscribe handles DELETE /api/newsletter/{email}.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "email")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	email := normalize.Email(raw)
	if !strings.Contains(email, "@") {
		h.errs.Write(w, r, apierr.Field("email", "Email must be a valid email address."))
		return
	}

	sub, err := h.store.Unsubscribe(r.Context(), email)
	if storeutil.IsNotFound(err) {
		h.errs.Write(w, r, apierr.NotFound("Subscriber"))
		return
	}
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	jsonutil.Doc(w, http.StatusOK, "You have been unsubscribed.", sub)
}
