// Package contact accepts contact form submissions.
//
// Endpoints:
//   - POST /api/contact-submissions - Store a submission and email staff
//
// The site frontend posts its contact form through Submit as well, so both
// paths share validation and notification.
package contact

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/mailer"
	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"github.com/dalemusser/stratasite/internal/app/system/network"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/app/system/notify"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/stratasite/internal/domain/schema"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SuccessMessage is returned with every accepted submission.
const SuccessMessage = "Thank you for contacting us. We will get back to you soon."

// Store persists submissions. intakestore.Store satisfies it.
type Store interface {
	CreateContact(ctx context.Context, c *models.ContactSubmission) error
}

// SettingsReader supplies the notification addresses.
type SettingsReader interface {
	Get(ctx context.Context) (*models.SiteSettings, error)
}

// Handler handles contact form requests.
type Handler struct {
	store    Store
	settings SettingsReader
	notifier notify.Notifier
	errs     *apierr.Writer
	logger   *zap.Logger
	baseURL  string
}

// NewHandler creates a contact handler. baseURL is used for links in emails.
func NewHandler(store Store, settings SettingsReader, notifier notify.Notifier, errs *apierr.Writer, logger *zap.Logger, baseURL string) *Handler {
	return &Handler{
		store:    store,
		settings: settings,
		notifier: notifier,
		errs:     errs,
		logger:   logger,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Input is the submission body.
type Input struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	InterestedField string `json:"interestedField"`
	Message         string `json:"message"`
}

// Summary is the public view of a stored submission.
type Summary struct {
	ID              primitive.ObjectID `json:"id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	InterestedField string             `json:"interestedField"`
	Status          string             `json:"status"`
	CreatedAt       time.Time          `json:"createdAt"`
}

// Create handles POST /api/contact-submissions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	sub, err := h.Submit(r.Context(), in, network.ClientIP(r), r.UserAgent())
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	jsonutil.Doc(w, http.StatusCreated, SuccessMessage, Summary{
		ID:              sub.ID,
		Name:            sub.Name,
		Email:           sub.Email,
		InterestedField: sub.InterestedField,
		Status:          sub.Status,
		CreatedAt:       sub.CreatedAt,
	})
}

// Submit validates, stores, and announces one submission. Validation
// failures come back as a VALIDATION_ERROR listing every bad field.
func (h *Handler) Submit(ctx context.Context, in Input, ip, userAgent string) (*models.ContactSubmission, error) {
	sub := &models.ContactSubmission{
		Name:            normalize.Name(in.Name),
		Email:           normalize.Email(in.Email),
		Phone:           normalize.Phone(in.Phone),
		InterestedField: strings.TrimSpace(in.InterestedField),
		Message:         htmlsanitize.Strip(in.Message),
		IPAddress:       ip,
		UserAgent:       truncate(userAgent, 512),
	}

	if res := inputval.Validate(sub); res.HasErrors() {
		metrics.Intake("contact", "invalid")
		return nil, res.Err()
	}

	if err := h.store.CreateContact(ctx, sub); err != nil {
		metrics.Intake("contact", "error")
		return nil, err
	}
	metrics.Intake("contact", "accepted")

	h.logger.Info("contact submission received",
		zap.String("id", sub.ID.Hex()),
		zap.String("interest", sub.InterestedField))

	h.announce(ctx, sub)
	return sub, nil
}

// announce emails staff and the submitter. Delivery problems never reach the caller.
func (h *Handler) announce(ctx context.Context, sub *models.ContactSubmission) {
	settings := h.siteSettings(ctx)

	staff := settings.Contact.NotifyEmail
	if staff == "" {
		staff = settings.Contact.Email
	}
	if staff == "" {
		h.logger.Warn("no notification address configured; contact email not sent",
			zap.String("id", sub.ID.Hex()))
	} else {
		subject, text, html := mailer.ContactNotificationEmail(mailer.ContactNotificationEmailData{
			SiteName:        settings.SiteName,
			Name:            sub.Name,
			Email:           sub.Email,
			Phone:           sub.Phone,
			InterestedField: sub.InterestedField,
			Message:         sub.Message,
			AdminURL:        h.baseURL + "/admin/api/" + schema.ContactSubmissions + "/" + sub.ID.Hex(),
		})
		h.notifier.Notify(ctx, notify.Message{
			Kind: notify.KindContact, To: staff, ReplyTo: sub.Email,
			Subject: subject, TextBody: text, HTMLBody: html,
		})
	}

	subject, text, html := mailer.ContactConfirmationEmail(mailer.ContactConfirmationEmailData{
		SiteName: settings.SiteName,
		Name:     sub.Name,
		SiteURL:  h.baseURL,
	})
	h.notifier.Notify(ctx, notify.Message{
		Kind: notify.KindContactConfirmation, To: sub.Email,
		Subject: subject, TextBody: text, HTMLBody: html,
	})
}

func (h *Handler) siteSettings(ctx context.Context) *models.SiteSettings {
	s, err := h.settings.Get(ctx)
	if err != nil || s == nil {
		h.logger.Warn("site settings unavailable for notification", zap.Error(err))
		d := models.DefaultSiteSettings()
		return &d
	}
	return s
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return strings.ToValidUTF8(s, "")
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return strings.ToValidUTF8(s[:n], "")
}
