// Package resumes accepts job applications that reference an uploaded CV.
//
// Endpoints:
//   - POST /api/resumes - Store an application and email HR
//
// The CV is uploaded first through POST /api/media; the application then
// carries the returned media id as resumeUpload.
package resumes

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/app/system/apierr"
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

// SuccessMessage is returned with every accepted application.
const SuccessMessage = "Your application has been received."

// Store persists applications. intakestore.Store satisfies it.
type Store interface {
	CreateResume(ctx context.Context, r *models.Resume) error
}

// MediaGetter loads the uploaded CV record. mediastore.Store satisfies it.
type MediaGetter interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Media, error)
}

// Documents loads a job posting. contentstore.Store satisfies it.
type Documents interface {
	Get(ctx context.Context, c *schema.Collection, id primitive.ObjectID, doc models.Document) error
}

// SettingsReader supplies the HR address.
type SettingsReader interface {
	Get(ctx context.Context) (*models.SiteSettings, error)
}

// Handler handles resume submissions.
type Handler struct {
	store    Store
	media    MediaGetter
	docs     Documents
	settings SettingsReader
	notifier notify.Notifier
	errs     *apierr.Writer
	logger   *zap.Logger
	baseURL  string
}

// NewHandler creates a resumes handler.
func NewHandler(store Store, media MediaGetter, docs Documents, settings SettingsReader, notifier notify.Notifier, errs *apierr.Writer, logger *zap.Logger, baseURL string) *Handler {
	return &Handler{
		store:    store,
		media:    media,
		docs:     docs,
		settings: settings,
		notifier: notifier,
		errs:     errs,
		logger:   logger,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Input is the application body. Ids are hex strings.
type Input struct {
	FullName     string `json:"fullName"`
	Number       string `json:"number"`
	Email        string `json:"email"`
	JobID        string `json:"jobId"`
	ResumeUpload string `json:"resumeUpload"`
}

// Create handles POST /api/resumes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := jsonutil.Decode(w, r, &in); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	res, job, cv, err := h.check(r.Context(), in)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	res.IPAddress = network.ClientIP(r)

	if err := h.store.CreateResume(r.Context(), res); err != nil {
		metrics.Intake("resume", "error")
		h.errs.Write(w, r, err)
		return
	}
	metrics.Intake("resume", "accepted")

	h.logger.Info("application received",
		zap.String("id", res.ID.Hex()),
		zap.Bool("general", job == nil))

	h.announce(r.Context(), res, job, cv)
	jsonutil.Doc(w, http.StatusCreated, SuccessMessage, res)
}

// check validates the input and confirms the referenced CV and job exist.
// Every problem is collected into a single VALIDATION_ERROR.
func (h *Handler) check(ctx context.Context, in Input) (*models.Resume, *models.Job, *models.Media, error) {
	res := &models.Resume{
		FullName: normalize.Name(in.FullName),
		Number:   normalize.Phone(in.Number),
		Email:    normalize.Email(in.Email),
	}
	v := inputval.Validate(res)

	upload := strings.TrimSpace(in.ResumeUpload)
	switch {
	case upload == "":
		v.Add("resumeUpload", "Resume upload is required.")
	case !inputval.IsValidObjectID(upload):
		v.Add("resumeUpload", "Resume upload must be a valid id.")
	default:
		res.ResumeUpload, _ = primitive.ObjectIDFromHex(upload)
	}

	if jobID := strings.TrimSpace(in.JobID); jobID != "" {
		oid, err := primitive.ObjectIDFromHex(jobID)
		if err != nil {
			v.Add("jobId", "Job must be a valid id.")
		} else {
			res.JobID = &oid
		}
	}

	var cv *models.Media
	if !res.ResumeUpload.IsZero() {
		m, err := h.media.Get(ctx, res.ResumeUpload)
		switch {
		case storeutil.IsNotFound(err):
			v.Add("resumeUpload", "Resume upload does not exist.")
		case err != nil:
			return nil, nil, nil, err
		case !m.IsResumeDocument():
			v.Add("resumeUpload", "Resume must be a PDF, DOC, or DOCX file.")
		default:
			cv = m
		}
	}

	var job *models.Job
	if res.JobID != nil {
		jobs, _ := schema.Lookup(schema.Jobs)
		var j models.Job
		err := h.docs.Get(ctx, jobs, *res.JobID, &j)
		switch {
		case storeutil.IsNotFound(err):
			v.Add("jobId", "Job does not exist.")
		case err != nil:
			return nil, nil, nil, err
		default:
			job = &j
		}
	}

	if v.HasErrors() {
		metrics.Intake("resume", "invalid")
		return nil, nil, nil, v.Err()
	}
	return res, job, cv, nil
}

func (h *Handler) announce(ctx context.Context, res *models.Resume, job *models.Job, cv *models.Media) {
	settings, err := h.settings.Get(ctx)
	if err != nil || settings == nil {
		h.logger.Warn("site settings unavailable; application email not sent",
			zap.String("id", res.ID.Hex()), zap.Error(err))
		return
	}

	to := firstNonEmpty(settings.Contact.HREmail, settings.Contact.NotifyEmail, settings.Contact.Email)
	if to == "" {
		h.logger.Warn("no HR address configured; application email not sent",
			zap.String("id", res.ID.Hex()))
		return
	}

	data := mailer.ResumeNotificationEmailData{
		SiteName:  settings.SiteName,
		FullName:  res.FullName,
		Number:    res.Number,
		Email:     res.Email,
		ResumeURL: h.absolute(cv.URL),
	}
	if job != nil {
		data.JobTitle = job.Title
	}
	subject, text, html := mailer.ResumeNotificationEmail(data)
	h.notifier.Notify(ctx, notify.Message{
		Kind: notify.KindResume, To: to, ReplyTo: res.Email,
		Subject: subject, TextBody: text, HTMLBody: html,
	})
}

// absolute turns a local-storage path like /files/... into a full URL.
func (h *Handler) absolute(u string) string {
	if strings.HasPrefix(u, "/") {
		return h.baseURL + u
	}
	return u
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
