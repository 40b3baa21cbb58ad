// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned by Send when no SMTP host is set.
var ErrNotConfigured = errors.New("mailer: no SMTP host configured")

// Mailer sends notification email via SMTP.
type Mailer struct {
	host     string
	port     int
	user     string
	pass     string
	from     string
	fromName string
	log      *zap.Logger
	now      func() time.Time
}

// Config holds the configuration for creating a Mailer.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// New creates a new Mailer with the given configuration.
func New(cfg Config, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		pass:     cfg.Pass,
		from:     cfg.From,
		fromName: cfg.FromName,
		log:      log,
		now:      time.Now,
	}
}

// FromName returns the configured sender display name.
func (m *Mailer) FromName() string {
	return m.fromName
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool {
	return m.host != ""
}

// Email is one message. ReplyTo is set on staff notifications so a reply
// goes to the visitor who filled in the form.
type Email struct {
	To       string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
}

// Send delivers email. With an HTMLBody it sends multipart/alternative.
func (m *Mailer) Send(email Email) error {
	if !m.Enabled() {
		return ErrNotConfigured
	}
	msg, err := m.Build(email)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.user != "" && m.pass != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := smtp.SendMail(addr, auth, m.from, []string{email.To}, msg); err != nil {
		m.log.Error("failed to send email",
			zap.String("to", email.To),
			zap.String("subject", email.Subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.log.Info("email sent",
		zap.String("to", email.To),
		zap.String("subject", email.Subject))
	return nil
}

// Build renders the RFC 5322 message. Addresses are parsed, header values
// are stripped of line breaks, and non-ASCII text is encoded.
func (m *Mailer) Build(email Email) ([]byte, error) {
	to, err := mail.ParseAddress(email.To)
	if err != nil {
		return nil, fmt.Errorf("mailer: bad recipient %q: %w", email.To, err)
	}
	from := &mail.Address{Name: m.fromName, Address: m.from}

	var msg bytes.Buffer
	header := func(k, v string) {
		msg.WriteString(k + ": " + v + "\r\n")
	}

	header("From", from.String())
	header("To", to.String())
	if email.ReplyTo != "" {
		if rt, err := mail.ParseAddress(email.ReplyTo); err == nil {
			header("Reply-To", rt.String())
		}
	}
	header("Subject", mime.QEncoding.Encode("utf-8", oneLine(email.Subject)))
	header("Date", m.now().Format(time.RFC1123Z))
	header("Message-ID", "<"+randomToken()+"@"+domainOf(m.from)+">")
	header("MIME-Version", "1.0")

	if email.HTMLBody == "" {
		header("Content-Type", "text/plain; charset=UTF-8")
		header("Content-Transfer-Encoding", "quoted-printable")
		msg.WriteString("\r\n")
		if err := writeQP(&msg, email.TextBody); err != nil {
			return nil, err
		}
		return msg.Bytes(), nil
	}

	boundary := "----=_Part_" + randomToken()
	header("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", boundary))
	msg.WriteString("\r\n")

	for _, part := range []struct{ ctype, body string }{
		{"text/plain", email.TextBody},
		{"text/html", email.HTMLBody},
	} {
		msg.WriteString("--" + boundary + "\r\n")
		header("Content-Type", part.ctype+"; charset=UTF-8")
		header("Content-Transfer-Encoding", "quoted-printable")
		msg.WriteString("\r\n")
		if err := writeQP(&msg, part.body); err != nil {
			return nil, err
		}
		msg.WriteString("\r\n")
	}
	msg.WriteString("--" + boundary + "--\r\n")
	return msg.Bytes(), nil
}

func writeQP(buf *bytes.Buffer, body string) error {
	w := quotedprintable.NewWriter(buf)
	if _, err := w.Write([]byte(body)); err != nil {
		return err
	}
	return w.Close()
}

// oneLine keeps user-supplied text (a visitor's name in a subject) from
// starting a new header.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func domainOf(addr string) string {
	if i := strings.LastIndexByte(addr, '@'); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}

func randomToken() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}
