package mailer

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"testing"
	"time"
)

func newTestMailer() *Mailer {
	m := New(Config{Host: "smtp.example", Port: 25, From: "noreply@strata.example", FromName: "Strata Søftware"}, nil)
	m.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	return m
}

func TestBuild_PlainText(t *testing.T) {
	m := newTestMailer()
	raw, err := m.Build(Email{
		To:       "hr@strata.example",
		ReplyTo:  "Ana Díaz <ana@example.com>",
		Subject:  "New resume:\r\nBcc: victim@example.com",
		TextBody: "Hello",
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if got := msg.Header.Get("Bcc"); got != "" {
		t.Errorf("subject injected a Bcc header: %q", got)
	}

	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(msg.Header.Get("Subject"))
	if err != nil {
		t.Fatalf("DecodeHeader() error = %v", err)
	}
	if subject != "New resume: Bcc: victim@example.com" {
		t.Errorf("Subject = %q", subject)
	}

	from, err := mail.ParseAddress(msg.Header.Get("From"))
	if err != nil || from.Name != "Strata Søftware" || from.Address != "noreply@strata.example" {
		t.Errorf("From = %+v, %v", from, err)
	}
	replyTo, err := mail.ParseAddress(msg.Header.Get("Reply-To"))
	if err != nil || replyTo.Address != "ana@example.com" {
		t.Errorf("Reply-To = %+v, %v", replyTo, err)
	}
	if !strings.HasSuffix(msg.Header.Get("Message-ID"), "@strata.example>") {
		t.Errorf("Message-ID = %q", msg.Header.Get("Message-ID"))
	}
	if msg.Header.Get("Date") != "Sun, 01 Mar 2026 09:30:00 +0000" {
		t.Errorf("Date = %q", msg.Header.Get("Date"))
	}

	body, _ := io.ReadAll(quotedprintable.NewReader(msg.Body))
	if string(body) != "Hello" {
		t.Errorf("body = %q", body)
	}
}

func TestBuild_Multipart(t *testing.T) {
	m := newTestMailer()
	html := "<p>" + strings.Repeat("long line ", 200) + "</p>"
	raw, err := m.Build(Email{To: "ops@strata.example", Subject: "Contact", TextBody: "text part", HTMLBody: html})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/alternative" {
		t.Fatalf("Content-Type = %q, %v", mediaType, err)
	}

	mr := multipart.NewReader(msg.Body, params["boundary"])
	var parts []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart() error = %v", err)
		}
		// multipart.Reader decodes quoted-printable transparently
		b, _ := io.ReadAll(p)
		parts = append(parts, string(b))
	}
	if len(parts) != 2 {
		t.Fatalf("got %d parts, want 2", len(parts))
	}
	if parts[0] != "text part" || parts[1] != html {
		t.Errorf("parts did not round-trip")
	}
	for _, line := range strings.Split(string(raw), "\r\n") {
		if len(line) > 998 {
			t.Fatal("message has a line longer than 998 octets")
		}
	}
}

func TestBuild_BadRecipient(t *testing.T) {
	if _, err := newTestMailer().Build(Email{To: "not an address"}); err == nil {
		t.Error("Build() error = nil, want error")
	}
}

func TestSend_NotConfigured(t *testing.T) {
	m := New(Config{}, nil)
	if err := m.Send(Email{To: "a@example.com"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Send() error = %v, want ErrNotConfigured", err)
	}
}
