// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"html/template"
	"strings"
)

// ContactNotificationEmailData is the staff alert for a new contact submission.
type ContactNotificationEmailData struct {
	SiteName        string
	Name            string
	Email           string
	Phone           string
	InterestedField string
	Message         string
	AdminURL        string
}

// ContactNotificationEmail renders the staff alert for a contact submission.
func ContactNotificationEmail(data ContactNotificationEmailData) (subject, textBody, htmlBody string) {
	subject = "New contact submission from " + data.Name

	var t strings.Builder
	t.WriteString("A new message arrived through the " + data.SiteName + " contact form.\n\n")
	t.WriteString("Name: " + data.Name + "\n")
	t.WriteString("Email: " + data.Email + "\n")
	t.WriteString("Phone: " + data.Phone + "\n")
	t.WriteString("Interested in: " + data.InterestedField + "\n\n")
	if data.Message != "" {
		t.WriteString(data.Message + "\n\n")
	}
	if data.AdminURL != "" {
		t.WriteString("Review it in the admin: " + data.AdminURL + "\n")
	}

	return subject, t.String(), render(contactNotificationHTMLTmpl, data)
}

// ContactConfirmationEmailData is the acknowledgement sent to the visitor.
type ContactConfirmationEmailData struct {
	SiteName string
	Name     string
	SiteURL  string
}

// ContactConfirmationEmail renders the acknowledgement for the visitor.
func ContactConfirmationEmail(data ContactConfirmationEmailData) (subject, textBody, htmlBody string) {
	subject = "Thanks for contacting " + data.SiteName
	textBody = "Hi " + data.Name + ",\n\n" +
		"Thanks for reaching out. We received your message and someone from our team will get back to you shortly.\n\n" +
		"The " + data.SiteName + " team\n" + data.SiteURL
	return subject, textBody, render(contactConfirmationHTMLTmpl, data)
}

// ResumeNotificationEmailData is the HR alert for a new application.
type ResumeNotificationEmailData struct {
	SiteName  string
	FullName  string
	Number    string
	Email     string
	JobTitle  string // empty for general applications
	ResumeURL string
}

// ResumeNotificationEmail renders the HR alert for an application.
func ResumeNotificationEmail(data ResumeNotificationEmailData) (subject, textBody, htmlBody string) {
	position := data.JobTitle
	if position == "" {
		position = "General application"
	}
	subject = "New application: " + position + " (" + data.FullName + ")"

	var t strings.Builder
	t.WriteString("A new application was submitted on " + data.SiteName + ".\n\n")
	t.WriteString("Position: " + position + "\n")
	t.WriteString("Name: " + data.FullName + "\n")
	t.WriteString("Phone: " + data.Number + "\n")
	if data.Email != "" {
		t.WriteString("Email: " + data.Email + "\n")
	}
	t.WriteString("\nResume: " + data.ResumeURL + "\n")

	view := struct {
		ResumeNotificationEmailData
		Position string
	}{data, position}
	return subject, t.String(), render(resumeNotificationHTMLTmpl, view)
}

// NewsletterNotificationEmailData is the staff alert for a newsletter signup.
type NewsletterNotificationEmailData struct {
	SiteName     string
	Email        string
	Name         string // optional
	Source       string // optional, e.g. "footer"
	Resubscribed bool
}

// NewsletterNotificationEmail renders the staff alert for a signup.
func NewsletterNotificationEmail(data NewsletterNotificationEmailData) (subject, textBody, htmlBody string) {
	verb := "New newsletter subscriber"
	if data.Resubscribed {
		verb = "Newsletter subscriber returned"
	}
	subject = verb + ": " + data.Email

	var t strings.Builder
	t.WriteString(verb + " on " + data.SiteName + ".\n\n")
	t.WriteString("Email: " + data.Email + "\n")
	if data.Name != "" {
		t.WriteString("Name: " + data.Name + "\n")
	}
	if data.Source != "" {
		t.WriteString("Source: " + data.Source + "\n")
	}

	view := struct {
		NewsletterNotificationEmailData
		Heading string
	}{data, verb}
	return subject, t.String(), render(newsletterNotificationHTMLTmpl, view)
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return buf.String()
}

// layout wraps a content block in the shared email frame.
func layout(name, content string) *template.Template {
	return template.Must(template.Must(template.New(name).Parse(frame)).New("content").Parse(content)).Lookup(name)
}

const frame = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f4f4f5;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f4f4f5;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 520px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,0.1);">
          <tr>
            <td style="padding: 32px 32px 24px 32px; text-align: center; border-bottom: 1px solid #e4e4e7;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #18181b;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px; font-size: 15px; line-height: 1.6; color: #52525b;">
              {{template "content" .}}
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

var contactNotificationHTMLTmpl = layout("contact_notification", `
<h2 style="margin: 0 0 16px 0; font-size: 20px; font-weight: 600; color: #18181b;">New contact submission</h2>
<table role="presentation" cellspacing="0" cellpadding="4">
  <tr><td><strong>Name</strong></td><td>{{.Name}}</td></tr>
  <tr><td><strong>Email</strong></td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
  <tr><td><strong>Phone</strong></td><td>{{.Phone}}</td></tr>
  <tr><td><strong>Interested in</strong></td><td>{{.InterestedField}}</td></tr>
</table>
{{if .Message}}<p style="margin: 16px 0; white-space: pre-wrap;">{{.Message}}</p>{{end}}
{{if .AdminURL}}<p style="margin: 24px 0 0 0;"><a href="{{.AdminURL}}" style="color: #4f46e5;">Open in admin</a></p>{{end}}`)

var contactConfirmationHTMLTmpl = layout("contact_confirmation", `
<p style="margin: 0 0 16px 0;">Hi {{.Name}},</p>
<p style="margin: 0 0 16px 0;">Thanks for reaching out. We received your message and someone from our team will get back to you shortly.</p>
<p style="margin: 0;">The {{.SiteName}} team<br><a href="{{.SiteURL}}" style="color: #4f46e5;">{{.SiteURL}}</a></p>`)

var resumeNotificationHTMLTmpl = layout("resume_notification", `
<h2 style="margin: 0 0 16px 0; font-size: 20px; font-weight: 600; color: #18181b;">{{.Position}}</h2>
<table role="presentation" cellspacing="0" cellpadding="4">
  <tr><td><strong>Name</strong></td><td>{{.FullName}}</td></tr>
  <tr><td><strong>Phone</strong></td><td>{{.Number}}</td></tr>
  {{if .Email}}<tr><td><strong>Email</strong></td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>{{end}}
</table>
<p style="margin: 24px 0 0 0;"><a href="{{.ResumeURL}}" style="display: inline-block; padding: 12px 24px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-weight: 600; border-radius: 6px;">Download resume</a></p>`)

var newsletterNotificationHTMLTmpl = layout("newsletter_notification", `
<h2 style="margin: 0 0 16px 0; font-size: 20px; font-weight: 600; color: #18181b;">{{.Heading}}</h2>
<table role="presentation" cellspacing="0" cellpadding="4">
  <tr><td><strong>Email</strong></td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
  {{if .Name}}<tr><td><strong>Name</strong></td><td>{{.Name}}</td></tr>{{end}}
  {{if .Source}}<tr><td><strong>Source</strong></td><td>{{.Source}}</td></tr>{{end}}
</table>`)
