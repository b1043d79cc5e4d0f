package utils

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type EmailData struct {
	Subject   string
	To        []string
	Text      string
	HTML      string
	FromName  string
	FromEmail string
}

// Mailer delivers one message. Implementations must be safe for concurrent use.
type Mailer interface {
	Send(ctx context.Context, data EmailData) error
}

// SMTPMailer sends mail through a single SMTP relay.
type SMTPMailer struct {
	dialer    *gomail.Dialer
	fromEmail string
	fromName  string
}

func NewSMTPMailer(host string, port int, username, password, fromEmail, fromName string) *SMTPMailer {
	return &SMTPMailer{
		dialer:    gomail.NewDialer(host, port, username, password),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, data EmailData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if data.FromEmail == "" {
		data.FromEmail = m.fromEmail
	}
	if data.FromName == "" {
		data.FromName = m.fromName
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(data.FromEmail, data.FromName))
	msg.SetHeader("To", data.To...)
	msg.SetHeader("Subject", data.Subject)
	msg.SetBody("text/plain", data.Text)
	if data.HTML != "" {
		msg.AddAlternative("text/html", data.HTML)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	Log *logrus.Entry
}

func (m LogMailer) Send(_ context.Context, data EmailData) error {
	m.Log.WithFields(logrus.Fields{
		"to":      data.To,
		"subject": data.Subject,
	}).Info("email not sent, SMTP disabled")
	return nil
}

type InviteEmailData struct {
	TeamName        string
	TeamDescription string
	InviterName     string
	InviteCode      string
	JoinURL         string
	ExpiresIn       string
	Year            int
}

const inviteTextTemplate = `Hello,

{{.InviterName}} has invited you to join the team "{{.TeamName}}" on DevSync.
{{if .TeamDescription}}
{{.TeamDescription}}
{{end}}
Your invite code: {{.InviteCode}}
Join here: {{.JoinURL}}

This invite expires in {{.ExpiresIn}}.
`

const inviteHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invitation to join {{.TeamName}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .code { font-size: 24px; font-weight: bold; color: #3498db; margin: 20px 0; text-align: center; letter-spacing: 4px; }
        .button { display: inline-block; padding: 10px 20px; background-color: #3498db; color: white; text-decoration: none; border-radius: 4px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>You're invited to {{.TeamName}}</h2>
    </div>
    <div class="content">
        <p>{{.InviterName}} has invited you to collaborate on DevSync.</p>
        {{if .TeamDescription}}<p>{{.TeamDescription}}</p>{{end}}
        <div class="code">{{.InviteCode}}</div>
        <p><a class="button" href="{{.JoinURL}}">Join the team</a></p>
        <p>This invite expires in {{.ExpiresIn}}.</p>
    </div>
    <div class="footer">
        <p>If you weren't expecting this invitation, you can ignore this email.</p>
        <p>&copy; {{.Year}} DevSync</p>
    </div>
</body>
</html>`

var (
	inviteText = texttemplate.Must(texttemplate.New("invite_text").Parse(inviteTextTemplate))
	inviteHTML = htmltemplate.Must(htmltemplate.New("invite_html").Parse(inviteHTMLTemplate))
)

// InviteEmail renders the team invitation for one recipient.
func InviteEmail(to string, data InviteEmailData) (EmailData, error) {
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}
	var text, html bytes.Buffer
	if err := inviteText.Execute(&text, data); err != nil {
		return EmailData{}, fmt.Errorf("error executing template: %w", err)
	}
	if err := inviteHTML.Execute(&html, data); err != nil {
		return EmailData{}, fmt.Errorf("error executing template: %w", err)
	}
	return EmailData{
		Subject: fmt.Sprintf("Invitation to join %s on DevSync", data.TeamName),
		To:      []string{to},
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
