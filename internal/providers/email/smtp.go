package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
)

//go:embed templates
var templateFS embed.FS

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPProvider struct {
	cfg Config
}

func NewSMTP(cfg Config) *SMTPProvider {
	return &SMTPProvider{cfg: cfg}
}

func (p *SMTPProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	auth := smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n%s\r\n%s", to[0], subject, mime, htmlBody))

	return smtp.SendMail(addr, auth, p.cfg.From, to, msg)
}

func (p *SMTPProvider) SendTemplate(ctx context.Context, to []string, templateName string, data any) error {
	t, err := template.ParseFS(templateFS, "templates/"+templateName+".html")
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	subject := "Notification from Steeple"
	if dataMap, ok := data.(map[string]interface{}); ok {
		if subj, exists := dataMap["subject"]; exists {
			if subjStr, ok := subj.(string); ok {
				subject = subjStr
			}
		} else if templateName == "invite_member" {
			if tenantName, ok := dataMap["tenant_name"].(string); ok {
				subject = fmt.Sprintf("You're invited to join %s", tenantName)
			} else {
				subject = "You're invited to join a community"
			}
		}
	}

	return p.Send(ctx, to, subject, body.String())
}
