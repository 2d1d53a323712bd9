package email

import "context"

// Provider delivers outbound mail, such as invitation notices. Sends
// are fire-and-forget from the caller's point of view: a delivery
// failure never rolls back the operation that triggered it.
type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
	SendTemplate(ctx context.Context, to []string, templateName string, data any) error
}

// NoOpProvider drops all mail. Used when SMTP is not configured.
type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}

func (p *NoOpProvider) SendTemplate(ctx context.Context, to []string, templateName string, data any) error {
	return nil
}
