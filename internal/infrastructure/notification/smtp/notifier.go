// Package smtp delivers invoice notifications as HTML email.
package smtp

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/config"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

const fallbackLanguage = "en"

//go:embed templates/*.html
var templateFS embed.FS

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

var _ application.Notifier = (*Notifier)(nil)

type Notifier struct {
	dialer    Dialer
	from      string
	fromName  string
	templates *template.Template
	logger    *slog.Logger
}

func NewNotifier(cfg config.SMTPConfig, logger *slog.Logger) (*Notifier, error) {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return NewNotifierWithDialer(d, cfg.From, cfg.FromName, logger)
}

func NewNotifierWithDialer(d Dialer, from, fromName string, logger *slog.Logger) (*Notifier, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	return &Notifier{
		dialer:    d,
		from:      from,
		fromName:  fromName,
		templates: tmpl,
		logger:    logger,
	}, nil
}

// Send renders the template for the notification event in the consumer's language,
// falling back to English.
func (n *Notifier) Send(ctx context.Context, notification domain.Notification) error {
	if notification.Channel != domain.ChannelEmail {
		return fmt.Errorf("unsupported notification channel %q", notification.Channel)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, err := n.render(notification, "subject")
	if err != nil {
		return err
	}
	body, err := n.render(notification, "body")
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(n.from, n.fromName))
	m.SetHeader("To", notification.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send %s email for invoice %s: %w", notification.Event, notification.InvoiceNumber, err)
	}

	n.logger.Debug("email sent",
		"invoice_number", notification.InvoiceNumber,
		"event", notification.Event,
	)
	return nil
}

func (n *Notifier) render(notification domain.Notification, part string) (string, error) {
	tmpl := n.templates.Lookup(templateName(notification.Event, notification.Language, part))
	if tmpl == nil {
		tmpl = n.templates.Lookup(templateName(notification.Event, fallbackLanguage, part))
	}
	if tmpl == nil {
		return "", fmt.Errorf("no %s template for %s", part, notification.Event)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, notification); err != nil {
		return "", fmt.Errorf("render %s %s: %w", notification.Event, part, err)
	}
	return buf.String(), nil
}

func templateName(event domain.NotificationEvent, lang, part string) string {
	return fmt.Sprintf("%s.%s.%s", event, lang, part)
}
