// Package mail renders digests and delivers them over SMTP.
package mail

import (
	"context"
	"fmt"
	"os"
	"time"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/config"
)

// Mailer sends digest emails. In dry-run mode everything is rendered but
// nothing leaves the machine.
type Mailer struct {
	cfg    config.EmailConfig
	dryRun bool
	logger *zap.Logger
}

// New constructs a Mailer.
func New(cfg config.EmailConfig, dryRun bool, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, dryRun: dryRun, logger: logger}
}

// DryRun reports whether delivery is suppressed.
func (m *Mailer) DryRun() bool { return m.dryRun }

// Recipient returns the configured destination address.
func (m *Mailer) Recipient() string { return m.cfg.To }

// SendResult carries the rendered bodies back to the caller so they can be
// archived alongside the delivery outcome.
type SendResult struct {
	HTML   string
	Text   string
	DryRun bool
}

// Send renders and delivers one digest as a multipart text+HTML message
// with the header image inlined when configured.
func (m *Mailer) Send(ctx context.Context, d Digest) (SendResult, error) {
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now()
	}
	embedHeader := m.cfg.HeaderImage != ""
	if embedHeader {
		if _, err := os.Stat(m.cfg.HeaderImage); err != nil {
			m.logger.Warn("header image missing, sending without it",
				zap.String("path", m.cfg.HeaderImage))
			embedHeader = false
		}
	}
	d.HeaderImage = embedHeader

	html, err := RenderHTML(d)
	if err != nil {
		return SendResult{}, err
	}
	text := RenderText(d)
	res := SendResult{HTML: html, Text: text, DryRun: m.dryRun}

	if m.dryRun {
		m.logger.Info("dry run: digest rendered but not sent",
			zap.String("subject", d.Subject),
			zap.Int("articles", len(d.Articles)))
		return res, nil
	}

	msg, err := m.buildMessage(d.Subject, text, html, embedHeader)
	if err != nil {
		return SendResult{}, err
	}
	client, err := m.newClient()
	if err != nil {
		return SendResult{}, err
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return SendResult{}, fmt.Errorf("send digest: %w", err)
	}
	m.logger.Info("digest sent",
		zap.String("subject", d.Subject),
		zap.String("to", m.cfg.To),
		zap.Int("articles", len(d.Articles)))
	return res, nil
}

func (m *Mailer) buildMessage(subject, text, html string, embedHeader bool) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if m.cfg.FromName != "" {
		if err := msg.FromFormat(m.cfg.FromName, m.cfg.User); err != nil {
			return nil, fmt.Errorf("set sender: %w", err)
		}
	} else if err := msg.From(m.cfg.User); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, text)
	msg.AddAlternativeString(gomail.TypeTextHTML, html)
	if embedHeader {
		msg.EmbedFile(m.cfg.HeaderImage,
			gomail.WithFileContentID("header_image"),
			gomail.WithFileName("header.png"))
	}
	return msg, nil
}

func (m *Mailer) newClient() (*gomail.Client, error) {
	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.User),
		gomail.WithPassword(m.cfg.Pass),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return client, nil
}

// TestConnection dials and authenticates against the SMTP server without
// sending anything.
func (m *Mailer) TestConnection(ctx context.Context) error {
	client, err := m.newClient()
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	return nil
}
