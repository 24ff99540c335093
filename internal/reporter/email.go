package reporter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/rushi1222/job-applier-amazon/internal/config"
)

const (
	smtpHost = "smtp.gmail.com"
	smtpPort = 587
)

// mailSender is the part of *mail.Client used here.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// EmailNotifier sends one multipart message per call over STARTTLS.
type EmailNotifier struct {
	cfg    config.EmailConfig
	dial   func() (mailSender, error)
	now    func() time.Time
	logger *zap.Logger
}

func NewEmailNotifier(cfg config.EmailConfig, logger *zap.Logger) *EmailNotifier {
	n := &EmailNotifier{cfg: cfg, now: time.Now, logger: logger}
	n.dial = n.newClient
	return n
}

func (n *EmailNotifier) newClient() (mailSender, error) {
	return mail.NewClient(smtpHost,
		mail.WithPort(smtpPort),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.SenderEmail),
		mail.WithPassword(n.cfg.SenderPassword),
	)
}

func (n *EmailNotifier) SendJobs(ctx context.Context, groups []SiteJobs) bool {
	if !n.cfg.Complete() {
		n.logger.Info("📭 Email configuration missing. Skipping email notification.")
		return false
	}
	total := Total(groups)
	if total == 0 {
		n.logger.Info("📭 No new jobs to send in email.")
		return false
	}

	html, err := RenderHTML(groups)
	if err != nil {
		n.logger.Error("❌ Error rendering email", zap.Error(err))
		return false
	}
	if err := n.send(ctx, Subject(groups), RenderText(groups), html); err != nil {
		n.logger.Error("❌ Error sending email", zap.Error(err))
		return false
	}
	n.logger.Info("✅ Email sent successfully!", zap.Int("jobs", total),
		zap.String("recipients", strings.Join(n.cfg.RecipientEmail, ", ")))
	return true
}

func (n *EmailNotifier) SendFailure(ctx context.Context, site, detail string) bool {
	if !n.cfg.Complete() {
		n.logger.Info("📭 Email configuration missing. Skipping failure notification.")
		return false
	}
	at := n.now()
	html, err := RenderFailureHTML(site, detail, at)
	if err != nil {
		n.logger.Error("❌ Error rendering failure notification", zap.Error(err))
		return false
	}
	if err := n.send(ctx, FailureSubject(site), RenderFailureText(site, detail, at), html); err != nil {
		n.logger.Error("❌ Error sending failure notification", zap.Error(err))
		return false
	}
	n.logger.Info("✅ Failure notification sent!", zap.String("site", site))
	return true
}

func (n *EmailNotifier) send(ctx context.Context, subject, text, html string) error {
	m, err := n.message(subject, text, html)
	if err != nil {
		return err
	}
	client, err := n.dial()
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, m)
}

func (n *EmailNotifier) message(subject, text, html string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(n.cfg.SenderEmail); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(n.cfg.RecipientEmail...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, text)
	m.AddAlternativeString(mail.TypeTextHTML, html)
	return m, nil
}
