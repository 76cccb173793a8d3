package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"menuqr/internal/config"
	"menuqr/internal/metrics"
	"menuqr/internal/utils"
)

type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
	IsConfigured() bool
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, text string) error
	IsConfigured() bool
}

// NotificationGateway is the single way the engines talk to the outside
// world. Both channels may be unconfigured.
type NotificationGateway interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
	SendSMS(ctx context.Context, to, body string) error
	IsEmailConfigured() bool
	IsSmsConfigured() bool
}

type notificationGateway struct {
	mailer Mailer
	sms    SMSSender
}

func NewNotificationGateway(mailer Mailer, sms SMSSender) NotificationGateway {
	return &notificationGateway{mailer: mailer, sms: sms}
}

func (g *notificationGateway) IsEmailConfigured() bool {
	return g.mailer != nil && g.mailer.IsConfigured()
}

func (g *notificationGateway) IsSmsConfigured() bool {
	return g.sms != nil && g.sms.IsConfigured()
}

func (g *notificationGateway) SendEmail(ctx context.Context, msg EmailMessage) error {
	if !g.IsEmailConfigured() {
		return fmt.Errorf("%w: email transport", ErrConfiguration)
	}
	err := g.mailer.Send(ctx, msg)
	metrics.Notifications.WithLabelValues("email", metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	log.Infof("[notify][email] sent to=%s subject=%q", utils.MaskEmail(msg.To), msg.Subject)
	return nil
}

func (g *notificationGateway) SendSMS(ctx context.Context, to, body string) error {
	if !g.IsSmsConfigured() {
		return fmt.Errorf("%w: sms transport", ErrConfiguration)
	}
	err := g.sms.SendSMS(ctx, to, body)
	metrics.Notifications.WithLabelValues("sms", metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	log.Infof("[notify][sms] sent to=%s", utils.MaskPhone(to))
	return nil
}

// NewSMSSender picks the provider named in config; nil when SMS is off.
func NewSMSSender(cfg config.SMSConfig) SMSSender {
	switch cfg.Provider {
	case "mobizon":
		return utils.NewMobizonClient(cfg.Mobizon.APIKey, cfg.Mobizon.SenderID, cfg.Mobizon.DryRun)
	case "twilio":
		return utils.NewTwilioClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From)
	}
	return nil
}

// ===== SMTP =====

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.EmailConfig) *SMTPMailer {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return &SMTPMailer{from: cfg.FromEmail}
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.FromEmail,
	}
}

func (m *SMTPMailer) IsConfigured() bool {
	return m != nil && m.dialer != nil && m.from != ""
}

func (m *SMTPMailer) Send(ctx context.Context, msg EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	if msg.Text != "" {
		gm.SetBody("text/plain", msg.Text)
		gm.AddAlternative("text/html", msg.HTML)
	} else {
		gm.SetBody("text/html", msg.HTML)
	}
	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}
