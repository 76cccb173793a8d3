package testutil

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sync"
	"testing"

	"menuqr/internal/services"
)

type SMSMessage struct {
	To   string
	Body string
}

// Gateway records outbound messages instead of sending them.
type Gateway struct {
	mu      sync.Mutex
	EmailOn bool
	SMSOn   bool
	emails  []services.EmailMessage
	sms     []SMSMessage
}

func NewGateway(emailOn, smsOn bool) *Gateway {
	return &Gateway{EmailOn: emailOn, SMSOn: smsOn}
}

func (g *Gateway) SendEmail(_ context.Context, msg services.EmailMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.EmailOn {
		return fmt.Errorf("%w: email transport", services.ErrConfiguration)
	}
	g.emails = append(g.emails, msg)
	return nil
}

func (g *Gateway) SendSMS(_ context.Context, to, body string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.SMSOn {
		return fmt.Errorf("%w: sms transport", services.ErrConfiguration)
	}
	g.sms = append(g.sms, SMSMessage{To: to, Body: body})
	return nil
}

func (g *Gateway) IsEmailConfigured() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.EmailOn
}

func (g *Gateway) IsSmsConfigured() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.SMSOn
}

func (g *Gateway) Emails() []services.EmailMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]services.EmailMessage(nil), g.emails...)
}

func (g *Gateway) SMS() []SMSMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]SMSMessage(nil), g.sms...)
}

var (
	hrefRe = regexp.MustCompile(`href="([^"]+)"`)
	codeRe = regexp.MustCompile(`\b(\d{6})\b`)
)

// LastLinkParam pulls a query parameter out of the link in the latest email.
func (g *Gateway) LastLinkParam(t *testing.T, name string) string {
	t.Helper()
	emails := g.Emails()
	if len(emails) == 0 {
		t.Fatalf("no email was sent")
	}
	m := hrefRe.FindStringSubmatch(emails[len(emails)-1].HTML)
	if m == nil {
		t.Fatalf("no link in email %q", emails[len(emails)-1].Subject)
	}
	u, err := url.Parse(m[1])
	if err != nil {
		t.Fatalf("bad link %q: %v", m[1], err)
	}
	return u.Query().Get(name)
}

// LastCode returns the 6-digit code of the latest SMS.
func (g *Gateway) LastCode(t *testing.T) string {
	t.Helper()
	sms := g.SMS()
	if len(sms) == 0 {
		t.Fatalf("no sms was sent")
	}
	m := codeRe.FindStringSubmatch(sms[len(sms)-1].Body)
	if m == nil {
		t.Fatalf("no code in sms %q", sms[len(sms)-1].Body)
	}
	return m[1]
}

var _ services.NotificationGateway = (*Gateway)(nil)
