// Package mail renders and delivers account emails. Delivery is
// fire-and-forget for callers: they log a failed send and move on.
package mail

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Mailer is what the account flows need from mail delivery.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, to, token string) error
	SendPasswordResetEmail(ctx context.Context, to, token string) error
}

// Message is a rendered email.
type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
	Date     time.Time
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// TemplateMailer renders account emails and hands them to a Sender.
type TemplateMailer struct {
	from    string
	baseURL string
	sender  Sender
	now     func() time.Time
}

func NewTemplateMailer(from, baseURL string, sender Sender) *TemplateMailer {
	return &TemplateMailer{
		from:    from,
		baseURL: strings.TrimRight(baseURL, "/"),
		sender:  sender,
		now:     time.Now,
	}
}

func (m *TemplateMailer) SendVerificationEmail(ctx context.Context, to, token string) error {
	link := m.baseURL + "/api/auth/verify?token=" + url.QueryEscape(token)
	return m.send(ctx, to, verificationTemplate, link, common.VerificationTokenTTL)
}

func (m *TemplateMailer) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	link := m.baseURL + "/reset-password?token=" + url.QueryEscape(token)
	return m.send(ctx, to, resetTemplate, link, common.ResetTokenTTL)
}

func (m *TemplateMailer) send(ctx context.Context, to string, tpl *template, link string, ttl time.Duration) error {
	subject, body, err := tpl.render(to, link, ttl)
	if err != nil {
		return fmt.Errorf("render %s: %w", tpl.name, err)
	}

	return m.sender.Send(ctx, Message{
		From:     m.from,
		To:       to,
		Subject:  subject,
		HTMLBody: body,
		Date:     m.now(),
	})
}
