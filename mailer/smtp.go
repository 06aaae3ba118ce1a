package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPMessenger delivers through a plain SMTP relay. Used in local and
// staging environments (e.g. MailHog) where no SendGrid key is set.
type SMTPMessenger struct {
	host string
	port int
	from string
}

func NewSMTPMessenger(host string, port int, from string) *SMTPMessenger {
	return &SMTPMessenger{host: host, port: port, from: from}
}

func (m *SMTPMessenger) Send(ctx context.Context, msg OutboundMessage) error {
	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetAddressHeader("To", msg.To, msg.ToName)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/html", msg.HTML)

	d := gomail.NewDialer(m.host, m.port, "", "")
	if err := d.DialAndSend(gm); err != nil {
		return fmt.Errorf("smtp send error: %w", err)
	}
	return nil
}
