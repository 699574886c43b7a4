package delivery

import (
	"context"
	"fmt"

	"bizadmin/internal/config"
	"github.com/wneessen/go-mail"
)

// SMTPMailer sends through an SMTP relay, upgrading to TLS when offered.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
}

// NewSMTP returns an SMTP Mailer for cfg.
func NewSMTP(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{host: cfg.SMTPHost, port: cfg.SMTPPort, username: cfg.SMTPUsername, password: cfg.SMTPPassword}
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	msg, err := buildMsg(m)
	if err != nil {
		return err
	}
	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if s.username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.username),
			mail.WithPassword(s.password),
		)
	}
	client, err := mail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
