package delivery

import (
	"bytes"
	"context"
	"fmt"

	"bizadmin/internal/config"
	"bizadmin/internal/logger"
	"github.com/wneessen/go-mail"
)

// Attachment is a file sent along with a Message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is a transport-neutral outbound mail.
type Message struct {
	From        string
	To          []string
	CC          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Mailer delivers a Message. Implementations make exactly one attempt.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// NewMailer selects the transport named in cfg.Transport: smtp, ses or log.
func NewMailer(ctx context.Context, cfg config.MailConfig, log *logger.Logger) (Mailer, error) {
	switch cfg.Transport {
	case "", "smtp":
		return NewSMTP(cfg), nil
	case "ses":
		return NewSES(ctx, cfg)
	case "log":
		return &LogMailer{logger: logger.OrNop(log)}, nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}

// buildMsg converts m into a MIME message.
func buildMsg(m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := msg.To(m.To...); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	if len(m.CC) > 0 {
		if err := msg.Cc(m.CC...); err != nil {
			return nil, fmt.Errorf("cc: %w", err)
		}
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.Body)
	for _, a := range m.Attachments {
		opts := []mail.FileOption{}
		if a.ContentType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		if err := msg.AttachReader(a.Name, bytes.NewReader(a.Data), opts...); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Name, err)
		}
	}
	return msg, nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *logger.Logger
}

func (l *LogMailer) Send(_ context.Context, m Message) error {
	l.logger.Info("mail not sent (log transport)", "to", m.To, "cc", m.CC, "subject", m.Subject, "attachments", len(m.Attachments))
	return nil
}
