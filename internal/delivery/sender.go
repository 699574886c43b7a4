package delivery

import (
	"context"
	"fmt"
	"strings"

	"bizadmin/internal/domain"
	"bizadmin/internal/logger"
)

// Request addresses one calculation mail.
type Request struct {
	To      string
	CC      []string
	Subject string
	Body    string
}

// Sender renders calculations and hands them to a Mailer.
type Sender struct {
	renderer *Renderer
	mailer   Mailer
	from     string
	company  string
	logger   *logger.Logger
}

// NewSender wires a renderer and a mailer.
func NewSender(renderer *Renderer, mailer Mailer, from, company string, log *logger.Logger) *Sender {
	return &Sender{
		renderer: renderer,
		mailer:   mailer,
		from:     from,
		company:  company,
		logger:   logger.OrNop(log).With("component", "delivery"),
	}
}

// Render renders c as PDF.
func (s *Sender) Render(c domain.Calculation) ([]byte, error) {
	return s.renderer.Render(c)
}

// SendCalculation renders c and sends it once; errors are returned unretried.
func (s *Sender) SendCalculation(ctx context.Context, c domain.Calculation, req Request) error {
	pdf, err := s.renderer.Render(c)
	if err != nil {
		return err
	}
	body := req.Body
	if strings.TrimSpace(body) == "" {
		body = defaultBody(c, s.company)
	}
	msg := Message{
		From:    s.from,
		To:      []string{req.To},
		CC:      req.CC,
		Subject: req.Subject,
		Body:    body,
		Attachments: []Attachment{{
			Name:        FileName(c),
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return err
	}
	s.logger.Debug("calculation mail handed to transport", "id", c.ID, "bytes", len(pdf))
	return nil
}

// FileName is the attachment and download name of a calculation PDF.
func FileName(c domain.Calculation) string {
	short := c.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("Kalkulation-%s-%s.pdf", c.Date.String(), short)
}

func defaultBody(c domain.Calculation, company string) string {
	var b strings.Builder
	b.WriteString("Guten Tag,\n\n")
	fmt.Fprintf(&b, "anbei erhalten Sie unsere Kalkulation vom %s", c.Date.Format("02.01.2006"))
	if c.CustomerName != "" {
		fmt.Fprintf(&b, " für %s", c.CustomerName)
	}
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "Gesamtbetrag (brutto): %s\n\n", FormatEUR(c.GrossTotal()))
	b.WriteString("Mit freundlichen Grüßen\n")
	b.WriteString(company)
	b.WriteString("\n")
	return b.String()
}
