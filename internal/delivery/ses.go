package delivery

import (
	"bytes"
	"context"
	"fmt"

	"bizadmin/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// RawEmailSender is the part of the SES client the mailer needs.
type RawEmailSender interface {
	SendRawEmail(ctx context.Context, in *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESMailer sends MIME messages through Amazon SES.
type SESMailer struct {
	client RawEmailSender
}

// NewSES loads AWS configuration for cfg.AWSRegion. Static credentials are
// used when both keys are configured, the default chain otherwise.
func NewSES(ctx context.Context, cfg config.MailConfig) (*SESMailer, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESWithClient(ses.NewFromConfig(awsCfg)), nil
}

// NewSESWithClient wraps an existing client.
func NewSESWithClient(client RawEmailSender) *SESMailer {
	return &SESMailer{client: client}
}

func (s *SESMailer) Send(ctx context.Context, m Message) error {
	msg, err := buildMsg(m)
	if err != nil {
		return err
	}
	var raw bytes.Buffer
	if _, err := msg.WriteTo(&raw); err != nil {
		return fmt.Errorf("encode mime: %w", err)
	}
	destinations := append(append([]string{}, m.To...), m.CC...)
	_, err = s.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(m.From),
		Destinations: destinations,
		RawMessage:   &types.RawMessage{Data: raw.Bytes()},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
