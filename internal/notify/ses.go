package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type sesAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SES sends plain-text email through Amazon SES.
type SES struct {
	client sesAPI
	from   string
}

func NewSES(ctx context.Context, region, from string) (*SES, error) {
	if from == "" {
		return nil, fmt.Errorf("missing sender address")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SES{client: ses.NewFromConfig(cfg), from: from}, nil
}

func (s *SES) ApplicationReceived(ctx context.Context, r Receipt) error {
	subject, body := receivedBody(r)
	return s.send(ctx, r.To, subject, body)
}

func (s *SES) ApplicationDecided(ctx context.Context, d Decision) error {
	subject, body := decidedBody(d)
	return s.send(ctx, d.To, subject, body)
}

func (s *SES) send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return nil
	}
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.from),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}
	return nil
}
