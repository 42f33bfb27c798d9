package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type sesAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESSender delivers through Amazon SES. Raw messages are used because the
// simple SendEmail API cannot carry custom headers.
type SESSender struct {
	client sesAPI
}

func NewSESSender(ctx context.Context, region string) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SESSender{client: ses.NewFromConfig(cfg)}, nil
}

func (s *SESSender) Send(ctx context.Context, msg *Message) (string, error) {
	raw, err := buildMIME(msg, "", time.Now())
	if err != nil {
		return "", fmt.Errorf("build message: %w", err)
	}

	out, err := s.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		Source:       aws.String(msg.From),
		Destinations: []string{msg.To},
		RawMessage:   &types.RawMessage{Data: raw},
	})
	if err != nil {
		return "", fmt.Errorf("ses send: %w", err)
	}
	if out.MessageId == nil {
		return "", errors.New("ses send: no message id returned")
	}
	return *out.MessageId, nil
}
