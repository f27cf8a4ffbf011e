// internal/notify/senders.go
package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// EmailSender delivers one escalation email.
type EmailSender interface {
	SendEmail(ctx context.Context, from, to, subject, body string) error
}

// SMSSender delivers one escalation text message.
type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, message string) error
}

// SESEmailSender sends email through AWS SES.
type SESEmailSender struct {
	client *ses.Client
}

// NewSESEmailSender builds an SES-backed sender for a region.
func NewSESEmailSender(ctx context.Context, region string) (*SESEmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SESEmailSender{client: ses.NewFromConfig(cfg)}, nil
}

func (s *SESEmailSender) SendEmail(ctx context.Context, from, to, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	return err
}

// SNSSMSSender sends text messages through AWS SNS.
type SNSSMSSender struct {
	client *sns.Client
}

// NewSNSSMSSender builds an SNS-backed sender for a region.
func NewSNSSMSSender(ctx context.Context, region string) (*SNSSMSSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSSMSSender{client: sns.NewFromConfig(cfg)}, nil
}

func (s *SNSSMSSender) SendSMS(ctx context.Context, phoneNumber, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(phoneNumber),
		Message:     aws.String(message),
	})
	return err
}
