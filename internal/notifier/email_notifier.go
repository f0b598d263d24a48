package notifier

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailSender delivers mail through Amazon SES.
type EmailSender struct {
	client sesAPI
	sender string
}

func NewEmailSender(cfg aws.Config, sender string) *EmailSender {
	return &EmailSender{client: ses.NewFromConfig(cfg), sender: sender}
}

type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

func (s *EmailSender) Send(ctx context.Context, msg Email) error {
	if s.sender == "" {
		return fmt.Errorf("sender email address is not configured")
	}
	if msg.To == "" {
		return fmt.Errorf("recipient email address is empty")
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(msg.Subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(msg.HTML),
				},
				Text: &types.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(msg.Text),
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	zap.L().Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
