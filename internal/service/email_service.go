package service

import (
	"context"
	"fmt"
	"html"
	"time"

	"focusquest/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	location  *time.Location
	enabled   bool
	debug     bool
}

// NewEmailService creates a new email service. An empty fromEmail yields a disabled service.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string, location *time.Location, debug bool) (*EmailService, error) {
	if location == nil {
		location = time.UTC
	}

	if fromEmail == "" {
		logger.Log.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{location: location, enabled: false, debug: debug}, nil
	}

	if debug {
		logger.Log.WithFields(logrus.Fields{
			"region": awsRegion,
			"from":   fromEmail,
			"name":   fromName,
		}).Debug("initializing email service with AWS SES")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"from": fromEmail, "region": awsRegion}).Info("email service enabled")

	return &EmailService{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		location:  location,
		enabled:   true,
		debug:     debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendMissedDoseAlert tells a parent that a scheduled dose has not been marked
func (s *EmailService) SendMissedDoseAlert(ctx context.Context, toEmail, toName, childName, medication string, scheduled time.Time) error {
	if !s.enabled || toEmail == "" {
		if s.debug {
			logger.Log.WithField("to", toEmail).Debug("skipping missed dose email")
		}
		return nil
	}

	when := scheduled.In(s.location).Format("15:04 on Mon 2 Jan")
	subject := fmt.Sprintf("%s has not taken %s", childName, medication)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #e2844a; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Missed medication</h1>
		</div>
		<div class="content">
			<p>Hi %s,</p>
			<p><strong>%s</strong> was due to take <strong>%s</strong> at %s and it has not been marked as taken yet.</p>
			<p>You can mark the dose as taken, delayed or missed from the FocusQuest app.</p>
		</div>
		<div class="footer">
			<p>This is an automated email from FocusQuest. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, html.EscapeString(toName), html.EscapeString(childName), html.EscapeString(medication), when)

	textBody := fmt.Sprintf(`Hi %s,

%s was due to take %s at %s and it has not been marked as taken yet.

You can mark the dose as taken, delayed or missed from the FocusQuest app.

---
This is an automated email from FocusQuest. Please do not reply.
`, toName, childName, medication, when)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	entry := logger.Log.WithFields(logrus.Fields{"to": toEmail, "subject": subject})
	if result.MessageId != nil {
		entry = entry.WithField("message_id", *result.MessageId)
	}
	entry.Info("email sent")
	return nil
}
