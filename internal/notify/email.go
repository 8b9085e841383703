package notify

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the part of the SES client the sink uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailSink sends round notifications via Amazon SES.
// User IDs are email addresses; IDs that do not parse as one are skipped.
type EmailSink struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailSink creates an email sink. An empty fromEmail yields a disabled sink
// that logs and drops every message.
func NewEmailSink(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailSink, error) {
	if fromEmail == "" {
		log.Println("Email notifications disabled: SES_FROM_EMAIL not configured")
		return &EmailSink{enabled: false, debug: debug}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email sink with AWS SES (region=%s, from=%s)", awsRegion, fromEmail)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email notifications enabled: from=%s, region=%s", fromEmail, awsRegion)

	return newEmailSink(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, debug), nil
}

func newEmailSink(client sesAPI, fromEmail, fromName, appBaseURL string, debug bool) *EmailSink {
	return &EmailSink{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}
}

// IsEnabled returns whether the sink sends email
func (s *EmailSink) IsEnabled() bool {
	return s.enabled
}

func (s *EmailSink) Notify(ctx context.Context, userID string, msg Message) error {
	if !s.enabled {
		if s.debug {
			log.Printf("[DEBUG] Skipping email (sink disabled): %s to %s", msg.Kind, userID)
		}
		return nil
	}

	addr, err := mail.ParseAddress(userID)
	if err != nil {
		if s.debug {
			log.Printf("[DEBUG] Skipping email: %q is not an address", userID)
		}
		return nil
	}

	subject := Subject(msg)
	text := Render(msg, userID)
	link := fmt.Sprintf("%s/rounds/%s", s.appBaseURL, msg.RoundID)

	textBody := fmt.Sprintf("%s\n\nView the round: %s\n\n---\nThis is an automated message from Tea Round. Please do not reply.\n", text, link)
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<h2>%s</h2>
	<p>%s</p>
	<p><a href="%s">View the round</a></p>
	<p style="font-size: 12px; color: #666;">This is an automated message from Tea Round. Please do not reply.</p>
</body>
</html>
`, html.EscapeString(subject), html.EscapeString(text), html.EscapeString(link))

	if err := s.sendEmail(ctx, addr.Address, subject, htmlBody, textBody); err != nil {
		return &DeliveryError{UserID: userID, Kind: msg.Kind, Err: err}
	}
	return nil
}

// sendEmail sends an email using Amazon SES
func (s *EmailSink) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
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

	if s.debug && result.MessageId != nil {
		log.Printf("[DEBUG] SES message ID: %s", *result.MessageId)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
