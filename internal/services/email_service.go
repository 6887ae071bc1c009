package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkglogger "github.com/BradenHooton/tripshare/pkg/logger"
)

// GroupInvitation is the content of an invitation email
type GroupInvitation struct {
	To          string
	GroupName   string
	InviterName string
	Token       string
	ExpiresAt   time.Time
}

// InviteMailer sends group invitation emails
type InviteMailer interface {
	SendGroupInvite(ctx context.Context, invite GroupInvitation) error
}

// SESClient is the subset of the SES API used for sending
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   SESClient
	fromAddress string
	baseURL     string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(ctx context.Context, region, fromAddress, baseURL string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newSESEmailService(ses.NewFromConfig(cfg), fromAddress, baseURL, logger), nil
}

func newSESEmailService(client SESClient, fromAddress, baseURL string, logger *slog.Logger) *AWSSESEmailService {
	return &AWSSESEmailService{
		sesClient:   client,
		fromAddress: fromAddress,
		baseURL:     baseURL,
		logger:      logger,
	}
}

// InviteLink is the deep link a recipient follows to accept an invite
func (s *AWSSESEmailService) InviteLink(token string) string {
	return fmt.Sprintf("%s/invites/%s", s.baseURL, token)
}

// SendGroupInvite emails an invitation link for a trip group
func (s *AWSSESEmailService) SendGroupInvite(ctx context.Context, invite GroupInvitation) error {
	link := s.InviteLink(invite.Token)
	expires := invite.ExpiresAt.UTC().Format("January 2, 2006")

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .button { display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>You're invited to %s</h1>
        </div>
        <p>%s invited you to join their trip group on TripShare.</p>
        <p><a href="%s" class="button">Accept Invitation</a></p>
        <p>Or copy and paste this link in your browser:<br>
        <code>%s</code></p>
        <p>This invitation expires on %s.</p>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, html.EscapeString(invite.GroupName), html.EscapeString(invite.InviterName), link, link, expires)

	textBody := fmt.Sprintf(`You're invited to %s

%s invited you to join their trip group on TripShare.

Accept the invitation here:
%s

This invitation expires on %s.

This is an automated message. Please do not reply to this email.
`, invite.GroupName, invite.InviterName, link, expires)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{invite.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(fmt.Sprintf("Join %s on TripShare", invite.GroupName)),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send invitation email via SES",
			slog.String("email", pkglogger.SanitizedEmail(invite.To)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("invitation email sent",
		slog.String("email", pkglogger.SanitizedEmail(invite.To)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
