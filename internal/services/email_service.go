package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	pkglogger "github.com/jamdmasud/JWTAuthProviderAPI/pkg/logger"
)

// EmailService defines the interface for sending password reset emails
type EmailService interface {
	SendPasswordResetEmail(ctx context.Context, email, userID, token string, expiresAt time.Time) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	baseURL     string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress, baseURL string, logger *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		baseURL:     baseURL,
		logger:      logger,
	}, nil
}

// SendPasswordResetEmail delivers the reset link. This is the only
// place the plaintext token leaves the process.
func (s *AWSSESEmailService) SendPasswordResetEmail(ctx context.Context, email, userID, token string, expiresAt time.Time) error {
	resetLink := fmt.Sprintf("%s/#/ResetPassword?id=%s&code=%s",
		s.baseURL, url.QueryEscape(userID), url.QueryEscape(token))

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h1>Reset Your Password</h1>
        <p>We received a request to reset the password for your account.</p>
        <p><a href="%s" style="display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Reset Password</a></p>
        <p>Or copy and paste this link in your browser:<br><code>%s</code></p>
        <p>This link can be used once and expires at %s.</p>
        <p>If you did not request a password reset, you can ignore this email. Your password will not change.</p>
    </div>
</body>
</html>
`, resetLink, resetLink, expiresAt.UTC().Format(time.RFC1123))

	textBody := fmt.Sprintf(`Reset Your Password

We received a request to reset the password for your account. Use the link below:

%s

This link can be used once and expires at %s.

If you did not request a password reset, you can ignore this email. Your password will not change.
`, resetLink, expiresAt.UTC().Format(time.RFC1123))

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Reset Password"),
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
		s.logger.Error("failed to send password reset email via SES",
			slog.String("email", pkglogger.MaskedEmail(email)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("password reset email sent",
		slog.String("email", pkglogger.MaskedEmail(email)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
