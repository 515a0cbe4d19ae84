package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"storefront/internal/logging"
)

// EmailClient delivers one plain-text message.
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type SendGridClient struct {
	apiKey string
	logger *zap.Logger
}

func NewSendGridClient(apiKey string, logger *zap.Logger) *SendGridClient {
	return &SendGridClient{apiKey: apiKey, logger: logging.OrNop(logger)}
}

func (c *SendGridClient) Send(ctx context.Context, from, to, subject, body string) error {
	if c.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if from == "" || to == "" {
		return fmt.Errorf("sender and recipient required")
	}
	message := mail.NewSingleEmail(
		mail.NewEmail("Storefront", from),
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)
	client := sendgrid.NewSendClient(c.apiKey)
	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn("sendgrid rejected message", zap.Int("status", resp.StatusCode), zap.String("body", resp.Body))
		return fmt.Errorf("sendgrid send failed: status=%d", resp.StatusCode)
	}
	c.logger.Debug("mail sent", zap.Int("status", resp.StatusCode), zap.String("to", to), zap.String("subject", subject))
	return nil
}
