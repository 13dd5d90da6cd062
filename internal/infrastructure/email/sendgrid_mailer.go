package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"aulanet/pkg/config"
)

// SendgridMailer delivers notification mail through SendGrid.
type SendgridMailer struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
	logger   *zap.SugaredLogger
}

func NewSendgridMailer(cfg config.EmailConfig, logger *zap.SugaredLogger) *SendgridMailer {
	return &SendgridMailer{
		client:   sendgrid.NewSendClient(cfg.SendgridKey),
		fromName: cfg.FromName,
		fromAddr: cfg.FromAddress,
		logger:   logger,
	}
}

func (m *SendgridMailer) Send(ctx context.Context, toAddress, toName, subject, htmlBody string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.fromAddr),
		subject,
		mail.NewEmail(toName, toAddress),
		"",
		htmlBody,
	)
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("send mail: status %d: %s", resp.StatusCode, resp.Body)
	}
	m.logger.Debugw("mail sent", "to", toAddress, "subject", subject)
	return nil
}
