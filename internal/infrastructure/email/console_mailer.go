package email

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// SentMessage records one delivery accepted by the console mailer.
type SentMessage struct {
	ToAddress string
	ToName    string
	Subject   string
	HTMLBody  string
}

// ConsoleMailer logs mail instead of sending it. It is the fallback
// when no SendGrid key is configured, and doubles as the test mailer;
// every accepted message is retained for inspection.
type ConsoleMailer struct {
	mu     sync.Mutex
	sent   []SentMessage
	logger *zap.SugaredLogger
}

func NewConsoleMailer(logger *zap.SugaredLogger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

func (m *ConsoleMailer) Send(ctx context.Context, toAddress, toName, subject, htmlBody string) error {
	m.mu.Lock()
	m.sent = append(m.sent, SentMessage{ToAddress: toAddress, ToName: toName, Subject: subject, HTMLBody: htmlBody})
	m.mu.Unlock()

	m.logger.Infow("mail (console)", "to", toAddress, "subject", subject)
	return nil
}

// SentMessages returns a copy of everything accepted so far.
func (m *ConsoleMailer) SentMessages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
