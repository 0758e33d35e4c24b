package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/cleaning-dispatch/internal/config"
)

// Message is a single email handed to the provider.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Sender delivers messages and mirrors events to an optional webhook.
type Sender interface {
	SendEmail(ctx context.Context, msg Message) error
	PostWebhook(ctx context.Context, payload any) error
}

type emailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type providerError struct {
	Message string `json:"message"`
}

// HTTPSender talks to the email provider's REST API.
type HTTPSender struct {
	email   *resty.Client
	webhook *resty.Client
	cfg     config.NotificationConfig
	logger  *zap.Logger
}

// NewHTTPSender builds a sender. With no provider URL configured messages are only logged.
func NewHTTPSender(cfg config.NotificationConfig, logger *zap.Logger) *HTTPSender {
	timeout := cfg.Timeout()
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	newClient := func() *resty.Client {
		return resty.New().
			SetTimeout(timeout).
			SetRetryCount(cfg.RetryCount).
			SetRetryWaitTime(200 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() >= 500 || r.StatusCode() == 429
			}).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json")
	}

	email := newClient()
	if cfg.EmailAPIKey != "" {
		email.SetAuthToken(cfg.EmailAPIKey)
	}

	return &HTTPSender{
		email:   email,
		webhook: newClient(),
		cfg:     cfg,
		logger:  logger,
	}
}

// SendEmail posts the message to the provider.
func (s *HTTPSender) SendEmail(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("email recipient missing")
	}
	if strings.TrimSpace(s.cfg.EmailAPIURL) == "" {
		s.logger.Info("email provider not configured; message logged only",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject))
		return nil
	}

	var failure providerError
	resp, err := s.email.R().
		SetContext(ctx).
		SetBody(emailRequest{From: s.cfg.EmailFrom, To: msg.To, Subject: msg.Subject, Text: msg.Text}).
		SetError(&failure).
		Post(s.cfg.EmailAPIURL)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("email provider returned %d: %s", resp.StatusCode(), failure.Message)
	}
	return nil
}

// PostWebhook mirrors payload as JSON to the configured webhook URL, if any.
func (s *HTTPSender) PostWebhook(ctx context.Context, payload any) error {
	if strings.TrimSpace(s.cfg.WebhookURL) == "" {
		return nil
	}
	resp, err := s.webhook.R().
		SetContext(ctx).
		SetBody(payload).
		Post(s.cfg.WebhookURL)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned %d", resp.StatusCode())
	}
	return nil
}
