package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"property-ops-backend/config"
)

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ErrNoRecipient is returned for a message without a usable address.
var ErrNoRecipient = errors.New("message has no recipient")

type mailRequest struct {
	From        string       `json:"from"`
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	Text        string       `json:"text"`
	Tags        []string     `json:"tags,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// MailSink sends e-mail through an HTTP mail API. Network errors, 429 and 5xx
// responses are retried up to the configured count.
type MailSink struct {
	client   *resty.Client
	endpoint string
	from     string
	logger   *zap.Logger
}

// NewMailSink creates a mail sink from cfg.
func NewMailSink(cfg config.MailConfig, logger *zap.Logger) *MailSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(4*cfg.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetLogger(logger.Sugar())
	if cfg.APIToken != "" {
		client.SetAuthToken(cfg.APIToken)
	}
	return &MailSink{
		client:   client,
		endpoint: cfg.Endpoint,
		from:     cfg.From,
		logger:   logger.With(zap.String("component", "mail")),
	}
}

// Send posts msg to the mail API.
func (m *MailSink) Send(ctx context.Context, msg Message) error {
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		if addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return ErrNoRecipient
	}

	started := time.Now()
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(mailRequest{
			From:        m.from,
			To:          to,
			Subject:     msg.Subject,
			Text:        msg.Body,
			Tags:        []string{string(msg.Kind)},
			Attachments: msg.Attachments,
		}).
		Post(m.endpoint)
	if err != nil {
		m.logger.Error("Mail API call failed",
			zap.String("kind", string(msg.Kind)),
			zap.Strings("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("failed to call mail API: %w", err)
	}
	if resp.IsError() {
		m.logger.Error("Mail API rejected message",
			zap.String("kind", string(msg.Kind)),
			zap.Strings("to", to),
			zap.Int("status_code", resp.StatusCode()),
			zap.Int("attempts", resp.Request.Attempt),
		)
		return fmt.Errorf("mail API returned %d: %s", resp.StatusCode(), resp.String())
	}

	m.logger.Debug("Mail sent",
		zap.String("kind", string(msg.Kind)),
		zap.Strings("to", to),
		zap.Duration("took", time.Since(started)),
	)
	return nil
}
