package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"property-ops-backend/internal/model"
)

// PushSender defines the interface for sending a web push notification.
type PushSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of PushSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Subscriptions is the part of the store the push notifier needs.
type Subscriptions interface {
	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// PushNotifier sends short alerts to every registered manager browser.
type PushNotifier struct {
	subs    Subscriptions
	webpush *webpush.Options
	sender  PushSender
	logger  *zap.Logger
}

// NewPushNotifier creates a notifier. With nil options or no VAPID keys it
// is disabled and Notify does nothing.
func NewPushNotifier(subs Subscriptions, options *webpush.Options, logger *zap.Logger) *PushNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PushNotifier{
		subs:    subs,
		webpush: options,
		sender:  &WebPushSender{},
		logger:  logger.With(zap.String("component", "push")),
	}
}

// Enabled reports whether VAPID keys are configured.
func (p *PushNotifier) Enabled() bool {
	return p.webpush != nil && p.webpush.VAPIDPublicKey != "" && p.webpush.VAPIDPrivateKey != ""
}

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
}

// Notify pushes title and body to every subscription. Expired subscriptions
// (410 Gone) are deleted.
func (p *PushNotifier) Notify(ctx context.Context, kind Kind, title, body string) BatchResult {
	var result BatchResult
	if !p.Enabled() {
		return result
	}

	subscriptions, err := p.subs.ListSubscriptions(ctx)
	if err != nil {
		p.logger.Error("Error fetching subscriptions", zap.Error(err))
		result.Failures = append(result.Failures, Failure{Kind: kind, Error: err.Error()})
		return result
	}
	if len(subscriptions) == 0 {
		return result
	}

	payload, err := json.Marshal(pushPayload{Title: title, Body: body, Tag: string(kind)})
	if err != nil {
		result.Failures = append(result.Failures, Failure{Kind: kind, Error: err.Error()})
		return result
	}

	p.logger.Info("Sending push notifications", zap.Int("subscriptions", len(subscriptions)), zap.String("kind", string(kind)))
	for _, sub := range subscriptions {
		if err := p.send(ctx, sub, payload); err != nil {
			result.Failures = append(result.Failures, Failure{Kind: kind, Recipient: sub.Endpoint, Error: err.Error()})
			continue
		}
		result.Sent++
	}
	return result
}

// send sends a single web push notification.
func (p *PushNotifier) send(ctx context.Context, sub model.PushSubscription, payload []byte) error {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := p.sender.Send(payload, wpSub, p.webpush)
	if err != nil {
		p.logger.Warn("Error sending notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone:
		p.logger.Info("Subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := p.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			p.logger.Warn("Failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
		return fmt.Errorf("subscription expired")
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}
