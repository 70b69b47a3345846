package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/config"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/queue"
)

// Provider delivers both push and email messages.
type Provider interface {
	PushSender
	EmailSender
}

// NewProvider builds the provider named in the configuration.
func NewProvider(cfg config.NotifyConfig, log *slog.Logger) (Provider, error) {
	switch cfg.Provider {
	case "", "log":
		return NewLogProvider(log), nil
	case "webhook":
		return NewWebhookProvider(cfg.WebhookURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: unknown notify provider %q", domain.ErrConfiguration, cfg.Provider)
	}
}

// LogProvider writes every message to the log. It never fails.
type LogProvider struct {
	logger *slog.Logger
}

// NewLogProvider creates a LogProvider.
func NewLogProvider(log *slog.Logger) *LogProvider {
	if log == nil {
		log = slog.Default()
	}
	return &LogProvider{logger: log.With("component", "notify_provider")}
}

func (p *LogProvider) SendPush(ctx context.Context, msg queue.PushPayload) error {
	p.logger.InfoContext(ctx, "push delivered",
		"recipient_id", msg.RecipientID,
		"notification_id", msg.NotificationID,
		"title", msg.Title)
	return nil
}

func (p *LogProvider) SendEmail(ctx context.Context, msg queue.EmailPayload) error {
	p.logger.InfoContext(ctx, "email delivered",
		"template", msg.Template,
		"subject", msg.Subject)
	return nil
}

// WebhookProvider posts each message as JSON to a single endpoint. Any
// non-2xx answer is a delivery failure.
type WebhookProvider struct {
	url    string
	client *http.Client
}

// NewWebhookProvider creates a WebhookProvider.
func NewWebhookProvider(url string, timeout time.Duration) *WebhookProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookProvider{url: url, client: &http.Client{Timeout: timeout}}
}

type webhookMessage struct {
	Channel string `json:"channel"`
	Payload any    `json:"payload"`
}

func (p *WebhookProvider) SendPush(ctx context.Context, msg queue.PushPayload) error {
	return p.post(ctx, webhookMessage{Channel: "push", Payload: msg})
}

func (p *WebhookProvider) SendEmail(ctx context.Context, msg queue.EmailPayload) error {
	return p.post(ctx, webhookMessage{Channel: "email", Payload: msg})
}

func (p *WebhookProvider) post(ctx context.Context, msg webhookMessage) error {
	buf, err := json.Marshal(msg)
	if err != nil {
		return queue.Permanent(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(buf))
	if err != nil {
		return queue.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}
