package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"
)

// Channel delivers a rendered message to a recipient address.
type Channel interface {
	Send(ctx context.Context, to, content string) error
}

// WebhookChannel posts messages to an HTTP endpoint. It stands in for an SMS
// or WhatsApp gateway; the receiving side owns the actual delivery.
type WebhookChannel struct {
	url    string
	client *http.Client
}

type webhookPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// NewWebhookChannel constructs a channel.
func NewWebhookChannel(url string) *WebhookChannel {
	return &WebhookChannel{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the message to the webhook.
func (c *WebhookChannel) Send(ctx context.Context, to, content string) error {
	if c == nil || c.url == "" {
		return errors.New("webhook channel: empty url")
	}
	body, err := json.Marshal(webhookPayload{To: to, Message: content})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("webhook channel: non-2xx")
	}
	return nil
}

// LogChannel writes messages to the application log. Default when no webhook
// is configured, so a dev setup still shows what would have been sent.
type LogChannel struct {
	logger *log.Logger
}

// NewLogChannel constructs a channel.
func NewLogChannel(logger *log.Logger) *LogChannel {
	if logger == nil {
		logger = log.Default()
	}
	return &LogChannel{logger: logger}
}

// Send logs the message.
func (c *LogChannel) Send(ctx context.Context, to, content string) error {
	_ = ctx
	if c == nil || c.logger == nil {
		return errors.New("log channel: nil logger")
	}
	c.logger.Printf("notify to=%s message=%q", to, content)
	return nil
}

// MultiChannel fans a message out to several channels. The first error is
// returned after all channels have been attempted.
type MultiChannel struct {
	channels []Channel
}

// NewMultiChannel constructs a channel.
func NewMultiChannel(channels ...Channel) *MultiChannel {
	return &MultiChannel{channels: channels}
}

// Send forwards to all channels.
func (c *MultiChannel) Send(ctx context.Context, to, content string) error {
	if c == nil {
		return nil
	}
	var first error
	for _, channel := range c.channels {
		if channel == nil {
			continue
		}
		if err := channel.Send(ctx, to, content); err != nil && first == nil {
			first = err
		}
	}
	return first
}
