package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/good-yellow-bee/alertrelay/internal/models"
)

// GoogleChatConfig holds Google Chat incoming webhook configuration.
type GoogleChatConfig struct {
	WebhookURL string // Google Chat incoming webhook URL
}

// Validate validates the Google Chat configuration.
func (c *GoogleChatConfig) Validate() error {
	if c.WebhookURL == "" {
		return fmt.Errorf("webhook URL is required")
	}
	if !strings.HasPrefix(c.WebhookURL, "https://") {
		return fmt.Errorf("webhook URL must use HTTPS")
	}
	return nil
}

// GoogleChatNotifier posts alert notifications to a Google Chat space
// via incoming webhook.
type GoogleChatNotifier struct {
	config     GoogleChatConfig
	httpClient *http.Client
}

// NewGoogleChatNotifier creates a new Google Chat notifier.
func NewGoogleChatNotifier(config GoogleChatConfig) (*GoogleChatNotifier, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid googlechat config: %w", err)
	}

	return &GoogleChatNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Name returns "googlechat".
func (n *GoogleChatNotifier) Name() string {
	return "googlechat"
}

// chatWebhookMessage is the incoming webhook payload.
type chatWebhookMessage struct {
	Text string `json:"text"`
}

// Send posts a formatted notification for the record.
func (n *GoogleChatNotifier) Send(ctx context.Context, record *models.AlertRecord) error {
	payload := chatWebhookMessage{Text: FormatNotification(record)}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.WebhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("chat webhook error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil
}

// Close is a no-op for the Google Chat notifier.
func (n *GoogleChatNotifier) Close() error {
	return nil
}
