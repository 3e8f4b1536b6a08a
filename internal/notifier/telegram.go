package notifier

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultTelegramURL is the Telegram Bot API endpoint.
const DefaultTelegramURL = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	Client   *resty.Client
	// Backoff is the first retry delay of SendWithRetry; it doubles per attempt.
	Backoff time.Duration

	pollClient *resty.Client
	logger     *zap.Logger
}

// NewTelegramNotifier creates a notifier with optional proxy support.
// An empty baseURL selects the public Bot API.
func NewTelegramNotifier(botToken, chatID, baseURL, proxyURL string, logger *zap.Logger) *TelegramNotifier {
	if baseURL == "" {
		baseURL = DefaultTelegramURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().SetBaseURL(baseURL).SetTimeout(30 * time.Second)
	// getUpdates holds the connection for up to 30s.
	pollClient := resty.New().SetBaseURL(baseURL).SetTimeout(35 * time.Second)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
		pollClient.SetProxy(proxyURL)
	}
	return &TelegramNotifier{
		BotToken:   botToken,
		ChatID:     chatID,
		Client:     client,
		Backoff:    time.Second,
		pollClient: pollClient,
		logger:     logger,
	}
}

// Enabled reports whether a bot token and chat are configured.
func (t *TelegramNotifier) Enabled() bool {
	return t != nil && t.BotToken != "" && t.ChatID != ""
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send sends an HTML message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	var out apiResponse
	resp, err := t.Client.R().
		SetContext(ctx).
		SetPathParam("token", t.BotToken).
		SetBody(map[string]string{
			"chat_id":    t.ChatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		SetResult(&out).
		Post("/bot{token}/sendMessage")
	if err != nil {
		return errors.Wrap(err, "send message")
	}
	if resp.IsError() || !out.OK {
		return errors.Errorf("telegram API error: status %d, body: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := t.Backoff << uint(i)
		t.logger.Warn("telegram send failed",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries+1),
			zap.Duration("retry_in", backoff),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return errors.Wrapf(lastErr, "all %d attempts failed", maxRetries+1)
}
