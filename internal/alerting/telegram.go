package alerting

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const telegramTimeout = 10 * time.Second

// Telegram posts batches to the Bot API, one message per configured chat id.
type Telegram struct {
	// BaseURL exists so tests can point the sink at a local server.
	BaseURL string

	limiter *rate.Limiter
}

func NewTelegram() *Telegram {
	return &Telegram{
		BaseURL: "https://api.telegram.org",
		// The Bot API tolerates roughly 30 messages per second across all
		// chats; pacing below that keeps long chat-id lists off the 429s.
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 5),
	}
}

// SendBatch renders header plus lines as one Markdown message and fans it out
// to every chat id. (false, nil) means the sink is disabled or the batch was
// empty.
func (t *Telegram) SendBatch(ctx context.Context, cfg TelegramSettings, header string, lines []string) (bool, error) {
	if !cfg.Enabled || len(lines) == 0 {
		return false, nil
	}
	if err := t.Send(ctx, cfg, ChatText(header, lines)); err != nil {
		return false, err
	}
	return true, nil
}

// Send bypasses the enable flag; the admin test endpoint calls it directly.
// Per-chat failures are collected and the first one is returned after every
// chat id has been tried.
func (t *Telegram) Send(ctx context.Context, cfg TelegramSettings, text string) error {
	if cfg.BotToken == "" || len(cfg.ChatIDs) == 0 {
		return configError("Missing Token/ID")
	}

	client, err := t.client(cfg.Proxy)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, cfg.BotToken)

	var errs []error
	for _, cid := range cfg.ChatIDs {
		if err := t.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := postMessage(ctx, client, endpoint, cid, text); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func postMessage(ctx context.Context, client *http.Client, endpoint, chatID, text string) error {
	form := url.Values{
		"chat_id":    {chatID},
		"text":       {text},
		"parse_mode": {"Markdown"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("chat %s: %w", chatID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("chat %s: HTTP %d", chatID, resp.StatusCode)
	}
	return nil
}

// client builds a fresh HTTP client because the proxy setting can change
// between ticks. Without an explicit proxy the ambient environment applies,
// unlike NVR polling which never goes through one.
func (t *Telegram) client(proxy string) (*http.Client, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, configError(fmt.Sprintf("invalid proxy url: %v", err))
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return &http.Client{Timeout: telegramTimeout, Transport: transport}, nil
}
