package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"daybook/internal/config"
)

const userAgent = "Daybook/0.1.0"

// Notifier delivers notices to an out-of-band channel.
type Notifier interface {
	Notify(ctx context.Context, notice Notice) error
}

// NewNotifier builds a notifier backed by ntfy when a topic is configured,
// otherwise a noop implementation.
func NewNotifier(cfg *config.Config) Notifier {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopNotifier{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyNotifier{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		titler:   cases.Title(language.English),
	}
}

type ntfyNotifier struct {
	endpoint string
	client   *http.Client
	titler   cases.Caser
}

func (n *ntfyNotifier) Notify(ctx context.Context, notice Notice) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(notice.Message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", fmt.Sprintf("Daybook - %s", n.titler.String(string(notice.Kind))))
	req.Header.Set("Tags", strings.Join([]string{"daybook", "sync", string(notice.Kind)}, ","))
	if notice.Kind == KindFailed {
		req.Header.Set("Priority", "high")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notice) error { return nil }
