package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"goggles/internal/config"
)

const userAgent = "goggles/1"

// Event identifies a notification kind.
type Event string

const (
	EventJobFailed           Event = "job_failed"
	EventBatchSQLFailed      Event = "batch_sql_failed"
	EventMacroBatchCompleted Event = "macro_batch_completed"
	EventTest                Event = "test"
)

// Payload carries event fields. Known keys per event:
//
//	job_failed:            job, attempts, error
//	batch_sql_failed:      row_id, error
//	macro_batch_completed: executed, purged
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed service, or a noop when no topic is configured.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Noop returns a service that drops every event.
func Noop() Service {
	return noopService{}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, err := format(event, payload)
	if err != nil {
		return err
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, error) {
	switch event {
	case EventJobFailed:
		body := fmt.Sprintf("Job %s failed after %v attempt(s): %s",
			stringValue(payload, "job"), payload["attempts"], errorText(payload))
		return message{
			title:    "goggles - Job Failed",
			body:     body,
			tags:     []string{"goggles", "job", "error"},
			priority: "high",
		}, nil
	case EventBatchSQLFailed:
		return message{
			title:    "goggles - Batch SQL Failed",
			body:     fmt.Sprintf("Row %v: %s", payload["row_id"], errorText(payload)),
			tags:     []string{"goggles", "batch_sql", "error"},
			priority: "high",
		}, nil
	case EventMacroBatchCompleted:
		return message{
			title: "goggles - Macro Batch Complete",
			body: fmt.Sprintf("Executed %v batch SQL script(s), purged %v done row(s); maintenance released",
				payload["executed"], payload["purged"]),
			tags: []string{"goggles", "batch_sql", "completed"},
		}, nil
	case EventTest:
		return message{
			title:    "goggles - Test",
			body:     "Notification system test",
			tags:     []string{"goggles", "test"},
			priority: "low",
		}, nil
	default:
		return message{}, fmt.Errorf("unsupported notification event %q", event)
	}
}

func stringValue(payload Payload, key string) string {
	if v, ok := payload[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func errorText(payload Payload) string {
	switch v := payload["error"].(type) {
	case error:
		return strings.TrimSpace(v.Error())
	case string:
		if text := strings.TrimSpace(v); text != "" {
			return text
		}
	}
	return "unknown"
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
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

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
