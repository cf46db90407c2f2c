package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// OutageNotifier pushes outage and recovery events to an operator
// webhook. A nil or URL-less notifier is disabled and drops events.
type OutageNotifier struct {
	webhookURL string
	authHeader string
	cooldown   time.Duration
	client     *http.Client

	mu         sync.Mutex
	lastSentAt map[string]time.Time
}

func NewOutageNotifier(webhookURL, authHeader string, cooldownMinutes int) *OutageNotifier {
	if cooldownMinutes < 0 {
		cooldownMinutes = 0
	}
	return &OutageNotifier{
		webhookURL: strings.TrimSpace(webhookURL),
		authHeader: strings.TrimSpace(authHeader),
		cooldown:   time.Duration(cooldownMinutes) * time.Minute,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		lastSentAt: make(map[string]time.Time),
	}
}

func (n *OutageNotifier) enabled() bool {
	return n != nil && n.webhookURL != ""
}

// Notify posts one event to the webhook, subject to a per-event-type
// cooldown. Reports whether a delivery was attempted.
func (n *OutageNotifier) Notify(ctx context.Context, event, message string) (bool, error) {
	if !n.enabled() {
		return false, nil
	}

	if n.cooldown > 0 {
		n.mu.Lock()
		last, seen := n.lastSentAt[event]
		if seen && time.Since(last) < n.cooldown {
			n.mu.Unlock()
			return false, nil
		}
		n.lastSentAt[event] = time.Now()
		n.mu.Unlock()
	}

	payload := map[string]any{
		"event":   event,
		"message": message,
		"sentAt":  time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	request.Header.Set("Content-Type", "application/json")
	if n.authHeader != "" {
		request.Header.Set("Authorization", n.authHeader)
	}

	response, err := n.client.Do(request)
	if err != nil {
		return false, err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		rawBody, _ := io.ReadAll(io.LimitReader(response.Body, 1024))
		return false, fmt.Errorf("webhook status=%d body=%s", response.StatusCode, strings.TrimSpace(string(rawBody)))
	}
	return true, nil
}
