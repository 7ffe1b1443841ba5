package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds one notification request.
const DefaultTimeout = 5 * time.Second

// Notifier delivers a free-text message to the operator channel.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

type chatRequest struct {
	AgentID string `json:"agent_id"`
	Message string `json:"message"`
}

// HTTP posts messages to {baseURL}/api/chat. It never retries.
type HTTP struct {
	client  *http.Client
	url     string
	agentID string
}

func New(baseURL, agentID string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTP{
		client:  &http.Client{Timeout: timeout},
		url:     strings.TrimRight(baseURL, "/") + "/api/chat",
		agentID: agentID,
	}
}

func (h *HTTP) Send(ctx context.Context, message string) error {
	b, err := json.Marshal(chatRequest{AgentID: h.agentID, Message: message})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint status %d", resp.StatusCode)
	}
	return nil
}
