package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Result is the outcome of one health check.
type Result struct {
	Healthy   bool          `json:"is_healthy"`
	Message   string        `json:"status_message"`
	CheckedAt time.Time     `json:"check_time"`
	Latency   time.Duration `json:"-"`
}

// Prober performs a single health check against the gateway.
type Prober interface {
	Check(ctx context.Context) Result
}

// HealthyMessage is reported for any 2xx answer.
const HealthyMessage = "Gateway healthy"

// HTTP probes GET {baseURL}/api/models.
type HTTP struct {
	client *http.Client
	url    string
}

func New(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		client: &http.Client{Timeout: timeout},
		url:    strings.TrimRight(baseURL, "/") + "/api/models",
	}
}

// URL returns the probed endpoint.
func (h *HTTP) URL() string { return h.url }

func (h *HTTP) Check(ctx context.Context) Result {
	start := time.Now()
	res := h.check(ctx)
	res.Latency = time.Since(start)
	res.CheckedAt = time.Now().UTC()
	return res
}

func (h *HTTP) check(ctx context.Context) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return Result{Message: fmt.Sprintf("Health check error: %v", err)}
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return Result{Message: fmt.Sprintf("Health check error: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Result{Healthy: true, Message: HealthyMessage}
	}
	return Result{Message: fmt.Sprintf("Gateway status: %d", resp.StatusCode)}
}
