package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"notify-engine/internal/domain/entity"
)

// WebhookConfig contains configuration for webhook delivery.
type WebhookConfig struct {
	// Timeout is the HTTP request timeout per delivery.
	Timeout time.Duration

	// RequestsPerSecond is the sustained delivery rate toward receivers.
	RequestsPerSecond float64

	// Burst is the rate limiter burst capacity.
	Burst int

	// AllowPrivateHosts disables the private-network target check.
	// Only meant for local development against receivers on localhost.
	AllowPrivateHosts bool
}

// DefaultWebhookConfig returns the webhook transport defaults.
func DefaultWebhookConfig() WebhookConfig {
	return WebhookConfig{
		Timeout:           10 * time.Second,
		RequestsPerSecond: 5,
		Burst:             10,
	}
}

// WebhookSender posts rendered content as JSON to per-notification target
// URLs. The same transport serves the webhook and chat channels; chat
// providers are addressed through their incoming-webhook URLs.
type WebhookSender struct {
	kind        entity.ChannelKind
	config      WebhookConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	breaker     *gobreaker.CircuitBreaker
}

// NewWebhookSender creates a webhook sender for the given channel kind.
// Failures trip a circuit breaker shared across targets, so a dead receiver
// fleet fails fast instead of tying up delivery passes.
func NewWebhookSender(kind entity.ChannelKind, config WebhookConfig) *WebhookSender {
	settings := gobreaker.Settings{
		Name:    "webhook-" + string(kind),
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}

	return &WebhookSender{
		kind:        kind,
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(config.RequestsPerSecond, config.Burst),
		breaker:     gobreaker.NewCircuitBreaker(settings),
	}
}

// Kind returns the channel this sender serves.
func (w *WebhookSender) Kind() entity.ChannelKind {
	return w.kind
}

// webhookPayload is the JSON body posted to the target URL.
type webhookPayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send posts the content to the target URL.
func (w *WebhookSender) Send(ctx context.Context, target string, content entity.RenderedContent) (entity.SendResult, error) {
	if err := w.validateTarget(target); err != nil {
		return entity.SendResult{}, err
	}

	if err := w.rateLimiter.Allow(ctx); err != nil {
		return entity.SendResult{}, fmt.Errorf("rate limit wait: %w", err)
	}

	ref, err := w.breaker.Execute(func() (interface{}, error) {
		return w.post(ctx, target, content)
	})
	if err != nil {
		return entity.SendResult{}, err
	}
	return entity.SendResult{ProviderRef: ref.(string)}, nil
}

// post performs one HTTP delivery and classifies the response.
func (w *WebhookSender) post(ctx context.Context, target string, content entity.RenderedContent) (string, error) {
	jsonData, err := json.Marshal(webhookPayload{Subject: content.Subject, Body: content.Body})
	if err != nil {
		return "", fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// Receivers may echo a delivery ID; fall back to the request ID
		// header common to proxy fleets.
		ref := resp.Header.Get("X-Request-Id")
		if ref == "" {
			ref = resp.Status
		}
		return ref, nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RateLimitError{
			Message:    "webhook receiver rate limit exceeded",
			RetryAfter: extractRetryAfter(resp),
		}
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return "", &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("webhook client error %d: %s", resp.StatusCode, string(body)),
		}
	}
	return "", &ServerError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("webhook server error %d: %s", resp.StatusCode, string(body)),
	}
}

// validateTarget accepts only absolute https URLs and, unless configured
// otherwise, refuses targets resolving to private networks.
func (w *WebhookSender) validateTarget(target string) error {
	if err := entity.ValidateTargetURL(target); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	if !w.config.AllowPrivateHosts {
		if err := entity.ValidatePublicHost(target); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTarget, target)
		}
	}
	return nil
}

// extractRetryAfter reads the Retry-After header, defaulting to 5s.
func extractRetryAfter(resp *http.Response) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 5 * time.Second
}
