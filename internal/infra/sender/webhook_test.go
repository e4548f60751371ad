package sender

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notify-engine/internal/domain/entity"
)

func testWebhookSender(t *testing.T, handler http.HandlerFunc) (*WebhookSender, *httptest.Server) {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultWebhookConfig()
	cfg.AllowPrivateHosts = true // the test server listens on loopback
	w := NewWebhookSender(entity.ChannelWebhook, cfg)
	w.httpClient = server.Client() // trust the test server's certificate
	return w, server
}

func TestWebhookSender_Success(t *testing.T) {
	var received webhookPayload
	w, server := testWebhookSender(t, func(rw http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		rw.Header().Set("X-Request-Id", "req-123")
		rw.WriteHeader(http.StatusOK)
	})

	res, err := w.Send(context.Background(), server.URL, entity.RenderedContent{
		Subject: "Campaign published",
		Body:    "Your campaign is live.",
	})

	require.NoError(t, err)
	assert.Equal(t, "req-123", res.ProviderRef)
	assert.Equal(t, "Campaign published", received.Subject)
	assert.Equal(t, "Your campaign is live.", received.Body)
}

func TestWebhookSender_ServerError(t *testing.T) {
	w, server := testWebhookSender(t, func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := w.Send(context.Background(), server.URL, entity.RenderedContent{Body: "x"})

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, http.StatusServiceUnavailable, serverErr.StatusCode)
}

func TestWebhookSender_ClientError(t *testing.T) {
	w, server := testWebhookSender(t, func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusForbidden)
	})

	_, err := w.Send(context.Background(), server.URL, entity.RenderedContent{Body: "x"})

	var clientErr *ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, http.StatusForbidden, clientErr.StatusCode)
}

func TestWebhookSender_RateLimitedResponse(t *testing.T) {
	w, server := testWebhookSender(t, func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Retry-After", "7")
		rw.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := w.Send(context.Background(), server.URL, entity.RenderedContent{Body: "x"})

	var rateErr *RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.Equal(t, 7*time.Second, rateErr.RetryAfter)
}

func TestWebhookSender_RejectsNonHTTPSTarget(t *testing.T) {
	w := NewWebhookSender(entity.ChannelWebhook, DefaultWebhookConfig())

	for _, target := range []string{"", "not-a-url", "http://receiver.example.com/hook", "ftp://x"} {
		_, err := w.Send(context.Background(), target, entity.RenderedContent{Body: "x"})
		assert.ErrorIs(t, err, ErrInvalidTarget, "target %q", target)
	}
}

func TestWebhookSender_RejectsPrivateNetworkTarget(t *testing.T) {
	w := NewWebhookSender(entity.ChannelWebhook, DefaultWebhookConfig())

	_, err := w.Send(context.Background(), "https://127.0.0.1/hook", entity.RenderedContent{Body: "x"})

	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestWebhookSender_ServesConfiguredKind(t *testing.T) {
	assert.Equal(t, entity.ChannelChat,
		NewWebhookSender(entity.ChannelChat, DefaultWebhookConfig()).Kind())
}
