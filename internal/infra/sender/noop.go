package sender

import (
	"context"
	"log/slog"

	"notify-engine/internal/domain/entity"
)

// NoopSender accepts every delivery without performing one. It stands in for
// channels whose provider is not configured in a deployment, so the engine's
// routing and state machine stay exercisable without live SMS or push
// credentials. This follows the Null Object pattern.
type NoopSender struct {
	kind   entity.ChannelKind
	logger *slog.Logger
}

// NewNoopSender creates a no-op sender for the given channel kind.
func NewNoopSender(kind entity.ChannelKind, logger *slog.Logger) *NoopSender {
	return &NoopSender{kind: kind, logger: logger}
}

// Kind returns the channel this sender serves.
func (n *NoopSender) Kind() entity.ChannelKind {
	return n.kind
}

// Send logs the delivery and reports success.
func (n *NoopSender) Send(_ context.Context, target string, content entity.RenderedContent) (entity.SendResult, error) {
	n.logger.Info("noop delivery",
		slog.String("channel", string(n.kind)),
		slog.String("target", target),
		slog.String("subject", content.Subject))
	return entity.SendResult{ProviderRef: "noop"}, nil
}
