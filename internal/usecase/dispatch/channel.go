// Package dispatch implements the notification delivery orchestrator: it
// validates and persists submissions, claims notifications for processing,
// fans delivery out across enabled channels, records every attempt in the
// delivery log and drives the status state machine.
package dispatch

import (
	"context"
	"sort"

	"notify-engine/internal/domain/entity"
)

// ChannelSender delivers rendered content to a target over one channel kind.
// One implementation exists per channel (email, SMS, push, chat, webhook);
// transports are external collaborators behind this port.
//
// Thread safety: implementations must be safe for concurrent use, since the
// dispatcher fans out across channels in parallel.
//
// Context handling: implementations must respect cancellation and deadline;
// the dispatcher bounds every pass with a per-notification timeout.
type ChannelSender interface {
	// Kind returns the channel this sender serves.
	Kind() entity.ChannelKind

	// Send delivers content to the target address. On success it returns an
	// opaque provider reference for the audit log. Any returned error is
	// recorded as a failed attempt for this channel only; it never aborts
	// sibling channels.
	Send(ctx context.Context, target string, content entity.RenderedContent) (entity.SendResult, error)
}

// Renderer turns a template reference and a data bag into sendable content.
// A failure is reported as *entity.RenderError and is treated as a
// non-retryable failure of that channel attempt.
type Renderer interface {
	Render(templateRef string, data map[string]any) (entity.RenderedContent, error)
}

// PreferenceResolver narrows requested channels to the ones enabled for a
// recipient and event type.
type PreferenceResolver interface {
	Resolve(ctx context.Context, recipientID *string, typ entity.NotificationType, requested []entity.ChannelKind) ([]entity.ChannelKind, error)
}

// SenderRegistry maps channel kinds to their senders. A requested channel
// without a registration is a configuration error surfaced at process time
// as a failed attempt, not at submission time.
type SenderRegistry struct {
	senders map[entity.ChannelKind]ChannelSender
}

// NewSenderRegistry builds a registry from the given senders. Registering
// two senders for the same kind keeps the last one.
func NewSenderRegistry(senders ...ChannelSender) *SenderRegistry {
	r := &SenderRegistry{senders: make(map[entity.ChannelKind]ChannelSender, len(senders))}
	for _, s := range senders {
		r.senders[s.Kind()] = s
	}
	return r
}

// Lookup returns the sender registered for a channel kind.
func (r *SenderRegistry) Lookup(kind entity.ChannelKind) (ChannelSender, bool) {
	s, ok := r.senders[kind]
	return s, ok
}

// Kinds returns the registered channel kinds in stable order.
func (r *SenderRegistry) Kinds() []entity.ChannelKind {
	kinds := make([]entity.ChannelKind, 0, len(r.senders))
	for k := range r.senders {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
