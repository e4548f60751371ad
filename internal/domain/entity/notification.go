// Package entity defines the core domain entities for the notification
// delivery engine: notifications, delivery attempts, channel kinds and
// user preferences, along with their validation rules and domain errors.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a notification.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusScheduled Status = "SCHEDULED"
	StatusSending   Status = "SENDING"
	StatusSent      Status = "SENT"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusSending, StatusSent, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions other
// than a retry re-claim of FAILED.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusCancelled
}

// Claimable reports whether a notification in this status may be claimed
// into SENDING for processing.
func (s Status) Claimable() bool {
	return s == StatusPending || s == StatusScheduled || s == StatusFailed
}

// NotificationType is the closed enumeration of business events the
// platform notifies about.
type NotificationType string

const (
	TypeCampaignPublished NotificationType = "campaign.published"
	TypeCreatorInvited    NotificationType = "creator.invited"
	TypePayoutCompleted   NotificationType = "payout.completed"
	TypeRightsExpiring    NotificationType = "rights.expiring"
	TypeSystemAlert       NotificationType = "system.alert"
)

// Valid reports whether the type is a known business event.
func (t NotificationType) Valid() bool {
	switch t {
	case TypeCampaignPublished, TypeCreatorInvited, TypePayoutCompleted, TypeRightsExpiring, TypeSystemAlert:
		return true
	}
	return false
}

// Priority orders notifications for operational tooling. It does not affect
// delivery semantics.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Valid reports whether the priority is one of the known levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// Notification is a unit of intent to notify one recipient about one event.
// The payload is immutable after creation; only the dispatcher and scheduler
// mutate status fields, and rows are never deleted by this subsystem.
type Notification struct {
	ID                uuid.UUID
	RecipientID       *string // nil for system notifications
	Type              NotificationType
	RequestedChannels []ChannelKind
	Priority          Priority
	TemplateRef       string
	Data              map[string]any
	Status            Status
	ScheduledFor      *time.Time
	CreatedAt         time.Time
	SentAt            *time.Time
	FailedAt          *time.Time
	RetryCount        int
	LastError         *string
	Metadata          map[string]string
}

// Validate checks the submit-time invariants of a notification:
// a known type, at least one valid requested channel, a template reference,
// and a resolvable target for every requested channel (either a recipient
// or explicit target data in the payload).
func (n *Notification) Validate() error {
	if !n.Type.Valid() {
		return &ValidationError{Field: "type", Message: "unknown notification type"}
	}
	if len(n.RequestedChannels) == 0 {
		return &ValidationError{Field: "channels", Message: "at least one channel is required"}
	}
	if !n.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: "unknown priority"}
	}
	if n.TemplateRef == "" {
		return &ValidationError{Field: "template_ref", Message: "template reference is required"}
	}
	seen := make(map[ChannelKind]bool, len(n.RequestedChannels))
	for _, ch := range n.RequestedChannels {
		if !ch.Valid() {
			return &ValidationError{Field: "channels", Message: "unknown channel kind: " + string(ch)}
		}
		if seen[ch] {
			return &ValidationError{Field: "channels", Message: "duplicate channel: " + string(ch)}
		}
		seen[ch] = true
		if n.TargetFor(ch) == "" {
			return &ValidationError{
				Field:   "channels",
				Message: "no target for channel " + string(ch) + ": provide a recipient or " + ch.TargetKey() + " in the payload",
			}
		}
	}
	if (n.ScheduledFor != nil) != (n.Status == StatusScheduled) {
		return &ValidationError{Field: "scheduled_for", Message: "scheduled_for is set iff status is SCHEDULED"}
	}
	return nil
}

// TargetFor resolves the delivery target for a channel: the explicit payload
// value under the channel's target key when present, otherwise the recipient
// ID. Returns "" when neither is available.
func (n *Notification) TargetFor(ch ChannelKind) string {
	if v, ok := n.Data[ch.TargetKey()]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if n.RecipientID != nil && *n.RecipientID != "" {
		return *n.RecipientID
	}
	return ""
}
