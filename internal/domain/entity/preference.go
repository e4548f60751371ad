package entity

import "time"

// Preference is an explicit per-user, per-type channel toggle. Records are
// created lazily: the absence of a row means "apply the channel default",
// not "disabled". Preferences are written only by explicit user action and
// are read-only to the dispatcher.
type Preference struct {
	UserID    string
	Type      NotificationType
	Channel   ChannelKind
	Enabled   bool
	UpdatedAt time.Time
}

// Validate checks the preference key fields.
func (p *Preference) Validate() error {
	if p.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "user ID is required"}
	}
	if !p.Type.Valid() {
		return &ValidationError{Field: "type", Message: "unknown notification type"}
	}
	if !p.Channel.Valid() {
		return &ValidationError{Field: "channel", Message: "unknown channel kind"}
	}
	return nil
}
