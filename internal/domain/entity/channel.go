package entity

// ChannelKind identifies a delivery medium. The set is closed: dispatch is
// keyed on these constants, never on free-form strings.
type ChannelKind string

const (
	ChannelEmail   ChannelKind = "email"
	ChannelSMS     ChannelKind = "sms"
	ChannelPush    ChannelKind = "push"
	ChannelChat    ChannelKind = "chat"
	ChannelWebhook ChannelKind = "webhook"
)

// AllChannelKinds returns every known channel kind.
func AllChannelKinds() []ChannelKind {
	return []ChannelKind{ChannelEmail, ChannelSMS, ChannelPush, ChannelChat, ChannelWebhook}
}

// Valid reports whether the kind is one of the closed set of channels.
func (k ChannelKind) Valid() bool {
	switch k {
	case ChannelEmail, ChannelSMS, ChannelPush, ChannelChat, ChannelWebhook:
		return true
	}
	return false
}

// DefaultEnabled returns the channel's enabled state when no explicit user
// preference exists. Email and push are opt-out (enabled by default); SMS,
// chat and webhook are opt-in (disabled by default). This asymmetry is
// product policy and must survive refactors.
func (k ChannelKind) DefaultEnabled() bool {
	switch k {
	case ChannelEmail, ChannelPush:
		return true
	default:
		return false
	}
}

// TargetKey returns the payload key under which callers may supply an
// explicit delivery target for this channel (e.g. an email address).
// When the key is absent the recipient ID is handed to the sender, which
// resolves the address on its side.
func (k ChannelKind) TargetKey() string {
	switch k {
	case ChannelEmail:
		return "email"
	case ChannelSMS:
		return "phone"
	case ChannelPush:
		return "push_token"
	case ChannelChat:
		return "chat_id"
	case ChannelWebhook:
		return "webhook_url"
	}
	return ""
}
