// Package sender provides the channel transports behind the dispatcher's
// ChannelSender port: SMTP email, JSON webhooks (also serving chat) and a
// no-op transport for channels without a configured provider.
package sender

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError represents a 429 response from a delivery provider.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx response from a delivery provider.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx response from a delivery provider.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// ErrInvalidTarget indicates the target address is missing or malformed for
// the channel. Only https:// targets are accepted for webhook delivery.
var ErrInvalidTarget = errors.New("invalid delivery target")
