package bridge

import (
	"time"

	general_i "github.com/beka-birhanu/vinom-lab/interfaces/general"
)

// WithLogger sets the logger. A nil logger keeps the discarding default.
func WithLogger(l general_i.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// WithDialTimeout bounds every dial. Zero or negative disables the bound.
func WithDialTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		b.dialTimeout = d
	}
}

// WithStateChangeHandler registers a handler for connection state transitions.
func WithStateChangeHandler(f StateChangeHandler) Option {
	return func(b *Bridge) {
		b.onStateChange = f
	}
}

// WithDropHandler registers a handler for undecodable inbound messages.
func WithDropHandler(f DropHandler) Option {
	return func(b *Bridge) {
		b.onDrop = f
	}
}
