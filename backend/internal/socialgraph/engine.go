package socialgraph

import (
	"time"

	"friendmap/backend/pkg/logger"

	"go.uber.org/zap"
)

// DefaultReplyWindow is the largest gap between two messages by different
// authors for the later one to count as a reply
const DefaultReplyWindow = 20 * time.Second

// Engine infers reply and mention connections and aggregates them into graphs.
// It keeps no state between calls.
type Engine struct {
	window time.Duration
	logger *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithReplyWindow overrides DefaultReplyWindow. Non-positive values are ignored.
func WithReplyWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.window = d
		}
	}
}

// WithLogger sets the logger used to report skipped records
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine with the default reply window
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		window: DefaultReplyWindow,
		logger: logger.Get(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReplyWindow returns the configured window
func (e *Engine) ReplyWindow() time.Duration {
	return e.window
}
