// Package alert handles sending notifications.
package alert

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("notifier is closed")

// Notifier is the interface for sending alert messages.
type Notifier interface {
	Send(message string) error
	Close() error
}

// NoOpNotifier is a notifier that does nothing. It is used when alerting is disabled.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Send does nothing and returns nil.
func (n *NoOpNotifier) Send(message string) error {
	return nil
}

// Close does nothing and returns nil.
func (n *NoOpNotifier) Close() error {
	return nil
}

// LogNotifier writes alerts to a zap logger at warn level and keeps a count
// of what it sent, reported on Close.
type LogNotifier struct {
	logger *zap.Logger
	mu     sync.Mutex
	sent   int
	closed bool
}

// NewLogNotifier creates a LogNotifier. A nil logger is replaced by zap.NewNop.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("alert")}
}

// Send logs the message.
func (n *LogNotifier) Send(message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrClosed
	}
	n.sent++
	n.logger.Warn(message)
	return nil
}

// Sent returns how many messages have been delivered.
func (n *LogNotifier) Sent() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent
}

// Close stops accepting messages. Closing twice is a no-op.
func (n *LogNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	n.logger.Debug("alert notifier closed", zap.Int("sent", n.sent))
	return nil
}
