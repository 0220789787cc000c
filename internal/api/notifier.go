package api

import (
	"context"
	"sync"

	"github.com/fridgesaver/fridgesaver/internal/workflow"
)

// Notification levels double as the alert CSS modifier.
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

type Notification struct {
	Level   string
	Message string
}

// FlashNotifier queues notifications for one page session until the next
// response drains them into toast fragments.
type FlashNotifier struct {
	mu    sync.Mutex
	queue []Notification
}

var _ workflow.Notifier = (*FlashNotifier)(nil)

func (n *FlashNotifier) Success(ctx context.Context, message string) error {
	n.push(LevelSuccess, message)
	return nil
}

func (n *FlashNotifier) Error(ctx context.Context, message string) error {
	n.push(LevelError, message)
	return nil
}

func (n *FlashNotifier) Info(ctx context.Context, message string) error {
	n.push(LevelInfo, message)
	return nil
}

func (n *FlashNotifier) push(level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queue = append(n.queue, Notification{Level: level, Message: message})
}

// Drain returns the queued notifications in order and empties the queue.
func (n *FlashNotifier) Drain() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.queue
	n.queue = nil
	return out
}
