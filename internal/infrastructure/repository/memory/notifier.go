package memory

import (
	"context"
	"sync"

	"github.com/nftearth/fortune/internal/usecase"
)

const notifierCapacity = 50

// Notifier keeps the most recent notifications in a ring so the API
// can serve them back to polling clients.
type Notifier struct {
	mu    sync.RWMutex
	items []usecase.Notification
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) Notify(_ context.Context, notification usecase.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.items = append(n.items, notification)
	if len(n.items) > notifierCapacity {
		n.items = n.items[len(n.items)-notifierCapacity:]
	}
}

// Recent returns notifications newest first.
func (n *Notifier) Recent(limit int) []usecase.Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if limit <= 0 || limit > len(n.items) {
		limit = len(n.items)
	}

	out := make([]usecase.Notification, 0, limit)
	for i := len(n.items) - 1; i >= len(n.items)-limit; i-- {
		out = append(out, n.items[i])
	}

	return out
}
