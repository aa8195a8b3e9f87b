package notifications

import (
	"context"
	"sync"
)

// Feed is a bounded, most-recent-last buffer of notifications.
type Feed struct {
	mu    sync.Mutex
	items []Notification
	max   int
}

func NewFeed(max int) *Feed {
	if max <= 0 {
		max = 50
	}
	return &Feed{max: max}
}

func (f *Feed) Push(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, n)
	if over := len(f.items) - f.max; over > 0 {
		f.items = append(f.items[:0:0], f.items[over:]...)
	}
}

// Notify lets a bare Feed act as a Notifier.
func (f *Feed) Notify(_ context.Context, n Notification) { f.Push(n) }

// Recent returns up to n notifications, oldest first. n <= 0 returns all.
func (f *Feed) Recent(n int) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	start := 0
	if n > 0 && len(f.items) > n {
		start = len(f.items) - n
	}
	out := make([]Notification, len(f.items)-start)
	copy(out, f.items[start:])
	return out
}

// Last returns the newest notification.
func (f *Feed) Last() (Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return Notification{}, false
	}
	return f.items[len(f.items)-1], true
}
