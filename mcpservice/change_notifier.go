package mcpservice

import (
	"context"
	"sync"
)

// ChangeNotifier provides a simple in-process pub-sub for change events. The
// containers in this package signal through it whenever their visible set
// mutates, and FSResources ticks it when the watched tree changes, so
// embedding programs can react (refresh caches, re-export listings) without
// polling.
type ChangeNotifier struct {
	subscribers   []chan struct{}
	subscribersMu sync.RWMutex
	closed        bool
}

// Notify signals all registered subscribers that the underlying set has
// changed. Delivery is best-effort: the send to each subscriber is
// non-blocking so one slow consumer cannot stall the mutating caller. The
// error return exists for future cancellation semantics and is currently
// always nil.
func (cn *ChangeNotifier) Notify(ctx context.Context) error {
	cn.subscribersMu.RLock()
	defer cn.subscribersMu.RUnlock()

	if cn.closed {
		return nil
	}

	for _, ch := range cn.subscribers {
		select {
		case ch <- struct{}{}:
		default:
			// subscriber is backed up; it will observe the pending tick
		}
	}
	return nil
}

// Close terminates the notifier. All subscriber channels are closed and
// subsequent Notify calls become no-ops.
func (cn *ChangeNotifier) Close() {
	cn.subscribersMu.Lock()
	if cn.closed {
		cn.subscribersMu.Unlock()
		return
	}
	cn.closed = true
	subs := cn.subscribers
	cn.subscribers = nil
	cn.subscribersMu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}

// Subscriber returns a channel that receives a signal whenever Notify is
// called. The channel is buffered with capacity 1; coalesced ticks mean "the
// set changed at least once since you last looked".
func (cn *ChangeNotifier) Subscriber() <-chan struct{} {
	cn.subscribersMu.Lock()
	defer cn.subscribersMu.Unlock()

	if cn.closed {
		ch := make(chan struct{})
		close(ch)
		return ch
	}

	ch := make(chan struct{}, 1)
	cn.subscribers = append(cn.subscribers, ch)

	return ch
}
