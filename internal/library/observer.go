package library

import "github.com/mmcdole/libria/internal/domain"

// ChannelObserver adapts domain.SyncObserver to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan<- domain.SyncResult
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- domain.SyncResult) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnSyncDone sends the result to the channel (non-blocking if full).
func (o *ChannelObserver) OnSyncDone(result domain.SyncResult) {
	select {
	case o.ch <- result:
	default: // Non-blocking if channel full
	}
}

// FuncObserver adapts a plain function.
type FuncObserver func(domain.SyncResult)

func (f FuncObserver) OnSyncDone(result domain.SyncResult) { f(result) }
