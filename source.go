package damper

import "context"

// Source exposes the current state of the watched object. The AutoSaver
// reads a fresh snapshot on every evaluation; implementations must be safe
// for concurrent reads against host mutation.
type Source interface {
	// Snapshot returns the current field values of the watched object.
	// The AutoSaver applies its own filtering; implementations should
	// return the full field set.
	Snapshot() Snapshot
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func() Snapshot

// Snapshot returns the result of calling the function.
func (f SourceFunc) Snapshot() Snapshot {
	return f()
}

// ChannelNotifier forwards change notifications from a host event channel
// to an AutoSaver. It is the message-passing integration point for host
// frameworks that already emit change events on a channel.
type ChannelNotifier struct {
	ch <-chan struct{}
}

// NewChannelNotifier creates a ChannelNotifier for the given event channel.
func NewChannelNotifier(ch <-chan struct{}) *ChannelNotifier {
	return &ChannelNotifier{ch: ch}
}

// Bind starts a goroutine that calls saver.Touch for every event received
// until the context is canceled or the channel is closed.
func (n *ChannelNotifier) Bind(ctx context.Context, saver *AutoSaver) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-n.ch:
				if !ok {
					return
				}
				saver.Touch()
			}
		}
	}()
}
