package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/roadmap-backend/internal/logger"
)

// memoryBus is the single-node bus: every forwarder gets its own
// buffered channel and slow forwarders drop rather than block writers.
type memoryBus struct {
	log *logger.Logger

	mu         sync.Mutex
	closed     bool
	forwarders []chan ProgressEvent
}

func NewMemoryBus(log *logger.Logger) Bus {
	return &memoryBus{
		log: log.With("service", "MemoryProgressBus"),
	}
}

func (b *memoryBus) Publish(ctx context.Context, ev ProgressEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("progress bus closed")
	}
	for _, ch := range b.forwarders {
		select {
		case ch <- ev:
		default:
			b.log.Warn("Dropping progress event; forwarder buffer full", "subtopic_id", ev.SubtopicID)
		}
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onEv func(ev ProgressEvent)) error {
	if onEv == nil {
		return fmt.Errorf("onEv callback required")
	}

	ch := make(chan ProgressEvent, 16)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("progress bus closed")
	}
	b.forwarders = append(b.forwarders, ch)
	b.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.remove(ch)
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				onEv(ev)
			}
		}
	}()

	return nil
}

func (b *memoryBus) remove(ch chan ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, cur := range b.forwarders {
		if cur == ch {
			b.forwarders = append(b.forwarders[:i], b.forwarders[i+1:]...)
			break
		}
	}
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, ch := range b.forwarders {
		close(ch)
	}
	b.forwarders = nil
	return nil
}
