// Package hooks provides the in-memory hook bus used to dispatch order
// import hook points to registered listeners.
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/amws/backend/internal/domain/extension"
)

type subscription struct {
	priority int
	seq      int
	listener extension.ListenerFunc
}

// InMemoryBus implements extension.Bus with synchronous in-process
// dispatch
type InMemoryBus struct {
	mu      sync.RWMutex
	nextSeq int
	subs    map[extension.Point][]subscription
	logger  *zap.Logger
}

// NewInMemoryBus creates a new in-memory hook bus
func NewInMemoryBus(logger *zap.Logger) *InMemoryBus {
	return &InMemoryBus{
		subs:   make(map[extension.Point][]subscription),
		logger: logger,
	}
}

// Subscribe registers a listener for a hook point. Lower priority runs
// first; equal priorities run in registration order.
func (b *InMemoryBus) Subscribe(point extension.Point, priority int, listener extension.ListenerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[point] = append(b.subs[point], subscription{
		priority: priority,
		seq:      b.nextSeq,
		listener: listener,
	})
	b.nextSeq++

	sort.SliceStable(b.subs[point], func(i, j int) bool {
		si, sj := b.subs[point][i], b.subs[point][j]
		if si.priority != sj.priority {
			return si.priority < sj.priority
		}
		return si.seq < sj.seq
	})

	b.logger.Debug("hook listener subscribed",
		zap.String("point", string(point)),
		zap.Int("priority", priority),
	)
}

// Publish runs all listeners for the point in order. A listener error
// or panic is logged and the remaining listeners still run.
func (b *InMemoryBus) Publish(ctx context.Context, point extension.Point, hc *extension.HookContext) {
	b.mu.RLock()
	subs := b.subs[point]
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := b.dispatch(ctx, sub.listener, hc); err != nil {
			b.logger.Error("hook listener failed",
				zap.String("point", string(point)),
				zap.Error(err),
			)
		}
	}
}

func (b *InMemoryBus) dispatch(ctx context.Context, listener extension.ListenerFunc, hc *extension.HookContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return listener(ctx, hc)
}
