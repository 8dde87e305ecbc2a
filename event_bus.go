package goAuthClient

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

const defaultCloseTimeout = 5 * time.Second

// EventBus delivers events in publish order to every subscriber and sink from
// a single dispatcher goroutine. The dispatcher never waits on a consumer: a
// subscriber or sink whose buffer is full misses that event and the miss is
// counted. Each sink is fed by its own goroutine.
type EventBus struct {
	cfg       EventsConfig
	ch        chan Event
	done      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	sinkWG    sync.WaitGroup
	dropped   atomic.Uint64
	seq       atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
	onDrop    func()

	mu    sync.RWMutex
	subs  []*Subscription
	sinks []*sinkWorker
}

// sinkWorker serializes Emit calls for one sink.
type sinkWorker struct {
	sink EventSink
	ch   chan Event
}

// Subscription receives events published after it was created.
type Subscription struct {
	bus     *EventBus
	ch      chan Event
	after   uint64
	dropped atomic.Uint64
	once    sync.Once
}

func newEventBus(cfg EventsConfig, onDrop func(), sinks ...EventSink) *EventBus {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = 1
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = defaultCloseTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &EventBus{
		cfg:    cfg,
		ch:     make(chan Event, cfg.BufferSize),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		onDrop: onDrop,
	}
	for _, s := range sinks {
		if s == nil {
			continue
		}
		w := &sinkWorker{sink: s, ch: make(chan Event, cfg.SubscriberBuffer)}
		b.sinks = append(b.sinks, w)
		b.sinkWG.Add(1)
		go b.runSink(w)
	}

	b.wg.Add(1)
	go b.run()

	return b
}

func (b *EventBus) run() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.ch:
			b.dispatch(event)
		case <-b.done:
			for {
				select {
				case event := <-b.ch:
					b.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (b *EventBus) runSink(w *sinkWorker) {
	defer b.sinkWG.Done()
	for event := range w.ch {
		w.sink.Emit(b.ctx, event)
	}
}

func (b *EventBus) dispatch(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, w := range b.sinks {
		select {
		case w.ch <- event:
		default:
			b.drop()
		}
	}
	for _, sub := range b.subs {
		if event.seq <= sub.after {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			sub.dropped.Add(1)
			b.drop()
		}
	}
}

func (b *EventBus) drop() {
	b.dropped.Add(1)
	if b.onDrop != nil {
		b.onDrop()
	}
}

// Publish enqueues event. With DropIfFull it never blocks and counts the event
// as dropped when the queue is full; otherwise it waits for room, ctx or Close.
func (b *EventBus) Publish(ctx context.Context, event Event) {
	if b == nil || b.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	event.seq = b.seq.Add(1)

	if b.cfg.DropIfFull {
		select {
		case b.ch <- event:
		case <-b.done:
		default:
			b.drop()
		}
		return
	}

	select {
	case b.ch <- event:
	case <-ctx.Done():
	case <-b.done:
	}
}

// Subscribe registers a subscriber with the given buffer. buffer <= 0 uses
// Events.SubscriberBuffer. Subscribing to a closed bus returns a closed
// subscription.
func (b *EventBus) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = b.cfg.SubscriberBuffer
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &Subscription{bus: b, ch: make(chan Event, buffer), after: b.seq.Load()}
	if b.closed.Load() {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	b.subs = append(b.subs, sub)
	return sub
}

// Events returns the delivery channel. It is closed by Close or when the bus closes.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Dropped returns how many events this subscriber missed.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close unsubscribes and closes the delivery channel.
func (s *Subscription) Close() {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = slices.DeleteFunc(b.subs, func(other *Subscription) bool { return other == s })
	s.once.Do(func() { close(s.ch) })
}

// Close drains queued events, then closes every subscription. Sinks get
// Events.CloseTimeout to finish their backlog; after that their context is
// cancelled and Close waits for the Emit calls in progress to return.
func (b *EventBus) Close() {
	if b == nil {
		return
	}
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		close(b.done)
		b.wg.Wait()

		for _, w := range b.sinks {
			close(w.ch)
		}
		if !waitTimeout(&b.sinkWG, b.cfg.CloseTimeout) {
			b.cancel()
			b.sinkWG.Wait()
		}
		b.cancel()

		b.mu.Lock()
		defer b.mu.Unlock()
		for _, sub := range b.subs {
			sub.once.Do(func() { close(sub.ch) })
		}
		b.subs = nil
	})
}

func waitTimeout(wg *sync.WaitGroup, d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// Dropped returns the total number of events dropped by the bus, counting one
// per subscriber or sink that missed an event and one per event rejected by a
// full queue.
func (b *EventBus) Dropped() uint64 {
	if b == nil {
		return 0
	}
	return b.dropped.Load()
}
