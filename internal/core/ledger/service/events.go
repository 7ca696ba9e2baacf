package service

import (
	"sync"

	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/metrics"
	"github.com/LeJamon/goListingd/internal/types"
)

// DefaultEventBuffer is the per-subscriber queue length.
const DefaultEventBuffer = 256

// Event is published once per applied invocation.
type Event struct {
	Invocation
	// Applied is the invocation count after this one committed.
	Applied  uint64       `json:"applied"`
	Metadata *tx.Metadata `json:"meta"`
}

// Touches reports whether the event concerns addr, as listing, signer or
// any affected entry.
func (e *Event) Touches(addr types.Address) bool {
	if e.Signer == addr || (e.Listing != nil && *e.Listing == addr) {
		return true
	}
	_, ok := e.Metadata.Node(addr.String())
	return ok
}

// Subscription receives events until cancelled. Events are dropped, never
// queued without bound, when the subscriber falls behind.
type Subscription struct {
	C   <-chan *Event
	id  uint64
	pub *EventPublisher
}

// Cancel stops delivery and closes C.
func (s *Subscription) Cancel() {
	s.pub.unsubscribe(s.id)
}

// EventPublisher fans events out to subscribers.
type EventPublisher struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	buffer int
	closed bool

	metrics *metrics.Metrics
	log     logging.Logger
}

type subscriber struct {
	ch      chan *Event
	dropped uint64
}

// NewEventPublisher creates a new event publisher.
func NewEventPublisher(buffer int, m *metrics.Metrics, log logging.Logger) *EventPublisher {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	if log == nil {
		log = logging.Disabled
	}
	return &EventPublisher{
		subs:    make(map[uint64]*subscriber),
		buffer:  buffer,
		metrics: m,
		log:     log,
	}
}

// Subscribe registers a new subscriber. It returns nil after Close.
func (p *EventPublisher) Subscribe() *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.nextID++
	sub := &subscriber{ch: make(chan *Event, p.buffer)}
	p.subs[p.nextID] = sub
	p.metrics.SubscriberAdded()
	return &Subscription{C: sub.ch, id: p.nextID, pub: p}
}

func (p *EventPublisher) unsubscribe(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sub, ok := p.subs[id]
	if !ok {
		return
	}
	delete(p.subs, id)
	close(sub.ch)
	p.metrics.SubscriberRemoved()
}

// Publish delivers ev to every subscriber without blocking.
func (p *EventPublisher) Publish(ev *Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, sub := range p.subs {
		select {
		case sub.ch <- ev:
		default:
			sub.dropped++
			if sub.dropped == 1 || sub.dropped%100 == 0 {
				p.log.Warnf("Subscriber %d is behind, %d events dropped", id, sub.dropped)
			}
		}
	}
}

// HasSubscribers reports whether anyone is listening.
func (p *EventPublisher) HasSubscribers() bool {
	return p.Count() > 0
}

// Count returns the number of live subscriptions.
func (p *EventPublisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Close cancels every subscription.
func (p *EventPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, sub := range p.subs {
		delete(p.subs, id)
		close(sub.ch)
		p.metrics.SubscriberRemoved()
	}
}
