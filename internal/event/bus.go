package event

import (
	"github.com/elliotchance/orderedmap/v2"
)

// Handler receives a published event.
type Handler func(Event)

// SubscriptionID identifies a subscription. IDs are never reused by a Bus.
type SubscriptionID uint64

type subscription struct {
	kind    Kind // 0 matches every kind
	handler Handler
}

// Bus delivers events synchronously to subscribers in subscription order.
//
// Subscriptions are kept in insertion order, so delivery order is the order
// in which Subscribe was called, regardless of unsubscribes in between.
//
// Not safe for concurrent use: publish and subscribe from the goroutine that
// drives the engine.
type Bus struct {
	subs   *orderedmap.OrderedMap[SubscriptionID, subscription]
	nextID SubscriptionID
	seq    int64
	tick   uint64
}

// NewBus returns a bus whose first published event gets seq 1.
func NewBus() *Bus {
	return &Bus{subs: orderedmap.NewOrderedMap[SubscriptionID, subscription]()}
}

// SetTick records the engine tick stamped onto subsequent events.
func (b *Bus) SetTick(tick uint64) { b.tick = tick }

// Subscribe registers h for events of kind k.
func (b *Bus) Subscribe(k Kind, h Handler) SubscriptionID {
	return b.add(subscription{kind: k, handler: h})
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h Handler) SubscriptionID {
	return b.add(subscription{handler: h})
}

func (b *Bus) add(s subscription) SubscriptionID {
	b.nextID++
	b.subs.Set(b.nextID, s)
	return b.nextID
}

// Unsubscribe removes a subscription. Returns false if id is unknown.
func (b *Bus) Unsubscribe(id SubscriptionID) bool {
	return b.subs.Delete(id)
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int { return b.subs.Len() }

// Publish stamps e with the next seq and the current tick, then delivers it.
//
// The subscriber list is snapshotted before delivery: handlers that subscribe
// or unsubscribe while handling e take effect from the next Publish. Handlers
// may publish further events; those are delivered depth-first.
func (b *Bus) Publish(e Event) Event {
	b.seq++
	e.Seq = b.seq
	e.Tick = b.tick

	handlers := make([]Handler, 0, b.subs.Len())
	for el := b.subs.Front(); el != nil; el = el.Next() {
		if el.Value.kind == 0 || el.Value.kind == e.Kind {
			handlers = append(handlers, el.Value.handler)
		}
	}

	for _, h := range handlers {
		h(e)
	}
	return e
}
