package feed

import (
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/event"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "feed")

// Notifier sends events to subscribers and reports how many subscribers listen
// to a kind, so that producers can skip building events nobody reads.
type Notifier interface {
	Send(t EventType, data interface{}) int
	ListenerCount(t EventType) int
}

// Bus is a publish/subscribe bus with one event.Feed per event kind.
type Bus struct {
	feeds  [numEventTypes]event.Feed
	counts [numEventTypes]int32
	scope  event.SubscriptionScope
}

var _ Notifier = (*Bus)(nil)

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers ch for events of kind t. Channels should be buffered: Send
// blocks until every subscriber has received the event.
func (b *Bus) Subscribe(t EventType, ch chan<- *Event) event.Subscription {
	if t < 0 || t >= numEventTypes {
		log.WithField("type", t).Error("Subscription to unknown event type")
		return event.NewSubscription(func(quit <-chan struct{}) error {
			<-quit
			return nil
		})
	}
	atomic.AddInt32(&b.counts[t], 1)
	sub := b.scope.Track(b.feeds[t].Subscribe(ch))
	return &countedSubscription{
		Subscription: sub,
		release: func() {
			for {
				c := atomic.LoadInt32(&b.counts[t])
				if c <= 0 || atomic.CompareAndSwapInt32(&b.counts[t], c, c-1) {
					return
				}
			}
		},
	}
}

// Send delivers data to every subscriber of kind t and returns the number of
// subscribers it was delivered to.
func (b *Bus) Send(t EventType, data interface{}) int {
	if t < 0 || t >= numEventTypes {
		return 0
	}
	return b.feeds[t].Send(&Event{Type: t, Data: data})
}

// ListenerCount returns the number of active subscribers of kind t.
func (b *Bus) ListenerCount(t EventType) int {
	if t < 0 || t >= numEventTypes {
		return 0
	}
	return int(atomic.LoadInt32(&b.counts[t]))
}

// Close unsubscribes every subscriber.
func (b *Bus) Close() {
	b.scope.Close()
	for i := range b.counts {
		atomic.StoreInt32(&b.counts[i], 0)
	}
}

type countedSubscription struct {
	event.Subscription
	once    sync.Once
	release func()
}

func (s *countedSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.Subscription.Unsubscribe()
		s.release()
	})
}
