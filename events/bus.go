package events

import "io"

// SubscriptionOpt configures a subscription.
type SubscriptionOpt = func(interface{}) error

// Subscription represents a subscription to one or more event types.
type Subscription interface {
	io.Closer

	// Out returns the channel from which to consume events.
	Out() <-chan interface{}
}

// Bus delivers events to subscribers based on the event's type.
type Bus interface {
	// Subscribe creates a new Subscription.
	//
	// eventType is either a pointer to a single event type or a slice of
	// pointers, in which case all types share one channel:
	//
	//  sub, err := bus.Subscribe([]interface{}{
	//      &events.TransactionOpened{},
	//      &events.TransactionExpired{},
	//  })
	//  defer sub.Close()
	//  for e := range sub.Out() {
	//      switch e := e.(type) {
	//      case *events.TransactionOpened:
	//          [...]
	//      }
	//  }
	//
	// Failing to drain the channel blocks publishers.
	Subscribe(eventType interface{}, opts ...SubscriptionOpt) (Subscription, error)

	// Emit publishes a pointer to an event. It blocks while any matching
	// subscriber's buffer is full.
	Emit(evt interface{})
}
