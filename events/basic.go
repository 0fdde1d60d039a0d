package events

import (
	"errors"
	"reflect"
	"sync"

	"github.com/cryptonaira/nairadesk/models"
)

// basicBus is a type-based event delivery system.
type basicBus struct {
	lk   sync.Mutex
	subs map[reflect.Type][]*sub
}

var _ Bus = (*basicBus)(nil)

// NewBus returns a basic event bus.
func NewBus() Bus {
	return &basicBus{
		subs: make(map[reflect.Type][]*sub),
	}
}

func (b *basicBus) Emit(event interface{}) {
	b.lk.Lock()
	defer b.lk.Unlock()

	sinks, ok := b.subs[reflect.TypeOf(event)]
	if !ok {
		return
	}

	var owner *models.Owner
	if o, ok := event.(Owned); ok {
		id := o.OwnerID()
		owner = &id
	}

	for _, s := range sinks {
		if s.owner != nil && owner != nil && *s.owner != *owner {
			continue
		}
		s.ch <- event
	}
}

func (b *basicBus) Subscribe(evtTypes interface{}, opts ...SubscriptionOpt) (Subscription, error) {
	settings := subSettingsDefault
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return nil, err
		}
	}

	types, ok := evtTypes.([]interface{})
	if !ok {
		types = []interface{}{evtTypes}
	}
	for _, etyp := range types {
		if reflect.TypeOf(etyp).Kind() != reflect.Ptr {
			return nil, errors.New("subscribe called with non-pointer type")
		}
	}

	out := &sub{
		ch:    make(chan interface{}, settings.buffer),
		owner: settings.owner,
		drop:  b.dropSubscriber,
	}

	b.lk.Lock()
	defer b.lk.Unlock()

	for _, etyp := range types {
		typ := reflect.TypeOf(etyp)
		b.subs[typ] = append(b.subs[typ], out)
		out.typs = append(out.typs, typ)
	}
	return out, nil
}

func (b *basicBus) dropSubscriber(typ reflect.Type, s *sub) {
	b.lk.Lock()
	defer b.lk.Unlock()

	subs := b.subs[typ]
	for i, existing := range subs {
		if existing == s {
			b.subs[typ] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[typ]) == 0 {
		delete(b.subs, typ)
	}
}

type sub struct {
	ch    chan interface{}
	typs  []reflect.Type
	owner *models.Owner
	drop  func(typ reflect.Type, s *sub)
	once  sync.Once
}

var _ Subscription = (*sub)(nil)

func (s *sub) Out() <-chan interface{} {
	return s.ch
}

// Close unsubscribes. It is safe to call more than once.
func (s *sub) Close() error {
	s.once.Do(func() {
		go func() {
			// Drain so a publisher blocked on this channel can finish.
			for range s.ch {
			}
		}()

		for _, typ := range s.typs {
			s.drop(typ, s)
		}
		close(s.ch)
	})
	return nil
}
