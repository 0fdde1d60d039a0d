package core

import (
	"context"
	"sync"
	"time"

	"github.com/cryptonaira/nairadesk/api"
	"github.com/cryptonaira/nairadesk/database"
	"github.com/cryptonaira/nairadesk/events"
	"github.com/cryptonaira/nairadesk/models"
	"github.com/cryptonaira/nairadesk/net"
	"github.com/cryptonaira/nairadesk/notifications"
	"github.com/cryptonaira/nairadesk/orders"
	"github.com/op/go-logging"
	"github.com/shopspring/decimal"
)

var log = logging.MustGetLogger("CORE")

// updateListener delivers inbound chat updates until ctx is done.
type updateListener interface {
	Listen(ctx context.Context, handle func(net.Update))
}

// DeskNode holds all the components that make up the exchange desk and
// routes inbound chat updates between them.
type DeskNode struct {

	// gw sends and edits chat messages.
	gw net.Gateway

	// listener is the source of inbound updates. It is nil in tests,
	// which call HandleUpdate directly.
	listener updateListener

	// processor runs the buy and sell workflows.
	processor *orders.Processor

	// registrar runs /register and /login.
	registrar *registrar

	rates     orders.RateSource
	db        database.Store
	eventBus  events.Bus
	notifier  *notifications.Notifier
	gateway   *api.Gateway
	adminChat int64

	keepAliveInterval time.Duration

	// shutdown is closed when the node is stopped. Any listening
	// goroutines can use this to terminate.
	shutdown chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

var _ api.CoreIface = (*DeskNode)(nil)

// Start gets the node up and running. It returns immediately.
func (n *DeskNode) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-n.shutdown
		cancel()
	}()

	if n.notifier != nil {
		n.spawn(n.notifier.Start)
	}
	if n.gateway != nil {
		n.spawn(func() {
			if err := n.gateway.Serve(); err != nil {
				log.Errorf("HTTP gateway stopped: %s", err)
			}
		})
	}
	n.spawn(func() { n.runKeepAlive(ctx) })
	if n.listener != nil {
		n.spawn(func() {
			log.Notice("Listening for chat updates")
			n.listener.Listen(ctx, func(u net.Update) { n.HandleUpdate(ctx, u) })
		})
	}
}

func (n *DeskNode) spawn(fn func()) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		fn()
	}()
}

// Stop cleanly shuts down the node and signals to any listening
// goroutines that it's time to stop. Open transactions are dropped.
func (n *DeskNode) Stop() error {
	var err error
	n.stopOnce.Do(func() {
		close(n.shutdown)
		for _, tx := range n.processor.Store().All() {
			log.Warningf("Dropping open transaction %s of user %s in state %s", tx.ID, tx.Owner, tx.State)
		}
		n.processor.Stop()
		if n.notifier != nil {
			n.notifier.Stop()
		}
		if n.gateway != nil {
			if cerr := n.gateway.Close(); cerr != nil {
				log.Errorf("Error closing HTTP gateway: %s", cerr)
			}
		}
		n.wg.Wait()
		err = n.db.Close()
	})
	return err
}

// Quote returns the current Naira price of one USDT for direction.
func (n *DeskNode) Quote(ctx context.Context, direction models.Direction) decimal.Decimal {
	return n.rates.Quote(ctx, direction)
}

// ActiveTransactions returns the number of open transactions.
func (n *DeskNode) ActiveTransactions() int {
	return n.processor.Store().Len()
}

// SubscribeEvent subscribes to events on the node's event bus.
func (n *DeskNode) SubscribeEvent(event interface{}, opts ...events.SubscriptionOpt) (events.Subscription, error) {
	return n.eventBus.Subscribe(event, opts...)
}
