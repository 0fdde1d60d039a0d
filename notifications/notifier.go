package notifications

import (
	"context"
	"time"

	"github.com/cryptonaira/nairadesk/database"
	"github.com/cryptonaira/nairadesk/events"
	"github.com/cryptonaira/nairadesk/models"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("NOTF")

// writeTimeout bounds a single audit write.
const writeTimeout = time.Second * 15

type transactionWrapper struct {
	Event       string             `json:"event"`
	Transaction models.Transaction `json:"transaction"`
}

type memberWrapper struct {
	Member models.Member `json:"member"`
}

// auditRecord is the document stored at transactions/{owner}/{id}. It is
// overwritten on every event so it always reflects the latest state.
type auditRecord struct {
	models.Transaction
	LastEvent  string    `json:"last_event"`
	RecordedAt time.Time `json:"recorded_at"`
}

type notifierStarted struct{}

// Notifier turns transaction events into audit records and forwards them
// to websocket subscribers.
type Notifier struct {
	notifyFunc func(interface{}) error
	bus        events.Bus
	db         database.Store
	shutdown   chan struct{}
}

// NewNotifier returns a new notifier. notifyFunc may be nil.
func NewNotifier(bus events.Bus, db database.Store, notifyFunc func(interface{}) error) *Notifier {
	if notifyFunc == nil {
		notifyFunc = func(interface{}) error { return nil }
	}
	return &Notifier{
		bus:        bus,
		db:         db,
		notifyFunc: notifyFunc,
		shutdown:   make(chan struct{}),
	}
}

// Start runs the notifier until Stop is called. It should be run in its
// own goroutine.
func (n *Notifier) Start() {
	transactions := []interface{}{
		&events.TransactionOpened{},
		&events.TransactionUpdated{},
		&events.TransactionCompleted{},
		&events.TransactionCancelled{},
		&events.TransactionExpired{},
	}

	txSub, err := n.bus.Subscribe(transactions, events.BufSize(64))
	if err != nil {
		log.Errorf("Error subscribing to transaction events: %s", err)
		return
	}
	defer txSub.Close()

	memberSub, err := n.bus.Subscribe(&events.MemberRegistered{})
	if err != nil {
		log.Errorf("Error subscribing to member events: %s", err)
		return
	}
	defer memberSub.Close()

	n.bus.Emit(&notifierStarted{})

	for {
		select {
		case event := <-txSub.Out():
			snap, ok := event.(events.Snapshotter)
			if !ok {
				continue
			}
			tx := snap.Snapshot()
			n.record(tx, snap.Kind())

			if err := n.notifyFunc(transactionWrapper{Event: snap.Kind(), Transaction: tx}); err != nil {
				log.Errorf("Error sending notification: %s", err)
			}
		case event := <-memberSub.Out():
			e, ok := event.(*events.MemberRegistered)
			if !ok {
				continue
			}
			if err := n.notifyFunc(memberWrapper{e.Member}); err != nil {
				log.Errorf("Error sending notification: %s", err)
			}
		case <-n.shutdown:
			return
		}
	}
}

// Stop shuts down the notifier.
func (n *Notifier) Stop() {
	close(n.shutdown)
}

func (n *Notifier) record(tx models.Transaction, kind string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	rec := auditRecord{
		Transaction: tx,
		LastEvent:   kind,
		RecordedAt:  time.Now(),
	}
	if err := n.db.Write(ctx, models.TransactionPath(tx.Owner, tx.ID), rec); err != nil {
		log.Errorf("Error saving transaction %s to the database: %s", tx.ID, err)
	}
}
