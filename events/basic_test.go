package events

import (
	"testing"
	"time"

	"github.com/cryptonaira/nairadesk/models"
)

func TestSubscribeAndEmit(t *testing.T) {
	type TestNotif1 struct{}
	type TestNotif2 struct{}

	bus := NewBus()

	sub1, err := bus.Subscribe(&TestNotif1{})
	if err != nil {
		t.Fatal(err)
	}

	sub2, err := bus.Subscribe(&TestNotif2{})
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		bus.Emit(&TestNotif1{})
		bus.Emit(&TestNotif2{})
	}()

	notif1 := <-sub1.Out()
	if _, ok := notif1.(*TestNotif1); !ok {
		t.Error("Notification is wrong type")
	}

	notif2 := <-sub2.Out()
	if _, ok := notif2.(*TestNotif2); !ok {
		t.Error("Notification is wrong type")
	}

	if err := sub1.Close(); err != nil {
		t.Error(err)
	}
	if err := sub2.Close(); err != nil {
		t.Error(err)
	}
	// A second close must not panic.
	if err := sub1.Close(); err != nil {
		t.Error(err)
	}
}

func TestSubscribeNonPointer(t *testing.T) {
	bus := NewBus()
	if _, err := bus.Subscribe(TransactionOpened{}); err == nil {
		t.Error("Expected error subscribing with non-pointer type")
	}
}

func TestSubscribeMultipleTypes(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe([]interface{}{&TransactionOpened{}, &TransactionExpired{}})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	tx := models.Transaction{ID: "abc", Owner: 7}
	bus.Emit(&TransactionOpened{NewTransactionEvent(tx)})
	bus.Emit(&TransactionCompleted{NewTransactionEvent(tx)})
	bus.Emit(&TransactionExpired{NewTransactionEvent(tx)})

	expected := []string{"opened", "expired"}
	for _, kind := range expected {
		select {
		case e := <-sub.Out():
			s, ok := e.(Snapshotter)
			if !ok {
				t.Fatalf("Event %T does not carry a transaction", e)
			}
			if s.Kind() != kind {
				t.Errorf("Expected %s event, got %s", kind, s.Kind())
			}
			if s.Snapshot().ID != "abc" || s.OwnerID() != 7 {
				t.Errorf("Wrong snapshot %+v", s.Snapshot())
			}
		case <-time.After(time.Second * 5):
			t.Fatal("Timed out waiting on channel")
		}
	}
}

func TestForOwner(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(&TransactionUpdated{}, ForOwner(2), BufSize(4))
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	bus.Emit(&TransactionUpdated{TransactionEvent: NewTransactionEvent(models.Transaction{Owner: 1})})
	bus.Emit(&TransactionUpdated{TransactionEvent: NewTransactionEvent(models.Transaction{Owner: 2})})

	select {
	case e := <-sub.Out():
		if e.(*TransactionUpdated).OwnerID() != 2 {
			t.Errorf("Received event for wrong owner %d", e.(*TransactionUpdated).OwnerID())
		}
	case <-time.After(time.Second * 5):
		t.Fatal("Timed out waiting on channel")
	}

	select {
	case e := <-sub.Out():
		t.Errorf("Unexpected event %v", e)
	default:
	}
}
