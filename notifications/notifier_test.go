package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/cryptonaira/nairadesk/database/sqlstore"
	"github.com/cryptonaira/nairadesk/events"
	"github.com/cryptonaira/nairadesk/models"
)

func TestNotifier(t *testing.T) {
	bus := events.NewBus()
	db, err := sqlstore.NewMemoryDB()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	out := make(chan interface{})
	notifFunc := func(i interface{}) error {
		out <- i
		return nil
	}

	sub, err := bus.Subscribe(&notifierStarted{})
	if err != nil {
		t.Fatal(err)
	}

	notifier := NewNotifier(bus, db, notifFunc)
	go notifier.Start()
	defer notifier.Stop()

	select {
	case <-sub.Out():
	case <-time.After(time.Second * 10):
		t.Fatal("Timed out waiting on channel")
	}

	tx := models.Transaction{
		ID:        "0190a0b2-0000-7000-8000-000000000001",
		Owner:     42,
		Direction: models.DirectionBuy,
		State:     models.StateAwaitingProof,
		Status:    models.StatusActive,
	}

	tests := []struct {
		event interface{}
		kind  string
	}{
		{&events.TransactionOpened{TransactionEvent: events.NewTransactionEvent(tx)}, "opened"},
		{&events.TransactionUpdated{TransactionEvent: events.NewTransactionEvent(tx), From: models.StateAwaitingAmount}, "updated"},
		{&events.TransactionCancelled{TransactionEvent: events.NewTransactionEvent(tx), Reason: "user"}, "cancelled"},
		{&events.TransactionExpired{TransactionEvent: events.NewTransactionEvent(tx)}, "expired"},
		{&events.TransactionCompleted{TransactionEvent: events.NewTransactionEvent(tx)}, "completed"},
	}

	for _, test := range tests {
		bus.Emit(test.event)

		select {
		case n1 := <-out:
			wrapper, ok := n1.(transactionWrapper)
			if !ok {
				t.Fatal("Invalid notification type")
			}
			if wrapper.Event != test.kind {
				t.Errorf("Expected event %s, got %s", test.kind, wrapper.Event)
			}
			if wrapper.Transaction.ID != tx.ID {
				t.Errorf("Failed to return expected transaction")
			}
		case <-time.After(time.Second * 10):
			t.Fatal("Timed out waiting on channel")
		}
	}

	// The record is written before the notification is sent.
	var rec auditRecord
	if err := db.Read(context.Background(), models.TransactionPath(tx.Owner, tx.ID), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.LastEvent != "completed" {
		t.Errorf("Expected last event completed, got %s", rec.LastEvent)
	}
	if rec.Owner != 42 || rec.Direction != models.DirectionBuy {
		t.Errorf("Audit record has wrong transaction %+v", rec.Transaction)
	}

	bus.Emit(&events.MemberRegistered{Owner: 42, Member: models.Member{Username: "ada"}})
	select {
	case n1 := <-out:
		wrapper, ok := n1.(memberWrapper)
		if !ok {
			t.Fatal("Invalid notification type")
		}
		if wrapper.Member.Username != "ada" {
			t.Errorf("Wrong member %s", wrapper.Member.Username)
		}
	case <-time.After(time.Second * 10):
		t.Fatal("Timed out waiting on channel")
	}
}
