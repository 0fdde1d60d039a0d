package events

import (
	"github.com/cryptonaira/nairadesk/models"
)

// Owned is implemented by events that concern a single user.
type Owned interface {
	OwnerID() models.Owner
}

// Snapshotter is implemented by events that carry a transaction.
type Snapshotter interface {
	Owned
	Snapshot() models.Transaction
	Kind() string
}

// TransactionEvent is the common body of the transaction events. It holds
// a copy of the transaction taken when the event was emitted.
type TransactionEvent struct {
	Transaction models.Transaction `json:"transaction"`
}

// OwnerID returns the owner of the transaction.
func (e TransactionEvent) OwnerID() models.Owner { return e.Transaction.Owner }

// Snapshot returns the transaction copy.
func (e TransactionEvent) Snapshot() models.Transaction { return e.Transaction }

// TransactionOpened is emitted when a new transaction is created.
type TransactionOpened struct {
	TransactionEvent
}

// Kind implements Snapshotter.
func (e *TransactionOpened) Kind() string { return "opened" }

// TransactionUpdated is emitted after every state transition that leaves
// the transaction active.
type TransactionUpdated struct {
	TransactionEvent
	From models.TransactionState `json:"from"`
}

// Kind implements Snapshotter.
func (e *TransactionUpdated) Kind() string { return "updated" }

// TransactionCompleted is emitted when the user confirms receipt.
type TransactionCompleted struct {
	TransactionEvent
}

// Kind implements Snapshotter.
func (e *TransactionCompleted) Kind() string { return "completed" }

// TransactionCancelled is emitted when the user or the desk cancels.
type TransactionCancelled struct {
	TransactionEvent
	Reason string `json:"reason"`
}

// Kind implements Snapshotter.
func (e *TransactionCancelled) Kind() string { return "cancelled" }

// TransactionExpired is emitted when the countdown runs out.
type TransactionExpired struct {
	TransactionEvent
}

// Kind implements Snapshotter.
func (e *TransactionExpired) Kind() string { return "expired" }

// MemberRegistered is emitted when a user completes registration.
type MemberRegistered struct {
	Owner  models.Owner  `json:"owner"`
	Member models.Member `json:"member"`
}

// OwnerID returns the registering user.
func (e *MemberRegistered) OwnerID() models.Owner { return e.Owner }

// NewTransactionEvent builds the body of a transaction event.
func NewTransactionEvent(tx models.Transaction) TransactionEvent {
	return TransactionEvent{Transaction: tx}
}
