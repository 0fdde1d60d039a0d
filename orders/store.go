package orders

import (
	"errors"
	"sync"
	"time"

	"github.com/cryptonaira/nairadesk/models"
)

var (
	// ErrNotFound means the owner has no transaction.
	ErrNotFound = errors.New("transaction not found")

	// ErrUnexpectedState means the transaction exists but is not in the
	// state the operation expects. Duplicate button presses end here.
	ErrUnexpectedState = errors.New("transaction in unexpected state")

	// ErrFenced means the owner's transaction was replaced since the
	// caller last looked at it.
	ErrFenced = errors.New("transaction was replaced")

	// ErrNotExpected means the transaction's state takes no input of
	// this kind.
	ErrNotExpected = errors.New("input not expected in current state")
)

// IsConsistencyError reports whether err is one of the errors returned
// when an event arrives for a transaction that has moved on. Such events
// are dropped without telling the user.
func IsConsistencyError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnexpectedState) || errors.Is(err, ErrFenced)
}

// Store is the authoritative table of in-flight transactions, at most
// one per owner. A single mutex guards the whole table. Callers only
// ever see copies; changes go through Mutate and friends.
type Store struct {
	mtx     sync.Mutex
	txs     map[models.Owner]*models.Transaction
	timeout time.Duration
	now     func() time.Time
}

// NewStore returns an empty store. New transactions get timeout on the
// clock.
func NewStore(timeout time.Duration) *Store {
	return &Store{
		txs:     make(map[models.Owner]*models.Transaction),
		timeout: timeout,
		now:     time.Now,
	}
}

// Create starts a new transaction for owner, discarding any existing
// one. The discarded transaction, if there was one, is returned as well.
func (s *Store) Create(owner models.Owner, username string, direction models.Direction) (models.Transaction, *models.Transaction) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	var replaced *models.Transaction
	if old, ok := s.txs[owner]; ok {
		cpy := *old
		replaced = &cpy
	}

	now := s.now()
	tx := &models.Transaction{
		ID:               models.NewTransactionID(),
		Owner:            owner,
		Username:         username,
		Direction:        direction,
		State:            models.StateAwaitingAmount,
		Status:           models.StatusActive,
		RemainingSeconds: int(s.timeout / time.Second),
		StartedAt:        now,
		LastTransitionAt: now,
	}
	s.txs[owner] = tx
	return *tx, replaced
}

// Get returns a copy of the owner's transaction.
func (s *Store) Get(owner models.Owner) (models.Transaction, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tx, ok := s.txs[owner]
	if !ok {
		return models.Transaction{}, false
	}
	return *tx, true
}

// Mutate applies fn to the owner's transaction under the lock. fn works
// on a copy which replaces the stored transaction only if fn returns nil,
// so a rejected input never leaves a partial change behind. The updated
// copy is returned.
func (s *Store) Mutate(owner models.Owner, fn func(tx *models.Transaction) error) (models.Transaction, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.mutate(owner, "", fn)
}

// MutateIf is Mutate guarded by the fencing token: it fails with
// ErrFenced if the owner's transaction no longer carries id.
func (s *Store) MutateIf(owner models.Owner, id models.TransactionID, fn func(tx *models.Transaction) error) (models.Transaction, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.mutate(owner, id, fn)
}

func (s *Store) mutate(owner models.Owner, id models.TransactionID, fn func(tx *models.Transaction) error) (models.Transaction, error) {
	current, ok := s.txs[owner]
	if !ok {
		return models.Transaction{}, ErrNotFound
	}
	if id != "" && current.ID != id {
		return models.Transaction{}, ErrFenced
	}

	cpy := *current
	if err := fn(&cpy); err != nil {
		return *current, err
	}
	if cpy.State != current.State {
		cpy.LastTransitionAt = s.now()
	}
	// The id and owner are fixed for the life of a transaction.
	cpy.ID, cpy.Owner = current.ID, current.Owner
	*current = cpy
	return cpy, nil
}

// Remove deletes the owner's transaction and returns it.
func (s *Store) Remove(owner models.Owner) (models.Transaction, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tx, ok := s.txs[owner]
	if !ok {
		return models.Transaction{}, false
	}
	delete(s.txs, owner)
	return *tx, true
}

// RemoveIf deletes the owner's transaction only if it still carries id.
func (s *Store) RemoveIf(owner models.Owner, id models.TransactionID) (models.Transaction, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tx, ok := s.txs[owner]
	if !ok || tx.ID != id {
		return models.Transaction{}, false
	}
	delete(s.txs, owner)
	return *tx, true
}

// RemoveInState deletes the owner's transaction if it carries id and is
// in one of states.
func (s *Store) RemoveInState(owner models.Owner, id models.TransactionID, states ...models.TransactionState) (models.Transaction, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tx, ok := s.txs[owner]
	if !ok {
		return models.Transaction{}, ErrNotFound
	}
	if tx.ID != id {
		return models.Transaction{}, ErrFenced
	}
	if err := expectState(tx, states...); err != nil {
		return models.Transaction{}, err
	}
	delete(s.txs, owner)
	return *tx, nil
}

// Len returns the number of transactions in flight.
func (s *Store) Len() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return len(s.txs)
}

// All returns copies of every transaction in flight.
func (s *Store) All() []models.Transaction {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	out := make([]models.Transaction, 0, len(s.txs))
	for _, tx := range s.txs {
		out = append(out, *tx)
	}
	return out
}

func expectState(tx *models.Transaction, states ...models.TransactionState) error {
	for _, state := range states {
		if tx.State == state {
			return nil
		}
	}
	return ErrUnexpectedState
}
