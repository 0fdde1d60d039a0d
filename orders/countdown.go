package orders

import (
	"context"
	"sync"
	"time"

	"github.com/cryptonaira/nairadesk/models"
	"github.com/cryptonaira/nairadesk/net"
)

// Countdown runs one timer goroutine per transaction. A timer is bound to
// the transaction id it was started for and exits on its next tick once
// the owner's transaction is gone or carries a different id.
type Countdown struct {
	store    *Store
	gw       net.Gateway
	interval time.Duration
	onExpire func(tx models.Transaction)

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func newCountdown(store *Store, gw net.Gateway, interval time.Duration, onExpire func(tx models.Transaction)) *Countdown {
	return &Countdown{
		store:    store,
		gw:       gw,
		interval: interval,
		onExpire: onExpire,
		done:     make(chan struct{}),
	}
}

// Start launches the timer for owner's transaction id. It returns false,
// and starts nothing, if that transaction already has a timer or is no
// longer current.
func (c *Countdown) Start(owner models.Owner, id models.TransactionID) bool {
	_, err := c.store.MutateIf(owner, id, func(t *models.Transaction) error {
		if t.CountdownStarted {
			return ErrUnexpectedState
		}
		t.CountdownStarted = true
		return nil
	})
	if err != nil {
		return false
	}

	c.wg.Add(1)
	go c.run(owner, id)
	return true
}

// Stop halts every timer and waits for them to exit.
func (c *Countdown) Stop() {
	c.once.Do(func() { close(c.done) })
	c.wg.Wait()
}

func (c *Countdown) run(owner models.Owner, id models.TransactionID) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if !c.tick(owner, id) {
				return
			}
		}
	}
}

// tick runs one step of the timer and reports whether it should keep
// going. The check and the decrement happen under the store lock; the
// display edit happens after the lock is released.
func (c *Countdown) tick(owner models.Owner, id models.TransactionID) bool {
	step, expired, err := c.store.tickCountdown(owner, id)
	if err != nil {
		// Replaced, completed or cancelled elsewhere.
		return false
	}
	if expired != nil {
		if c.onExpire != nil {
			c.onExpire(*expired)
		}
		return false
	}

	if step.handle.IsZero() {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), net.SendTimeout)
	defer cancel()

	if err := c.gw.EditText(ctx, step.handle, CountdownText(step.display), nil); err != nil {
		if net.IsPermanent(err) {
			// The message is gone. Keep counting so the transaction
			// still expires, but stop editing it.
			log.Warningf("Countdown display for transaction %s lost: %s", id, err)
			c.store.MutateIf(owner, id, func(t *models.Transaction) error {
				if t.CountdownMessage == step.handle {
					t.CountdownMessage = models.MessageHandle{}
				}
				return nil
			})
			return true
		}
		log.Debugf("Error updating countdown for transaction %s: %s", id, err)
	}
	return true
}

type countdownStep struct {
	display int
	handle  models.MessageHandle
}

// tickCountdown decrements the remaining time of owner's transaction id
// in a single critical section. When the time has run out the transaction
// is removed and returned as expired instead. Exactly one caller can
// observe the expiry since the removal happens under the same lock.
func (s *Store) tickCountdown(owner models.Owner, id models.TransactionID) (countdownStep, *models.Transaction, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tx, ok := s.txs[owner]
	if !ok {
		return countdownStep{}, nil, ErrNotFound
	}
	if tx.ID != id {
		return countdownStep{}, nil, ErrFenced
	}
	if !tx.IsActive() {
		return countdownStep{}, nil, ErrUnexpectedState
	}
	if tx.RemainingSeconds <= 0 {
		delete(s.txs, owner)
		expired := *tx
		return countdownStep{}, &expired, nil
	}

	step := countdownStep{display: tx.RemainingSeconds, handle: tx.CountdownMessage}
	tx.RemainingSeconds--
	return step, nil, nil
}
