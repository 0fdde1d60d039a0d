package orders

import (
	"context"
	"time"

	"github.com/cryptonaira/nairadesk/events"
	"github.com/cryptonaira/nairadesk/models"
	"github.com/cryptonaira/nairadesk/net"
	"github.com/op/go-logging"
	"github.com/shopspring/decimal"
)

var log = logging.MustGetLogger("ORDR")

// DefaultTimeout is how long a transaction may stay open.
const DefaultTimeout = time.Minute * 15

// RateSource quotes the Naira price of USDT. It never fails.
type RateSource interface {
	Quote(ctx context.Context, direction models.Direction) decimal.Decimal
}

// Config configures a Processor.
type Config struct {
	Gateway     net.Gateway
	Rates       RateSource
	Bus         events.Bus
	AdminChatID int64
	Desk        *models.Desk
	Timeout     time.Duration

	// TickInterval is the countdown tick. It defaults to one second.
	TickInterval time.Duration
}

// Processor runs the buy and sell workflows. It owns the transaction
// store and the countdown timers. Each entry point looks up the sender's
// transaction once and dispatches to the one handler for its state.
type Processor struct {
	store     *Store
	gw        net.Gateway
	rates     RateSource
	bus       events.Bus
	admin     int64
	desk      *models.Desk
	tmpl      templates
	countdown *Countdown

	textHandlers   map[models.TransactionState]textHandler
	photoHandlers  map[models.TransactionState]textHandler
	buttonHandlers map[string]buttonHandler
}

type textHandler func(ctx context.Context, tx models.Transaction, input string) error

type buttonHandler func(ctx context.Context, tx models.Transaction, arg string) error

// outbound is a message produced by a transition.
type outbound struct {
	chatID   int64
	text     string
	photoRef string
	kb       net.Keyboard
}

// NewProcessor returns a new Processor.
func NewProcessor(cfg Config) *Processor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.Desk == nil {
		cfg.Desk = models.DefaultDesk()
	}
	if cfg.Bus == nil {
		cfg.Bus = events.NewBus()
	}

	p := &Processor{
		store: NewStore(cfg.Timeout),
		gw:    cfg.Gateway,
		rates: cfg.Rates,
		bus:   cfg.Bus,
		admin: cfg.AdminChatID,
		desk:  cfg.Desk,
		tmpl:  templates{desk: cfg.Desk},
	}
	p.countdown = newCountdown(p.store, p.gw, cfg.TickInterval, p.expire)

	p.textHandlers = map[models.TransactionState]textHandler{
		models.StateAwaitingAmount:        p.handleAmount,
		models.StateAwaitingWalletAddress: p.handleWalletAddress,
		models.StateAwaitingBankDetails:   p.handleBankDetails,
	}
	p.photoHandlers = map[models.TransactionState]textHandler{
		models.StateAwaitingProof:         p.handleBuyProof,
		models.StateAwaitingTransferProof: p.handleSellProof,
	}
	p.buttonHandlers = map[string]buttonHandler{
		ActionConfirmSell: p.handleConfirmSell,
		ActionReceived:    p.handleReceived,
		ActionNotReceived: p.handleNotReceived,
		networkPrefix:     p.handleNetwork,
	}
	return p
}

// Store returns the transaction store.
func (p *Processor) Store() *Store {
	return p.store
}

// Desk returns the desk configuration.
func (p *Processor) Desk() *models.Desk {
	return p.desk
}

// Apology returns the generic failure message.
func (p *Processor) Apology() string {
	return p.tmpl.Apology()
}

// Stop halts every countdown and waits for them to exit.
func (p *Processor) Stop() {
	p.countdown.Stop()
}

// Start opens a new transaction for owner, replacing any existing one,
// shows the countdown and asks for the amount.
func (p *Processor) Start(ctx context.Context, owner models.Owner, username string, direction models.Direction) error {
	tx, replaced := p.store.Create(owner, username, direction)
	if replaced != nil {
		log.Infof("Transaction %s of user %s replaced by %s", replaced.ID, owner, tx.ID)
		replaced.Status = models.StatusCancelled
		p.bus.Emit(&events.TransactionCancelled{TransactionEvent: events.NewTransactionEvent(*replaced), Reason: "replaced"})
	}
	log.Infof("User %s opened %s transaction %s", owner, direction, tx.ID)
	p.bus.Emit(&events.TransactionOpened{TransactionEvent: events.NewTransactionEvent(tx)})

	h, err := p.gw.SendText(ctx, userChat(owner), CountdownText(tx.RemainingSeconds), nil)
	if err != nil {
		log.Errorf("Error sending countdown to user %s: %s", owner, err)
	} else {
		_, err = p.store.MutateIf(owner, tx.ID, func(t *models.Transaction) error {
			t.CountdownMessage = h
			return nil
		})
		if err != nil {
			// Replaced while the countdown message was in flight.
			return err
		}
	}
	p.countdown.Start(owner, tx.ID)

	return p.send(ctx, outbound{chatID: userChat(owner), text: p.tmpl.started(direction)})
}

// HandleText routes free text to the handler for the sender's state.
// It returns ErrNotFound if the sender has no transaction and
// ErrNotExpected if the state takes no text.
func (p *Processor) HandleText(ctx context.Context, owner models.Owner, text string) error {
	tx, ok := p.store.Get(owner)
	if !ok {
		return ErrNotFound
	}
	handler, ok := p.textHandlers[tx.State]
	if !ok {
		return ErrNotExpected
	}
	return handler(ctx, tx, text)
}

// HandlePhoto routes an uploaded photo like HandleText.
func (p *Processor) HandlePhoto(ctx context.Context, owner models.Owner, photoRef string) error {
	tx, ok := p.store.Get(owner)
	if !ok {
		return ErrNotFound
	}
	handler, ok := p.photoHandlers[tx.State]
	if !ok {
		return ErrNotExpected
	}
	return handler(ctx, tx, photoRef)
}

// HandleButton routes a user button press. Buy, Sell, Cancel and Exit
// have their own entry points.
func (p *Processor) HandleButton(ctx context.Context, owner models.Owner, data string) error {
	tx, ok := p.store.Get(owner)
	if !ok {
		return ErrNotFound
	}
	key, arg := data, ""
	if name, ok := ParseNetworkAction(data); ok {
		key, arg = networkPrefix, name
	}
	handler, ok := p.buttonHandlers[key]
	if !ok {
		return ErrNotExpected
	}
	return handler(ctx, tx, arg)
}

// Cancel removes the owner's transaction.
func (p *Processor) Cancel(ctx context.Context, owner models.Owner) error {
	tx, ok := p.store.Remove(owner)
	if !ok {
		return p.send(ctx, outbound{chatID: userChat(owner), text: textNoTransaction, kb: MenuKeyboard()})
	}
	log.Infof("User %s cancelled transaction %s", owner, tx.ID)
	tx.Status = models.StatusCancelled
	p.bus.Emit(&events.TransactionCancelled{TransactionEvent: events.NewTransactionEvent(tx), Reason: "user"})

	msgs := []outbound{{chatID: userChat(owner), text: textCancelled}}
	if awaitsAdmin(tx) {
		msgs = append(msgs, outbound{chatID: p.admin, text: p.tmpl.adminCancelled(tx)})
	}
	return p.send(ctx, msgs...)
}

// Exit drops any transaction without ceremony and says goodbye.
func (p *Processor) Exit(ctx context.Context, owner models.Owner) error {
	if tx, ok := p.store.Remove(owner); ok {
		tx.Status = models.StatusCancelled
		p.bus.Emit(&events.TransactionCancelled{TransactionEvent: events.NewTransactionEvent(tx), Reason: "exit"})
	}
	return p.send(ctx, outbound{chatID: userChat(owner), text: textGoodbye})
}

// Rates sends the current buy and sell quotes.
func (p *Processor) Rates(ctx context.Context, chatID int64) error {
	buy := p.rates.Quote(ctx, models.DirectionBuy)
	sell := p.rates.Quote(ctx, models.DirectionSell)
	return p.send(ctx, outbound{chatID: chatID, text: p.tmpl.rates(buy, sell)})
}

// ShowMenu sends the Buy/Sell menu with an optional lead text.
func (p *Processor) ShowMenu(ctx context.Context, chatID int64, lead string) error {
	if lead == "" {
		lead = textChooseAction
	}
	return p.send(ctx, outbound{chatID: chatID, text: lead, kb: MenuKeyboard()})
}

// expire is called by the countdown after it removed a transaction.
func (p *Processor) expire(tx models.Transaction) {
	log.Infof("Transaction %s of user %s expired", tx.ID, tx.Owner)
	tx.Status = models.StatusExpired
	p.bus.Emit(&events.TransactionExpired{TransactionEvent: events.NewTransactionEvent(tx)})

	ctx, cancel := context.WithTimeout(context.Background(), net.SendTimeout)
	defer cancel()

	msgs := []outbound{{chatID: userChat(tx.Owner), text: textTimedOut}}
	if awaitsAdmin(tx) {
		msgs = append(msgs, outbound{chatID: p.admin, text: p.tmpl.adminExpired(tx)})
	}
	p.send(ctx, msgs...)
}

// transitioned emits the update event for a state change.
func (p *Processor) transitioned(tx models.Transaction, from models.TransactionState) {
	log.Debugf("Transaction %s: %s -> %s", tx.ID, from, tx.State)
	p.bus.Emit(&events.TransactionUpdated{TransactionEvent: events.NewTransactionEvent(tx), From: from})
}

// send delivers msgs in order. A failed message does not stop the rest.
// The first error is returned.
func (p *Processor) send(ctx context.Context, msgs ...outbound) error {
	var first error
	for _, m := range msgs {
		var err error
		if m.photoRef != "" {
			_, err = p.gw.SendPhoto(ctx, m.chatID, m.photoRef, m.text, m.kb)
		} else {
			_, err = p.gw.SendText(ctx, m.chatID, m.text, m.kb)
		}
		if err != nil {
			log.Errorf("Error sending message to %d: %s", m.chatID, err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func userChat(owner models.Owner) int64 {
	return int64(owner)
}

// awaitsAdmin returns whether the admin has been shown the transaction.
func awaitsAdmin(tx models.Transaction) bool {
	switch tx.State {
	case models.StatePendingAdminReview,
		models.StateAwaitingAdminTransfer,
		models.StateAwaitingUserReceiptConfirmation,
		models.StatePendingAdminConfirmation,
		models.StateAwaitingAdminPayout,
		models.StateAwaitingUserFiatConfirmation:
		return true
	}
	return false
}
