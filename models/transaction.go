package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Owner is the chat identity of the user who owns a transaction. For
// private chats this is also the chat the bot replies into.
type Owner int64

// String returns the decimal representation of the owner.
func (o Owner) String() string {
	return strconv.FormatInt(int64(o), 10)
}

// ParseOwner parses an owner previously formatted with String.
func ParseOwner(s string) (Owner, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return Owner(i), nil
}

// TransactionID is the unique id of a transaction. It doubles as the
// fencing token checked by deferred work such as countdown ticks.
type TransactionID string

// String returns the string representation of the ID.
func (id TransactionID) String() string {
	return string(id)
}

// NewTransactionID returns a new time ordered transaction ID.
func NewTransactionID() TransactionID {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source fails.
		return TransactionID(uuid.New().String())
	}
	return TransactionID(id.String())
}

// Direction is the side of the exchange from the user's point of view.
type Direction string

const (
	// DirectionBuy means the user pays Naira and receives USDT.
	DirectionBuy Direction = "buy"
	// DirectionSell means the user sends USDT and receives Naira.
	DirectionSell Direction = "sell"
)

// Title returns the capitalized direction used in chat messages.
func (d Direction) Title() string {
	switch d {
	case DirectionBuy:
		return "Buy"
	case DirectionSell:
		return "Sell"
	}
	return string(d)
}

// TransactionState is the step a transaction is currently waiting on.
type TransactionState string

const (
	StateAwaitingAmount TransactionState = "awaiting_amount"

	// Buy
	StateAwaitingProof                   TransactionState = "awaiting_proof"
	StatePendingAdminReview              TransactionState = "pending_admin_review"
	StateAwaitingWalletAddress           TransactionState = "awaiting_wallet_address"
	StateAwaitingNetworkChoice           TransactionState = "awaiting_network_choice"
	StateAwaitingAdminTransfer           TransactionState = "awaiting_admin_transfer"
	StateAwaitingUserReceiptConfirmation TransactionState = "awaiting_user_receipt_confirmation"

	// Sell
	StateAwaitingSellConfirmation     TransactionState = "awaiting_sell_confirmation"
	StateAwaitingNetworkSelection     TransactionState = "awaiting_network_selection"
	StateAwaitingTransferProof        TransactionState = "awaiting_transfer_proof"
	StatePendingAdminConfirmation     TransactionState = "pending_admin_confirmation"
	StateAwaitingBankDetails          TransactionState = "awaiting_bank_details"
	StateAwaitingAdminPayout          TransactionState = "awaiting_admin_payout"
	StateAwaitingUserFiatConfirmation TransactionState = "awaiting_user_fiat_confirmation"
)

// TransactionStatus is the coarse lifecycle status of a transaction.
type TransactionStatus string

const (
	StatusActive    TransactionStatus = "active"
	StatusCancelled TransactionStatus = "cancelled"
	StatusCompleted TransactionStatus = "completed"
	StatusExpired   TransactionStatus = "expired"
)

// MessageHandle identifies a message previously sent by the bot so
// that it can be edited or pinned later.
type MessageHandle struct {
	ChatID    int64 `json:"chatID"`
	MessageID int   `json:"messageID"`
}

// IsZero returns whether the handle was never set.
func (h MessageHandle) IsZero() bool {
	return h.MessageID == 0
}

// Transaction holds the state of a single in-flight exchange. There is
// at most one per owner. Values of this type are snapshots: the
// authoritative copy lives in the transaction store.
type Transaction struct {
	ID        TransactionID     `json:"transactionID"`
	Owner     Owner             `json:"owner"`
	Username  string            `json:"username,omitempty"`
	Direction Direction         `json:"action"`
	State     TransactionState  `json:"step"`
	Status    TransactionStatus `json:"status"`

	Amount     decimal.Decimal `json:"amount"`
	Rate       decimal.Decimal `json:"rate"`
	FiatAmount decimal.Decimal `json:"nairaAmount"`

	Network Network `json:"network,omitempty"`

	// Counterparty is the user's payout wallet address on Buy and the
	// user's bank detail block on Sell.
	Counterparty string `json:"counterparty,omitempty"`

	// CompanyWallet is the desk wallet shown to a seller.
	CompanyWallet string `json:"companyWallet,omitempty"`

	ProofReference string `json:"proofReference,omitempty"`

	NotReceivedReported bool `json:"notReceivedReported,omitempty"`

	RemainingSeconds int           `json:"remainingSeconds"`
	CountdownMessage MessageHandle `json:"countdownMessage"`
	CountdownStarted bool          `json:"-"`
	StartedAt        time.Time     `json:"startTime"`
	LastTransitionAt time.Time     `json:"lastTransition"`
}

// IsBuy returns whether this is a buy transaction.
func (t *Transaction) IsBuy() bool {
	return t.Direction == DirectionBuy
}

// IsSell returns whether this is a sell transaction.
func (t *Transaction) IsSell() bool {
	return t.Direction == DirectionSell
}

// IsActive returns whether the transaction is still in flight.
func (t *Transaction) IsActive() bool {
	return t.Status == StatusActive
}

// FormatCountdown renders seconds as MM:SS.
func FormatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	m, s := seconds/60, seconds%60
	return pad2(m) + ":" + pad2(s)
}

func pad2(i int) string {
	if i < 10 {
		return "0" + strconv.Itoa(i)
	}
	return strconv.Itoa(i)
}

// TransactionPath returns the audit trail path for a transaction.
func TransactionPath(owner Owner, id TransactionID) string {
	return "transactions/" + owner.String() + "/" + id.String()
}
