package orders

import (
	"context"
	"fmt"

	"github.com/cryptonaira/nairadesk/models"
)

// adminTransition is one row of the admin dispatch table. An action is
// only applied when the transaction is in from. Notices have from == to.
type adminTransition struct {
	from   models.TransactionState
	to     models.TransactionState
	guard  func(t *models.Transaction) error
	apply  func(t *models.Transaction)
	notify func(p *Processor, tx models.Transaction) []outbound
	answer string
}

var adminTable = map[string][]adminTransition{
	AdminApprove: {{
		from:   models.StatePendingAdminReview,
		to:     models.StateAwaitingWalletAddress,
		answer: "Payment approved",
		notify: func(p *Processor, tx models.Transaction) []outbound {
			return []outbound{{chatID: userChat(tx.Owner), text: textAskWallet}}
		},
	}},
	AdminReject: {
		{
			from:   models.StatePendingAdminReview,
			to:     models.StateAwaitingProof,
			apply:  clearProof,
			answer: "Payment rejected",
			notify: func(p *Processor, tx models.Transaction) []outbound {
				return []outbound{{chatID: userChat(tx.Owner), text: p.tmpl.rejectedProof()}}
			},
		},
		{
			from:   models.StatePendingAdminConfirmation,
			to:     models.StateAwaitingTransferProof,
			apply:  clearProof,
			answer: "Transfer proof rejected",
			notify: func(p *Processor, tx models.Transaction) []outbound {
				return []outbound{{chatID: userChat(tx.Owner), text: p.tmpl.rejectedProof()}}
			},
		},
	},
	AdminPending: {
		{
			from:   models.StatePendingAdminReview,
			to:     models.StatePendingAdminReview,
			answer: "Status set to pending",
			notify: func(p *Processor, tx models.Transaction) []outbound {
				return []outbound{{chatID: userChat(tx.Owner), text: textUnderReview}}
			},
		},
		{
			from:   models.StatePendingAdminConfirmation,
			to:     models.StatePendingAdminConfirmation,
			answer: "Status set to pending",
			notify: func(p *Processor, tx models.Transaction) []outbound {
				return []outbound{{chatID: userChat(tx.Owner), text: textUnderReview}}
			},
		},
	},
	AdminTransferDone: {{
		from:   models.StateAwaitingAdminTransfer,
		to:     models.StateAwaitingUserReceiptConfirmation,
		answer: "Transfer recorded",
		notify: func(p *Processor, tx models.Transaction) []outbound {
			return []outbound{
				{chatID: userChat(tx.Owner), text: p.tmpl.buyTransferDone(), kb: receiptKeyboard()},
				{chatID: p.admin, text: fmt.Sprintf("✅ You have confirmed the transfer for user %s.\n\nWaiting for the user to acknowledge receipt.", who(tx))},
			}
		},
	}},
	AdminConfirm: {{
		from:   models.StatePendingAdminConfirmation,
		to:     models.StateAwaitingBankDetails,
		answer: "Transfer confirmed",
		notify: func(p *Processor, tx models.Transaction) []outbound {
			return []outbound{{chatID: userChat(tx.Owner), text: textBankDetailsAsk}}
		},
	}},
	AdminNairaSent: {{
		from:   models.StateAwaitingAdminPayout,
		to:     models.StateAwaitingUserFiatConfirmation,
		answer: "Payout recorded",
		notify: func(p *Processor, tx models.Transaction) []outbound {
			return []outbound{{chatID: userChat(tx.Owner), text: p.tmpl.sellPayoutDone(), kb: receiptKeyboard()}}
		},
	}},
	AdminPendingNotify: {
		{
			from:   models.StateAwaitingUserReceiptConfirmation,
			to:     models.StateAwaitingUserReceiptConfirmation,
			guard:  requireNotReceived,
			answer: "User notified",
			notify: notifyPending,
		},
		{
			from:   models.StateAwaitingUserFiatConfirmation,
			to:     models.StateAwaitingUserFiatConfirmation,
			guard:  requireNotReceived,
			answer: "User notified",
			notify: notifyPending,
		},
	},
}

func clearProof(t *models.Transaction) {
	t.ProofReference = ""
}

func requireNotReceived(t *models.Transaction) error {
	if !t.NotReceivedReported {
		return ErrUnexpectedState
	}
	return nil
}

func notifyPending(p *Processor, tx models.Transaction) []outbound {
	return []outbound{
		{chatID: userChat(tx.Owner), text: textPendingReassure},
		{chatID: p.admin, text: fmt.Sprintf("⏳ User %s has been informed to wait due to possible bank network delays.", who(tx))},
	}
}

// IsAdminAction returns whether action is a known admin action.
func IsAdminAction(action string) bool {
	_, ok := adminTable[action]
	return ok
}

// HandleAdminAction applies an admin button press to owner's transaction
// and returns the text to answer the button with. A press that doesn't
// match the transaction's current state, such as a second Approve, is
// rejected with ErrUnexpectedState and changes nothing.
func (p *Processor) HandleAdminAction(ctx context.Context, action string, owner models.Owner) (string, error) {
	transitions, ok := adminTable[action]
	if !ok {
		return "", ErrNotExpected
	}
	tx, ok := p.store.Get(owner)
	if !ok {
		return "", ErrNotFound
	}

	var tr *adminTransition
	for i := range transitions {
		if transitions[i].from == tx.State {
			tr = &transitions[i]
			break
		}
	}
	if tr == nil {
		return "", ErrUnexpectedState
	}

	updated, err := p.store.MutateIf(owner, tx.ID, func(t *models.Transaction) error {
		if err := expectState(t, tr.from); err != nil {
			return err
		}
		if tr.guard != nil {
			if err := tr.guard(t); err != nil {
				return err
			}
		}
		t.State = tr.to
		if tr.apply != nil {
			tr.apply(t)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	log.Infof("Admin %s on transaction %s of user %s", action, tx.ID, owner)
	if tr.to != tr.from {
		p.transitioned(updated, tr.from)
	}

	return tr.answer, p.send(ctx, tr.notify(p, updated)...)
}
