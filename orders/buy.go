package orders

import (
	"context"
	"strings"

	"github.com/cryptonaira/nairadesk/events"
	"github.com/cryptonaira/nairadesk/models"
)

// handleAmount freezes the quote for both directions. The rate is fetched
// before taking the lock since the oracle can be slow.
func (p *Processor) handleAmount(ctx context.Context, tx models.Transaction, input string) error {
	amount, err := parseAmount(input)
	if err != nil {
		return p.send(ctx, outbound{chatID: userChat(tx.Owner), text: textInvalidAmount})
	}

	rate := p.rates.Quote(ctx, tx.Direction)
	updated, err := p.store.MutateIf(tx.Owner, tx.ID, func(t *models.Transaction) error {
		if err := expectState(t, models.StateAwaitingAmount); err != nil {
			return err
		}
		t.Amount = amount
		t.Rate = rate
		t.FiatAmount = amount.Mul(rate)
		if t.IsBuy() {
			t.State = models.StateAwaitingProof
		} else {
			t.State = models.StateAwaitingSellConfirmation
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.transitioned(updated, tx.State)

	if updated.IsBuy() {
		return p.send(ctx, outbound{chatID: userChat(tx.Owner), text: p.tmpl.payInstructions(updated), kb: declineKeyboard()})
	}
	return p.send(ctx, outbound{chatID: userChat(tx.Owner), text: p.tmpl.sellQuote(updated), kb: sellConfirmKeyboard()})
}

func (p *Processor) handleBuyProof(ctx context.Context, tx models.Transaction, photoRef string) error {
	updated, err := p.store.MutateIf(tx.Owner, tx.ID, func(t *models.Transaction) error {
		if err := expectState(t, models.StateAwaitingProof); err != nil {
			return err
		}
		t.ProofReference = photoRef
		t.State = models.StatePendingAdminReview
		return nil
	})
	if err != nil {
		return err
	}
	p.transitioned(updated, tx.State)

	return p.send(ctx,
		outbound{chatID: userChat(tx.Owner), text: textReceiptUploaded},
		outbound{chatID: p.admin, photoRef: photoRef, text: p.tmpl.adminBuyProof(updated), kb: adminReviewKeyboard(tx.Owner, AdminApprove)},
	)
}

// handleWalletAddress takes the address as typed. It is checked against
// the network once one is chosen, and only the admin is warned.
func (p *Processor) handleWalletAddress(ctx context.Context, tx models.Transaction, input string) error {
	address := strings.TrimSpace(input)
	if address == "" {
		return p.send(ctx, outbound{chatID: userChat(tx.Owner), text: textEmptyWallet})
	}

	updated, err := p.store.MutateIf(tx.Owner, tx.ID, func(t *models.Transaction) error {
		if err := expectState(t, models.StateAwaitingWalletAddress); err != nil {
			return err
		}
		t.Counterparty = address
		t.State = models.StateAwaitingNetworkChoice
		return nil
	})
	if err != nil {
		return err
	}
	p.transitioned(updated, tx.State)

	return p.send(ctx, outbound{chatID: userChat(tx.Owner), text: textChooseNetwork, kb: networkKeyboard(p.desk.BuyNetworks)})
}

func (p *Processor) handleNetwork(ctx context.Context, tx models.Transaction, name string) error {
	switch tx.State {
	case models.StateAwaitingNetworkChoice:
		return p.chooseBuyNetwork(ctx, tx, name)
	case models.StateAwaitingNetworkSelection:
		return p.chooseSellNetwork(ctx, tx, name)
	}
	return ErrUnexpectedState
}

// chooseBuyNetwork only accepts networks the desk offers to buyers.
func (p *Processor) chooseBuyNetwork(ctx context.Context, tx models.Transaction, name string) error {
	network, err := models.ParseNetwork(name)
	if err != nil || !p.desk.OffersBuyNetwork(network) {
		return p.send(ctx, outbound{chatID: userChat(tx.Owner), text: textInvalidNetwork})
	}

	updated, err := p.store.MutateIf(tx.Owner, tx.ID, func(t *models.Transaction) error {
		if err := expectState(t, models.StateAwaitingNetworkChoice); err != nil {
			return err
		}
		t.Network = network
		t.State = models.StateAwaitingAdminTransfer
		return nil
	})
	if err != nil {
		return err
	}
	p.transitioned(updated, tx.State)

	addrErr := models.ValidateAddress(network, updated.Counterparty)
	if addrErr != nil {
		log.Warningf("User %s gave a %s address that failed validation: %s", tx.Owner, network, addrErr)
	}

	return p.send(ctx,
		outbound{chatID: userChat(tx.Owner), text: p.tmpl.buyNetworkChosen(updated)},
		outbound{chatID: userChat(tx.Owner), text: textAwaitTransfer},
		outbound{
			chatID: p.admin,
			text:   p.tmpl.adminTransferRequest(updated, addrErr),
			kb:     adminSingleKeyboard("✅ Transfer Done", AdminTransferDone, tx.Owner),
		},
	)
}

// handleReceived closes either direction once the user confirms the
// final payout.
func (p *Processor) handleReceived(ctx context.Context, tx models.Transaction, _ string) error {
	done, err := p.store.RemoveInState(tx.Owner, tx.ID,
		models.StateAwaitingUserReceiptConfirmation,
		models.StateAwaitingUserFiatConfirmation,
	)
	if err != nil {
		return err
	}
	log.Infof("Transaction %s of user %s completed", done.ID, done.Owner)
	done.Status = models.StatusCompleted
	p.bus.Emit(&events.TransactionCompleted{TransactionEvent: events.NewTransactionEvent(done)})

	return p.send(ctx,
		outbound{chatID: p.admin, text: p.tmpl.adminCompleted(done)},
		outbound{chatID: userChat(tx.Owner), text: p.tmpl.completed(done)},
		outbound{chatID: userChat(tx.Owner), text: textAnotherOne, kb: menuWithExit()},
	)
}

// handleNotReceived leaves the transaction where it is and hands the
// case to the admin, who can reassure the user with pending-notify.
func (p *Processor) handleNotReceived(ctx context.Context, tx models.Transaction, _ string) error {
	updated, err := p.store.MutateIf(tx.Owner, tx.ID, func(t *models.Transaction) error {
		if err := expectState(t,
			models.StateAwaitingUserReceiptConfirmation,
			models.StateAwaitingUserFiatConfirmation,
		); err != nil {
			return err
		}
		t.NotReceivedReported = true
		return nil
	})
	if err != nil {
		return err
	}
	p.bus.Emit(&events.TransactionUpdated{TransactionEvent: events.NewTransactionEvent(updated), From: updated.State})

	userText := p.tmpl.notReceivedBuy()
	if updated.IsSell() {
		userText = p.tmpl.notReceivedSell()
	}
	return p.send(ctx,
		outbound{
			chatID: p.admin,
			text:   p.tmpl.adminNotReceived(updated),
			kb:     adminSingleKeyboard("⏳ Notify User of Pending Status", AdminPendingNotify, tx.Owner),
		},
		outbound{chatID: userChat(tx.Owner), text: userText},
	)
}
