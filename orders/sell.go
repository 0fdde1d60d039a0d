package orders

import (
	"context"

	"github.com/cryptonaira/nairadesk/models"
)

func (p *Processor) handleConfirmSell(ctx context.Context, tx models.Transaction, _ string) error {
	updated, err := p.store.MutateIf(tx.Owner, tx.ID, func(t *models.Transaction) error {
		if err := expectState(t, models.StateAwaitingSellConfirmation); err != nil {
			return err
		}
		t.State = models.StateAwaitingNetworkSelection
		return nil
	})
	if err != nil {
		return err
	}
	p.transitioned(updated, tx.State)

	return p.send(ctx, outbound{chatID: userChat(tx.Owner), text: textChooseSellNet, kb: networkKeyboard(p.desk.SellNetworks())})
}

// chooseSellNetwork only accepts networks the desk holds a wallet on.
func (p *Processor) chooseSellNetwork(ctx context.Context, tx models.Transaction, name string) error {
	network, err := models.ParseNetwork(name)
	if err != nil {
		return p.send(ctx, outbound{chatID: userChat(tx.Owner), text: textInvalidNetwork})
	}
	wallet, ok := p.desk.WalletFor(network)
	if !ok {
		return p.send(ctx, outbound{chatID: userChat(tx.Owner), text: textInvalidNetwork})
	}

	updated, err := p.store.MutateIf(tx.Owner, tx.ID, func(t *models.Transaction) error {
		if err := expectState(t, models.StateAwaitingNetworkSelection); err != nil {
			return err
		}
		t.Network = network
		t.CompanyWallet = wallet
		t.State = models.StateAwaitingTransferProof
		return nil
	})
	if err != nil {
		return err
	}
	p.transitioned(updated, tx.State)

	return p.send(ctx, outbound{chatID: userChat(tx.Owner), text: p.tmpl.sellPayInstructions(updated)})
}

func (p *Processor) handleSellProof(ctx context.Context, tx models.Transaction, photoRef string) error {
	updated, err := p.store.MutateIf(tx.Owner, tx.ID, func(t *models.Transaction) error {
		if err := expectState(t, models.StateAwaitingTransferProof); err != nil {
			return err
		}
		t.ProofReference = photoRef
		t.State = models.StatePendingAdminConfirmation
		return nil
	})
	if err != nil {
		return err
	}
	p.transitioned(updated, tx.State)

	return p.send(ctx,
		outbound{chatID: userChat(tx.Owner), text: textProofUploaded},
		outbound{chatID: p.admin, photoRef: photoRef, text: p.tmpl.adminSellProof(updated), kb: adminReviewKeyboard(tx.Owner, AdminConfirm)},
	)
}

func (p *Processor) handleBankDetails(ctx context.Context, tx models.Transaction, input string) error {
	details, err := parseBankDetails(input)
	if err != nil {
		return p.send(ctx, outbound{chatID: userChat(tx.Owner), text: textBankDetailsRetry})
	}

	updated, err := p.store.MutateIf(tx.Owner, tx.ID, func(t *models.Transaction) error {
		if err := expectState(t, models.StateAwaitingBankDetails); err != nil {
			return err
		}
		t.Counterparty = details
		t.State = models.StateAwaitingAdminPayout
		return nil
	})
	if err != nil {
		return err
	}
	p.transitioned(updated, tx.State)

	return p.send(ctx,
		outbound{
			chatID: p.admin,
			text:   p.tmpl.adminPayoutRequest(updated),
			kb:     adminSingleKeyboard("✅ Transfer Done", AdminNairaSent, tx.Owner),
		},
		outbound{chatID: userChat(tx.Owner), text: textBankReceived},
	)
}
