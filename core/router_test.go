package core

import (
	"context"
	"strings"
	"testing"

	"github.com/cryptonaira/nairadesk/models"
	"github.com/cryptonaira/nairadesk/net"
	"github.com/cryptonaira/nairadesk/orders"
)

func TestRouter_Start(t *testing.T) {
	gw := net.NewMockGateway()
	n := newTestNode(t, gw)
	n.HandleUpdate(context.Background(), command(alice, "alice", "start"))

	msgs := gw.Messages(aliceChat)
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Text != textPinNote || msgs[1].Text != orders.ScamWarning {
		t.Errorf("Unexpected welcome sequence: %+v", msgs)
	}
	if !msgs[2].HasButton(actionWelcome) {
		t.Error("Welcome button missing")
	}
	pinned := gw.Pinned()
	if len(pinned) != 1 || pinned[0] != msgs[0].Handle {
		t.Errorf("Expected pin note to be pinned, got %v", pinned)
	}

	n.HandleUpdate(context.Background(), button(alice, aliceChat, "cb1", actionWelcome))
	if msg, _ := gw.Last(aliceChat); msg.Text != textReady {
		t.Errorf("Expected ready text, got %q", msg.Text)
	}
	if _, ok := gw.Answered("cb1"); !ok {
		t.Error("Button press was not answered")
	}
}

func TestRouter_GroupChatIgnored(t *testing.T) {
	gw := net.NewMockGateway()
	n := newTestNode(t, gw)

	u := command(alice, "alice", "start")
	u.ChatID = -100
	n.HandleUpdate(context.Background(), u)

	u = text(alice, "hello")
	u.ChatID = -100
	n.HandleUpdate(context.Background(), u)

	if len(gw.Messages(-100)) != 0 || len(gw.Messages(aliceChat)) != 0 {
		t.Error("Group chat update was answered")
	}
}

func TestRouter_CatchAll(t *testing.T) {
	gw := net.NewMockGateway()
	n := newTestNode(t, gw)
	ctx := context.Background()

	n.HandleUpdate(ctx, text(alice, "hello"))
	msg, _ := gw.Last(aliceChat)
	if msg.Text != textStartTransaction || !msg.HasButton(orders.ActionBuy) {
		t.Errorf("Expected menu, got %+v", msg)
	}

	n.HandleUpdate(ctx, command(alice, "alice", "unknown"))
	if msg, _ := gw.Last(aliceChat); msg.Text != textStartTransaction {
		t.Errorf("Expected menu for unknown command, got %q", msg.Text)
	}

	n.HandleUpdate(ctx, button(alice, aliceChat, "cb1", orders.ActionBuy))
	n.HandleUpdate(ctx, text(alice, "50"))
	if tx, _ := n.processor.Store().Get(alice); tx.State != models.StateAwaitingProof {
		t.Fatalf("Expected awaiting proof, got %s", tx.State)
	}

	n.HandleUpdate(ctx, text(alice, "did you get it?"))
	if msg, _ := gw.Last(aliceChat); msg.Text != textFinishCurrent {
		t.Errorf("Expected finish current text, got %q", msg.Text)
	}
}

func TestRouter_Buttons(t *testing.T) {
	gw := net.NewMockGateway()
	n := newTestNode(t, gw)
	ctx := context.Background()

	n.HandleUpdate(ctx, button(alice, aliceChat, "cb1", orders.ActionReceived))
	if answer, _ := gw.Answered("cb1"); answer != textNoTransaction {
		t.Errorf("Expected no transaction answer, got %q", answer)
	}
	if msg, _ := gw.Last(aliceChat); !msg.HasButton(orders.ActionSell) {
		t.Error("Menu not shown for button without transaction")
	}

	n.HandleUpdate(ctx, button(alice, aliceChat, "cb2", orders.ActionSell))
	n.HandleUpdate(ctx, button(alice, aliceChat, "cb3", orders.ActionReceived))
	if answer, _ := gw.Answered("cb3"); answer != textStaleButton {
		t.Errorf("Expected stale button answer, got %q", answer)
	}
	if tx, _ := n.processor.Store().Get(alice); tx.State != models.StateAwaitingAmount {
		t.Errorf("Stale button changed the state to %s", tx.State)
	}

	n.HandleUpdate(ctx, button(alice, aliceChat, "cb4", orders.ActionExit))
	if n.ActiveTransactions() != 0 {
		t.Error("Exit left the transaction open")
	}
	for _, id := range []string{"cb1", "cb2", "cb3", "cb4"} {
		if _, ok := gw.Answered(id); !ok {
			t.Errorf("Button %s was not answered", id)
		}
	}
}

func TestRouter_AdminButtons(t *testing.T) {
	gw := net.NewMockGateway()
	n := newTestNode(t, gw)
	ctx := context.Background()

	n.HandleUpdate(ctx, button(alice, aliceChat, "cb1", orders.ActionBuy))
	n.HandleUpdate(ctx, text(alice, "50"))
	n.HandleUpdate(ctx, net.Update{Kind: net.UpdatePhoto, Sender: alice, ChatID: aliceChat, PhotoRef: "photo-1"})
	if tx, _ := n.processor.Store().Get(alice); tx.State != models.StatePendingAdminReview {
		t.Fatalf("Expected pending admin review, got %s", tx.State)
	}

	approve := orders.AdminAction(orders.AdminApprove, alice)
	tests := []struct {
		name     string
		update   net.Update
		answer   string
		expected models.TransactionState
	}{
		{
			name:     "not admin",
			update:   button(bob, int64(bob), "a1", approve),
			answer:   textNotAuthorized,
			expected: models.StatePendingAdminReview,
		},
		{
			name:     "malformed",
			update:   button(models.Owner(adminChat), adminChat, "a2", "admin:approve"),
			answer:   textStaleButton,
			expected: models.StatePendingAdminReview,
		},
		{
			name:     "approve",
			update:   button(models.Owner(adminChat), adminChat, "a3", approve),
			answer:   "Payment approved",
			expected: models.StateAwaitingWalletAddress,
		},
		{
			name:     "duplicate approve",
			update:   button(models.Owner(adminChat), adminChat, "a4", approve),
			answer:   "Already handled or no longer applicable",
			expected: models.StateAwaitingWalletAddress,
		},
	}
	for _, test := range tests {
		n.HandleUpdate(ctx, test.update)
		if answer, _ := gw.Answered(test.update.CallbackID); answer != test.answer {
			t.Errorf("%s: expected answer %q, got %q", test.name, test.answer, answer)
		}
		if tx, _ := n.processor.Store().Get(alice); tx.State != test.expected {
			t.Errorf("%s: expected state %s, got %s", test.name, test.expected, tx.State)
		}
	}

	n.HandleUpdate(ctx, button(models.Owner(adminChat), adminChat, "a5", orders.AdminAction(orders.AdminApprove, bob)))
	if answer, _ := gw.Answered("a5"); !strings.Contains(answer, "No active transaction") {
		t.Errorf("Expected no transaction answer, got %q", answer)
	}
}

type panicGateway struct {
	*net.MockGateway
}

func (g panicGateway) PinMessage(ctx context.Context, h models.MessageHandle) error {
	panic("pin exploded")
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	gw := net.NewMockGateway()
	n := newTestNode(t, panicGateway{gw})

	n.HandleUpdate(context.Background(), command(alice, "alice", "start"))

	msg, ok := gw.Last(aliceChat)
	if !ok || msg.Text != n.processor.Apology() {
		t.Errorf("Expected apology after panic, got %+v", msg)
	}
}

func TestRouter_RateAndCancelCommands(t *testing.T) {
	gw := net.NewMockGateway()
	n := newTestNode(t, gw)
	ctx := context.Background()

	n.HandleUpdate(ctx, command(alice, "alice", "rate"))
	if msg, _ := gw.Last(aliceChat); !strings.Contains(msg.Text, "Current Exchange Rates") {
		t.Errorf("Expected rates, got %q", msg.Text)
	}

	n.HandleUpdate(ctx, button(alice, aliceChat, "cb1", orders.ActionSell))
	n.HandleUpdate(ctx, command(alice, "alice", "cancel"))
	if n.ActiveTransactions() != 0 {
		t.Error("/cancel left the transaction open")
	}
	if gw.Count(aliceChat, "Transaction cancelled") != 1 {
		t.Error("Cancellation not confirmed to the user")
	}
}
