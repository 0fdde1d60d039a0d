package core

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/cryptonaira/nairadesk/models"
	"github.com/cryptonaira/nairadesk/net"
	"github.com/cryptonaira/nairadesk/orders"
	"github.com/pkg/errors"
)

const actionWelcome = "welcome"

const (
	textPinNote          = "📌 <b>Tap 'Welcome' to start using this bot!</b>"
	textWelcome          = "👋 <b>Welcome to Crypto-Naira Exchange!</b>\n\nTap 'Welcome' below to proceed."
	textReady            = "🎉 You're now ready to use this bot! Use /register to create an account or /login to access your account."
	textFinishCurrent    = "Please complete your current transaction first."
	textStartTransaction = "Welcome! Please use the buttons below to start a transaction:"
	textNoTransaction    = "❌ No active transaction found."
	textNotAuthorized    = "Not authorized"
	textStaleButton      = "This action is no longer available."
)

func escape(s string) string {
	return orders.EscapeHTML(s)
}

// HandleUpdate routes one inbound update. It is the error boundary of
// the desk: every error and panic ends here, and only here do errors
// become user visible text. Every button press is answered.
func (n *DeskNode) HandleUpdate(ctx context.Context, u net.Update) {
	var answer string
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Panic handling %s update from %s: %v\n%s", u.Kind, u.Sender, r, debug.Stack())
			n.apologize(ctx, u)
		}
		if u.Kind == net.UpdateButton {
			if err := n.gw.AnswerCallback(ctx, u.CallbackID, answer); err != nil {
				log.Debugf("Error answering button press: %s", err)
			}
		}
	}()

	var err error
	switch u.Kind {
	case net.UpdateCommand:
		err = n.routeCommand(ctx, u)
	case net.UpdateText:
		err = n.routeText(ctx, u)
	case net.UpdatePhoto:
		err = n.routePhoto(ctx, u)
	case net.UpdateButton:
		answer, err = n.routeButton(ctx, u)
	}
	n.handleError(ctx, u, err)
}

func (n *DeskNode) handleError(ctx context.Context, u net.Update, err error) {
	switch {
	case err == nil:
	case orders.IsConsistencyError(err):
		log.Debugf("Ignoring %s update from %s: %s", u.Kind, u.Sender, err)
	case errors.Is(err, context.Canceled):
	default:
		log.Errorf("Error handling %s update from %s: %s", u.Kind, u.Sender, err)
		n.apologize(ctx, u)
	}
}

func (n *DeskNode) apologize(ctx context.Context, u net.Update) {
	if u.ChatID == 0 {
		return
	}
	if _, err := n.gw.SendText(ctx, u.ChatID, n.processor.Apology(), nil); err != nil {
		log.Errorf("Error sending apology to %d: %s", u.ChatID, err)
	}
}

// private reports whether u comes from the sender's own chat. Commands,
// text and photos from group chats are ignored.
func private(u net.Update) bool {
	return u.ChatID == int64(u.Sender)
}

func (n *DeskNode) routeCommand(ctx context.Context, u net.Update) error {
	if !private(u) {
		return nil
	}
	switch u.Command {
	case "start":
		return n.welcome(ctx, u.ChatID)
	case "rate":
		return n.processor.Rates(ctx, u.ChatID)
	case "cancel":
		return n.cancel(ctx, u)
	case "register":
		return n.registrar.Begin(ctx, u)
	case "login":
		return n.registrar.Login(ctx, u)
	}
	return n.catchAll(ctx, u, orders.ErrNotExpected)
}

// cancel ends whatever the sender is in the middle of: a registration,
// a transaction or both.
func (n *DeskNode) cancel(ctx context.Context, u net.Update) error {
	if n.registrar.Drop(u.Sender) {
		if _, err := n.gw.SendText(ctx, u.ChatID, textRegCancelled, nil); err != nil {
			return err
		}
		if _, ok := n.processor.Store().Get(u.Sender); !ok {
			return nil
		}
	}
	return n.processor.Cancel(ctx, u.Sender)
}

func (n *DeskNode) routeText(ctx context.Context, u net.Update) error {
	if !private(u) {
		return nil
	}
	// An active registration takes the text before any transaction does.
	if n.registrar.Active(u.Sender) {
		err := n.registrar.HandleText(ctx, u)
		if err != orders.ErrNotFound {
			return err
		}
	}
	return n.catchAll(ctx, u, n.processor.HandleText(ctx, u.Sender, u.Text))
}

func (n *DeskNode) routePhoto(ctx context.Context, u net.Update) error {
	if !private(u) {
		return nil
	}
	return n.catchAll(ctx, u, n.processor.HandlePhoto(ctx, u.Sender, u.PhotoRef))
}

// catchAll replies to input that no handler took: a user with a
// transaction is asked to finish it, a user without one gets the menu.
func (n *DeskNode) catchAll(ctx context.Context, u net.Update, err error) error {
	switch err {
	case orders.ErrNotExpected:
		if _, ok := n.processor.Store().Get(u.Sender); ok {
			_, err := n.gw.SendText(ctx, u.ChatID, textFinishCurrent, nil)
			return err
		}
		return n.processor.ShowMenu(ctx, u.ChatID, textStartTransaction)
	case orders.ErrNotFound:
		return n.processor.ShowMenu(ctx, u.ChatID, textStartTransaction)
	}
	return err
}

func (n *DeskNode) routeButton(ctx context.Context, u net.Update) (string, error) {
	if orders.IsAdminButton(u.Data) {
		return n.routeAdminButton(ctx, u)
	}

	var err error
	switch u.Data {
	case orders.ActionBuy, orders.ActionSell:
		// Choosing a trade abandons any registration in progress.
		n.registrar.Drop(u.Sender)
		direction := models.DirectionBuy
		if u.Data == orders.ActionSell {
			direction = models.DirectionSell
		}
		err = n.processor.Start(ctx, u.Sender, u.Username, direction)
	case orders.ActionCancel:
		err = n.processor.Cancel(ctx, u.Sender)
	case orders.ActionExit:
		err = n.processor.Exit(ctx, u.Sender)
	case actionWelcome:
		_, err = n.gw.SendText(ctx, u.ChatID, textReady, nil)
	case actionRegConfirm:
		return n.registrar.Confirm(ctx, u)
	case actionRegCancel:
		return n.registrar.Cancel(ctx, u)
	default:
		err = n.processor.HandleButton(ctx, u.Sender, u.Data)
		switch {
		case err == orders.ErrNotFound:
			return textNoTransaction, n.processor.ShowMenu(ctx, userChat(u), textNoTransaction)
		case orders.IsConsistencyError(err), err == orders.ErrNotExpected:
			log.Debugf("Stale button %q from %s: %s", u.Data, u.Sender, err)
			return textStaleButton, nil
		}
	}
	return "", err
}

func (n *DeskNode) routeAdminButton(ctx context.Context, u net.Update) (string, error) {
	if int64(u.Sender) != n.adminChat && u.ChatID != n.adminChat {
		log.Warningf("User %s pressed admin button %q", u.Sender, u.Data)
		return textNotAuthorized, nil
	}
	action, owner, ok := orders.ParseAdminAction(u.Data)
	if !ok {
		return textStaleButton, nil
	}
	answer, err := n.processor.HandleAdminAction(ctx, action, owner)
	switch {
	case err == orders.ErrNotFound:
		return fmt.Sprintf("No active transaction for user %s", owner), nil
	case orders.IsConsistencyError(err), err == orders.ErrNotExpected:
		log.Debugf("Admin button %q did not apply: %s", u.Data, err)
		return "Already handled or no longer applicable", nil
	}
	return answer, err
}

// welcome sends the pinned note, the scam warning and the Welcome
// button. Pinning needs the bot to be a chat admin and is best effort.
func (n *DeskNode) welcome(ctx context.Context, chatID int64) error {
	pin, err := n.gw.SendText(ctx, chatID, textPinNote, nil)
	if err != nil {
		log.Errorf("Error sending pin note to %d: %s", chatID, err)
	} else if err := n.gw.PinMessage(ctx, pin); err != nil {
		log.Warningf("Failed to pin message in %d: %s", chatID, err)
	}

	if _, err := n.gw.SendText(ctx, chatID, orders.ScamWarning, nil); err != nil {
		return err
	}
	kb := net.NewKeyboard(net.Row(net.Button{Text: "👋 Welcome", Data: actionWelcome}))
	_, err = n.gw.SendText(ctx, chatID, textWelcome, kb)
	return err
}

func userChat(u net.Update) int64 {
	if u.ChatID != 0 {
		return u.ChatID
	}
	return int64(u.Sender)
}
