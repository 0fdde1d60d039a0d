package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cryptonaira/nairadesk/database"
	"github.com/cryptonaira/nairadesk/events"
	"github.com/cryptonaira/nairadesk/models"
	"github.com/cryptonaira/nairadesk/net"
	"github.com/cryptonaira/nairadesk/orders"
)

const (
	actionRegConfirm = "reg:confirm"
	actionRegCancel  = "reg:cancel"

	// documentTimeout bounds a single member record read or write.
	documentTimeout = time.Second * 15
)

const (
	textNeedUsername     = "❌ You need a Telegram username to register. Please go to your Telegram >> Profile and set a User Name."
	textAlreadyMember    = "⚠️ You are already registered! Use /login to access your account."
	textAskName          = "📝 Please enter your first name and last name:"
	textInvalidName      = "❌ Invalid name format. Please enter your full name."
	textAskEmail         = "📧 Please enter your email address:"
	textInvalidEmail     = "❌ Invalid email format. Please enter a valid email address."
	textUseRegButtons    = "Please confirm or cancel your registration using the buttons above."
	textRegCancelled     = "❌ Registration cancelled. Use /register to start again when you're ready."
	textRegExpired       = "Registration session expired. Please start again."
	textLoginUnavailable = "⚠️ Error retrieving your account.\n\nPlease /register to use this service or contact support %s or on Telegram %s if you are already registered and having issues accessing the service."
)

type regStep int

const (
	regAwaitingName regStep = iota
	regAwaitingEmail
	regAwaitingConfirmation
)

// regSession is an in-progress /register conversation.
type regSession struct {
	step     regStep
	username string
	fullName string
	email    string
}

// registrar runs the /register conversation and /login. Sessions live in
// their own table, separate from the transaction store, and are never
// held across a gateway or database call.
type registrar struct {
	mtx      sync.Mutex
	sessions map[models.Owner]*regSession

	db        database.Store
	gw        net.Gateway
	bus       events.Bus
	adminChat int64
	processor *orders.Processor
}

func newRegistrar(db database.Store, gw net.Gateway, bus events.Bus, adminChat int64, processor *orders.Processor) *registrar {
	return &registrar{
		sessions:  make(map[models.Owner]*regSession),
		db:        db,
		gw:        gw,
		bus:       bus,
		adminChat: adminChat,
		processor: processor,
	}
}

// Active returns whether owner is in the middle of registering.
func (r *registrar) Active(owner models.Owner) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	_, ok := r.sessions[owner]
	return ok
}

// Drop forgets owner's registration session. It returns false if there
// was none.
func (r *registrar) Drop(owner models.Owner) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	_, ok := r.sessions[owner]
	delete(r.sessions, owner)
	return ok
}

// take removes and returns owner's session if it is at step. Only one
// caller can take a session, so a double pressed button saves once.
func (r *registrar) take(owner models.Owner, step regStep) (regSession, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	s, ok := r.sessions[owner]
	if !ok || s.step != step {
		return regSession{}, false
	}
	delete(r.sessions, owner)
	return *s, true
}

func (r *registrar) reply(ctx context.Context, chatID int64, text string, kb net.Keyboard) error {
	_, err := r.gw.SendText(ctx, chatID, text, kb)
	return err
}

// readMember loads the registration record for username. It returns
// false if there is none.
func (r *registrar) readMember(ctx context.Context, username string) (models.Member, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, documentTimeout)
	defer cancel()

	var m models.Member
	err := r.db.Read(ctx, models.MemberPath(username), &m)
	if database.IsNotFound(err) {
		return m, false, nil
	}
	if err != nil {
		return m, false, err
	}
	return m, true, nil
}

// Begin starts a registration for the sender of u.
func (r *registrar) Begin(ctx context.Context, u net.Update) error {
	if u.Username == "" {
		return r.reply(ctx, u.ChatID, textNeedUsername, nil)
	}
	_, exists, err := r.readMember(ctx, u.Username)
	if err != nil {
		return err
	}
	if exists {
		return r.reply(ctx, u.ChatID, textAlreadyMember, nil)
	}

	r.mtx.Lock()
	r.sessions[u.Sender] = &regSession{step: regAwaitingName, username: u.Username}
	r.mtx.Unlock()

	log.Infof("User %s (@%s) started registration", u.Sender, u.Username)
	return r.reply(ctx, u.ChatID, textAskName, nil)
}

// HandleText takes the next answer of an active registration.
func (r *registrar) HandleText(ctx context.Context, u net.Update) error {
	input := strings.TrimSpace(u.Text)

	r.mtx.Lock()
	s, ok := r.sessions[u.Sender]
	if !ok {
		r.mtx.Unlock()
		return orders.ErrNotFound
	}
	var (
		text string
		kb   net.Keyboard
	)
	switch s.step {
	case regAwaitingName:
		if err := models.ValidateFullName(input); err != nil {
			text = textInvalidName
			break
		}
		s.fullName = input
		s.step = regAwaitingEmail
		text = textAskEmail
	case regAwaitingEmail:
		if err := models.ValidateEmail(input); err != nil {
			text = textInvalidEmail
			break
		}
		s.email = input
		s.step = regAwaitingConfirmation
		text = fmt.Sprintf("👤 <b>Registration Details:</b>\n\n📝 Full Name: %s\n📧 Email: %s\n",
			escape(s.fullName), escape(s.email))
		kb = net.NewKeyboard(net.Row(
			net.Button{Text: "✅ Confirm & Save", Data: actionRegConfirm},
			net.Button{Text: "❌ Cancel", Data: actionRegCancel},
		))
	default:
		text = textUseRegButtons
	}
	r.mtx.Unlock()

	return r.reply(ctx, u.ChatID, text, kb)
}

// Confirm saves the registration record. It returns the text to answer
// the button with.
func (r *registrar) Confirm(ctx context.Context, u net.Update) (string, error) {
	s, ok := r.take(u.Sender, regAwaitingConfirmation)
	if !ok {
		return textRegExpired, nil
	}

	member := models.Member{
		Username:         s.username,
		UserID:           u.Sender.String(),
		FullName:         s.fullName,
		Email:            s.email,
		RegistrationDate: time.Now().UTC(),
		Registered:       true,
	}
	wctx, cancel := context.WithTimeout(ctx, documentTimeout)
	defer cancel()
	if err := r.db.Write(wctx, models.MemberPath(s.username), member); err != nil {
		// Put the session back so the user can press Confirm again.
		r.mtx.Lock()
		if _, ok := r.sessions[u.Sender]; !ok {
			r.sessions[u.Sender] = &s
		}
		r.mtx.Unlock()
		return "", err
	}

	log.Infof("User %s (@%s) registered", u.Sender, s.username)
	r.bus.Emit(&events.MemberRegistered{Owner: u.Sender, Member: member})

	if err := r.reply(ctx, u.ChatID, fmt.Sprintf("✅ Registration successful, %s!\n\nWelcome %s.\nYou can now use the bot services.",
		escape(member.FullName), escape(member.Email)), nil); err != nil {
		return "", err
	}
	if err := r.reply(ctx, r.adminChat, fmt.Sprintf("✅ 🚀 New user @%s has registered.", escape(member.Username)), nil); err != nil {
		log.Errorf("Error notifying admin of registration: %s", err)
	}
	return "Registered", r.processor.ShowMenu(ctx, u.ChatID, "")
}

// Cancel drops the sender's registration session.
func (r *registrar) Cancel(ctx context.Context, u net.Update) (string, error) {
	if !r.Drop(u.Sender) {
		return textRegExpired, nil
	}
	return "", r.reply(ctx, u.ChatID, textRegCancelled, nil)
}

// Login welcomes back a registered member.
func (r *registrar) Login(ctx context.Context, u net.Update) error {
	if u.Username == "" {
		return r.reply(ctx, u.ChatID, textNeedUsername, nil)
	}
	member, exists, err := r.readMember(ctx, u.Username)
	if err != nil {
		return err
	}
	if !exists {
		desk := r.processor.Desk()
		return r.reply(ctx, u.ChatID, fmt.Sprintf(textLoginUnavailable,
			escape(desk.SupportEmail), escape(desk.SupportTelegram)), nil)
	}

	name := member.FullName
	if name == "" {
		name = "Unknown"
	}
	if err := r.reply(ctx, u.ChatID, orders.ScamWarning, nil); err != nil {
		return err
	}
	if err := r.reply(ctx, u.ChatID, fmt.Sprintf("🔑 Welcome back, %s! You are now logged in.", escape(name)), nil); err != nil {
		return err
	}
	return r.processor.ShowMenu(ctx, u.ChatID, "")
}
