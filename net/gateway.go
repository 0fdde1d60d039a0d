// Package net connects the desk to its chat transport. The Gateway
// interface is everything the state machine needs to talk to users. The
// Telegram type implements it and also turns Telegram updates into
// transport neutral Updates for the router.
package net

import (
	"context"
	"errors"
	"time"

	"github.com/cryptonaira/nairadesk/models"
)

const (
	// SendTimeout bounds a single outbound call to the transport.
	SendTimeout = time.Second * 30
)

var (
	// ErrThrottled is returned when the transport is still rate limiting
	// after the single retry.
	ErrThrottled = errors.New("transport is rate limiting")

	// ErrPermanent is returned for failures that will not go away on a
	// retry, for example editing a message that was deleted or messaging
	// a user who blocked the bot.
	ErrPermanent = errors.New("permanent transport failure")
)

// Button is an inline button. Data is returned in the callback when the
// button is pressed.
type Button struct {
	Text string
	Data string
}

// Keyboard is a grid of inline buttons, one slice per row.
type Keyboard [][]Button

// Row is a convenience for building a keyboard row.
func Row(buttons ...Button) []Button {
	return buttons
}

// NewKeyboard builds a keyboard from rows.
func NewKeyboard(rows ...[]Button) Keyboard {
	return Keyboard(rows)
}

// Gateway sends messages to users. Text is HTML formatted. Every call
// blocks until the transport answers or SendTimeout elapses.
type Gateway interface {
	// SendText sends a text message with an optional keyboard.
	SendText(ctx context.Context, chatID int64, text string, kb Keyboard) (models.MessageHandle, error)

	// EditText replaces the text of a message previously sent by the bot.
	EditText(ctx context.Context, msg models.MessageHandle, text string, kb Keyboard) error

	// SendPhoto forwards an uploaded photo by its transport reference.
	SendPhoto(ctx context.Context, chatID int64, photoRef, caption string, kb Keyboard) (models.MessageHandle, error)

	// AnswerCallback acknowledges a button press. text may be empty.
	AnswerCallback(ctx context.Context, callbackID, text string) error

	// PinMessage pins a message in its chat.
	PinMessage(ctx context.Context, msg models.MessageHandle) error
}

// UpdateKind is the type of an inbound event.
type UpdateKind int

const (
	// UpdateCommand is a slash command such as /start.
	UpdateCommand UpdateKind = iota
	// UpdateText is a free text message.
	UpdateText
	// UpdatePhoto is a photo or image document upload.
	UpdatePhoto
	// UpdateButton is an inline button press.
	UpdateButton
)

func (k UpdateKind) String() string {
	switch k {
	case UpdateCommand:
		return "command"
	case UpdateText:
		return "text"
	case UpdatePhoto:
		return "photo"
	case UpdateButton:
		return "button"
	}
	return "unknown"
}

// Update is an inbound chat event.
type Update struct {
	Kind UpdateKind

	Sender   models.Owner
	ChatID   int64
	Username string
	Name     string

	// Command and Args are set for UpdateCommand.
	Command string
	Args    string

	// Text is set for UpdateText and holds the caption of an UpdatePhoto.
	Text string

	// PhotoRef is set for UpdatePhoto.
	PhotoRef string

	// CallbackID, Data and Message are set for UpdateButton. Message is
	// the message that carried the button.
	CallbackID string
	Data       string
	Message    models.MessageHandle
}

// IsPermanent reports whether err is a transport failure that should not
// be retried.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}
