package net

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cpacia/proxyclient"
	"github.com/cryptonaira/nairadesk/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
)

var log = logging.MustGetLogger("NET")

const (
	// pollTimeout is the long poll duration. It must stay below the
	// HTTP client timeout.
	pollTimeout = 25

	codeTooManyRequests = 429
)

// Telegram is a Gateway backed by the Telegram Bot API.
type Telegram struct {
	bot   *tgbotapi.BotAPI
	sleep func(ctx context.Context, d time.Duration) error
}

var _ Gateway = (*Telegram)(nil)

// NewTelegram authenticates with the bot token and returns a gateway.
func NewTelegram(token string) (*Telegram, error) {
	client := proxyclient.NewHttpClient()
	client.Timeout = SendTimeout
	return newTelegram(token, tgbotapi.APIEndpoint, client)
}

func newTelegram(token, endpoint string, client *http.Client) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, errors.Wrap(err, "authenticate bot")
	}
	log.Infof("Authorized on account @%s", bot.Self.UserName)
	return &Telegram{bot: bot, sleep: sleepContext}, nil
}

// Username returns the bot's username.
func (t *Telegram) Username() string {
	return t.bot.Self.UserName
}

// SendText implements Gateway.
func (t *Telegram) SendText(ctx context.Context, chatID int64, text string, kb Keyboard) (models.MessageHandle, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if len(kb) > 0 {
		msg.ReplyMarkup = inlineKeyboard(kb)
	}
	return t.send(ctx, msg)
}

// EditText implements Gateway. Editing a message to identical content
// is not an error.
func (t *Telegram) EditText(ctx context.Context, h models.MessageHandle, text string, kb Keyboard) error {
	edit := tgbotapi.NewEditMessageText(h.ChatID, h.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if len(kb) > 0 {
		markup := inlineKeyboard(kb)
		edit.ReplyMarkup = &markup
	}
	err := t.request(ctx, edit)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

// SendPhoto implements Gateway.
func (t *Telegram) SendPhoto(ctx context.Context, chatID int64, photoRef, caption string, kb Keyboard) (models.MessageHandle, error) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(photoRef))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	if len(kb) > 0 {
		photo.ReplyMarkup = inlineKeyboard(kb)
	}
	return t.send(ctx, photo)
}

// AnswerCallback implements Gateway.
func (t *Telegram) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return t.request(ctx, tgbotapi.NewCallback(callbackID, text))
}

// PinMessage implements Gateway.
func (t *Telegram) PinMessage(ctx context.Context, h models.MessageHandle) error {
	return t.request(ctx, tgbotapi.PinChatMessageConfig{
		ChatID:              h.ChatID,
		MessageID:           h.MessageID,
		DisableNotification: true,
	})
}

// Listen long polls for updates and passes each one to handle, in order,
// until ctx is done.
func (t *Telegram) Listen(ctx context.Context, handle func(Update)) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := t.bot.GetUpdatesChan(u)
	defer t.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			if in, ok := convertUpdate(upd); ok {
				handle(in)
			}
		}
	}
}

func (t *Telegram) send(ctx context.Context, c tgbotapi.Chattable) (models.MessageHandle, error) {
	var sent tgbotapi.Message
	err := t.withRetry(ctx, func() error {
		var err error
		sent, err = t.bot.Send(c)
		return err
	})
	if err != nil {
		return models.MessageHandle{}, err
	}
	var chatID int64
	if sent.Chat != nil {
		chatID = sent.Chat.ID
	}
	return models.MessageHandle{ChatID: chatID, MessageID: sent.MessageID}, nil
}

func (t *Telegram) request(ctx context.Context, c tgbotapi.Chattable) error {
	return t.withRetry(ctx, func() error {
		_, err := t.bot.Request(c)
		return err
	})
}

// withRetry runs fn and, if Telegram answers with a flood wait, runs it
// exactly once more after the advertised delay.
func (t *Telegram) withRetry(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := fn()
	if err == nil {
		return nil
	}

	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	if apiErr.Code != codeTooManyRequests {
		if apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusForbidden {
			return errors.Wrap(ErrPermanent, apiErr.Message)
		}
		return err
	}

	wait := time.Duration(apiErr.RetryAfter) * time.Second
	log.Warningf("Rate limited by Telegram, retrying in %s", wait)
	if err := t.sleep(ctx, wait); err != nil {
		return err
	}

	err = fn()
	if errors.As(err, &apiErr) && apiErr.Code == codeTooManyRequests {
		return ErrThrottled
	}
	return err
}

func inlineKeyboard(kb Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func convertUpdate(u tgbotapi.Update) (Update, bool) {
	if q := u.CallbackQuery; q != nil {
		if q.From == nil {
			return Update{}, false
		}
		in := Update{
			Kind:       UpdateButton,
			Sender:     models.Owner(q.From.ID),
			ChatID:     q.From.ID,
			Username:   q.From.UserName,
			Name:       q.From.FirstName,
			CallbackID: q.ID,
			Data:       q.Data,
		}
		if q.Message != nil && q.Message.Chat != nil {
			in.ChatID = q.Message.Chat.ID
			in.Message = models.MessageHandle{ChatID: q.Message.Chat.ID, MessageID: q.Message.MessageID}
		}
		return in, true
	}

	m := u.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return Update{}, false
	}
	in := Update{
		Sender:   models.Owner(m.From.ID),
		ChatID:   m.Chat.ID,
		Username: m.From.UserName,
		Name:     m.From.FirstName,
	}
	switch {
	case m.IsCommand():
		in.Kind = UpdateCommand
		in.Command = strings.ToLower(m.Command())
		in.Args = m.CommandArguments()
	case len(m.Photo) > 0:
		in.Kind = UpdatePhoto
		in.PhotoRef = m.Photo[len(m.Photo)-1].FileID
		in.Text = m.Caption
	case m.Document != nil && strings.HasPrefix(m.Document.MimeType, "image/"):
		in.Kind = UpdatePhoto
		in.PhotoRef = m.Document.FileID
		in.Text = m.Caption
	case m.Text != "":
		in.Kind = UpdateText
		in.Text = m.Text
	default:
		return Update{}, false
	}
	return in, true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
