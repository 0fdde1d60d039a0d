package net

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cryptonaira/nairadesk/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jarcoal/httpmock"
)

const (
	testToken    = "123:abc"
	testEndpoint = "https://api.telegram.org/bot123:abc/"

	getMeResponse   = `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Desk","username":"desk_bot"}}`
	sentResponse    = `{"ok":true,"result":{"message_id":77,"date":0,"chat":{"id":5,"type":"private"},"text":"hi"}}`
	floodResponse   = `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`
	notModified     = `{"ok":false,"error_code":400,"description":"Bad Request: message is not modified"}`
	messageNotFound = `{"ok":false,"error_code":400,"description":"Bad Request: message to edit not found"}`
)

func newMockTelegram(t *testing.T) (*Telegram, *[]time.Duration) {
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)

	httpmock.RegisterResponder(http.MethodPost, testEndpoint+"getMe",
		httpmock.NewStringResponder(http.StatusOK, getMeResponse))

	tg, err := newTelegram(testToken, tgbotapi.APIEndpoint, client)
	if err != nil {
		t.Fatal(err)
	}

	var slept []time.Duration
	tg.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return tg, &slept
}

func TestTelegram_SendText(t *testing.T) {
	tg, _ := newMockTelegram(t)
	defer httpmock.DeactivateAndReset()

	if tg.Username() != "desk_bot" {
		t.Errorf("Expected username desk_bot, got %s", tg.Username())
	}

	httpmock.RegisterResponder(http.MethodPost, testEndpoint+"sendMessage",
		httpmock.NewStringResponder(http.StatusOK, sentResponse))

	h, err := tg.SendText(context.Background(), 5, "hi", NewKeyboard(Row(Button{"Buy", "buy"})))
	if err != nil {
		t.Fatal(err)
	}
	if h.ChatID != 5 || h.MessageID != 77 {
		t.Errorf("Wrong handle %+v", h)
	}
}

func TestTelegram_ThrottleRetriedOnce(t *testing.T) {
	tg, slept := newMockTelegram(t)
	defer httpmock.DeactivateAndReset()

	calls := 0
	httpmock.RegisterResponder(http.MethodPost, testEndpoint+"sendMessage",
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return httpmock.NewStringResponse(http.StatusTooManyRequests, floodResponse), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, sentResponse), nil
		},
	)

	h, err := tg.SendText(context.Background(), 5, "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	if h.MessageID != 77 {
		t.Errorf("Wrong handle %+v", h)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
	if len(*slept) != 1 || (*slept)[0] != time.Second*3 {
		t.Errorf("Expected a single 3s wait, got %v", *slept)
	}
}

func TestTelegram_ThrottledTwice(t *testing.T) {
	tg, _ := newMockTelegram(t)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, testEndpoint+"sendMessage",
		httpmock.NewStringResponder(http.StatusTooManyRequests, floodResponse))

	_, err := tg.SendText(context.Background(), 5, "hi", nil)
	if err != ErrThrottled {
		t.Errorf("Expected ErrThrottled, got %v", err)
	}
	if n := httpmock.GetCallCountInfo()["POST "+testEndpoint+"sendMessage"]; n != 2 {
		t.Errorf("Expected exactly one retry, got %d calls", n)
	}
}

func TestTelegram_EditText(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		permanent bool
		ok        bool
	}{
		{"edited", sentResponse, false, true},
		{"not modified", notModified, false, true},
		{"message gone", messageNotFound, true, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tg, _ := newMockTelegram(t)
			defer httpmock.DeactivateAndReset()

			httpmock.RegisterResponder(http.MethodPost, testEndpoint+"editMessageText",
				httpmock.NewStringResponder(http.StatusOK, test.response))

			err := tg.EditText(context.Background(), models.MessageHandle{ChatID: 5, MessageID: 77}, "⏳ 14:59", nil)
			if test.ok && err != nil {
				t.Fatalf("Unexpected error %v", err)
			}
			if !test.ok && err == nil {
				t.Fatal("Expected error")
			}
			if IsPermanent(err) != test.permanent {
				t.Errorf("Expected permanent=%t, got %v", test.permanent, err)
			}
		})
	}
}

func TestConvertUpdate(t *testing.T) {
	from := &tgbotapi.User{ID: 42, UserName: "ada", FirstName: "Ada"}
	chat := &tgbotapi.Chat{ID: 42}

	tests := []struct {
		name   string
		update tgbotapi.Update
		ok     bool
		check  func(t *testing.T, in Update)
	}{
		{
			name: "command",
			update: tgbotapi.Update{Message: &tgbotapi.Message{
				From: from, Chat: chat, Text: "/Start now",
				Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
			}},
			ok: true,
			check: func(t *testing.T, in Update) {
				if in.Kind != UpdateCommand || in.Command != "start" || in.Args != "now" {
					t.Errorf("Wrong command update %+v", in)
				}
			},
		},
		{
			name: "photo picks the largest size",
			update: tgbotapi.Update{Message: &tgbotapi.Message{
				From: from, Chat: chat, Caption: "paid",
				Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
			}},
			ok: true,
			check: func(t *testing.T, in Update) {
				if in.Kind != UpdatePhoto || in.PhotoRef != "large" || in.Text != "paid" {
					t.Errorf("Wrong photo update %+v", in)
				}
			},
		},
		{
			name: "image document",
			update: tgbotapi.Update{Message: &tgbotapi.Message{
				From: from, Chat: chat,
				Document: &tgbotapi.Document{FileID: "doc", MimeType: "image/png"},
			}},
			ok: true,
			check: func(t *testing.T, in Update) {
				if in.Kind != UpdatePhoto || in.PhotoRef != "doc" {
					t.Errorf("Wrong document update %+v", in)
				}
			},
		},
		{
			name:   "text",
			update: tgbotapi.Update{Message: &tgbotapi.Message{From: from, Chat: chat, Text: "50"}},
			ok:     true,
			check: func(t *testing.T, in Update) {
				if in.Kind != UpdateText || in.Text != "50" || in.Sender != 42 || in.Username != "ada" {
					t.Errorf("Wrong text update %+v", in)
				}
			},
		},
		{
			name: "button",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID: "cb1", From: from, Data: "buy",
				Message: &tgbotapi.Message{MessageID: 9, Chat: chat},
			}},
			ok: true,
			check: func(t *testing.T, in Update) {
				if in.Kind != UpdateButton || in.Data != "buy" || in.CallbackID != "cb1" {
					t.Errorf("Wrong button update %+v", in)
				}
				if in.Message.MessageID != 9 || in.Message.ChatID != 42 {
					t.Errorf("Wrong button message %+v", in.Message)
				}
			},
		},
		{
			name:   "sticker is ignored",
			update: tgbotapi.Update{Message: &tgbotapi.Message{From: from, Chat: chat, Sticker: &tgbotapi.Sticker{FileID: "s"}}},
			ok:     false,
		},
		{
			name:   "channel post is ignored",
			update: tgbotapi.Update{ChannelPost: &tgbotapi.Message{Chat: chat, Text: "hello"}},
			ok:     false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			in, ok := convertUpdate(test.update)
			if ok != test.ok {
				t.Fatalf("Expected ok=%t, got %t", test.ok, ok)
			}
			if test.check != nil {
				test.check(t, in)
			}
		})
	}
}

func TestMockGateway(t *testing.T) {
	m := NewMockGateway()
	ctx := context.Background()

	h, err := m.SendText(ctx, 1, "hello", NewKeyboard(Row(Button{"Buy", "buy"})))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.EditText(ctx, h, "edited", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := m.SendPhoto(ctx, 2, "file", "caption", nil); err != nil {
		t.Fatal(err)
	}

	last, ok := m.Last(1)
	if !ok || !last.HasButton("buy") {
		t.Errorf("Expected a buy button on %+v", last)
	}
	if edits := m.Edits(h); len(edits) != 1 || edits[0] != "edited" {
		t.Errorf("Wrong edits %v", edits)
	}
	if m.Count(2, "caption") != 1 {
		t.Error("Photo caption not recorded")
	}
}
