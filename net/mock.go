package net

import (
	"context"
	"strings"
	"sync"

	"github.com/cryptonaira/nairadesk/models"
)

// SentMessage is a message recorded by MockGateway.
type SentMessage struct {
	Handle   models.MessageHandle
	Text     string
	PhotoRef string
	Keyboard Keyboard
}

// HasButton returns whether the message carries a button with data.
func (m SentMessage) HasButton(data string) bool {
	for _, row := range m.Keyboard {
		for _, b := range row {
			if b.Data == data {
				return true
			}
		}
	}
	return false
}

// MockGateway is an in-memory Gateway that records everything sent
// through it.
type MockGateway struct {
	mtx       sync.Mutex
	nextID    int
	sent      []SentMessage
	edits     map[models.MessageHandle][]string
	callbacks map[string]string
	pinned    []models.MessageHandle

	// EditErr, when set, is returned from every EditText call.
	EditErr error
	// SendErr, when set, is returned from every SendText call.
	SendErr error
}

var _ Gateway = (*MockGateway)(nil)

// NewMockGateway returns a new MockGateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		edits:     make(map[models.MessageHandle][]string),
		callbacks: make(map[string]string),
	}
}

func (m *MockGateway) record(chatID int64, text, photoRef string, kb Keyboard) models.MessageHandle {
	m.nextID++
	h := models.MessageHandle{ChatID: chatID, MessageID: m.nextID}
	m.sent = append(m.sent, SentMessage{Handle: h, Text: text, PhotoRef: photoRef, Keyboard: kb})
	return h
}

// SendText implements Gateway.
func (m *MockGateway) SendText(ctx context.Context, chatID int64, text string, kb Keyboard) (models.MessageHandle, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.SendErr != nil {
		return models.MessageHandle{}, m.SendErr
	}
	return m.record(chatID, text, "", kb), nil
}

// EditText implements Gateway.
func (m *MockGateway) EditText(ctx context.Context, h models.MessageHandle, text string, kb Keyboard) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.EditErr != nil {
		return m.EditErr
	}
	m.edits[h] = append(m.edits[h], text)
	return nil
}

// SendPhoto implements Gateway.
func (m *MockGateway) SendPhoto(ctx context.Context, chatID int64, photoRef, caption string, kb Keyboard) (models.MessageHandle, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.record(chatID, caption, photoRef, kb), nil
}

// AnswerCallback implements Gateway.
func (m *MockGateway) AnswerCallback(ctx context.Context, callbackID, text string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.callbacks[callbackID] = text
	return nil
}

// PinMessage implements Gateway.
func (m *MockGateway) PinMessage(ctx context.Context, h models.MessageHandle) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.pinned = append(m.pinned, h)
	return nil
}

// Messages returns the messages sent to chatID in order.
func (m *MockGateway) Messages(chatID int64) []SentMessage {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	var out []SentMessage
	for _, s := range m.sent {
		if s.Handle.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// Last returns the last message sent to chatID.
func (m *MockGateway) Last(chatID int64) (SentMessage, bool) {
	msgs := m.Messages(chatID)
	if len(msgs) == 0 {
		return SentMessage{}, false
	}
	return msgs[len(msgs)-1], true
}

// Count returns how many messages sent to chatID contain substr.
func (m *MockGateway) Count(chatID int64, substr string) int {
	n := 0
	for _, s := range m.Messages(chatID) {
		if strings.Contains(s.Text, substr) {
			n++
		}
	}
	return n
}

// Edits returns the successive texts written to a message.
func (m *MockGateway) Edits(h models.MessageHandle) []string {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return append([]string(nil), m.edits[h]...)
}

// Answered returns whether the callback was acknowledged and with what.
func (m *MockGateway) Answered(callbackID string) (string, bool) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	text, ok := m.callbacks[callbackID]
	return text, ok
}

// Pinned returns the pinned messages.
func (m *MockGateway) Pinned() []models.MessageHandle {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return append([]models.MessageHandle(nil), m.pinned...)
}

// Reset forgets everything recorded so far.
func (m *MockGateway) Reset() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.sent = nil
	m.edits = make(map[models.MessageHandle][]string)
	m.callbacks = make(map[string]string)
	m.pinned = nil
}
