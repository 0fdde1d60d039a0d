package wallet

import (
	"context"
	"sync"

	"github.com/cryptonaira/nairadesk/models"
	"github.com/shopspring/decimal"
)

// MockExchangeRates is a rate source that returns fixed quotes and
// counts how often it was asked.
type MockExchangeRates struct {
	mtx   sync.Mutex
	buy   decimal.Decimal
	sell  decimal.Decimal
	calls int
}

// NewMockExchangeRates returns a mock which quotes buy and sell.
func NewMockExchangeRates(buy, sell decimal.Decimal) *MockExchangeRates {
	return &MockExchangeRates{buy: buy, sell: sell}
}

// Quote returns the fixed quote for the direction.
func (m *MockExchangeRates) Quote(ctx context.Context, direction models.Direction) decimal.Decimal {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.calls++
	if direction == models.DirectionSell {
		return m.sell
	}
	return m.buy
}

// SetRates changes the quotes returned from now on.
func (m *MockExchangeRates) SetRates(buy, sell decimal.Decimal) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.buy, m.sell = buy, sell
}

// Calls returns the number of quotes served.
func (m *MockExchangeRates) Calls() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	return m.calls
}
