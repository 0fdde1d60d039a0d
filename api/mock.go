package api

import (
	"context"

	"github.com/cryptonaira/nairadesk/models"
	"github.com/shopspring/decimal"
)

type mockNode struct {
	quoteFunc              func(ctx context.Context, direction models.Direction) decimal.Decimal
	activeTransactionsFunc func() int
}

func (m *mockNode) Quote(ctx context.Context, direction models.Direction) decimal.Decimal {
	return m.quoteFunc(ctx, direction)
}

func (m *mockNode) ActiveTransactions() int {
	return m.activeTransactionsFunc()
}
