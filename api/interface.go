package api

import (
	"context"

	"github.com/cryptonaira/nairadesk/models"
	"github.com/shopspring/decimal"
)

// CoreIface is used to get around a circular import of the Core package.
type CoreIface interface {
	// Quote returns the current Naira price of one USDT for direction.
	Quote(ctx context.Context, direction models.Direction) decimal.Decimal

	// ActiveTransactions returns the number of open transactions.
	ActiveTransactions() int
}
