package orders

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// minBankDetailLines is bank name, account number and account name.
const minBankDetailLines = 3

var (
	errInvalidAmount      = errors.New("amount must be a positive number")
	errInvalidBankDetails = errors.New("bank details need at least three lines")
)

// parseAmount parses a user supplied USDT amount. Thousands separators
// are accepted.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	amount, err := decimal.NewFromString(s)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, errInvalidAmount
	}
	return amount, nil
}

// parseBankDetails returns the bank block with blank lines removed.
func parseBankDetails(s string) (string, error) {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < minBankDetailLines {
		return "", errInvalidBankDetails
	}
	return strings.Join(lines, "\n"), nil
}
