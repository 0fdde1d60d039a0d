package models

import "github.com/shopspring/decimal"

// Desk holds the operator details shown to users during a trade.
type Desk struct {
	// BankAccount is the Naira account buyers pay into.
	BankAccount string `yaml:"bank_account"`

	// Wallets maps a network to the desk wallet sellers pay into. A
	// network without a wallet cannot be used to sell.
	Wallets map[Network]string `yaml:"wallets"`

	// BuyNetworks are offered to buyers as payout rails.
	BuyNetworks []Network `yaml:"buy_networks"`

	SupportEmail    string `yaml:"support_email"`
	SupportTelegram string `yaml:"support_telegram"`

	BuyMarkup    decimal.Decimal `yaml:"buy_markup"`
	SellMarkup   decimal.Decimal `yaml:"sell_markup"`
	FallbackRate decimal.Decimal `yaml:"fallback_rate"`
}

// DefaultDesk returns the built-in desk configuration.
func DefaultDesk() *Desk {
	return &Desk{
		BankAccount: "Bank: Zenith Bank Pc\nAcct Name: MECH XPERT AUTO SERVICES\nAcct No: 1219799200",
		Wallets: map[Network]string{
			NetworkTRC20: "TGpQAU6CcHo6rTHrf6gseZy6eu1qnQ4g5m",
			NetworkBEP20: "0x9498665dc2ca80d8cd108fe76734989960ec85bc",
		},
		BuyNetworks:     []Network{NetworkTRC20, NetworkBEP20},
		SupportEmail:    "rehobotics.technologies@gmail.com",
		SupportTelegram: "@CryptoNairaExchangeSupport",
		BuyMarkup:       decimal.NewFromInt(30),
		SellMarkup:      decimal.NewFromInt(8),
		FallbackRate:    decimal.NewFromInt(1400),
	}
}

// SellNetworks returns the networks that have a desk wallet, in the
// canonical network order.
func (d *Desk) SellNetworks() []Network {
	var out []Network
	for _, n := range Networks {
		if d.Wallets[n] != "" {
			out = append(out, n)
		}
	}
	return out
}

// WalletFor returns the desk wallet for the network.
func (d *Desk) WalletFor(n Network) (string, bool) {
	w, ok := d.Wallets[n]
	return w, ok && w != ""
}

// OffersBuyNetwork returns whether buyers may be paid out on n.
func (d *Desk) OffersBuyNetwork(n Network) bool {
	for _, offered := range d.BuyNetworks {
		if offered == n {
			return true
		}
	}
	return false
}
