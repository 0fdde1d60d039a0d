package repo

import (
	"os"

	"github.com/cryptonaira/nairadesk/models"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// deskFile mirrors the YAML desk file. Fields left out keep the built-in
// values.
type deskFile struct {
	BankAccount     string            `yaml:"bank_account"`
	Wallets         map[string]string `yaml:"wallets"`
	BuyNetworks     []string          `yaml:"buy_networks"`
	SupportEmail    string            `yaml:"support_email"`
	SupportTelegram string            `yaml:"support_telegram"`
	BuyMarkup       *string           `yaml:"buy_markup"`
	SellMarkup      *string           `yaml:"sell_markup"`
	FallbackRate    *string           `yaml:"fallback_rate"`
}

// LoadDesk reads the desk file at path over the built-in desk. An empty
// path returns the built-in desk.
func LoadDesk(path string) (*models.Desk, error) {
	desk := models.DefaultDesk()
	if path == "" {
		return desk, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading desk file")
	}
	if err := applyDesk(desk, raw); err != nil {
		return nil, errors.Wrapf(err, "desk file %s", path)
	}
	return desk, nil
}

func applyDesk(desk *models.Desk, raw []byte) error {
	var f deskFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return err
	}

	if f.BankAccount != "" {
		desk.BankAccount = f.BankAccount
	}
	if f.SupportEmail != "" {
		desk.SupportEmail = f.SupportEmail
	}
	if f.SupportTelegram != "" {
		desk.SupportTelegram = f.SupportTelegram
	}
	if f.Wallets != nil {
		wallets := make(map[models.Network]string, len(f.Wallets))
		for name, address := range f.Wallets {
			n, err := models.ParseNetwork(name)
			if err != nil {
				return errors.Wrapf(err, "wallet %q", name)
			}
			if err := models.ValidateAddress(n, address); err != nil {
				return errors.Wrapf(err, "%s wallet", n)
			}
			wallets[n] = address
		}
		desk.Wallets = wallets
	}
	if f.BuyNetworks != nil {
		networks := make([]models.Network, 0, len(f.BuyNetworks))
		for _, name := range f.BuyNetworks {
			n, err := models.ParseNetwork(name)
			if err != nil {
				return errors.Wrapf(err, "buy network %q", name)
			}
			networks = append(networks, n)
		}
		desk.BuyNetworks = networks
	}

	for _, field := range []struct {
		name string
		raw  *string
		dst  *decimal.Decimal
	}{
		{"buy_markup", f.BuyMarkup, &desk.BuyMarkup},
		{"sell_markup", f.SellMarkup, &desk.SellMarkup},
		{"fallback_rate", f.FallbackRate, &desk.FallbackRate},
	} {
		if field.raw == nil {
			continue
		}
		d, err := decimal.NewFromString(*field.raw)
		if err != nil {
			return errors.Wrapf(err, "%s", field.name)
		}
		if d.IsNegative() {
			return errors.Errorf("%s must not be negative", field.name)
		}
		*field.dst = d
	}
	if !desk.FallbackRate.IsPositive() {
		return errors.New("fallback_rate must be positive")
	}
	return nil
}

// WriteDesk saves desk as a YAML desk file at path. An existing file is
// only replaced if force is set.
func WriteDesk(path string, desk *models.Desk, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.Errorf("desk file %s already exists", path)
	}

	f := deskFile{
		BankAccount:     desk.BankAccount,
		Wallets:         make(map[string]string, len(desk.Wallets)),
		SupportEmail:    desk.SupportEmail,
		SupportTelegram: desk.SupportTelegram,
	}
	for n, address := range desk.Wallets {
		f.Wallets[n.String()] = address
	}
	for _, n := range desk.BuyNetworks {
		f.BuyNetworks = append(f.BuyNetworks, n.String())
	}
	buy, sell, fallback := desk.BuyMarkup.String(), desk.SellMarkup.String(), desk.FallbackRate.String()
	f.BuyMarkup, f.SellMarkup, f.FallbackRate = &buy, &sell, &fallback

	out, err := yaml.Marshal(&f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0600)
}
