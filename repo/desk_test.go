package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cryptonaira/nairadesk/models"
	"github.com/shopspring/decimal"
)

func TestLoadDesk_Default(t *testing.T) {
	desk, err := LoadDesk("")
	if err != nil {
		t.Fatal(err)
	}
	if desk.BankAccount != models.DefaultDesk().BankAccount {
		t.Error("Empty path did not return the built-in desk")
	}
}

func TestLoadDesk_Overrides(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "desk.yaml")
	raw := `
bank_account: |-
  Bank: Test Bank
  Acct No: 0000000000
wallets:
  bep20: "0x52908400098527886e0f7030069857d2e4169ee7"
  erc20: "0x8617e340b3d01fa5f11f306f4090fd50e238070d"
buy_networks: [TRC20, ERC20]
support_telegram: "@desk"
buy_markup: "25.5"
fallback_rate: "1600"
`
	if err := os.WriteFile(p, []byte(raw), os.ModePerm); err != nil {
		t.Fatal(err)
	}

	desk, err := LoadDesk(p)
	if err != nil {
		t.Fatal(err)
	}
	if desk.BankAccount != "Bank: Test Bank\nAcct No: 0000000000" {
		t.Errorf("Wrong bank account %q", desk.BankAccount)
	}
	if _, ok := desk.WalletFor(models.NetworkTRC20); ok {
		t.Error("Wallets not replaced")
	}
	sell := desk.SellNetworks()
	if len(sell) != 2 || sell[0] != models.NetworkERC20 || sell[1] != models.NetworkBEP20 {
		t.Errorf("Wrong sell networks %v", sell)
	}
	if len(desk.BuyNetworks) != 2 || desk.BuyNetworks[1] != models.NetworkERC20 {
		t.Errorf("Wrong buy networks %v", desk.BuyNetworks)
	}
	if desk.SupportTelegram != "@desk" || desk.SupportEmail != models.DefaultDesk().SupportEmail {
		t.Error("Support contacts not merged")
	}
	if !desk.BuyMarkup.Equal(decimal.RequireFromString("25.5")) {
		t.Errorf("Wrong buy markup %s", desk.BuyMarkup)
	}
	if !desk.SellMarkup.Equal(models.DefaultDesk().SellMarkup) {
		t.Error("Sell markup should keep the default")
	}
	if !desk.FallbackRate.Equal(decimal.NewFromInt(1600)) {
		t.Errorf("Wrong fallback rate %s", desk.FallbackRate)
	}
}

func TestLoadDesk_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unknown network", "wallets:\n  SOL: abc\n"},
		{"bad address", "wallets:\n  BEP20: \"0x123\"\n"},
		{"bad buy network", "buy_networks: [OMNI]\n"},
		{"bad markup", "buy_markup: \"lots\"\n"},
		{"negative markup", "sell_markup: \"-1\"\n"},
		{"zero fallback", "fallback_rate: \"0\"\n"},
		{"malformed", "wallets: [\n"},
	}
	dir := t.TempDir()
	for _, test := range tests {
		p := filepath.Join(dir, "desk.yaml")
		if err := os.WriteFile(p, []byte(test.raw), os.ModePerm); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadDesk(p); err == nil {
			t.Errorf("%s: expected an error", test.name)
		}
	}

	if _, err := LoadDesk(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Missing desk file should fail")
	}
}

func TestWriteDesk(t *testing.T) {
	p := filepath.Join(t.TempDir(), "desk.yaml")
	desk := models.DefaultDesk()
	desk.SellMarkup = decimal.RequireFromString("7.5")

	if err := WriteDesk(p, desk, false); err != nil {
		t.Fatal(err)
	}
	if err := WriteDesk(p, desk, false); err == nil {
		t.Error("Existing desk file was overwritten without force")
	}
	if err := WriteDesk(p, desk, true); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadDesk(p)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.BankAccount != desk.BankAccount || loaded.SupportTelegram != desk.SupportTelegram {
		t.Errorf("Contacts did not survive: %+v", loaded)
	}
	if !loaded.SellMarkup.Equal(desk.SellMarkup) || !loaded.FallbackRate.Equal(desk.FallbackRate) {
		t.Errorf("Rates did not survive: sell %s fallback %s", loaded.SellMarkup, loaded.FallbackRate)
	}
	for n, w := range desk.Wallets {
		if got, _ := loaded.WalletFor(n); got != w {
			t.Errorf("Wallet %s: expected %s, got %s", n, w, got)
		}
	}
	if len(loaded.BuyNetworks) != len(desk.BuyNetworks) {
		t.Errorf("Expected %d buy networks, got %d", len(desk.BuyNetworks), len(loaded.BuyNetworks))
	}
}
