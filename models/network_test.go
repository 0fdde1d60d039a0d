package models

import "testing"

func TestParseNetwork(t *testing.T) {
	tests := []struct {
		input    string
		expected Network
		err      error
	}{
		{"TRC20", NetworkTRC20, nil},
		{" bep20 ", NetworkBEP20, nil},
		{"erc20", NetworkERC20, nil},
		{"SOL", "", ErrUnknownNetwork},
		{"", "", ErrUnknownNetwork},
	}

	for _, test := range tests {
		n, err := ParseNetwork(test.input)
		if err != test.err {
			t.Errorf("%q: expected error %v, got %v", test.input, test.err, err)
		}
		if n != test.expected {
			t.Errorf("%q: expected %s, got %s", test.input, test.expected, n)
		}
	}
}

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		network Network
		address string
		err     error
	}{
		// USDT contract on TRON.
		{NetworkTRC20, "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", nil},
		// Last character altered so the checksum fails.
		{NetworkTRC20, "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6u", ErrInvalidAddress},
		{NetworkTRC20, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", ErrInvalidAddress},
		{NetworkTRC20, "T123", ErrInvalidAddress},
		{NetworkBEP20, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", nil},
		{NetworkERC20, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", nil},
		{NetworkERC20, "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", nil},
		{NetworkBEP20, "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", ErrBadChecksum},
		{NetworkBEP20, "0xABC", ErrInvalidAddress},
		{NetworkBEP20, "0xzzzzb6053f3e94c9b9a09f33669435e7ef1beaed", ErrInvalidAddress},
		{Network("SOL"), "anything", ErrUnknownNetwork},
	}

	for _, test := range tests {
		if err := ValidateAddress(test.network, test.address); err != test.err {
			t.Errorf("%s %s: expected %v, got %v", test.network, test.address, test.err, err)
		}
	}
}

func TestDesk_SellNetworks(t *testing.T) {
	desk := DefaultDesk()
	networks := desk.SellNetworks()
	if len(networks) != 2 || networks[0] != NetworkTRC20 || networks[1] != NetworkBEP20 {
		t.Errorf("Unexpected sell networks %v", networks)
	}
	if _, ok := desk.WalletFor(NetworkERC20); ok {
		t.Error("ERC20 should not have a desk wallet")
	}
}
