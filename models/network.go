package models

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/sha3"
)

// Network is a USDT transfer rail.
type Network string

const (
	NetworkTRC20 Network = "TRC20"
	NetworkERC20 Network = "ERC20"
	NetworkBEP20 Network = "BEP20"
)

// Networks is the set of rails the desk recognizes.
var Networks = []Network{NetworkTRC20, NetworkERC20, NetworkBEP20}

// tronVersion is the address prefix byte of a TRON mainnet address.
const tronVersion = 0x41

var (
	// ErrUnknownNetwork is returned for a network outside of Networks.
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrInvalidAddress is returned when an address does not match its network.
	ErrInvalidAddress = errors.New("address does not match network")

	// ErrBadChecksum is returned for a mixed case EVM address that fails EIP-55.
	ErrBadChecksum = errors.New("address checksum mismatch")
)

// String returns the network name.
func (n Network) String() string {
	return string(n)
}

// ParseNetwork returns the network with the given name, case insensitive.
func ParseNetwork(s string) (Network, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, n := range Networks {
		if string(n) == s {
			return n, nil
		}
	}
	return "", ErrUnknownNetwork
}

// ValidateAddress checks that address is well formed for the network.
// TRC20 addresses are base58check encoded with the 0x41 version byte.
// ERC20 and BEP20 addresses are 0x prefixed hex and must pass EIP-55 if
// they use mixed case.
func ValidateAddress(network Network, address string) error {
	address = strings.TrimSpace(address)
	switch network {
	case NetworkTRC20:
		if len(address) != 34 || address[0] != 'T' {
			return ErrInvalidAddress
		}
		_, version, err := base58.CheckDecode(address)
		if err != nil {
			return ErrInvalidAddress
		}
		if version != tronVersion {
			return ErrInvalidAddress
		}
		return nil
	case NetworkERC20, NetworkBEP20:
		if len(address) != 42 || !strings.HasPrefix(address, "0x") {
			return ErrInvalidAddress
		}
		body := address[2:]
		if _, err := hex.DecodeString(body); err != nil {
			return ErrInvalidAddress
		}
		if body == strings.ToLower(body) || body == strings.ToUpper(body) {
			return nil
		}
		if checksumAddress(body) != address {
			return ErrBadChecksum
		}
		return nil
	}
	return ErrUnknownNetwork
}

// checksumAddress returns the EIP-55 form of a 40 character hex body.
func checksumAddress(body string) string {
	lower := strings.ToLower(body)
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			out[i] = c - 32
		}
	}
	return "0x" + string(out)
}
