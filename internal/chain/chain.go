// Package chain normalises token and pair addresses per chain family.
package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// Solana is the Dexscreener chain id of Solana.
const Solana = "solana"

// ErrInvalidAddress is returned for addresses that do not fit their chain.
var ErrInvalidAddress = errors.New("invalid address")

// solanaKeyLen is the byte length of a Solana public key.
const solanaKeyLen = 32

// IsSolana reports whether chainID names Solana.
func IsSolana(chainID string) bool {
	return strings.EqualFold(strings.TrimSpace(chainID), Solana)
}

// IsEVMAddress reports whether addr is 0x followed by 40 hex digits.
func IsEVMAddress(addr string) bool {
	if len(addr) != 42 || !(strings.HasPrefix(addr, "0x") || strings.HasPrefix(addr, "0X")) {
		return false
	}
	for _, r := range addr[2:] {
		if !isHex(r) {
			return false
		}
	}
	return true
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// NormalizeAddress returns the canonical form of addr on chainID.
//
// Solana addresses are case-sensitive base58 and must decode to a 32-byte
// key; they are returned unchanged. EVM hex addresses are lower-cased.
// Anything else is returned trimmed.
func NormalizeAddress(chainID, addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	if IsSolana(chainID) {
		raw, err := base58.Decode(addr)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrInvalidAddress, addr, err)
		}
		if len(raw) != solanaKeyLen {
			return "", fmt.Errorf("%w: %s: decoded %d bytes", ErrInvalidAddress, addr, len(raw))
		}
		return base58.Encode(raw), nil
	}

	if IsEVMAddress(addr) {
		return strings.ToLower(addr), nil
	}
	return addr, nil
}

// SameAddress compares two addresses after normalisation, falling back to
// exact comparison when either does not normalise.
func SameAddress(chainID, a, b string) bool {
	na, errA := NormalizeAddress(chainID, a)
	nb, errB := NormalizeAddress(chainID, b)
	if errA != nil || errB != nil {
		return a == b
	}
	return na == nb
}
