// Package addresscodec encodes 32-byte ledger addresses as base58 strings.
package addresscodec

import (
	"errors"
	"fmt"

	"github.com/decred/base58"
)

// AddressLength is the size of a decoded address.
const AddressLength = 32

var (
	ErrEmptyAddress       = errors.New("empty address")
	ErrInvalidCharacters  = errors.New("address contains non-base58 characters")
	ErrInvalidAddressSize = errors.New("invalid address length")
)

// Encode returns the base58 form of a raw address.
func Encode(b [AddressLength]byte) string {
	return base58.Encode(b[:])
}

// Decode parses a base58 address. The decoded payload must be exactly
// AddressLength bytes.
func Decode(s string) ([AddressLength]byte, error) {
	var out [AddressLength]byte
	if s == "" {
		return out, ErrEmptyAddress
	}

	raw := base58.Decode(s)
	if len(raw) == 0 {
		return out, ErrInvalidCharacters
	}
	if len(raw) != AddressLength {
		return out, fmt.Errorf("%w: got %d bytes", ErrInvalidAddressSize, len(raw))
	}

	copy(out[:], raw)
	return out, nil
}

// IsValidAddress reports whether s decodes to a full-length address.
func IsValidAddress(s string) bool {
	_, err := Decode(s)
	return err == nil
}
