package types

import (
	"encoding/hex"
	"fmt"

	addresscodec "github.com/LeJamon/goListingd/internal/codec/address-codec"
	crypto "github.com/LeJamon/goListingd/internal/crypto/common"
)

// Address identifies any entry in ledger state: wallets, assets, balances,
// listings and programs all share the same 32-byte address space.
type Address [32]byte

// Well-known program identities. They are fixed for every deployment; only
// the marketplace program id is configurable.
var (
	SystemProgramID            = programID("listingd:system")
	TokenProgramID             = programID("listingd:token")
	AssociatedBalanceProgramID = programID("listingd:associated-balance")
	DefaultMarketplaceID       = programID("listingd:marketplace")
)

func programID(name string) Address {
	return Address(crypto.Sha256([]byte(name)))
}

// ParseAddress decodes a base58 address.
func ParseAddress(s string) (Address, error) {
	raw, err := addresscodec.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return Address(raw), nil
}

// MustParseAddress is ParseAddress for constants in tests and defaults.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	return addresscodec.Encode(a)
}

// Hex returns the upper-case hex form used in metadata and storage dumps.
func (a Address) Hex() string {
	return fmt.Sprintf("%X", a[:])
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// AddressFromHex accepts the Hex form.
func AddressFromHex(s string) (Address, error) {
	var a Address
	raw, err := hex.DecodeString(s)
	if err != nil {
		return a, err
	}
	if len(raw) != len(a) {
		return a, fmt.Errorf("invalid address length %d", len(raw))
	}
	copy(a[:], raw)
	return a, nil
}
