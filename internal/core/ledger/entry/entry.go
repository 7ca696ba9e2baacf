package entry

import (
	"fmt"
)

// Type represents a ledger entry type
type Type uint16

// All known ledger entry types
const (
	TypeUnknown Type = 0x0000

	// Native-unit holder for a signing identity
	TypeWallet Type = 0x0057

	// Fungible asset definition (decimals, supply, mint authority)
	TypeAsset Type = 0x004d

	// Per-owner holding of one asset
	TypeBalance Type = 0x0062

	// Marketplace listing record
	TypeListing Type = 0x006c
)

// String returns the string representation of the Type
func (t Type) String() string {
	switch t {
	case TypeWallet:
		return "Wallet"
	case TypeAsset:
		return "Asset"
	case TypeBalance:
		return "Balance"
	case TypeListing:
		return "Listing"
	default:
		return fmt.Sprintf("Unknown(%#x)", uint16(t))
	}
}

// ParseType is the inverse of String for known types.
func ParseType(s string) (Type, error) {
	switch s {
	case "Wallet":
		return TypeWallet, nil
	case "Asset":
		return TypeAsset, nil
	case "Balance":
		return TypeBalance, nil
	case "Listing":
		return TypeListing, nil
	}
	return TypeUnknown, fmt.Errorf("unknown entry type %q", s)
}
