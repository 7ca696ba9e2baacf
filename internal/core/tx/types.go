package tx

import "fmt"

// Type identifies an instruction
type Type uint16

const (
	TypeInvalid Type = 0xFFFF

	// Marketplace instructions
	TypeCreateListing Type = 1
	TypePurchase      Type = 2
	TypeCancelListing Type = 3

	// Asset service instructions
	TypeCreateAsset Type = 10
	TypeOpenBalance Type = 11
	TypeMintTo      Type = 12
	TypeFund        Type = 13
)

// String returns the wire name of the instruction type
func (t Type) String() string {
	switch t {
	case TypeCreateListing:
		return "create_listing"
	case TypePurchase:
		return "purchase"
	case TypeCancelListing:
		return "cancel_listing"
	case TypeCreateAsset:
		return "create_asset"
	case TypeOpenBalance:
		return "open_balance"
	case TypeMintTo:
		return "mint_to"
	case TypeFund:
		return "fund"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(t))
	}
}

// typeNameMap maps instruction names to their codes
var typeNameMap = map[string]Type{
	"create_listing": TypeCreateListing,
	"purchase":       TypePurchase,
	"cancel_listing": TypeCancelListing,
	"create_asset":   TypeCreateAsset,
	"open_balance":   TypeOpenBalance,
	"mint_to":        TypeMintTo,
	"fund":           TypeFund,
}

// TypeFromName returns the instruction type for a wire name
func TypeFromName(name string) (Type, bool) {
	t, ok := typeNameMap[name]
	return t, ok
}

// IsMarketplace reports whether t is one of the listing instructions.
func (t Type) IsMarketplace() bool {
	return t == TypeCreateListing || t == TypePurchase || t == TypeCancelListing
}
