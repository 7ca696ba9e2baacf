package sle

import (
	"github.com/LeJamon/goListingd/internal/core/ledger/entry"
)

// Fields flattens a stored entry into named values for invocation metadata.
func Fields(raw []byte) (map[string]any, error) {
	env, err := DecodeEnvelope(raw)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{
		"Lamports": env.Lamports,
	}

	switch env.Type {
	case entry.TypeWallet:
		fields["Sequence"] = walletSequence(env)
	case entry.TypeListing:
		l, err := ParseListing(env.Data)
		if err != nil {
			return nil, err
		}
		fields["Seller"] = l.Seller.String()
		fields["SellAsset"] = l.SellAsset.String()
		fields["BuyAsset"] = l.BuyAsset.String()
		fields["PricePerUnit"] = l.PricePerUnit
		fields["RemainingAmount"] = l.RemainingAmount
		fields["ListingID"] = l.ListingID
		fields["Bump"] = l.Bump
	case entry.TypeBalance:
		b, err := ParseBalance(env.Data)
		if err != nil {
			return nil, err
		}
		fields["Asset"] = b.Asset.String()
		fields["Owner"] = b.Owner.String()
		fields["Amount"] = b.Amount
	case entry.TypeAsset:
		a, err := ParseAsset(env.Data)
		if err != nil {
			return nil, err
		}
		fields["Supply"] = a.Supply
		fields["Decimals"] = a.Decimals
		if a.HasMintAuthority {
			fields["MintAuthority"] = a.MintAuthority.String()
		}
	}
	return fields, nil
}

// IsDefaultValue reports whether v is the zero value of its field type.
func IsDefaultValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case uint64:
		return x == 0
	case uint8:
		return x == 0
	case string:
		return x == ""
	case bool:
		return !x
	}
	return false
}
