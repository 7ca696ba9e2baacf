package sle

import (
	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/types"
)

// ReadListing loads the listing at k.
func ReadListing(view LedgerView, k keylet.Keylet) (*Envelope, *ListingData, error) {
	env, err := ReadEnvelope(view, k)
	if err != nil {
		return nil, nil, err
	}
	l, err := ParseListing(env.Data)
	if err != nil {
		return nil, nil, err
	}
	return env, l, nil
}

// ReadBalance loads the balance stored at addr.
func ReadBalance(view LedgerView, addr types.Address) (*Envelope, *BalanceData, error) {
	env, err := ReadEnvelope(view, keylet.Balance(addr))
	if err != nil {
		return nil, nil, err
	}
	b, err := ParseBalance(env.Data)
	if err != nil {
		return nil, nil, err
	}
	return env, b, nil
}

// ReadAsset loads the asset definition stored at addr.
func ReadAsset(view LedgerView, addr types.Address) (*Envelope, *AssetData, error) {
	env, err := ReadEnvelope(view, keylet.Asset(addr))
	if err != nil {
		return nil, nil, err
	}
	a, err := ParseAsset(env.Data)
	if err != nil {
		return nil, nil, err
	}
	return env, a, nil
}

// WriteEntry updates an existing entry with a new payload.
func WriteEntry(view LedgerView, k keylet.Keylet, env *Envelope, payload []byte) error {
	env.Data = payload
	return view.Update(k, env.Encode())
}
