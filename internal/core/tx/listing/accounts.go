// Package listing implements the escrow listing marketplace: a seller locks
// units of one asset in custody owned by a derived listing address, prices
// them per whole unit in a second asset, and buyers purchase all or part of
// the remainder until the seller cancels.
package listing

import (
	"errors"

	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/types"
)

// checkBalance loads the balance at addr and requires it to hold asset and
// be owned by owner.
func checkBalance(view sle.LedgerView, addr, asset, owner types.Address) (*sle.BalanceData, tx.Result) {
	_, bal, err := sle.ReadBalance(view, addr)
	if err != nil {
		return nil, readResult(err)
	}
	if bal.Asset != asset {
		return nil, tx.TefINVALID_ASSET
	}
	if bal.Owner != owner {
		return nil, tx.TefINVALID_OWNER
	}
	return bal, tx.TesSUCCESS
}

// checkCustody requires custody to be the associated balance of listing for
// sellAsset.
func checkCustody(custody, listing, sellAsset types.Address) tx.Result {
	k, err := keylet.AssociatedBalance(listing, sellAsset)
	if err != nil || k.Address() != custody {
		return tx.TefBAD_DERIVATION
	}
	return tx.TesSUCCESS
}

// checkListingAddress requires addr to be the listing derived from l's
// stored seller, id and bump.
func checkListingAddress(programID, addr types.Address, l *sle.ListingData) tx.Result {
	k, err := keylet.ListingWithBump(programID, l.Seller, l.ListingID, l.Bump)
	if err != nil || k.Address() != addr {
		return tx.TefBAD_DERIVATION
	}
	return tx.TesSUCCESS
}

// loadListing reads the listing record at addr.
func loadListing(view sle.LedgerView, addr types.Address) (*sle.Envelope, *sle.ListingData, tx.Result) {
	env, l, err := sle.ReadListing(view, keylet.ListingAt(addr))
	if err != nil {
		return nil, nil, readResult(err)
	}
	return env, l, tx.TesSUCCESS
}

// loadAsset reads the asset definition at addr. A missing asset is an
// invalid asset reference.
func loadAsset(view sle.LedgerView, addr types.Address) (*sle.AssetData, tx.Result) {
	_, a, err := sle.ReadAsset(view, addr)
	if err != nil {
		if errors.Is(err, sle.ErrEntryNotFound) || errors.Is(err, sle.ErrWrongEntryType) {
			return nil, tx.TefINVALID_ASSET
		}
		return nil, tx.ResultFromError(err)
	}
	return a, tx.TesSUCCESS
}

func readResult(err error) tx.Result {
	switch {
	case errors.Is(err, sle.ErrEntryNotFound), errors.Is(err, sle.ErrWrongEntryType):
		return tx.TecNO_ENTRY
	case errors.Is(err, sle.ErrBadDiscriminator), errors.Is(err, sle.ErrListingSize):
		return tx.TecNO_ENTRY
	default:
		return tx.ResultFromError(err)
	}
}

// signerSeeds returns the seeds the marketplace signs for l with.
func signerSeeds(l *sle.ListingData) [][]byte {
	return keylet.ListingSignerSeeds(l.Seller, l.ListingID, l.Bump)
}
