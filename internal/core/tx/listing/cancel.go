package listing

import (
	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/token"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/types"
)

// CancelListing returns the remaining units to the seller and closes the
// listing together with its custody balance. Depleted listings can be
// cancelled to reclaim their deposits.
type CancelListing struct {
	Seller            types.Address `json:"seller"`
	Listing           types.Address `json:"listing"`
	SellAsset         types.Address `json:"sell_asset"`
	SellerSellBalance types.Address `json:"seller_sell_balance"`
	CustodyBalance    types.Address `json:"custody_balance"`
}

// NewCancelListing builds a cancel for the listing l stored at listing.
func NewCancelListing(listing types.Address, l *sle.ListingData, sellerSellBalance types.Address) (*CancelListing, error) {
	ck, err := keylet.AssociatedBalance(listing, l.SellAsset)
	if err != nil {
		return nil, err
	}
	return &CancelListing{
		Seller:            l.Seller,
		Listing:           listing,
		SellAsset:         l.SellAsset,
		SellerSellBalance: sellerSellBalance,
		CustodyBalance:    ck.Address(),
	}, nil
}

// TxType returns the instruction type
func (c *CancelListing) TxType() tx.Type {
	return tx.TypeCancelListing
}

// Validate implements tx.Transaction.
func (c *CancelListing) Validate() error {
	return tx.RequireNonZero(c.Seller, c.Listing, c.SellAsset, c.SellerSellBalance, c.CustodyBalance)
}

// Accounts implements tx.Transaction.
func (c *CancelListing) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		{Address: c.Seller, Signer: true, Writable: true},
		{Address: c.Listing, Writable: true},
		{Address: c.SellAsset},
		{Address: c.SellerSellBalance, Writable: true},
		{Address: c.CustodyBalance, Writable: true},
	}
}

// Apply refunds, closes custody, then closes the record.
func (c *CancelListing) Apply(ctx *tx.ApplyContext) tx.Result {
	if !ctx.IsSigner(c.Seller) {
		return tx.TefMISSING_SIGNER
	}

	env, l, result := loadListing(ctx.View, c.Listing)
	if !result.IsSuccess() {
		return result
	}
	if l.Seller != c.Seller {
		return tx.TefUNAUTHORIZED
	}
	if result := checkListingAddress(ctx.Config.ProgramID, c.Listing, l); !result.IsSuccess() {
		return result
	}
	if l.SellAsset != c.SellAsset {
		return tx.TefINVALID_ASSET
	}
	if _, result := checkBalance(ctx.View, c.SellerSellBalance, c.SellAsset, c.Seller); !result.IsSuccess() {
		return result
	}
	if _, result := checkBalance(ctx.View, c.CustodyBalance, c.SellAsset, c.Listing); !result.IsSuccess() {
		return result
	}
	if result := checkCustody(c.CustodyBalance, c.Listing, c.SellAsset); !result.IsSuccess() {
		return result
	}

	signers, authority, err := ctx.SignWithSeeds(signerSeeds(l))
	if err != nil || authority != c.Listing {
		return tx.TefBAD_DERIVATION
	}

	if l.RemainingAmount > 0 {
		if err := ctx.Transfer.Transfer(ctx.View, signers, c.CustodyBalance, c.SellerSellBalance, authority, l.RemainingAmount); err != nil {
			return token.ResultOf(err)
		}
	}
	if err := ctx.Transfer.CloseBalance(ctx.View, signers, c.CustodyBalance, c.Seller, authority); err != nil {
		return token.ResultOf(err)
	}

	if err := ctx.View.Erase(keylet.ListingAt(c.Listing)); err != nil {
		return tx.ResultFromError(err)
	}
	if err := sle.CreditWallet(ctx.View, c.Seller, env.Lamports); err != nil {
		return tx.ResultFromError(err)
	}

	ctx.Log.Debugf("Listing %s cancelled, %d units returned", c.Listing, l.RemainingAmount)
	return tx.TesSUCCESS
}
