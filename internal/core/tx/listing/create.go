package listing

import (
	"github.com/LeJamon/goListingd/internal/core/ledger/entry"
	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/token"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/types"
)

// CreateListing opens a listing and moves Amount units of the sell asset
// from the seller into custody.
type CreateListing struct {
	// Seller signs and pays the deposits (required)
	Seller types.Address `json:"seller"`

	// Listing is the address derived from (Seller, ListingID) (required)
	Listing types.Address `json:"listing"`

	SellAsset types.Address `json:"sell_asset"`
	BuyAsset  types.Address `json:"buy_asset"`

	// SellerSellBalance funds the listing
	SellerSellBalance types.Address `json:"seller_sell_balance"`

	// CustodyBalance is the associated balance of Listing for SellAsset.
	// It is opened if absent.
	CustodyBalance types.Address `json:"custody_balance"`

	// PricePerUnit is in buy-asset smallest units per whole sell-asset unit
	PricePerUnit uint64 `json:"price_per_unit"`

	// Amount is in sell-asset smallest units
	Amount uint64 `json:"amount"`

	ListingID uint64 `json:"listing_id"`
}

// NewCreateListing fills in the derived listing and custody addresses.
func NewCreateListing(programID, seller, sellAsset, buyAsset, sellerSellBalance types.Address, pricePerUnit, amount, listingID uint64) (*CreateListing, error) {
	lk, _, err := keylet.Listing(programID, seller, listingID)
	if err != nil {
		return nil, err
	}
	ck, err := keylet.AssociatedBalance(lk.Address(), sellAsset)
	if err != nil {
		return nil, err
	}
	return &CreateListing{
		Seller:            seller,
		Listing:           lk.Address(),
		SellAsset:         sellAsset,
		BuyAsset:          buyAsset,
		SellerSellBalance: sellerSellBalance,
		CustodyBalance:    ck.Address(),
		PricePerUnit:      pricePerUnit,
		Amount:            amount,
		ListingID:         listingID,
	}, nil
}

// TxType returns the instruction type
func (c *CreateListing) TxType() tx.Type {
	return tx.TypeCreateListing
}

// Validate checks the amount before the price.
func (c *CreateListing) Validate() error {
	if c.Amount == 0 {
		return tx.ValidationError(tx.TemINVALID_AMOUNT, "amount must be greater than zero")
	}
	if c.PricePerUnit == 0 {
		return tx.ValidationError(tx.TemINVALID_PRICE, "price_per_unit must be greater than zero")
	}
	return tx.RequireNonZero(c.Seller, c.Listing, c.SellAsset, c.BuyAsset, c.SellerSellBalance, c.CustodyBalance)
}

// Accounts implements tx.Transaction.
func (c *CreateListing) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		{Address: c.Seller, Signer: true, Writable: true},
		{Address: c.Listing, Writable: true},
		{Address: c.SellAsset},
		{Address: c.BuyAsset},
		{Address: c.SellerSellBalance, Writable: true},
		{Address: c.CustodyBalance, Writable: true},
	}
}

// Apply opens the listing record and funds custody.
func (c *CreateListing) Apply(ctx *tx.ApplyContext) tx.Result {
	if !ctx.IsSigner(c.Seller) {
		return tx.TefMISSING_SIGNER
	}

	lk, bump, err := keylet.Listing(ctx.Config.ProgramID, c.Seller, c.ListingID)
	if err != nil || lk.Address() != c.Listing {
		return tx.TefBAD_DERIVATION
	}
	exists, err := ctx.View.Exists(lk)
	if err != nil {
		return tx.ResultFromError(err)
	}
	if exists {
		return tx.TecDUPLICATE
	}

	sellDef, result := loadAsset(ctx.View, c.SellAsset)
	if !result.IsSuccess() {
		return result
	}
	if _, result := loadAsset(ctx.View, c.BuyAsset); !result.IsSuccess() {
		return result
	}
	// sell decimals beyond MaxDecimals cannot be priced
	if sellDef.Decimals > MaxDecimals {
		return tx.TecOVERFLOW
	}

	if _, result := checkBalance(ctx.View, c.SellerSellBalance, c.SellAsset, c.Seller); !result.IsSuccess() {
		return result
	}
	if result := checkCustody(c.CustodyBalance, c.Listing, c.SellAsset); !result.IsSuccess() {
		return result
	}

	custody, created, err := ctx.Transfer.OpenAssociatedBalance(ctx.View, ctx.Signers, c.Seller, c.Listing, c.SellAsset, ctx.Config.DepositPerByte)
	if err != nil {
		return token.ResultOf(err)
	}
	if custody != c.CustodyBalance {
		return tx.TefBAD_DERIVATION
	}
	if created {
		ctx.Log.Debugf("Opened custody %s for listing %s", custody, c.Listing)
	} else {
		// custody must start out holding exactly the listed amount
		bal, result := checkBalance(ctx.View, custody, c.SellAsset, c.Listing)
		if !result.IsSuccess() {
			return result
		}
		if bal.Amount != 0 {
			return tx.TecHAS_BALANCE
		}
	}

	deposit := ctx.MinimumDeposit(sle.ListingSize)
	if err := sle.DebitWallet(ctx.View, c.Seller, deposit); err != nil {
		return tx.ResultFromError(err)
	}

	l := &sle.ListingData{
		Seller:          c.Seller,
		SellAsset:       c.SellAsset,
		BuyAsset:        c.BuyAsset,
		PricePerUnit:    c.PricePerUnit,
		RemainingAmount: c.Amount,
		ListingID:       c.ListingID,
		Bump:            bump,
	}
	env := &sle.Envelope{Type: entry.TypeListing, Lamports: deposit, Data: l.Encode()}
	if err := ctx.View.Insert(lk, env.Encode()); err != nil {
		return tx.ResultFromError(err)
	}

	if err := ctx.Transfer.Transfer(ctx.View, ctx.Signers, c.SellerSellBalance, c.CustodyBalance, c.Seller, c.Amount); err != nil {
		return token.ResultOf(err)
	}
	return tx.TesSUCCESS
}
