package listing

import (
	"errors"

	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/token"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/types"
)

// Purchase buys BuyAmount units from a listing. The buyer pays the seller
// in the buy asset and receives the units out of custody.
type Purchase struct {
	Buyer   types.Address `json:"buyer"`
	Listing types.Address `json:"listing"`

	// Seller must be the listing's seller
	Seller types.Address `json:"seller"`

	SellAsset types.Address `json:"sell_asset"`
	BuyAsset  types.Address `json:"buy_asset"`

	BuyerBuyBalance  types.Address `json:"buyer_buy_balance"`
	SellerBuyBalance types.Address `json:"seller_buy_balance"`
	CustodyBalance   types.Address `json:"custody_balance"`
	BuyerSellBalance types.Address `json:"buyer_sell_balance"`

	// BuyAmount is in sell-asset smallest units
	BuyAmount uint64 `json:"buy_amount"`
}

// NewPurchase builds a purchase against the listing l stored at listing.
func NewPurchase(listing types.Address, l *sle.ListingData, buyer, buyerBuyBalance, sellerBuyBalance, buyerSellBalance types.Address, buyAmount uint64) (*Purchase, error) {
	ck, err := keylet.AssociatedBalance(listing, l.SellAsset)
	if err != nil {
		return nil, err
	}
	return &Purchase{
		Buyer:            buyer,
		Listing:          listing,
		Seller:           l.Seller,
		SellAsset:        l.SellAsset,
		BuyAsset:         l.BuyAsset,
		BuyerBuyBalance:  buyerBuyBalance,
		SellerBuyBalance: sellerBuyBalance,
		CustodyBalance:   ck.Address(),
		BuyerSellBalance: buyerSellBalance,
		BuyAmount:        buyAmount,
	}, nil
}

// TxType returns the instruction type
func (p *Purchase) TxType() tx.Type {
	return tx.TypePurchase
}

// Validate checks that every account is present. A zero BuyAmount is
// rejected at apply time, after the listing is known to be active.
func (p *Purchase) Validate() error {
	return tx.RequireNonZero(p.Buyer, p.Listing, p.Seller, p.SellAsset, p.BuyAsset,
		p.BuyerBuyBalance, p.SellerBuyBalance, p.CustodyBalance, p.BuyerSellBalance)
}

// Accounts implements tx.Transaction.
func (p *Purchase) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		{Address: p.Buyer, Signer: true, Writable: true},
		{Address: p.Listing, Writable: true},
		{Address: p.Seller},
		{Address: p.SellAsset},
		{Address: p.BuyAsset},
		{Address: p.BuyerBuyBalance, Writable: true},
		{Address: p.SellerBuyBalance, Writable: true},
		{Address: p.CustodyBalance, Writable: true},
		{Address: p.BuyerSellBalance, Writable: true},
	}
}

// Apply performs the exchange.
func (p *Purchase) Apply(ctx *tx.ApplyContext) tx.Result {
	if !ctx.IsSigner(p.Buyer) {
		return tx.TefMISSING_SIGNER
	}

	env, l, result := loadListing(ctx.View, p.Listing)
	if !result.IsSuccess() {
		return result
	}
	if result := checkListingAddress(ctx.Config.ProgramID, p.Listing, l); !result.IsSuccess() {
		return result
	}
	if l.SellAsset != p.SellAsset || l.BuyAsset != p.BuyAsset {
		return tx.TefINVALID_ASSET
	}
	if l.Seller != p.Seller {
		return tx.TefINVALID_SELLER
	}

	sellDef, result := loadAsset(ctx.View, p.SellAsset)
	if !result.IsSuccess() {
		return result
	}
	if _, result := loadAsset(ctx.View, p.BuyAsset); !result.IsSuccess() {
		return result
	}

	balances := []struct {
		addr, asset, owner types.Address
	}{
		{p.BuyerBuyBalance, p.BuyAsset, p.Buyer},
		{p.SellerBuyBalance, p.BuyAsset, p.Seller},
		{p.CustodyBalance, p.SellAsset, p.Listing},
		{p.BuyerSellBalance, p.SellAsset, p.Buyer},
	}
	for _, b := range balances {
		if _, result := checkBalance(ctx.View, b.addr, b.asset, b.owner); !result.IsSuccess() {
			return result
		}
	}
	if result := checkCustody(p.CustodyBalance, p.Listing, p.SellAsset); !result.IsSuccess() {
		return result
	}

	if !l.IsActive() {
		return tx.TecLISTING_NOT_ACTIVE
	}
	if p.BuyAmount == 0 {
		return tx.TemINVALID_AMOUNT
	}
	if p.BuyAmount > l.RemainingAmount {
		return tx.TecINSUFFICIENT_STOCK
	}

	cost, err := TotalCost(l.PricePerUnit, p.BuyAmount, sellDef.Decimals)
	if err != nil {
		return tx.TecOVERFLOW
	}

	if err := ctx.Transfer.Transfer(ctx.View, ctx.Signers, p.BuyerBuyBalance, p.SellerBuyBalance, p.Buyer, cost); err != nil {
		return token.ResultOf(err)
	}

	signers, authority, err := ctx.SignWithSeeds(signerSeeds(l))
	if err != nil || authority != p.Listing {
		return tx.TefBAD_DERIVATION
	}
	if err := ctx.Transfer.Transfer(ctx.View, signers, p.CustodyBalance, p.BuyerSellBalance, authority, p.BuyAmount); err != nil {
		return token.ResultOf(err)
	}

	if err := l.Decrement(p.BuyAmount); err != nil {
		if errors.Is(err, sle.ErrRemainingUnder) {
			return tx.TecOVERFLOW
		}
		return tx.TefINTERNAL
	}
	if err := sle.WriteEntry(ctx.View, keylet.ListingAt(p.Listing), env, l.Encode()); err != nil {
		return tx.ResultFromError(err)
	}

	ctx.Log.Debugf("Listing %s sold %d for %d, %d remaining", p.Listing, p.BuyAmount, cost, l.RemainingAmount)
	return tx.TesSUCCESS
}
