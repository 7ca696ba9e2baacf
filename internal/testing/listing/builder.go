// Package listing provides builders for marketplace listing instructions.
package listing

import (
	listingtx "github.com/LeJamon/goListingd/internal/core/tx/listing"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/testing"
	"github.com/LeJamon/goListingd/internal/types"
)

// CreateBuilder provides a fluent interface for building CreateListing
// instructions.
type CreateBuilder struct {
	seller *testing.Account
	sell   *testing.Asset
	buy    *testing.Asset
	price  uint64
	amount uint64
	id     uint64
	from   *types.Address
}

// Create creates a CreateBuilder. Price and amount default to one whole unit
// priced at one smallest buy unit.
func Create(seller *testing.Account, sell, buy *testing.Asset) *CreateBuilder {
	return &CreateBuilder{
		seller: seller,
		sell:   sell,
		buy:    buy,
		price:  1,
		amount: testing.Units(1, sell.Decimals),
	}
}

// Price sets the price per whole sell unit in smallest buy units.
func (b *CreateBuilder) Price(p uint64) *CreateBuilder {
	b.price = p
	return b
}

// Amount sets the listed amount in smallest sell units.
func (b *CreateBuilder) Amount(n uint64) *CreateBuilder {
	b.amount = n
	return b
}

// ID sets the seller-chosen listing id.
func (b *CreateBuilder) ID(id uint64) *CreateBuilder {
	b.id = id
	return b
}

// From funds the listing from another balance than the seller's
// associated one.
func (b *CreateBuilder) From(balance types.Address) *CreateBuilder {
	b.from = &balance
	return b
}

// Build constructs the CreateListing instruction.
func (b *CreateBuilder) Build(env *testing.TestEnv) *listingtx.CreateListing {
	from := env.BalanceAddress(b.seller.Address, b.sell)
	if b.from != nil {
		from = *b.from
	}
	c, err := listingtx.NewCreateListing(env.ProgramID(), b.seller.Address, b.sell.Address, b.buy.Address, from, b.price, b.amount, b.id)
	if err != nil {
		panic("failed to build CreateListing: " + err.Error())
	}
	return c
}

// PurchaseBuilder provides a fluent interface for building Purchase
// instructions.
type PurchaseBuilder struct {
	buyer  *testing.Account
	seller *testing.Account
	id     uint64
	sell   *testing.Asset
	buy    *testing.Asset
	amount uint64

	payFrom   *types.Address
	payTo     *types.Address
	receiveAt *types.Address
}

// Buy creates a PurchaseBuilder against the listing (seller, id). The
// default amount is one whole sell unit.
func Buy(buyer, seller *testing.Account, id uint64, sell, buy *testing.Asset) *PurchaseBuilder {
	return &PurchaseBuilder{
		buyer:  buyer,
		seller: seller,
		id:     id,
		sell:   sell,
		buy:    buy,
		amount: testing.Units(1, sell.Decimals),
	}
}

// Amount sets the purchased amount in smallest sell units.
func (b *PurchaseBuilder) Amount(n uint64) *PurchaseBuilder {
	b.amount = n
	return b
}

// PayFrom overrides the buyer's paying balance.
func (b *PurchaseBuilder) PayFrom(balance types.Address) *PurchaseBuilder {
	b.payFrom = &balance
	return b
}

// PayTo overrides the seller's receiving balance.
func (b *PurchaseBuilder) PayTo(balance types.Address) *PurchaseBuilder {
	b.payTo = &balance
	return b
}

// ReceiveAt overrides the buyer's receiving balance.
func (b *PurchaseBuilder) ReceiveAt(balance types.Address) *PurchaseBuilder {
	b.receiveAt = &balance
	return b
}

// Build constructs the Purchase instruction.
func (b *PurchaseBuilder) Build(env *testing.TestEnv) *listingtx.Purchase {
	pick := func(override *types.Address, owner *testing.Account, a *testing.Asset) types.Address {
		if override != nil {
			return *override
		}
		return env.BalanceAddress(owner.Address, a)
	}
	l := &sle.ListingData{Seller: b.seller.Address, SellAsset: b.sell.Address, BuyAsset: b.buy.Address}
	p, err := listingtx.NewPurchase(
		env.ListingAddress(b.seller, b.id), l, b.buyer.Address,
		pick(b.payFrom, b.buyer, b.buy),
		pick(b.payTo, b.seller, b.buy),
		pick(b.receiveAt, b.buyer, b.sell),
		b.amount,
	)
	if err != nil {
		panic("failed to build Purchase: " + err.Error())
	}
	return p
}

// CancelBuilder provides a fluent interface for building CancelListing
// instructions.
type CancelBuilder struct {
	seller *testing.Account
	id     uint64
	sell   *testing.Asset
	by     *testing.Account
}

// Cancel creates a CancelBuilder for the listing (seller, id).
func Cancel(seller *testing.Account, id uint64, sell *testing.Asset) *CancelBuilder {
	return &CancelBuilder{seller: seller, id: id, sell: sell, by: seller}
}

// By names someone other than the seller as the cancelling signer. The
// refund goes to their associated balance.
func (b *CancelBuilder) By(acc *testing.Account) *CancelBuilder {
	b.by = acc
	return b
}

// Build constructs the CancelListing instruction.
func (b *CancelBuilder) Build(env *testing.TestEnv) *listingtx.CancelListing {
	l := &sle.ListingData{Seller: b.by.Address, SellAsset: b.sell.Address}
	c, err := listingtx.NewCancelListing(env.ListingAddress(b.seller, b.id), l, env.BalanceAddress(b.by.Address, b.sell))
	if err != nil {
		panic("failed to build CancelListing: " + err.Error())
	}
	return c
}
