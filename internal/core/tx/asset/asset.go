// Package asset holds the instructions that bootstrap the asset service:
// defining assets, opening balances, minting, and the standalone faucet.
package asset

import (
	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/token"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/types"
)

// Issuer is the part of the asset service that creates supply.
type Issuer interface {
	CreateAsset(view sle.LedgerView, signers tx.SignerSet, payer, asset, authority types.Address, decimals uint8, perByte uint64) error
	MintTo(view sle.LedgerView, signers tx.SignerSet, asset, dest, authority types.Address, amount uint64) error
}

func issuer(ctx *tx.ApplyContext) (Issuer, bool) {
	i, ok := ctx.Transfer.(Issuer)
	return i, ok
}

// CreateAsset defines a new asset. The asset address is a fresh key pair
// that signs once to prove nobody else holds it.
type CreateAsset struct {
	Payer         types.Address `json:"payer"`
	Asset         types.Address `json:"asset"`
	MintAuthority types.Address `json:"mint_authority"`
	Decimals      uint8         `json:"decimals"`
}

func (c *CreateAsset) TxType() tx.Type {
	return tx.TypeCreateAsset
}

func (c *CreateAsset) Validate() error {
	return tx.RequireNonZero(c.Payer, c.Asset)
}

func (c *CreateAsset) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		{Address: c.Payer, Signer: true, Writable: true},
		{Address: c.Asset, Signer: true, Writable: true},
	}
}

func (c *CreateAsset) Apply(ctx *tx.ApplyContext) tx.Result {
	iss, ok := issuer(ctx)
	if !ok {
		return tx.TefINTERNAL
	}
	err := iss.CreateAsset(ctx.View, ctx.Signers, c.Payer, c.Asset, c.MintAuthority, c.Decimals, ctx.Config.DepositPerByte)
	return token.ResultOf(err)
}

// OpenBalance opens the associated balance of Owner for Asset. Opening an
// existing balance succeeds without change. Owner must be a wallet key:
// balances of derived addresses are opened by the program owning them.
type OpenBalance struct {
	Payer   types.Address `json:"payer"`
	Owner   types.Address `json:"owner"`
	Asset   types.Address `json:"asset"`
	Balance types.Address `json:"balance"`
}

// NewOpenBalance fills in the derived balance address.
func NewOpenBalance(payer, owner, asset types.Address) (*OpenBalance, error) {
	k, err := keylet.AssociatedBalance(owner, asset)
	if err != nil {
		return nil, err
	}
	return &OpenBalance{Payer: payer, Owner: owner, Asset: asset, Balance: k.Address()}, nil
}

func (o *OpenBalance) TxType() tx.Type {
	return tx.TypeOpenBalance
}

func (o *OpenBalance) Validate() error {
	return tx.RequireNonZero(o.Payer, o.Owner, o.Asset, o.Balance)
}

func (o *OpenBalance) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		{Address: o.Payer, Signer: true, Writable: true},
		{Address: o.Owner},
		{Address: o.Asset},
		{Address: o.Balance, Writable: true},
	}
}

func (o *OpenBalance) Apply(ctx *tx.ApplyContext) tx.Result {
	if token.ProgramOwned(o.Owner) {
		return token.ResultOf(token.NewError(token.ErrProgramOwned, o.Owner.String()))
	}
	addr, _, err := ctx.Transfer.OpenAssociatedBalance(ctx.View, ctx.Signers, o.Payer, o.Owner, o.Asset, ctx.Config.DepositPerByte)
	if err != nil {
		return token.ResultOf(err)
	}
	if addr != o.Balance {
		return tx.TefBAD_DERIVATION
	}
	return tx.TesSUCCESS
}

// MintTo issues new units into a balance.
type MintTo struct {
	Authority   types.Address `json:"authority"`
	Asset       types.Address `json:"asset"`
	Destination types.Address `json:"destination"`
	Amount      uint64        `json:"amount"`
}

func (m *MintTo) TxType() tx.Type {
	return tx.TypeMintTo
}

func (m *MintTo) Validate() error {
	if m.Amount == 0 {
		return tx.ValidationError(tx.TemINVALID_AMOUNT, "amount must be greater than zero")
	}
	return tx.RequireNonZero(m.Authority, m.Asset, m.Destination)
}

func (m *MintTo) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{
		{Address: m.Authority, Signer: true, Writable: true},
		{Address: m.Asset, Writable: true},
		{Address: m.Destination, Writable: true},
	}
}

func (m *MintTo) Apply(ctx *tx.ApplyContext) tx.Result {
	iss, ok := issuer(ctx)
	if !ok {
		return tx.TefINTERNAL
	}
	return token.ResultOf(iss.MintTo(ctx.View, ctx.Signers, m.Asset, m.Destination, m.Authority, m.Amount))
}

// Fund credits native units to a wallet out of thin air. Only standalone
// engines accept it.
type Fund struct {
	Destination types.Address `json:"destination"`
	Amount      uint64        `json:"amount"`
}

func (f *Fund) TxType() tx.Type {
	return tx.TypeFund
}

func (f *Fund) Validate() error {
	if f.Amount == 0 {
		return tx.ValidationError(tx.TemINVALID_AMOUNT, "amount must be greater than zero")
	}
	return tx.RequireNonZero(f.Destination)
}

func (f *Fund) Accounts() []tx.AccountMeta {
	return []tx.AccountMeta{{Address: f.Destination, Writable: true}}
}

func (f *Fund) Apply(ctx *tx.ApplyContext) tx.Result {
	if !ctx.Config.Standalone {
		return tx.TemDISABLED
	}
	return tx.ResultFromError(sle.CreditWallet(ctx.View, f.Destination, f.Amount))
}
