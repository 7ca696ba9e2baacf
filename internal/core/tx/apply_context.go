package tx

//go:generate mockgen -destination=txmock/asset_transfer.go -package=txmock github.com/LeJamon/goListingd/internal/core/tx AssetTransfer

import (
	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/types"
)

// SignerSet answers whether an address authorized the current invocation.
type SignerSet interface {
	IsSigner(addr types.Address) bool
}

// AddressSet is a SignerSet backed by a map.
type AddressSet map[types.Address]struct{}

// IsSigner implements SignerSet.
func (s AddressSet) IsSigner(addr types.Address) bool {
	_, ok := s[addr]
	return ok
}

// With returns a copy of s that also contains addr.
func (s AddressSet) With(addr types.Address) AddressSet {
	out := make(AddressSet, len(s)+1)
	for a := range s {
		out[a] = struct{}{}
	}
	out[addr] = struct{}{}
	return out
}

// AssetTransfer is the asset service the marketplace delegates balance
// movements to. It is implemented by the token package.
type AssetTransfer interface {
	// Transfer moves amount units from one balance to another of the same
	// asset. authority must own from and be in signers.
	Transfer(view sle.LedgerView, signers SignerSet, from, to, authority types.Address, amount uint64) error

	// CloseBalance deletes an empty balance and pays its deposit to
	// destination.
	CloseBalance(view sle.LedgerView, signers SignerSet, balance, destination, authority types.Address) error

	// OpenAssociatedBalance creates the canonical balance of owner for asset,
	// funding its deposit from payer. It reports whether the balance was
	// created; an existing balance is returned as-is.
	OpenAssociatedBalance(view sle.LedgerView, signers SignerSet, payer, owner, asset types.Address, depositPerByte uint64) (types.Address, bool, error)
}

// ApplyContext provides everything an instruction needs while it runs.
type ApplyContext struct {
	// View is the sandboxed ledger view
	View sle.LedgerView

	// Signers holds the verified signatures of the envelope
	Signers AddressSet

	// Config holds engine configuration
	Config EngineConfig

	// TxHash identifies the invocation
	TxHash [32]byte

	// Transfer performs asset movements
	Transfer AssetTransfer

	Log logging.Logger
}

// IsSigner reports whether addr signed the invocation.
func (c *ApplyContext) IsSigner(addr types.Address) bool {
	return c.Signers.IsSigner(addr)
}

// MinimumDeposit returns the storage deposit for a payload of size bytes.
func (c *ApplyContext) MinimumDeposit(size int) uint64 {
	return sle.MinimumDeposit(size, c.Config.DepositPerByte)
}

// SignWithSeeds lets the marketplace act for an address it derived. The
// returned set extends the envelope signers with that address.
func (c *ApplyContext) SignWithSeeds(seeds [][]byte) (AddressSet, types.Address, error) {
	addr, err := keylet.CreateProgramAddress(seeds, c.Config.ProgramID)
	if err != nil {
		return nil, types.Address{}, err
	}
	return c.Signers.With(addr), addr, nil
}
