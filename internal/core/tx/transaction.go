package tx

import (
	"errors"

	"github.com/LeJamon/goListingd/internal/types"
)

// Common errors
var (
	ErrMissingRequiredField   = errors.New("temMALFORMED: missing required field")
	ErrInvalidTransactionType = errors.New("temUNKNOWN_TYPE: invalid instruction type")
	ErrNoAccounts             = errors.New("temMALFORMED: instruction declares no accounts")
)

// AccountMeta declares one account an instruction touches.
type AccountMeta struct {
	Address  types.Address
	Signer   bool
	Writable bool
}

// Transaction is the interface every instruction implements
type Transaction interface {
	// TxType returns the instruction type
	TxType() Type

	// Validate performs stateless checks. Errors are prefixed with the
	// tem code they map to.
	Validate() error

	// Accounts lists every account the instruction reads or writes. The
	// runtime locks exactly this set and refuses access to anything else.
	Accounts() []AccountMeta
}

// Appliable is implemented by instructions that can apply themselves to ledger state.
type Appliable interface {
	Apply(ctx *ApplyContext) Result
}

// Signers returns the addresses that must sign t.
func Signers(t Transaction) []types.Address {
	var out []types.Address
	seen := make(map[types.Address]bool)
	for _, a := range t.Accounts() {
		if a.Signer && !seen[a.Address] {
			seen[a.Address] = true
			out = append(out, a.Address)
		}
	}
	return out
}

// AccessSets splits the declared addresses of t into those it may write and
// those it only reads, in declaration order. An address declared both ways
// is written.
func AccessSets(t Transaction) (writes, reads []types.Address) {
	metas := t.Accounts()
	writable := make(map[types.Address]bool, len(metas))
	for _, a := range metas {
		writable[a.Address] = writable[a.Address] || a.Writable
	}
	seen := make(map[types.Address]bool, len(metas))
	for _, a := range metas {
		if seen[a.Address] {
			continue
		}
		seen[a.Address] = true
		if writable[a.Address] {
			writes = append(writes, a.Address)
		} else {
			reads = append(reads, a.Address)
		}
	}
	return writes, reads
}

// RequireNonZero returns ErrMissingRequiredField if any address is zero.
func RequireNonZero(addrs ...types.Address) error {
	for _, a := range addrs {
		if a.IsZero() {
			return ErrMissingRequiredField
		}
	}
	return nil
}
