// Package genesis builds the initial ledger state: native funds for a fixed
// set of wallets, written once when the state is empty.
package genesis

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goListingd/internal/core/ledger/entry"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/types"
)

var (
	ErrZeroAddress      = errors.New("genesis account has no address")
	ErrDuplicateAccount = errors.New("genesis account listed twice")
)

// Account is a wallet funded at genesis.
type Account struct {
	Address  types.Address `mapstructure:"address" json:"address"`
	Lamports uint64        `mapstructure:"lamports" json:"lamports"`
}

// Config lists the genesis wallets.
type Config struct {
	Accounts []Account
}

// DefaultConfig returns an empty genesis.
func DefaultConfig() Config {
	return Config{}
}

// Create returns the entries of the genesis state.
func Create(cfg Config) ([]tx.StateChange, error) {
	seen := make(map[types.Address]bool, len(cfg.Accounts))
	changes := make([]tx.StateChange, 0, len(cfg.Accounts))
	for _, acct := range cfg.Accounts {
		if acct.Address.IsZero() {
			return nil, ErrZeroAddress
		}
		if seen[acct.Address] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAccount, acct.Address)
		}
		seen[acct.Address] = true
		if acct.Lamports == 0 {
			continue
		}
		env := &sle.Envelope{Type: entry.TypeWallet, Lamports: acct.Lamports}
		changes = append(changes, tx.StateChange{Key: acct.Address, Data: env.Encode()})
	}
	return changes, nil
}
