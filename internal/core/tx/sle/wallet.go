package sle

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/LeJamon/goListingd/internal/core/ledger/entry"
	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/types"
)

// WalletLamports returns the spendable native balance of addr. A missing
// wallet holds nothing.
func WalletLamports(view LedgerView, addr types.Address) (uint64, error) {
	raw, err := view.Read(keylet.Wallet(addr))
	if err != nil || raw == nil {
		return 0, err
	}
	env, err := DecodeEnvelope(raw)
	if err != nil {
		return 0, err
	}
	return env.Lamports, nil
}

// DebitWallet pays amount out of the wallet at addr.
func DebitWallet(view LedgerView, addr types.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	k := keylet.Wallet(addr)
	raw, err := view.Read(k)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrLamportsShort
	}
	env, err := DecodeEnvelope(raw)
	if err != nil {
		return err
	}
	if err := env.Debit(amount); err != nil {
		return err
	}
	return view.Update(k, env.Encode())
}

// CreditWallet pays amount into the wallet at addr, creating it if needed.
func CreditWallet(view LedgerView, addr types.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	k := keylet.Wallet(addr)
	raw, err := view.Read(k)
	if err != nil {
		return err
	}
	if raw == nil {
		env := &Envelope{Type: entry.TypeWallet, Lamports: amount}
		return view.Insert(k, env.Encode())
	}
	env, err := DecodeEnvelope(raw)
	if err != nil {
		return err
	}
	if err := env.Credit(amount); err != nil {
		return err
	}
	return view.Update(k, env.Encode())
}

// A wallet's payload is its sequence: the last nonce it used as the first
// signer of an applied invocation. Wallets without one start at zero.
const walletSequenceSize = 8

var (
	ErrPastSequence   = errors.New("nonce already used")
	ErrFutureSequence = errors.New("nonce ahead of sequence")
)

func walletSequence(env *Envelope) uint64 {
	if len(env.Data) < walletSequenceSize {
		return 0
	}
	return binary.LittleEndian.Uint64(env.Data[:walletSequenceSize])
}

// WalletSequence returns the sequence of addr. The next invocation addr
// signs first must carry nonce WalletSequence+1.
func WalletSequence(view Reader, addr types.Address) (uint64, error) {
	raw, err := view.Read(keylet.Wallet(addr))
	if err != nil || raw == nil {
		return 0, err
	}
	env, err := DecodeEnvelope(raw)
	if err != nil {
		return 0, err
	}
	return walletSequence(env), nil
}

// AdvanceSequence requires nonce to follow the sequence of addr and records
// it. A missing wallet is created empty.
func AdvanceSequence(view LedgerView, addr types.Address, nonce uint64) error {
	k := keylet.Wallet(addr)
	raw, err := view.Read(k)
	if err != nil {
		return err
	}
	env := &Envelope{Type: entry.TypeWallet}
	if raw != nil {
		if env, err = DecodeEnvelope(raw); err != nil {
			return err
		}
	}

	seq := walletSequence(env)
	switch {
	case nonce <= seq:
		return fmt.Errorf("%w: %s is at %d, got %d", ErrPastSequence, addr, seq, nonce)
	case nonce != seq+1:
		return fmt.Errorf("%w: %s is at %d, got %d", ErrFutureSequence, addr, seq, nonce)
	}

	env.Data = binary.LittleEndian.AppendUint64(nil, nonce)
	if raw == nil {
		return view.Insert(k, env.Encode())
	}
	return view.Update(k, env.Encode())
}
