// Package token is the asset service: it owns asset definitions and the
// balances that hold them. The marketplace never edits a balance directly; it
// asks this service to move funds with an authority that signed.
package token

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goListingd/internal/core/ledger/entry"
	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/types"
)

// Service implements tx.AssetTransfer.
type Service struct {
	log logging.Logger
}

var _ tx.AssetTransfer = (*Service)(nil)

// NewService creates the asset service.
func NewService(log logging.Logger) *Service {
	if log == nil {
		log = logging.Disabled
	}
	return &Service{log: log}
}

func loadBalance(view sle.LedgerView, addr types.Address) (*sle.Envelope, *sle.BalanceData, error) {
	env, bal, err := sle.ReadBalance(view, addr)
	if errors.Is(err, sle.ErrEntryNotFound) || errors.Is(err, sle.ErrWrongEntryType) {
		return nil, nil, NewError(ErrNoEntry, "balance "+addr.String())
	}
	return env, bal, err
}

func loadAsset(view sle.LedgerView, addr types.Address) (*sle.Envelope, *sle.AssetData, error) {
	env, asset, err := sle.ReadAsset(view, addr)
	if errors.Is(err, sle.ErrEntryNotFound) || errors.Is(err, sle.ErrWrongEntryType) {
		return nil, nil, NewError(ErrNoEntry, "asset "+addr.String())
	}
	return env, asset, err
}

// payDeposit moves the storage deposit for size bytes out of payer's wallet.
func payDeposit(view sle.LedgerView, payer types.Address, size int, perByte uint64) (uint64, error) {
	deposit := sle.MinimumDeposit(size, perByte)
	if err := sle.DebitWallet(view, payer, deposit); err != nil {
		if errors.Is(err, sle.ErrLamportsShort) {
			return 0, NewError(ErrInsufficientDeposit, fmt.Sprintf("%s needs %d", payer, deposit))
		}
		return 0, err
	}
	return deposit, nil
}

// CreateAsset defines a new asset at the address asset. Both payer and asset
// must sign.
func (s *Service) CreateAsset(view sle.LedgerView, signers tx.SignerSet, payer, asset, authority types.Address, decimals uint8, perByte uint64) error {
	if !signers.IsSigner(payer) {
		return NewError(ErrMissingAuthority, "payer "+payer.String())
	}
	if !signers.IsSigner(asset) {
		return NewError(ErrMissingAuthority, "asset "+asset.String())
	}
	k := keylet.Asset(asset)
	exists, err := view.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return NewError(ErrAlreadyExists, "asset "+asset.String())
	}

	deposit, err := payDeposit(view, payer, sle.AssetSize, perByte)
	if err != nil {
		return err
	}
	data := &sle.AssetData{
		MintAuthority:    authority,
		Decimals:         decimals,
		HasMintAuthority: !authority.IsZero(),
	}
	env := &sle.Envelope{Type: entry.TypeAsset, Lamports: deposit, Data: data.Encode()}
	if err := view.Insert(k, env.Encode()); err != nil {
		return err
	}
	s.log.Debugf("Created asset %s with %d decimals", asset, decimals)
	return nil
}

// OpenAssociatedBalance implements tx.AssetTransfer.
func (s *Service) OpenAssociatedBalance(view sle.LedgerView, signers tx.SignerSet, payer, owner, asset types.Address, perByte uint64) (types.Address, bool, error) {
	k, err := keylet.AssociatedBalance(owner, asset)
	if err != nil {
		return types.Address{}, false, NewError(ErrBadAssociation, err.Error())
	}
	addr := k.Address()

	raw, err := view.Read(k)
	if err != nil {
		return addr, false, err
	}
	if raw != nil {
		_, bal, err := loadBalance(view, addr)
		if err != nil {
			return addr, false, err
		}
		if bal.Owner != owner || bal.Asset != asset {
			return addr, false, NewError(ErrBadAssociation, addr.String())
		}
		return addr, false, nil
	}

	if !signers.IsSigner(payer) {
		return addr, false, NewError(ErrMissingAuthority, "payer "+payer.String())
	}
	if _, _, err := loadAsset(view, asset); err != nil {
		return addr, false, err
	}

	deposit, err := payDeposit(view, payer, sle.BalanceSize, perByte)
	if err != nil {
		return addr, false, err
	}
	data := &sle.BalanceData{Asset: asset, Owner: owner}
	env := &sle.Envelope{Type: entry.TypeBalance, Lamports: deposit, Data: data.Encode()}
	if err := view.Insert(k, env.Encode()); err != nil {
		return addr, false, err
	}
	return addr, true, nil
}

// Transfer implements tx.AssetTransfer.
func (s *Service) Transfer(view sle.LedgerView, signers tx.SignerSet, from, to, authority types.Address, amount uint64) error {
	fromEnv, src, err := loadBalance(view, from)
	if err != nil {
		return err
	}
	toEnv, dst, err := loadBalance(view, to)
	if err != nil {
		return err
	}
	if src.Asset != dst.Asset {
		return NewError(ErrAssetMismatch, fmt.Sprintf("%s -> %s", src.Asset, dst.Asset))
	}
	if src.Owner != authority {
		return NewError(ErrOwnerMismatch, from.String())
	}
	if !signers.IsSigner(authority) {
		return NewError(ErrMissingAuthority, authority.String())
	}
	if src.Amount < amount {
		return NewError(ErrInsufficientFunds, fmt.Sprintf("%s holds %d, need %d", from, src.Amount, amount))
	}
	if from == to || amount == 0 {
		return nil
	}

	if err := src.Sub(amount); err != nil {
		return NewError(ErrInsufficientFunds, err.Error())
	}
	if err := dst.Add(amount); err != nil {
		return NewError(ErrOverflow, err.Error())
	}
	if err := sle.WriteEntry(view, keylet.Balance(from), fromEnv, src.Encode()); err != nil {
		return err
	}
	return sle.WriteEntry(view, keylet.Balance(to), toEnv, dst.Encode())
}

// CloseBalance implements tx.AssetTransfer.
func (s *Service) CloseBalance(view sle.LedgerView, signers tx.SignerSet, balance, destination, authority types.Address) error {
	env, bal, err := loadBalance(view, balance)
	if err != nil {
		return err
	}
	if bal.Owner != authority {
		return NewError(ErrOwnerMismatch, balance.String())
	}
	if !signers.IsSigner(authority) {
		return NewError(ErrMissingAuthority, authority.String())
	}
	if bal.Amount != 0 {
		return NewError(ErrNonZeroBalance, fmt.Sprintf("%s holds %d", balance, bal.Amount))
	}
	if err := view.Erase(keylet.Balance(balance)); err != nil {
		return err
	}
	return sle.CreditWallet(view, destination, env.Lamports)
}

// ProgramOwned reports whether owner is a derived address. Only the program
// that derived it can sign for it, so nothing outside that program may open
// or fund its balances.
func ProgramOwned(owner types.Address) bool {
	return !keylet.IsOnCurve(owner)
}

// MintTo issues amount new units of asset into the balance dest. Balances of
// derived owners, such as listing custody, cannot be minted into.
func (s *Service) MintTo(view sle.LedgerView, signers tx.SignerSet, asset, dest, authority types.Address, amount uint64) error {
	assetEnv, def, err := loadAsset(view, asset)
	if err != nil {
		return err
	}
	if !def.HasMintAuthority || def.MintAuthority != authority {
		return NewError(ErrNoMintAuthority, asset.String())
	}
	if !signers.IsSigner(authority) {
		return NewError(ErrMissingAuthority, authority.String())
	}
	destEnv, bal, err := loadBalance(view, dest)
	if err != nil {
		return err
	}
	if bal.Asset != asset {
		return NewError(ErrAssetMismatch, dest.String())
	}
	if ProgramOwned(bal.Owner) {
		return NewError(ErrProgramOwned, dest.String())
	}
	if def.Supply+amount < def.Supply {
		return NewError(ErrOverflow, "supply of "+asset.String())
	}
	if err := bal.Add(amount); err != nil {
		return NewError(ErrOverflow, err.Error())
	}
	def.Supply += amount

	if err := sle.WriteEntry(view, keylet.Asset(asset), assetEnv, def.Encode()); err != nil {
		return err
	}
	return sle.WriteEntry(view, keylet.Balance(dest), destEnv, bal.Encode())
}
