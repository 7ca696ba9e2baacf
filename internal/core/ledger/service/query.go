package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goListingd/internal/core/ledger/entry"
	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/tx/listing"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb"
	"github.com/LeJamon/goListingd/internal/types"
)

func notFound(err error, what types.Address) error {
	if errors.Is(err, sle.ErrEntryNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

// ListingInfo returns the listing at addr with its status and custody.
func (s *Service) ListingInfo(addr types.Address) (*listing.Info, error) {
	info, err := listing.Load(s.state, addr)
	if err != nil {
		return nil, notFound(err, addr)
	}
	return info, nil
}

// ListingBySeller looks a listing up by its identity.
func (s *Service) ListingBySeller(seller types.Address, listingID uint64) (*listing.Info, error) {
	d, err := s.DeriveListing(seller, listingID)
	if err != nil {
		return nil, err
	}
	return s.ListingInfo(d.Listing)
}

// ListingFilter selects listings. Zero fields match everything.
type ListingFilter struct {
	Seller     types.Address
	SellAsset  types.Address
	BuyAsset   types.Address
	ActiveOnly bool

	// Limit caps the page size; Marker resumes after that listing address.
	Limit  int
	Marker types.Address
}

// DefaultListingLimit and MaxListingLimit bound ListingFilter.Limit.
const (
	DefaultListingLimit = 100
	MaxListingLimit     = 1000
)

func (f ListingFilter) match(l *sle.ListingData) bool {
	switch {
	case !f.Seller.IsZero() && l.Seller != f.Seller:
		return false
	case !f.SellAsset.IsZero() && l.SellAsset != f.SellAsset:
		return false
	case !f.BuyAsset.IsZero() && l.BuyAsset != f.BuyAsset:
		return false
	case f.ActiveOnly && !l.IsActive():
		return false
	}
	return true
}

// ListingPage is one page of Listings.
type ListingPage struct {
	Listings []*listing.Info `json:"listings"`
	// Marker is set when more listings may follow.
	Marker *types.Address `json:"marker,omitempty"`
}

// Listings scans state for listings matching f, in address order.
func (s *Service) Listings(ctx context.Context, f ListingFilter) (*ListingPage, error) {
	limit := f.Limit
	switch {
	case limit <= 0:
		limit = DefaultListingLimit
	case limit > MaxListingLimit:
		limit = MaxListingLimit
	}

	page := &ListingPage{Listings: []*listing.Info{}}
	var scanErr error
	err := s.state.ForEach(func(key [32]byte, data []byte) bool {
		if err := ctx.Err(); err != nil {
			scanErr = err
			return false
		}
		if !f.Marker.IsZero() && bytes.Compare(key[:], f.Marker[:]) <= 0 {
			return true
		}
		if sle.EntryType(data) != entry.TypeListing {
			return true
		}
		env, err := sle.DecodeEnvelope(data)
		if err != nil {
			return true
		}
		l, err := sle.ParseListing(env.Data)
		if err != nil || !f.match(l) {
			return true
		}
		if len(page.Listings) == limit {
			last := page.Listings[limit-1].Address
			page.Marker = &last
			return false
		}
		info, err := listing.Decode(s.state, types.Address(key), data)
		if err != nil {
			scanErr = err
			return false
		}
		page.Listings = append(page.Listings, info)
		return true
	})
	if err == nil {
		err = scanErr
	}
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Derivation is the address set of a listing identity.
type Derivation struct {
	Seller    types.Address `json:"seller"`
	ListingID uint64        `json:"listing_id"`
	Listing   types.Address `json:"listing"`
	Bump      uint8         `json:"bump"`
}

// DeriveListing computes the listing address of (seller, listingID).
func (s *Service) DeriveListing(seller types.Address, listingID uint64) (*Derivation, error) {
	k, bump, err := keylet.Listing(s.config.Engine.ProgramID, seller, listingID)
	if err != nil {
		return nil, err
	}
	return &Derivation{Seller: seller, ListingID: listingID, Listing: k.Address(), Bump: bump}, nil
}

// Custody returns the associated balance address holding a listing's sell
// asset.
func Custody(listingAddr, sellAsset types.Address) (types.Address, error) {
	k, err := keylet.AssociatedBalance(listingAddr, sellAsset)
	if err != nil {
		return types.Address{}, err
	}
	return k.Address(), nil
}

// Quote prices a purchase without applying it.
func (s *Service) Quote(addr types.Address, buyAmount uint64) (*listing.QuoteResult, error) {
	q, err := listing.Quote(s.state, addr, buyAmount)
	if err != nil {
		return nil, notFound(err, addr)
	}
	return q, nil
}

// BalanceInfo is a balance entry.
type BalanceInfo struct {
	Address  types.Address `json:"address"`
	Asset    types.Address `json:"asset"`
	Owner    types.Address `json:"owner"`
	Amount   uint64        `json:"amount"`
	Decimals uint8         `json:"decimals"`
	Deposit  uint64        `json:"deposit"`
}

// Balance returns the balance stored at addr.
func (s *Service) Balance(addr types.Address) (*BalanceInfo, error) {
	env, b, err := sle.ReadBalance(s.state, addr)
	if err != nil {
		return nil, notFound(err, addr)
	}
	info := &BalanceInfo{
		Address: addr,
		Asset:   b.Asset,
		Owner:   b.Owner,
		Amount:  b.Amount,
		Deposit: env.Lamports,
	}
	if _, a, err := sle.ReadAsset(s.state, b.Asset); err == nil {
		info.Decimals = a.Decimals
	}
	return info, nil
}

// AssociatedBalance returns owner's canonical balance of asset.
func (s *Service) AssociatedBalance(owner, asset types.Address) (*BalanceInfo, error) {
	k, err := keylet.AssociatedBalance(owner, asset)
	if err != nil {
		return nil, err
	}
	return s.Balance(k.Address())
}

// AssetInfo is an asset definition.
type AssetInfo struct {
	Address       types.Address  `json:"address"`
	Decimals      uint8          `json:"decimals"`
	Supply        uint64         `json:"supply"`
	MintAuthority *types.Address `json:"mint_authority,omitempty"`
	Deposit       uint64         `json:"deposit"`
}

// Asset returns the asset defined at addr.
func (s *Service) Asset(addr types.Address) (*AssetInfo, error) {
	env, a, err := sle.ReadAsset(s.state, addr)
	if err != nil {
		return nil, notFound(err, addr)
	}
	info := &AssetInfo{
		Address:  addr,
		Decimals: a.Decimals,
		Supply:   a.Supply,
		Deposit:  env.Lamports,
	}
	if a.HasMintAuthority {
		auth := a.MintAuthority
		info.MintAuthority = &auth
	}
	return info, nil
}

// Wallet returns the native balance of addr. A missing wallet holds nothing.
func (s *Service) Wallet(addr types.Address) (uint64, error) {
	return sle.WalletLamports(s.state, addr)
}

// NextNonce returns the nonce the next envelope addr signs first must carry.
func (s *Service) NextNonce(addr types.Address) (uint64, error) {
	seq, err := sle.WalletSequence(s.state, addr)
	if err != nil {
		return 0, err
	}
	return seq + 1, nil
}

// ListingHistory returns the recorded invocations of a listing.
func (s *Service) ListingHistory(ctx context.Context, addr types.Address, opts relationaldb.PageOptions) ([]relationaldb.Invocation, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.ByListing(ctx, addr, opts)
}

// SignerHistory returns the recorded invocations signed by addr.
func (s *Service) SignerHistory(ctx context.Context, addr types.Address, opts relationaldb.PageOptions) ([]relationaldb.Invocation, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.BySigner(ctx, addr, opts)
}

// GetInvocation returns a recorded invocation by hash.
func (s *Service) GetInvocation(ctx context.Context, hash relationaldb.Hash) (*relationaldb.Invocation, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.Get(ctx, hash)
}

// VerifyCustody checks that a listing's custody holds its remaining amount.
func (s *Service) VerifyCustody(addr types.Address) error {
	return notFound(listing.VerifyCustody(s.state, addr), addr)
}
