package listing

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/types"
)

// Status is the lifecycle state of a listing.
type Status string

const (
	StatusActive   Status = "active"
	StatusDepleted Status = "depleted"
	StatusClosed   Status = "closed"
)

var (
	ErrCustodyMismatch = errors.New("custody balance does not match remaining amount")
	ErrSellAsset       = errors.New("sell asset definition unreadable")
)

// Info is a listing together with its custody state.
type Info struct {
	Address       types.Address   `json:"address"`
	Listing       sle.ListingData `json:"listing"`
	Status        Status          `json:"status"`
	Deposit       uint64          `json:"deposit"`
	Custody       types.Address   `json:"custody_balance"`
	CustodyAmount uint64          `json:"custody_amount"`
	SellDecimals  uint8           `json:"sell_decimals"`
}

// StatusOf reports the state of the listing at addr. An absent record is
// Closed.
func StatusOf(view sle.LedgerView, addr types.Address) (Status, error) {
	_, l, err := sle.ReadListing(view, keylet.ListingAt(addr))
	if errors.Is(err, sle.ErrEntryNotFound) {
		return StatusClosed, nil
	}
	if err != nil {
		return "", err
	}
	return statusOf(l), nil
}

func statusOf(l *sle.ListingData) Status {
	if l.IsActive() {
		return StatusActive
	}
	return StatusDepleted
}

// Load reads the listing at addr with its custody balance.
func Load(view sle.LedgerView, addr types.Address) (*Info, error) {
	env, l, err := sle.ReadListing(view, keylet.ListingAt(addr))
	if err != nil {
		return nil, err
	}
	return infoFor(view, addr, env, l)
}

// Decode builds an Info from a stored listing entry, as found while
// iterating state.
func Decode(view sle.LedgerView, addr types.Address, raw []byte) (*Info, error) {
	env, err := sle.DecodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	l, err := sle.ParseListing(env.Data)
	if err != nil {
		return nil, err
	}
	return infoFor(view, addr, env, l)
}

func infoFor(view sle.LedgerView, addr types.Address, env *sle.Envelope, l *sle.ListingData) (*Info, error) {
	info := &Info{
		Address: addr,
		Listing: *l,
		Status:  statusOf(l),
		Deposit: env.Lamports,
	}
	ck, err := keylet.AssociatedBalance(addr, l.SellAsset)
	if err != nil {
		return nil, err
	}
	info.Custody = ck.Address()
	_, bal, err := sle.ReadBalance(view, info.Custody)
	switch {
	case err == nil:
		info.CustodyAmount = bal.Amount
	case !errors.Is(err, sle.ErrEntryNotFound):
		return nil, err
	}
	// the cause is not wrapped: a missing asset is not a missing listing
	_, def, err := sle.ReadAsset(view, l.SellAsset)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %v", ErrSellAsset, addr, err)
	}
	info.SellDecimals = def.Decimals
	return info, nil
}

// VerifyCustody checks that the custody balance of the listing at addr holds
// exactly its remaining amount.
func VerifyCustody(view sle.LedgerView, addr types.Address) error {
	info, err := Load(view, addr)
	if err != nil {
		return err
	}
	if info.CustodyAmount != info.Listing.RemainingAmount {
		return fmt.Errorf("%w: listing %s remaining %d, custody %d",
			ErrCustodyMismatch, addr, info.Listing.RemainingAmount, info.CustodyAmount)
	}
	return nil
}

// QuoteResult previews a purchase.
type QuoteResult struct {
	Listing   types.Address `json:"listing"`
	BuyAmount uint64        `json:"buy_amount"`
	TotalCost uint64        `json:"total_cost"`
	Remaining uint64        `json:"remaining_after"`
}

var (
	ErrNotActive         = errors.New("listing not active")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Quote prices buyAmount units of the listing at addr without changing state.
func Quote(view sle.LedgerView, addr types.Address, buyAmount uint64) (*QuoteResult, error) {
	info, err := Load(view, addr)
	if err != nil {
		return nil, err
	}
	if info.Status != StatusActive {
		return nil, ErrNotActive
	}
	if buyAmount > info.Listing.RemainingAmount {
		return nil, fmt.Errorf("%w: %d requested, %d remaining", ErrInsufficientStock, buyAmount, info.Listing.RemainingAmount)
	}
	cost, err := TotalCost(info.Listing.PricePerUnit, buyAmount, info.SellDecimals)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{
		Listing:   addr,
		BuyAmount: buyAmount,
		TotalCost: cost,
		Remaining: info.Listing.RemainingAmount - buyAmount,
	}, nil
}
