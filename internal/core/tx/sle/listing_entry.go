package sle

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	crypto "github.com/LeJamon/goListingd/internal/crypto/common"
	"github.com/LeJamon/goListingd/internal/types"
)

// ListingSize is the encoded size of a listing record:
// discriminator(8) + seller(32) + sell asset(32) + buy asset(32) +
// price(8) + remaining(8) + listing id(8) + bump(1).
const ListingSize = 8 + 32 + 32 + 32 + 8 + 8 + 8 + 1

// ListingDiscriminator tags listing payloads. It is the first eight bytes of
// sha256("account:Listing").
var ListingDiscriminator = discriminator("Listing")

var (
	ErrBadDiscriminator = errors.New("listing discriminator mismatch")
	ErrListingSize      = errors.New("invalid listing record size")
	ErrRemainingUnder   = errors.New("remaining amount underflow")
)

func discriminator(name string) [8]byte {
	h := crypto.Sha256([]byte("account:" + name))
	var d [8]byte
	copy(d[:], h[:8])
	return d
}

// ListingData is a marketplace listing record.
type ListingData struct {
	Seller          types.Address `json:"seller"`
	SellAsset       types.Address `json:"sell_asset"`
	BuyAsset        types.Address `json:"buy_asset"`
	PricePerUnit    uint64        `json:"price_per_unit"`
	RemainingAmount uint64        `json:"remaining_amount"`
	ListingID       uint64        `json:"listing_id"`
	Bump            uint8         `json:"bump"`
}

// IsActive reports whether units remain for purchase.
func (l *ListingData) IsActive() bool {
	return l.RemainingAmount > 0
}

// Decrement removes n units from the remaining amount. It never clamps.
func (l *ListingData) Decrement(n uint64) error {
	if n > l.RemainingAmount {
		return fmt.Errorf("%w: remaining %d, requested %d", ErrRemainingUnder, l.RemainingAmount, n)
	}
	l.RemainingAmount -= n
	return nil
}

// Encode serializes the listing into its fixed little-endian layout.
func (l *ListingData) Encode() []byte {
	out := make([]byte, ListingSize)
	copy(out[0:8], ListingDiscriminator[:])
	copy(out[8:40], l.Seller[:])
	copy(out[40:72], l.SellAsset[:])
	copy(out[72:104], l.BuyAsset[:])
	binary.LittleEndian.PutUint64(out[104:112], l.PricePerUnit)
	binary.LittleEndian.PutUint64(out[112:120], l.RemainingAmount)
	binary.LittleEndian.PutUint64(out[120:128], l.ListingID)
	out[128] = l.Bump
	return out
}

// ParseListing decodes a listing payload.
func ParseListing(data []byte) (*ListingData, error) {
	if len(data) != ListingSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrListingSize, len(data))
	}
	if !bytes.Equal(data[0:8], ListingDiscriminator[:]) {
		return nil, ErrBadDiscriminator
	}

	l := &ListingData{}
	copy(l.Seller[:], data[8:40])
	copy(l.SellAsset[:], data[40:72])
	copy(l.BuyAsset[:], data[72:104])
	l.PricePerUnit = binary.LittleEndian.Uint64(data[104:112])
	l.RemainingAmount = binary.LittleEndian.Uint64(data[112:120])
	l.ListingID = binary.LittleEndian.Uint64(data[120:128])
	l.Bump = data[128]
	return l, nil
}
