package keylet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/LeJamon/goListingd/internal/core/ledger/entry"
	crypto "github.com/LeJamon/goListingd/internal/crypto/common"
	"github.com/LeJamon/goListingd/internal/types"
)

const (
	// MaxSeeds is the maximum number of seeds accepted by a derivation.
	MaxSeeds = 16
	// MaxSeedLength is the maximum length of a single seed.
	MaxSeedLength = 32

	// ListingSeed is the fixed prefix of every listing derivation.
	ListingSeed = "listing"

	derivedAddressMarker = "ProgramDerivedAddress"
)

var (
	ErrMaxSeedLengthExceeded = errors.New("derivation seeds exceed the maximum length")
	ErrInvalidSeeds          = errors.New("derivation produced a point on the ed25519 curve")
	ErrNoViableBump          = errors.New("unable to find a viable bump for derivation")
)

// Keylet represents an addressable location in the ledger state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type entry.Type
	Key  [32]byte
}

// Address returns the key as a ledger address.
func (k Keylet) Address() types.Address {
	return types.Address(k.Key)
}

func (k Keylet) String() string {
	return fmt.Sprintf("%s(%s)", k.Type, k.Address())
}

// IsOnCurve reports whether b is the compressed encoding of an ed25519 point.
// Addresses that are on the curve may have a private key; derived addresses
// must not.
func IsOnCurve(b [32]byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b[:])
	return err == nil
}

// CreateProgramAddress hashes seeds under programID. The seeds must already
// include the bump byte. The resulting address must be off the curve so that
// only the owning program can sign for it.
func CreateProgramAddress(seeds [][]byte, programID types.Address) (types.Address, error) {
	if len(seeds) > MaxSeeds {
		return types.Address{}, ErrMaxSeedLengthExceeded
	}
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return types.Address{}, ErrMaxSeedLengthExceeded
		}
	}

	parts := make([][]byte, 0, len(seeds)+2)
	parts = append(parts, seeds...)
	parts = append(parts, programID[:], []byte(derivedAddressMarker))

	hash := crypto.Sha256(parts...)
	if IsOnCurve(hash) {
		return types.Address{}, ErrInvalidSeeds
	}
	return types.Address(hash), nil
}

// FindProgramAddress searches bumps from 255 down and returns the first
// off-curve address together with its bump.
func FindProgramAddress(seeds [][]byte, programID types.Address) (types.Address, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrInvalidSeeds) {
			return types.Address{}, 0, err
		}
	}
	return types.Address{}, 0, ErrNoViableBump
}

// ListingSeeds returns ["listing", seller, listing_id LE].
func ListingSeeds(seller types.Address, listingID uint64) [][]byte {
	id := make([]byte, 8)
	binary.LittleEndian.PutUint64(id, listingID)
	return [][]byte{[]byte(ListingSeed), seller.Bytes(), id}
}

// ListingSignerSeeds appends the bump to the listing seeds, producing the
// complete seed set the program signs with.
func ListingSignerSeeds(seller types.Address, listingID uint64, bump uint8) [][]byte {
	return append(ListingSeeds(seller, listingID), []byte{bump})
}

// Listing returns the keylet and bump of the listing owned by seller.
func Listing(programID, seller types.Address, listingID uint64) (Keylet, uint8, error) {
	addr, bump, err := FindProgramAddress(ListingSeeds(seller, listingID), programID)
	if err != nil {
		return Keylet{}, 0, err
	}
	return Keylet{Type: entry.TypeListing, Key: addr}, bump, nil
}

// ListingWithBump re-derives a listing keylet from a stored bump.
func ListingWithBump(programID, seller types.Address, listingID uint64, bump uint8) (Keylet, error) {
	addr, err := CreateProgramAddress(ListingSignerSeeds(seller, listingID, bump), programID)
	if err != nil {
		return Keylet{}, err
	}
	return Keylet{Type: entry.TypeListing, Key: addr}, nil
}

// AssociatedBalance returns the canonical balance of asset held by owner.
// Owners may themselves be derived addresses.
func AssociatedBalance(owner, asset types.Address) (Keylet, error) {
	seeds := [][]byte{owner.Bytes(), types.TokenProgramID.Bytes(), asset.Bytes()}
	addr, _, err := FindProgramAddress(seeds, types.AssociatedBalanceProgramID)
	if err != nil {
		return Keylet{}, err
	}
	return Keylet{Type: entry.TypeBalance, Key: addr}, nil
}

// Wallet returns the keylet of the wallet entry stored at addr.
func Wallet(addr types.Address) Keylet {
	return Keylet{Type: entry.TypeWallet, Key: addr}
}

// Asset returns the keylet of the asset definition stored at addr.
func Asset(addr types.Address) Keylet {
	return Keylet{Type: entry.TypeAsset, Key: addr}
}

// Balance returns the keylet of the balance stored at addr.
func Balance(addr types.Address) Keylet {
	return Keylet{Type: entry.TypeBalance, Key: addr}
}

// ListingAt returns the keylet of a listing record already known by address.
func ListingAt(addr types.Address) Keylet {
	return Keylet{Type: entry.TypeListing, Key: addr}
}

// At returns a keylet of unknown type. Used when only the key is known.
func At(addr types.Address) Keylet {
	return Keylet{Key: addr}
}
