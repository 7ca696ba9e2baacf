package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/core/ledger/entry"
	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/types"
)

type mapView map[[32]byte][]byte

func (m mapView) Read(k keylet.Keylet) ([]byte, error) { return m[k.Key], nil }

func (m mapView) Exists(k keylet.Keylet) (bool, error) {
	_, ok := m[k.Key]
	return ok, nil
}

func (m mapView) Insert(k keylet.Keylet, data []byte) error { m[k.Key] = data; return nil }
func (m mapView) Update(k keylet.Keylet, data []byte) error { m[k.Key] = data; return nil }
func (m mapView) Erase(k keylet.Keylet) error               { delete(m, k.Key); return nil }

func put(m mapView, k keylet.Keylet, typ entry.Type, data []byte) {
	env := &sle.Envelope{Type: typ, Data: data}
	m[k.Key] = env.Encode()
}

func TestQuoteRequiresSellAsset(t *testing.T) {
	view := mapView{}
	seller, sell, buy := types.Address{7}, types.Address{8}, types.Address{9}

	lk, bump, err := keylet.Listing(types.DefaultMarketplaceID, seller, 1)
	require.NoError(t, err)
	l := &sle.ListingData{
		Seller:          seller,
		SellAsset:       sell,
		BuyAsset:        buy,
		PricePerUnit:    250,
		RemainingAmount: 1000,
		ListingID:       1,
		Bump:            bump,
	}
	put(view, lk, entry.TypeListing, l.Encode())

	// without the decimals the price cannot be scaled
	_, err = Quote(view, lk.Address(), 400)
	require.ErrorIs(t, err, ErrSellAsset)
	_, err = Load(view, lk.Address())
	require.ErrorIs(t, err, ErrSellAsset)
	require.NotErrorIs(t, err, sle.ErrEntryNotFound)

	def := &sle.AssetData{Decimals: 2}
	put(view, keylet.Asset(sell), entry.TypeAsset, def.Encode())

	q, err := Quote(view, lk.Address(), 400)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), q.TotalCost)
	assert.Equal(t, uint64(600), q.Remaining)

	info, err := Load(view, lk.Address())
	require.NoError(t, err)
	assert.Equal(t, uint8(2), info.SellDecimals)
	assert.Zero(t, info.CustodyAmount)
}
