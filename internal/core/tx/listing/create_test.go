package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/core/ledger/entry"
	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/token"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/types"
)

func TestCreateRequiresEmptyCustody(t *testing.T) {
	view := mapView{}
	seller, sell, buy := types.Address{7}, types.Address{8}, types.Address{9}
	require.NoError(t, sle.CreditWallet(view, seller, 1_000_000_000))
	put(view, keylet.Asset(sell), entry.TypeAsset, (&sle.AssetData{}).Encode())
	put(view, keylet.Asset(buy), entry.TypeAsset, (&sle.AssetData{Decimals: 2}).Encode())

	bk, err := keylet.AssociatedBalance(seller, sell)
	require.NoError(t, err)
	put(view, bk, entry.TypeBalance, (&sle.BalanceData{Asset: sell, Owner: seller, Amount: 500}).Encode())

	c, err := NewCreateListing(types.DefaultMarketplaceID, seller, sell, buy, bk.Address(), 10, 500, 1)
	require.NoError(t, err)

	// custody that already holds units would break custody == remaining
	custody := keylet.Balance(c.CustodyBalance)
	put(view, custody, entry.TypeBalance, (&sle.BalanceData{Asset: sell, Owner: c.Listing, Amount: 7}).Encode())

	ctx := &tx.ApplyContext{
		View:     view,
		Signers:  tx.AddressSet{seller: {}},
		Config:   tx.DefaultEngineConfig(),
		Transfer: token.NewService(nil),
		Log:      logging.Disabled,
	}
	require.Equal(t, tx.TecHAS_BALANCE, c.Apply(ctx))

	// a balance someone else owns is not the listing's custody
	put(view, custody, entry.TypeBalance, (&sle.BalanceData{Asset: sell, Owner: seller}).Encode())
	require.Equal(t, tx.TefBAD_DERIVATION, c.Apply(ctx))

	// an empty one is adopted
	put(view, custody, entry.TypeBalance, (&sle.BalanceData{Asset: sell, Owner: c.Listing}).Encode())
	require.Equal(t, tx.TesSUCCESS, c.Apply(ctx))
	require.NoError(t, VerifyCustody(view, c.Listing))

	info, err := Load(view, c.Listing)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), info.CustodyAmount)
}
