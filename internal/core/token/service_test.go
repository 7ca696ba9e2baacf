package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/crypto/algorithms/ed25519"
	"github.com/LeJamon/goListingd/internal/types"
)

type mapView map[[32]byte][]byte

func (m mapView) Read(k keylet.Keylet) ([]byte, error) {
	return m[k.Key], nil
}

func (m mapView) Exists(k keylet.Keylet) (bool, error) {
	_, ok := m[k.Key]
	return ok, nil
}

func (m mapView) Insert(k keylet.Keylet, data []byte) error {
	m[k.Key] = data
	return nil
}

func (m mapView) Update(k keylet.Keylet, data []byte) error {
	m[k.Key] = data
	return nil
}

func (m mapView) Erase(k keylet.Keylet) error {
	delete(m, k.Key)
	return nil
}

// named returns the wallet key derived from s.
func named(s string) types.Address {
	_, addr, err := ed25519.NewED25519Provider().GenerateKeypair([]byte("token-test:" + s))
	if err != nil {
		panic(err)
	}
	return addr
}

type fixture struct {
	view    mapView
	svc     *Service
	signers tx.AddressSet
	asset   types.Address
	mint    types.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		view:  mapView{},
		svc:   NewService(nil),
		asset: named("asset"),
		mint:  named("mint-authority"),
	}
	f.signers = tx.AddressSet{f.asset: {}, f.mint: {}}
	require.NoError(t, sle.CreditWallet(f.view, f.mint, 1_000_000_000))
	require.NoError(t, f.svc.CreateAsset(f.view, f.signers, f.mint, f.asset, f.mint, 6, sle.DefaultDepositPerByte))
	return f
}

func (f *fixture) holder(t *testing.T, owner types.Address, amount uint64) types.Address {
	t.Helper()
	addr, created, err := f.svc.OpenAssociatedBalance(f.view, f.signers, f.mint, owner, f.asset, sle.DefaultDepositPerByte)
	require.NoError(t, err)
	require.True(t, created)
	if amount > 0 {
		require.NoError(t, f.svc.MintTo(f.view, f.signers, f.asset, addr, f.mint, amount))
	}
	return addr
}

func amountOf(t *testing.T, view sle.LedgerView, addr types.Address) uint64 {
	t.Helper()
	_, bal, err := sle.ReadBalance(view, addr)
	require.NoError(t, err)
	return bal.Amount
}

func TestCreateAssetChargesDeposit(t *testing.T) {
	f := newFixture(t)

	env, def, err := sle.ReadAsset(f.view, f.asset)
	require.NoError(t, err)
	assert.Equal(t, sle.MinimumDeposit(sle.AssetSize, sle.DefaultDepositPerByte), env.Lamports)
	assert.Equal(t, uint8(6), def.Decimals)
	assert.True(t, def.HasMintAuthority)

	err = f.svc.CreateAsset(f.view, f.signers, f.mint, f.asset, f.mint, 6, sle.DefaultDepositPerByte)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, tx.TecDUPLICATE, ResultOf(err))
}

func TestOpenAssociatedBalanceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	owner := named("owner")

	addr := f.holder(t, owner, 0)
	k, err := keylet.AssociatedBalance(owner, f.asset)
	require.NoError(t, err)
	assert.Equal(t, k.Address(), addr)

	again, created, err := f.svc.OpenAssociatedBalance(f.view, f.signers, f.mint, owner, f.asset, sle.DefaultDepositPerByte)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, addr, again)
}

func TestOpenAssociatedBalanceNeedsFundedPayer(t *testing.T) {
	f := newFixture(t)
	poor := named("poor")
	f.signers[poor] = struct{}{}

	_, _, err := f.svc.OpenAssociatedBalance(f.view, f.signers, poor, poor, f.asset, sle.DefaultDepositPerByte)
	assert.Equal(t, tx.TecINSUFFICIENT_DEPOSIT, ResultOf(err))
}

func TestTransfer(t *testing.T) {
	alice, bob := named("alice"), named("bob")

	tests := []struct {
		name      string
		authority types.Address
		signed    bool
		amount    uint64
		want      tx.Result
	}{
		{"ok", alice, true, 40, tx.TesSUCCESS},
		{"entire balance", alice, true, 100, tx.TesSUCCESS},
		{"zero", alice, true, 0, tx.TesSUCCESS},
		{"insufficient", alice, true, 101, tx.TecUNFUNDED},
		{"wrong owner", bob, true, 1, tx.TefINVALID_OWNER},
		{"unsigned", alice, false, 1, tx.TefUNAUTHORIZED},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			from := f.holder(t, alice, 100)
			to := f.holder(t, bob, 0)

			signers := tx.AddressSet{}
			if tc.signed {
				signers[tc.authority] = struct{}{}
			}
			err := f.svc.Transfer(f.view, signers, from, to, tc.authority, tc.amount)
			require.Equal(t, tc.want, ResultOf(err))

			if tc.want.IsSuccess() {
				assert.Equal(t, 100-tc.amount, amountOf(t, f.view, from))
				assert.Equal(t, tc.amount, amountOf(t, f.view, to))
			} else {
				assert.Equal(t, uint64(100), amountOf(t, f.view, from))
			}
		})
	}
}

func TestTransferAssetMismatch(t *testing.T) {
	f := newFixture(t)
	other := named("other-asset")
	f.signers[other] = struct{}{}
	require.NoError(t, f.svc.CreateAsset(f.view, f.signers, f.mint, other, f.mint, 0, sle.DefaultDepositPerByte))

	alice := named("alice")
	from := f.holder(t, alice, 10)
	to, _, err := f.svc.OpenAssociatedBalance(f.view, f.signers, f.mint, alice, other, sle.DefaultDepositPerByte)
	require.NoError(t, err)

	err = f.svc.Transfer(f.view, tx.AddressSet{alice: {}}, from, to, alice, 1)
	assert.ErrorIs(t, err, ErrAssetMismatch)
	assert.Equal(t, tx.TefINVALID_ASSET, ResultOf(err))

	err = f.svc.Transfer(f.view, tx.AddressSet{alice: {}}, from, named("missing"), alice, 1)
	assert.Equal(t, tx.TecNO_ENTRY, ResultOf(err))
}

func TestCloseBalanceReturnsDeposit(t *testing.T) {
	f := newFixture(t)
	alice := named("alice")
	full := f.holder(t, alice, 5)
	signers := tx.AddressSet{alice: {}}

	err := f.svc.CloseBalance(f.view, signers, full, alice, alice)
	assert.Equal(t, tx.TecHAS_BALANCE, ResultOf(err))

	bob := named("bob")
	empty := f.holder(t, bob, 0)
	err = f.svc.CloseBalance(f.view, signers, empty, alice, alice)
	assert.Equal(t, tx.TefINVALID_OWNER, ResultOf(err))

	before, err := sle.WalletLamports(f.view, bob)
	require.NoError(t, err)
	require.NoError(t, f.svc.CloseBalance(f.view, tx.AddressSet{bob: {}}, empty, bob, bob))
	after, err := sle.WalletLamports(f.view, bob)
	require.NoError(t, err)
	assert.Equal(t, before+sle.MinimumDeposit(sle.BalanceSize, sle.DefaultDepositPerByte), after)

	exists, err := f.view.Exists(keylet.Balance(empty))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMintTo(t *testing.T) {
	f := newFixture(t)
	alice := named("alice")
	bal := f.holder(t, alice, 0)

	err := f.svc.MintTo(f.view, tx.AddressSet{alice: {}}, f.asset, bal, alice, 1)
	assert.Equal(t, tx.TefUNAUTHORIZED, ResultOf(err))

	require.NoError(t, f.svc.MintTo(f.view, f.signers, f.asset, bal, f.mint, ^uint64(0)))
	err = f.svc.MintTo(f.view, f.signers, f.asset, bal, f.mint, 1)
	assert.Equal(t, tx.TecOVERFLOW, ResultOf(err))

	_, def, err := sle.ReadAsset(f.view, f.asset)
	require.NoError(t, err)
	assert.Equal(t, ^uint64(0), def.Supply)
}

func TestMintToRejectsProgramOwnedBalance(t *testing.T) {
	f := newFixture(t)
	listing, _, err := keylet.Listing(types.DefaultMarketplaceID, named("seller"), 1)
	require.NoError(t, err)
	require.True(t, ProgramOwned(listing.Address()))
	require.False(t, ProgramOwned(f.mint))

	// the listing itself opens its custody, paid by the seller
	custody := f.holder(t, listing.Address(), 0)

	err = f.svc.MintTo(f.view, f.signers, f.asset, custody, f.mint, 1)
	assert.ErrorIs(t, err, ErrProgramOwned)
	assert.Equal(t, tx.TefUNAUTHORIZED, ResultOf(err))
	assert.Zero(t, amountOf(t, f.view, custody))

	_, def, err := sle.ReadAsset(f.view, f.asset)
	require.NoError(t, err)
	assert.Zero(t, def.Supply)
}

func TestResultOfPassesThroughSandboxErrors(t *testing.T) {
	assert.Equal(t, tx.TesSUCCESS, ResultOf(nil))
	assert.Equal(t, tx.TefUNDECLARED, ResultOf(tx.ErrUndeclaredAccount))
	assert.Equal(t, tx.TefINTERNAL, ResultOf(assert.AnError))
}
