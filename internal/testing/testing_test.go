package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/core/tx/asset"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
)

func TestNewAccountIsDeterministic(t *testing.T) {
	a := NewAccount("alice")
	b := NewAccount("alice")
	require.Equal(t, a.Address, b.Address)
	require.NotEqual(t, a.Address, NewAccount("bob").Address)
}

func TestUnits(t *testing.T) {
	require.Equal(t, uint64(7), Units(7, 0))
	require.Equal(t, uint64(1_500), Units(15, 2))
	require.Equal(t, uint64(1_000_000_000), Units(1, 9))
}

func TestEnvBootstrap(t *testing.T) {
	env := NewTestEnv(t)
	alice := env.Account("alice")
	require.Same(t, alice, env.Account("alice"))

	env.Fund(alice)
	require.Equal(t, uint64(DefaultFunding), env.Lamports(alice))

	gold := env.CreateAsset(alice, "GOLD", 3)
	info, err := env.Service().Asset(gold.Address)
	require.NoError(t, err)
	require.Equal(t, uint8(3), info.Decimals)
	require.NotNil(t, info.MintAuthority)
	require.Equal(t, alice.Address, *info.MintAuthority)

	bal := env.Mint(gold, alice, Units(2, 3))
	require.Equal(t, env.BalanceAddress(alice.Address, gold), bal)
	require.Equal(t, uint64(2000), env.TokenBalance(alice.Address, gold))

	// opening again changes nothing
	require.Equal(t, bal, env.OpenBalance(alice, gold))
	require.Equal(t, uint64(2000), env.TokenBalance(alice.Address, gold))

	spent := sle.MinimumDeposit(sle.AssetSize, sle.DefaultDepositPerByte) +
		sle.MinimumDeposit(sle.BalanceSize, sle.DefaultDepositPerByte)
	require.Equal(t, DefaultFunding-spent, env.Lamports(alice))
}

func TestMintNeedsAuthority(t *testing.T) {
	env := NewTestEnv(t)
	alice := env.Account("alice")
	mallory := env.Account("mallory")
	env.Fund(alice, mallory)

	gold := env.CreateAsset(alice, "GOLD", 0)
	bal := env.OpenBalance(mallory, gold)

	res := env.Submit(&asset.MintTo{Authority: mallory.Address, Asset: gold.Address, Destination: bal, Amount: 5}, mallory)
	RequireTxFail(t, res, "tefUNAUTHORIZED")
	require.Zero(t, env.TokenBalance(mallory.Address, gold))
}

func TestCreateAssetTwice(t *testing.T) {
	env := NewTestEnv(t)
	alice := env.Account("alice")
	env.Fund(alice)
	gold := env.CreateAsset(alice, "GOLD", 0)

	res := env.Submit(&asset.CreateAsset{Payer: alice.Address, Asset: gold.Address, MintAuthority: alice.Address}, alice, gold.Account)
	RequireTxFail(t, res, "tecDUPLICATE")
}

func TestCreateAssetNeedsAssetSignature(t *testing.T) {
	env := NewTestEnv(t)
	alice := env.Account("alice")
	env.Fund(alice)

	res := env.Submit(&asset.CreateAsset{Payer: alice.Address, Asset: NewAccount("asset:X").Address}, alice)
	RequireTxFail(t, res, "tefMISSING_SIGNER")
}
