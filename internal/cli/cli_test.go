package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/config"
	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/all"
	"github.com/LeJamon/goListingd/internal/core/tx/listing"
	"github.com/LeJamon/goListingd/internal/crypto/algorithms/ed25519"
	"github.com/LeJamon/goListingd/internal/types"
	"github.com/LeJamon/goListingd/internal/version"
)

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile, dataDir, debug, standalone = "", "", false, false
	keygenPassphrase, signKey, signIn = "", "", "-"
	diffShowAll, diffFilterType = false, ""
	versionShort = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeConfig writes a quiet bbolt configuration under dir.
func writeConfig(t *testing.T, dir string, genesis map[string]uint64) string {
	t.Helper()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "data_dir = %q\n\n[database]\nbackend = \"bbolt\"\npath = \"state\"\n\n[log]\nconsole = false\n", dir)
	for addr, lamports := range genesis {
		fmt.Fprintf(&buf, "\n[[genesis.accounts]]\naddress = %q\nlamports = %d\n", addr, lamports)
	}
	path := filepath.Join(dir, "listingd.toml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func account(name string) (types.Address, string) {
	priv, addr, err := ed25519.NewED25519Provider().GenerateKeypair([]byte(name))
	if err != nil {
		panic(err)
	}
	return addr, ed25519.EncodePrivateKey(priv)
}

func TestKeygenPassphraseIsDeterministic(t *testing.T) {
	out1, err := run(t, "keygen", "--passphrase", "alpha")
	require.NoError(t, err)
	out2, err := run(t, "keygen", "--passphrase", "alpha")
	require.NoError(t, err)
	assert.Equal(t, out1, out2)

	var keys map[string]string
	require.NoError(t, json.Unmarshal([]byte(out1), &keys))
	addr, key := account("alpha")
	assert.Equal(t, addr.String(), keys["address"])
	assert.Equal(t, key, keys["private_key"])

	out3, err := run(t, "keygen")
	require.NoError(t, err)
	assert.NotEqual(t, out1, out3)
}

func TestDeriveMatchesKeylet(t *testing.T) {
	conf := writeConfig(t, t.TempDir(), nil)
	seller, _ := account("seller")
	asset, _ := account("asset")

	out, err := run(t, "derive", seller.String(), "7", asset.String(), "--conf", conf)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	k, bump, err := keylet.Listing(types.DefaultMarketplaceID, seller, 7)
	require.NoError(t, err)
	assert.Equal(t, k.Address().String(), got["listing"])
	assert.EqualValues(t, bump, got["bump"])

	custody, err := keylet.AssociatedBalance(k.Address(), asset)
	require.NoError(t, err)
	assert.Equal(t, custody.Address().String(), got["custody"])

	_, err = run(t, "derive", seller.String(), "x", "--conf", conf)
	require.Error(t, err)
}

func TestSignAddsSignature(t *testing.T) {
	dir := t.TempDir()
	conf := writeConfig(t, dir, nil)
	seller, key := account("seller")
	other, otherKey := account("other")

	cancel := &listing.CancelListing{Seller: seller, Listing: types.Address{1}, SellAsset: types.Address{2}}
	wire, err := all.ToWire(tx.NewEnvelope(cancel, 9))
	require.NoError(t, err)
	raw, err := json.Marshal(wire)
	require.NoError(t, err)
	in := filepath.Join(dir, "cancel.json")
	require.NoError(t, os.WriteFile(in, raw, 0o600))

	out, err := run(t, "sign", "-k", key, "-i", in, "--conf", conf)
	require.NoError(t, err)
	env, err := all.DecodeEnvelope([]byte(out))
	require.NoError(t, err)
	signers, res := env.VerifySignatures(types.DefaultMarketplaceID)
	require.Equal(t, tx.TesSUCCESS, res)
	assert.True(t, signers.IsSigner(seller))

	// not a declared signer
	_, err = run(t, "sign", "-k", otherKey, "-i", in, "--conf", conf)
	require.ErrorIs(t, err, tx.ErrNotSigner, other.String())
}

func TestSnapshotRoundTrip(t *testing.T) {
	alice, _ := account("alice")
	bob, _ := account("bob")
	genesis := map[string]uint64{alice.String(): 5_000_000, bob.String(): 7_000_000}

	srcDir, dstDir, otherDir := t.TempDir(), t.TempDir(), t.TempDir()
	srcConf := writeConfig(t, srcDir, genesis)
	dstConf := writeConfig(t, dstDir, nil)
	otherConf := writeConfig(t, otherDir, map[string]uint64{alice.String(): 5_000_000, bob.String(): 1})

	// starting the service writes the genesis wallets
	for _, conf := range []string{srcConf, otherConf} {
		cfg, err := config.LoadConfig(conf)
		require.NoError(t, err)
		n, err := openNode(context.Background(), cfg)
		require.NoError(t, err)
		require.NoError(t, n.Close())
	}

	first := filepath.Join(t.TempDir(), "first.snap")
	out, err := run(t, "snapshot", "export", first, "--conf", srcConf)
	require.NoError(t, err)
	var sum map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.EqualValues(t, 2, sum["entries"])

	_, err = run(t, "snapshot", "import", first, "--conf", dstConf)
	require.NoError(t, err)
	_, err = run(t, "snapshot", "import", first, "--conf", dstConf)
	require.Error(t, err, "import needs an empty state")

	second := filepath.Join(t.TempDir(), "second.snap")
	_, err = run(t, "snapshot", "export", second, "--conf", dstConf)
	require.NoError(t, err)

	out, err = run(t, "snapshot", "diff", first, second)
	require.NoError(t, err)
	assert.Contains(t, out, "Modified:  0")

	third := filepath.Join(t.TempDir(), "third.snap")
	_, err = run(t, "snapshot", "export", third, "--conf", otherConf)
	require.NoError(t, err)

	out, err = run(t, "snapshot", "diff", first, third)
	require.ErrorIs(t, err, errSnapshotsDiffer)
	assert.Contains(t, out, "Modified:  1")
	assert.Contains(t, out, "Lamports: 7000000 -> 1")

	out, err = run(t, "snapshot", "diff", first, third, "--filter", "listing")
	require.NoError(t, err)
	assert.Contains(t, out, "Modified:  0")
}

func TestDiffStates(t *testing.T) {
	old := map[string]stateEntry{
		"A": {Key: "A", Type: "Wallet", Data: []byte{1}, Fields: map[string]any{"Lamports": uint64(1)}},
		"B": {Key: "B", Type: "Wallet", Data: []byte{2}},
	}
	new := map[string]stateEntry{
		"A": {Key: "A", Type: "Wallet", Data: []byte{3}, Fields: map[string]any{"Lamports": uint64(3)}},
		"C": {Key: "C", Type: "Listing", Data: []byte{4}},
	}
	d := diffStates(old, new)
	require.Len(t, d.Added, 1)
	assert.Equal(t, "C", d.Added[0].Key)
	require.Len(t, d.Removed, 1)
	assert.Equal(t, "B", d.Removed[0].Key)
	require.Len(t, d.Modified, 1)
	assert.Equal(t, []string{"Lamports"}, d.Modified[0].ChangedKeys)
	assert.False(t, d.empty())

	d.filter("listing")
	assert.Len(t, d.Added, 1)
	assert.Empty(t, d.Removed)
	assert.Empty(t, d.Modified)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", out)

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "listingd "+version.Version)
}
