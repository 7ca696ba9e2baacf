package sle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/core/ledger/entry"
	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
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

func TestEnvelopeRoundTrip(t *testing.T) {
	env := &Envelope{Type: entry.TypeBalance, Lamports: 42, Data: []byte{9, 8, 7}}
	raw := env.Encode()
	require.Equal(t, entry.TypeBalance, EntryType(raw))

	decoded, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	require.Equal(t, env, decoded)

	_, err = DecodeEnvelope(raw[:3])
	require.ErrorIs(t, err, ErrTruncatedEntry)
}

func TestEnvelopeLamports(t *testing.T) {
	env := &Envelope{Lamports: 10}
	require.NoError(t, env.Credit(5))
	require.Equal(t, uint64(15), env.Lamports)

	require.ErrorIs(t, env.Debit(16), ErrLamportsShort)
	require.Equal(t, uint64(15), env.Lamports)
	require.NoError(t, env.Debit(15))
	require.Zero(t, env.Lamports)

	env.Lamports = ^uint64(0)
	require.ErrorIs(t, env.Credit(1), ErrLamportOverflow)
}

func TestReadEnvelopeChecksType(t *testing.T) {
	view := mapView{}
	addr := types.Address{7}
	bal := &BalanceData{Asset: types.Address{1}, Owner: types.Address{2}, Amount: 99}
	env := &Envelope{Type: entry.TypeBalance, Data: bal.Encode()}
	require.NoError(t, view.Insert(keylet.Balance(addr), env.Encode()))

	_, got, err := ReadBalance(view, addr)
	require.NoError(t, err)
	require.Equal(t, bal, got)

	_, _, err = ReadAsset(view, addr)
	require.ErrorIs(t, err, ErrWrongEntryType)

	_, _, err = ReadBalance(view, types.Address{8})
	require.ErrorIs(t, err, ErrEntryNotFound)
}

func TestBalanceArithmetic(t *testing.T) {
	b := &BalanceData{Amount: 5}
	require.ErrorIs(t, b.Sub(6), ErrBalanceShort)
	require.NoError(t, b.Sub(5))
	require.NoError(t, b.Add(^uint64(0)))
	require.ErrorIs(t, b.Add(1), ErrBalanceOverflow)
}

func TestFieldsForListing(t *testing.T) {
	l := sampleListing()
	env := &Envelope{Type: entry.TypeListing, Lamports: 3, Data: l.Encode()}

	fields, err := Fields(env.Encode())
	require.NoError(t, err)
	require.Equal(t, l.Seller.String(), fields["Seller"])
	require.Equal(t, l.RemainingAmount, fields["RemainingAmount"])
	require.Equal(t, uint64(3), fields["Lamports"])

	require.True(t, IsDefaultValue(uint64(0)))
	require.False(t, IsDefaultValue("x"))
}

func TestWalletCreditDebit(t *testing.T) {
	view := mapView{}
	addr := types.Address{5}

	require.ErrorIs(t, DebitWallet(view, addr, 1), ErrLamportsShort)
	require.NoError(t, DebitWallet(view, addr, 0))

	require.NoError(t, CreditWallet(view, addr, 100))
	require.NoError(t, CreditWallet(view, addr, 50))
	lamports, err := WalletLamports(view, addr)
	require.NoError(t, err)
	require.Equal(t, uint64(150), lamports)

	require.ErrorIs(t, DebitWallet(view, addr, 151), ErrLamportsShort)
	require.NoError(t, DebitWallet(view, addr, 150))
	lamports, err = WalletLamports(view, addr)
	require.NoError(t, err)
	require.Zero(t, lamports)
}

func TestWalletSequence(t *testing.T) {
	view := mapView{}
	addr := types.Address{6}

	seq, err := WalletSequence(view, addr)
	require.NoError(t, err)
	require.Zero(t, seq)

	require.ErrorIs(t, AdvanceSequence(view, addr, 0), ErrPastSequence)
	require.ErrorIs(t, AdvanceSequence(view, addr, 2), ErrFutureSequence)
	require.NoError(t, AdvanceSequence(view, addr, 1))

	// lamports moves keep the sequence
	require.NoError(t, CreditWallet(view, addr, 40))
	require.NoError(t, DebitWallet(view, addr, 15))
	seq, err = WalletSequence(view, addr)
	require.NoError(t, err)
	require.Equal(t, uint64(1), seq)

	require.ErrorIs(t, AdvanceSequence(view, addr, 1), ErrPastSequence)
	require.NoError(t, AdvanceSequence(view, addr, 2))
	lamports, err := WalletLamports(view, addr)
	require.NoError(t, err)
	require.Equal(t, uint64(25), lamports)
}
