package testing

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/core/ledger"
	"github.com/LeJamon/goListingd/internal/core/ledger/keylet"
	"github.com/LeJamon/goListingd/internal/core/ledger/service"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/asset"
	"github.com/LeJamon/goListingd/internal/core/tx/sle"
	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/metrics"
	"github.com/LeJamon/goListingd/internal/storage/database/memory"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb"
	"github.com/LeJamon/goListingd/internal/types"
)

// Option customizes a TestEnv.
type Option func(*service.Config)

// WithTransfer replaces the asset service.
func WithTransfer(t tx.AssetTransfer) Option {
	return func(c *service.Config) { c.Transfer = t }
}

// WithHistory records applied invocations in repo.
func WithHistory(repo relationaldb.HistoryRepository) Option {
	return func(c *service.Config) { c.History = repo }
}

// WithMetrics updates m on every submission.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *service.Config) { c.Metrics = m }
}

// WithProgramID runs the marketplace under another program id.
func WithProgramID(id types.Address) Option {
	return func(c *service.Config) { c.Engine.ProgramID = id }
}

// TestEnv manages a standalone ledger for invocation testing. It provides a
// simplified interface for creating accounts and assets, submitting
// instructions, and inspecting the resulting state.
type TestEnv struct {
	t        testing.TB
	state    *ledger.State
	svc      *service.Service
	accounts map[string]*Account
	assets   map[string]*Asset
	nonce    atomic.Uint64
}

// NewTestEnv creates a test environment over an empty in-memory ledger.
func NewTestEnv(t testing.TB, opts ...Option) *TestEnv {
	t.Helper()

	state, err := ledger.NewState(memory.NewDB(), ledger.DefaultCacheSize, logging.Disabled)
	require.NoError(t, err, "failed to create ledger state")

	cfg := service.DefaultConfig()
	cfg.Engine.Standalone = true
	for _, opt := range opts {
		opt(&cfg)
	}

	svc, err := service.New(cfg, state, logging.Disabled)
	require.NoError(t, err, "failed to create ledger service")
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(svc.Close)

	return &TestEnv{
		t:        t,
		state:    state,
		svc:      svc,
		accounts: make(map[string]*Account),
		assets:   make(map[string]*Asset),
	}
}

// Service returns the ledger service under test.
func (e *TestEnv) Service() *service.Service {
	return e.svc
}

// State returns the committed ledger state.
func (e *TestEnv) State() *ledger.State {
	return e.state
}

// ProgramID returns the marketplace program id.
func (e *TestEnv) ProgramID() types.Address {
	return e.svc.ProgramID()
}

// Account returns the named account, creating it on first use.
func (e *TestEnv) Account(name string) *Account {
	if acc, ok := e.accounts[name]; ok {
		return acc
	}
	acc := NewAccount(name)
	e.accounts[name] = acc
	return acc
}

// Fund credits DefaultFunding lamports to each account.
func (e *TestEnv) Fund(accounts ...*Account) {
	e.t.Helper()
	for _, acc := range accounts {
		e.FundAmount(acc, DefaultFunding)
	}
}

// FundAmount credits amount lamports to acc.
func (e *TestEnv) FundAmount(acc *Account, amount uint64) {
	e.t.Helper()
	res, err := e.svc.Faucet(context.Background(), acc.Address, amount)
	require.NoError(e.t, err)
	require.True(e.t, res.Applied, "failed to fund %s: %s", acc, res.Result)
}

// NextNonce returns the nonce the next envelope addr signs first must carry.
func (e *TestEnv) NextNonce(addr types.Address) uint64 {
	e.t.Helper()
	n, err := e.svc.NextNonce(addr)
	require.NoError(e.t, err)
	return n
}

// Envelope signs t with every given account. The nonce follows the sequence
// of t's first declared signer.
func (e *TestEnv) Envelope(t tx.Transaction, signers ...*Account) *tx.Envelope {
	e.t.Helper()
	nonce := e.nonce.Add(1)
	if declared := tx.Signers(t); len(declared) > 0 {
		nonce = e.NextNonce(declared[0])
	}
	env := tx.NewEnvelope(t, nonce)
	for _, s := range signers {
		require.NoError(e.t, env.Sign(e.ProgramID(), s.PrivateKey), "failed to sign as %s", s)
	}
	return env
}

// Submit signs t with every given account and applies it.
func (e *TestEnv) Submit(t tx.Transaction, signers ...*Account) TxResult {
	e.t.Helper()
	return e.SubmitEnvelope(e.Envelope(t, signers...))
}

// SubmitEnvelope applies a prepared envelope.
func (e *TestEnv) SubmitEnvelope(env *tx.Envelope) TxResult {
	e.t.Helper()
	res, err := e.svc.Submit(context.Background(), env)
	require.NoError(e.t, err)
	return resultFrom(res)
}

// CreateAsset defines an asset named name. issuer pays for the definition
// and becomes its mint authority.
func (e *TestEnv) CreateAsset(issuer *Account, name string, decimals uint8) *Asset {
	e.t.Helper()
	a := &Asset{Account: NewAccount("asset:" + name), Decimals: decimals, Issuer: issuer}
	res := e.Submit(&asset.CreateAsset{
		Payer:         issuer.Address,
		Asset:         a.Address,
		MintAuthority: issuer.Address,
		Decimals:      decimals,
	}, issuer, a.Account)
	RequireTxSuccess(e.t, res)
	e.assets[name] = a
	return a
}

// BalanceAddress derives owner's associated balance of a.
func (e *TestEnv) BalanceAddress(owner types.Address, a *Asset) types.Address {
	e.t.Helper()
	k, err := keylet.AssociatedBalance(owner, a.Address)
	require.NoError(e.t, err)
	return k.Address()
}

// OpenBalance opens owner's associated balance of a, paid by owner.
func (e *TestEnv) OpenBalance(owner *Account, a *Asset) types.Address {
	e.t.Helper()
	open, err := asset.NewOpenBalance(owner.Address, owner.Address, a.Address)
	require.NoError(e.t, err)
	RequireTxSuccess(e.t, e.Submit(open, owner))
	return open.Balance
}

// Mint opens to's balance of a if needed and mints amount into it.
func (e *TestEnv) Mint(a *Asset, to *Account, amount uint64) types.Address {
	e.t.Helper()
	bal := e.OpenBalance(to, a)
	RequireTxSuccess(e.t, e.Submit(&asset.MintTo{
		Authority:   a.Issuer.Address,
		Asset:       a.Address,
		Destination: bal,
		Amount:      amount,
	}, a.Issuer))
	return bal
}

// TokenBalance returns owner's associated balance of a, zero if it is not
// open.
func (e *TestEnv) TokenBalance(owner types.Address, a *Asset) uint64 {
	e.t.Helper()
	amount, _ := e.BalanceAt(e.BalanceAddress(owner, a))
	return amount
}

// BalanceAt returns the amount held at a balance address and whether the
// balance exists.
func (e *TestEnv) BalanceAt(addr types.Address) (uint64, bool) {
	e.t.Helper()
	info, err := e.svc.Balance(addr)
	if errors.Is(err, service.ErrNotFound) {
		return 0, false
	}
	require.NoError(e.t, err)
	return info.Amount, true
}

// Lamports returns the native balance of acc.
func (e *TestEnv) Lamports(acc *Account) uint64 {
	e.t.Helper()
	n, err := e.svc.Wallet(acc.Address)
	require.NoError(e.t, err)
	return n
}

// ListingAddress derives the listing address of (seller, id).
func (e *TestEnv) ListingAddress(seller *Account, id uint64) types.Address {
	e.t.Helper()
	d, err := e.svc.DeriveListing(seller.Address, id)
	require.NoError(e.t, err)
	return d.Listing
}

// Listing returns the listing stored at addr, or nil if there is none.
func (e *TestEnv) Listing(addr types.Address) *sle.ListingData {
	e.t.Helper()
	_, l, err := sle.ReadListing(e.state, keylet.ListingAt(addr))
	if errors.Is(err, sle.ErrEntryNotFound) {
		return nil
	}
	require.NoError(e.t, err)
	return l
}

// Custody returns the custody balance address of the listing at addr.
func (e *TestEnv) Custody(addr types.Address, sell *Asset) types.Address {
	e.t.Helper()
	c, err := service.Custody(addr, sell.Address)
	require.NoError(e.t, err)
	return c
}

// Exists reports whether any entry is stored at addr.
func (e *TestEnv) Exists(addr types.Address) bool {
	e.t.Helper()
	ok, err := e.state.Exists(keylet.At(addr))
	require.NoError(e.t, err)
	return ok
}
