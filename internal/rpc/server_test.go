package rpc_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/all"
	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/metrics"
	"github.com/LeJamon/goListingd/internal/rpc"
	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb/sqlstore"
	jtx "github.com/LeJamon/goListingd/internal/testing"
	"github.com/LeJamon/goListingd/internal/testing/listing"
)

// rpcFixture is a marketplace with alice selling GOLD for bob's USD behind
// an RPC listener.
type rpcFixture struct {
	env     *jtx.TestEnv
	srv     *httptest.Server
	handler *rpc.Handler
	alice   *jtx.Account
	bob     *jtx.Account
	gold    *jtx.Asset
	usd     *jtx.Asset
}

func newRPCFixture(t *testing.T, opts ...jtx.Option) *rpcFixture {
	t.Helper()
	env := jtx.NewTestEnv(t, opts...)
	f := &rpcFixture{env: env, alice: env.Account("alice"), bob: env.Account("bob")}
	env.Fund(f.alice, f.bob)
	f.gold = env.CreateAsset(f.alice, "GOLD", 0)
	f.usd = env.CreateAsset(f.bob, "USD", 2)
	env.Mint(f.gold, f.alice, 1000)
	env.Mint(f.usd, f.bob, 1_000_000)
	env.OpenBalance(f.alice, f.usd)
	env.OpenBalance(f.bob, f.gold)

	m := metrics.New()
	f.handler = rpc.NewHandler(rpc.HandlerConfig{
		Services:  &rpc_types.ServiceContainer{Ledger: env.Service()},
		Websocket: true,
		Metrics:   m.Handler(),
		Log:       logging.Disabled,
	})
	f.srv = httptest.NewServer(f.handler)
	t.Cleanup(func() {
		f.handler.Close()
		f.srv.Close()
	})
	return f
}

// call posts {"method": method, "params": [params]} and returns result.
func (f *rpcFixture) call(t *testing.T, method string, params interface{}) map[string]interface{} {
	t.Helper()
	req := map[string]interface{}{"method": method}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return f.post(t, body)
}

func (f *rpcFixture) post(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	resp, err := http.Post(f.srv.URL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Result map[string]interface{} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotNil(t, out.Result)
	return out.Result
}

// envelope signs instr by signers and returns its wire form.
func (f *rpcFixture) envelope(t *testing.T, instr tx.Transaction, signers ...*jtx.Account) *all.WireEnvelope {
	t.Helper()
	w, err := all.ToWire(f.env.Envelope(instr, signers...))
	require.NoError(t, err)
	return w
}

func requireSuccess(t *testing.T, result map[string]interface{}) {
	t.Helper()
	require.Equal(t, "success", result["status"], "error: %v", result["error_message"])
}

func requireError(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	require.Equal(t, "error", result["status"])
	require.Equal(t, code, result["error"], "message: %v", result["error_message"])
}

func TestPingAndProtocolErrors(t *testing.T) {
	f := newRPCFixture(t)

	requireSuccess(t, f.call(t, "ping", nil))
	requireError(t, f.call(t, "no_such_method", nil), "unknownCmd")
	requireError(t, f.post(t, []byte(`{"params": []}`)), "missingCommand")
	requireError(t, f.post(t, []byte(`{not json`)), "jsonInvalid")
	requireError(t, f.call(t, "ping", map[string]interface{}{"api_version": 7}), "invalid_API_version")

	result := f.call(t, "listing_info", map[string]interface{}{"listing": "0OIl"})
	requireError(t, result, "actMalformed")
	request, ok := result["request"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "listing_info", request["command"])
}

func TestGetServesServerInfo(t *testing.T) {
	f := newRPCFixture(t)

	resp, err := http.Get(f.srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Result struct {
			Status      string `json:"status"`
			ServerState string `json:"server_state"`
			Info        struct {
				Standalone bool   `json:"standalone"`
				Applied    uint64 `json:"applied"`
			} `json:"info"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "success", out.Result.Status)
	assert.Equal(t, "standalone", out.Result.ServerState)
	assert.True(t, out.Result.Info.Standalone)
	assert.Equal(t, f.env.State().Applied(), out.Result.Info.Applied)
}

func TestSubmitCreateAndPurchase(t *testing.T) {
	f := newRPCFixture(t)

	create := listing.Create(f.alice, f.gold, f.usd).ID(7).Price(250).Amount(40).Build(f.env)
	result := f.call(t, "submit", map[string]interface{}{"envelope": f.envelope(t, create, f.alice)})
	requireSuccess(t, result)
	assert.Equal(t, "tesSUCCESS", result["engine_result"])
	assert.Equal(t, true, result["applied"])
	assert.NotNil(t, result["meta"])

	addr := f.env.ListingAddress(f.alice, 7)
	jtx.RequireRemaining(t, f.env, addr, 40)

	buy := listing.Buy(f.bob, f.alice, 7, f.gold, f.usd).Amount(4).Build(f.env)
	result = f.call(t, "submit", map[string]interface{}{"envelope": f.envelope(t, buy, f.bob)})
	requireSuccess(t, result)
	assert.Equal(t, "tesSUCCESS", result["engine_result"])
	jtx.RequireRemaining(t, f.env, addr, 36)
	jtx.RequireTokenBalance(t, f.env, f.bob, f.gold, 4)
}

func TestSubmitReportsEngineFailures(t *testing.T) {
	f := newRPCFixture(t)

	create := listing.Create(f.alice, f.gold, f.usd).ID(1).Price(1).Amount(10).Build(f.env)
	requireSuccess(t, f.call(t, "submit", map[string]interface{}{"envelope": f.envelope(t, create, f.alice)}))

	buy := listing.Buy(f.bob, f.alice, 1, f.gold, f.usd).Amount(11).Build(f.env)
	result := f.call(t, "submit", map[string]interface{}{"envelope": f.envelope(t, buy, f.bob)})
	requireSuccess(t, result)
	assert.Equal(t, "tecINSUFFICIENT_STOCK", result["engine_result"])
	assert.Equal(t, false, result["applied"])
	assert.EqualValues(t, 6004, result["program_error_code"])

	// unsigned
	result = f.call(t, "submit", map[string]interface{}{"envelope": f.envelope(t, buy)})
	assert.Equal(t, "tefMISSING_SIGNER", result["engine_result"])

	requireError(t, f.call(t, "submit", map[string]interface{}{}), "invalidParams")
	requireError(t, f.call(t, "submit", map[string]interface{}{
		"envelope": map[string]interface{}{"type": "teleport", "nonce": 1, "instruction": map[string]interface{}{}},
	}), "invalidTransaction")
}

func TestListingQueries(t *testing.T) {
	f := newRPCFixture(t)
	f.env.Submit(listing.Create(f.alice, f.gold, f.usd).ID(1).Price(300).Amount(10).Build(f.env), f.alice)
	f.env.Submit(listing.Create(f.alice, f.gold, f.usd).ID(2).Price(500).Amount(5).Build(f.env), f.alice)
	addr := f.env.ListingAddress(f.alice, 1)

	result := f.call(t, "listing_info", map[string]interface{}{"listing": addr.String()})
	requireSuccess(t, result)
	info := result["listing"].(map[string]interface{})
	assert.Equal(t, "active", info["status"])
	assert.EqualValues(t, 10, info["custody_amount"])

	result = f.call(t, "listing_info", map[string]interface{}{"seller": f.alice.Address.String(), "listing_id": "2"})
	requireSuccess(t, result)
	assert.Equal(t, f.env.ListingAddress(f.alice, 2).String(), result["listing"].(map[string]interface{})["address"])

	requireError(t, f.call(t, "listing_info", map[string]interface{}{"seller": f.alice.Address.String(), "listing_id": 99}), "entryNotFound")
	requireError(t, f.call(t, "listing_info", map[string]interface{}{}), "invalidParams")

	result = f.call(t, "listings", map[string]interface{}{"seller": f.alice.Address.String(), "limit": 1})
	requireSuccess(t, result)
	assert.Len(t, result["listings"], 1)
	marker, ok := result["marker"].(string)
	require.True(t, ok)
	result = f.call(t, "listings", map[string]interface{}{"seller": f.alice.Address.String(), "marker": marker})
	requireSuccess(t, result)
	assert.Len(t, result["listings"], 1)
	assert.Nil(t, result["marker"])

	result = f.call(t, "derive_listing", map[string]interface{}{
		"seller":     f.alice.Address.String(),
		"listing_id": 1,
		"sell_asset": f.gold.Address.String(),
	})
	requireSuccess(t, result)
	assert.Equal(t, addr.String(), result["listing"])
	assert.Equal(t, f.env.Custody(addr, f.gold).String(), result["custody_balance"])

	result = f.call(t, "quote", map[string]interface{}{"listing": addr.String(), "amount": 3})
	requireSuccess(t, result)
	quote := result["quote"].(map[string]interface{})
	assert.EqualValues(t, 900, quote["total_cost"])
	assert.EqualValues(t, 7, quote["remaining_after"])

	requireError(t, f.call(t, "quote", map[string]interface{}{"listing": addr.String(), "amount": 11}), "insufficientStock")
	requireError(t, f.call(t, "quote", map[string]interface{}{"listing": addr.String(), "amount": 0}), "invalidParams")
}

func TestBalanceAssetAndWallet(t *testing.T) {
	f := newRPCFixture(t)

	result := f.call(t, "balance_info", map[string]interface{}{
		"owner": f.bob.Address.String(),
		"asset": f.usd.Address.String(),
	})
	requireSuccess(t, result)
	balance := result["balance"].(map[string]interface{})
	assert.EqualValues(t, 1_000_000, balance["amount"])
	assert.EqualValues(t, 2, balance["decimals"])

	addr := f.env.BalanceAddress(f.bob.Address, f.usd)
	result = f.call(t, "balance_info", map[string]interface{}{"balance": addr.String()})
	requireSuccess(t, result)
	assert.Equal(t, f.bob.Address.String(), result["balance"].(map[string]interface{})["owner"])

	result = f.call(t, "asset_info", map[string]interface{}{"asset": f.gold.Address.String()})
	requireSuccess(t, result)
	assert.EqualValues(t, 1000, result["asset"].(map[string]interface{})["supply"])

	requireError(t, f.call(t, "asset_info", map[string]interface{}{"asset": f.env.Account("nobody").Address.String()}), "entryNotFound")

	result = f.call(t, "wallet_info", map[string]interface{}{"account": f.alice.Address.String()})
	requireSuccess(t, result)
	assert.EqualValues(t, f.env.Lamports(f.alice), result["lamports"])
	assert.EqualValues(t, f.env.NextNonce(f.alice.Address), result["next_nonce"])
	assert.Greater(t, f.env.NextNonce(f.alice.Address), uint64(1))
}

func TestFaucet(t *testing.T) {
	f := newRPCFixture(t)
	carol := f.env.Account("carol")

	result := f.call(t, "faucet", map[string]interface{}{"destination": carol.Address.String(), "amount": "12345"})
	requireSuccess(t, result)
	assert.Equal(t, "tesSUCCESS", result["engine_result"])
	assert.EqualValues(t, 12345, result["lamports"])
	assert.Equal(t, uint64(12345), f.env.Lamports(carol))

	requireError(t, f.call(t, "faucet", map[string]interface{}{}), "invalidParams")
}

func TestHistoryMethods(t *testing.T) {
	f := newRPCFixture(t)
	requireError(t, f.call(t, "listing_history", map[string]interface{}{"listing": f.alice.Address.String()}), "notEnabled")

	ctx := context.Background()
	store, err := sqlstore.Open(ctx, relationaldb.SQLiteConfig(filepath.Join(t.TempDir(), "history.db")), logging.Disabled)
	require.NoError(t, err)
	defer store.Close()

	f = newRPCFixture(t, jtx.WithHistory(store))
	f.env.Submit(listing.Create(f.alice, f.gold, f.usd).ID(1).Price(100).Amount(10).Build(f.env), f.alice)
	res := f.env.Submit(listing.Buy(f.bob, f.alice, 1, f.gold, f.usd).Amount(2).Build(f.env), f.bob)
	jtx.RequireTxSuccess(t, res)
	addr := f.env.ListingAddress(f.alice, 1)

	result := f.call(t, "listing_history", map[string]interface{}{"listing": addr.String()})
	requireSuccess(t, result)
	invs := result["invocations"].([]interface{})
	require.Len(t, invs, 2)
	newest := invs[0].(map[string]interface{})
	assert.Equal(t, "purchase", newest["type"])
	assert.EqualValues(t, 200, newest["cost"])

	result = f.call(t, "account_history", map[string]interface{}{"account": f.bob.Address.String(), "limit": 1})
	requireSuccess(t, result)
	require.Len(t, result["invocations"], 1)
	assert.NotNil(t, result["marker"])

	hash := newest["hash"].(string)
	result = f.call(t, "invocation", map[string]interface{}{"hash": hash})
	requireSuccess(t, result)
	assert.Equal(t, hash, result["invocation"].(map[string]interface{})["hash"])

	requireError(t, f.call(t, "invocation", map[string]interface{}{"hash": "zz"}), "invalidHash")
	requireError(t, f.call(t, "invocation", map[string]interface{}{"hash": strings.Repeat("00", 32)}), "txnNotFound")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newRPCFixture(t)

	resp, err := http.Get(f.srv.URL + rpc.PathMetrics)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestBodyLimit(t *testing.T) {
	env := jtx.NewTestEnv(t)
	srv := httptest.NewServer(rpc.NewServer(&rpc_types.ServiceContainer{Ledger: env.Service()}, 64, logging.Disabled))
	defer srv.Close()

	body := `{"method": "ping", "params": [{"pad": "` + strings.Repeat("x", 128) + `"}]}`
	resp, err := http.Post(srv.URL, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out struct {
		Result map[string]interface{} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	requireError(t, out.Result, "invalidParams")
}
