package rpc_test

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/rpc"
	jtx "github.com/LeJamon/goListingd/internal/testing"
	"github.com/LeJamon/goListingd/internal/testing/listing"
)

func dialWS(t *testing.T, f *rpcFixture) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + rpc.PathWebSocket
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, cmd map[string]interface{}) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.WriteJSON(cmd))
	return readJSON(t, conn)
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketCommands(t *testing.T) {
	f := newRPCFixture(t)
	conn := dialWS(t, f)

	resp := roundTrip(t, conn, map[string]interface{}{"id": 1, "command": "ping"})
	assert.Equal(t, "success", resp["status"])
	assert.EqualValues(t, 1, resp["id"])

	resp = roundTrip(t, conn, map[string]interface{}{
		"id":      "q",
		"command": "wallet_info",
		"account": f.alice.Address.String(),
	})
	require.Equal(t, "success", resp["status"])
	result := resp["result"].(map[string]interface{})
	assert.EqualValues(t, f.env.Lamports(f.alice), result["lamports"])

	resp = roundTrip(t, conn, map[string]interface{}{"id": 2, "command": "nope"})
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "unknownCmd", resp["error"])

	resp = roundTrip(t, conn, map[string]interface{}{"id": 3})
	assert.Equal(t, "missingCommand", resp["error"])

	resp = roundTrip(t, conn, map[string]interface{}{"id": 4, "command": "subscribe", "streams": []string{"ledger"}})
	assert.Equal(t, "malformedStream", resp["error"])

	resp = roundTrip(t, conn, map[string]interface{}{"id": 5, "command": "subscribe"})
	assert.Equal(t, "invalidParams", resp["error"])
}

func TestWebSocketStreamsInvocations(t *testing.T) {
	f := newRPCFixture(t)
	conn := dialWS(t, f)

	resp := roundTrip(t, conn, map[string]interface{}{"id": 1, "command": "subscribe", "streams": []string{"listings"}})
	require.Equal(t, "success", resp["status"])

	// the asset instruction touches no listing and is filtered out
	carol := f.env.Account("carol")
	f.env.Fund(carol)
	jtx.RequireTxSuccess(t, f.env.Submit(listing.Create(f.alice, f.gold, f.usd).ID(3).Price(10).Amount(5).Build(f.env), f.alice))

	msg := readJSON(t, conn)
	assert.Equal(t, "invocation", msg["type"])
	inv := msg["invocation"].(map[string]interface{})
	assert.Equal(t, "create_listing", inv["type"])
	assert.Equal(t, f.env.ListingAddress(f.alice, 3).String(), inv["listing"])
	assert.NotNil(t, inv["meta"])

	resp = roundTrip(t, conn, map[string]interface{}{"id": 2, "command": "unsubscribe", "streams": []string{"listings"}})
	require.Equal(t, "success", resp["status"])
	require.Eventually(t, func() bool {
		return !f.env.Service().Events().HasSubscribers()
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWebSocketAccountSubscription(t *testing.T) {
	f := newRPCFixture(t)
	conn := dialWS(t, f)

	resp := roundTrip(t, conn, map[string]interface{}{
		"id":       1,
		"command":  "subscribe",
		"accounts": []string{f.bob.Address.String()},
	})
	require.Equal(t, "success", resp["status"])

	// alice's listing does not concern bob, his purchase does
	jtx.RequireTxSuccess(t, f.env.Submit(listing.Create(f.alice, f.gold, f.usd).ID(1).Price(10).Amount(5).Build(f.env), f.alice))
	jtx.RequireTxSuccess(t, f.env.Submit(listing.Buy(f.bob, f.alice, 1, f.gold, f.usd).Amount(1).Build(f.env), f.bob))

	msg := readJSON(t, conn)
	inv := msg["invocation"].(map[string]interface{})
	assert.Equal(t, "purchase", inv["type"])
	assert.Equal(t, f.bob.Address.String(), inv["signer"])
}

func TestWebSocketCloseReleasesSubscription(t *testing.T) {
	f := newRPCFixture(t)
	conn := dialWS(t, f)

	resp := roundTrip(t, conn, map[string]interface{}{"id": 1, "command": "subscribe", "streams": []string{"invocations"}})
	require.Equal(t, "success", resp["status"])
	require.True(t, f.env.Service().Events().HasSubscribers())

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()
	require.Eventually(t, func() bool {
		return !f.env.Service().Events().HasSubscribers()
	}, 5*time.Second, 10*time.Millisecond)
}
