package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goListingd/internal/types"
)

// RequireTxSuccess asserts that an invocation was applied.
func RequireTxSuccess(t testing.TB, result TxResult) {
	t.Helper()
	require.True(t, result.Success,
		"Expected invocation success, got %s: %s", result.Code, result.Message)
	require.Equal(t, "tesSUCCESS", result.Code,
		"Expected tesSUCCESS, got %s: %s", result.Code, result.Message)
}

// RequireTxFail asserts that an invocation failed with a specific code.
func RequireTxFail(t testing.TB, result TxResult, expectedCode string) {
	t.Helper()
	require.False(t, result.Success,
		"Expected invocation failure with code %s, but invocation succeeded", expectedCode)
	require.Equal(t, expectedCode, result.Code,
		"Expected failure code %s, got %s: %s", expectedCode, result.Code, result.Message)
}

// RequireTokenBalance asserts owner's associated balance of a.
func RequireTokenBalance(t testing.TB, env *TestEnv, owner *Account, a *Asset, expected uint64) {
	t.Helper()
	actual := env.TokenBalance(owner.Address, a)
	require.Equal(t, expected, actual,
		"Account %s balance of %s mismatch: expected %d, got %d",
		owner.Name, a.Name, expected, actual)
}

// RequireRemaining asserts the remaining amount of the listing at addr.
func RequireRemaining(t testing.TB, env *TestEnv, addr types.Address, expected uint64) {
	t.Helper()
	l := env.Listing(addr)
	require.NotNil(t, l, "Expected listing %s to exist", addr)
	require.Equal(t, expected, l.RemainingAmount,
		"Listing %s remaining mismatch: expected %d, got %d", addr, expected, l.RemainingAmount)
}

// RequireCustody asserts that the custody balance of the listing at addr
// holds exactly the listing's remaining amount.
func RequireCustody(t testing.TB, env *TestEnv, addr types.Address, sell *Asset) {
	t.Helper()
	l := env.Listing(addr)
	require.NotNil(t, l, "Expected listing %s to exist", addr)
	held, ok := env.BalanceAt(env.Custody(addr, sell))
	require.True(t, ok, "Expected custody of listing %s to exist", addr)
	require.Equal(t, l.RemainingAmount, held,
		"Listing %s custody holds %d, remaining is %d", addr, held, l.RemainingAmount)
}

// RequireListingClosed asserts that neither the listing at addr nor its
// custody balance exists.
func RequireListingClosed(t testing.TB, env *TestEnv, addr types.Address, sell *Asset) {
	t.Helper()
	require.Nil(t, env.Listing(addr), "Expected listing %s to be closed", addr)
	require.False(t, env.Exists(env.Custody(addr, sell)),
		"Expected custody of listing %s to be closed", addr)
}
