package rpc

import (
	"github.com/LeJamon/goListingd/internal/rpc/rpc_handlers"
	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
)

// registerAllMethods registers every RPC method
func registerAllMethods(registry *rpc_types.MethodRegistry) {
	// Server methods
	registry.Register("ping", &rpc_handlers.PingMethod{})
	registry.Register("server_info", &rpc_handlers.ServerInfoMethod{})

	// Invocations
	registry.Register("submit", &rpc_handlers.SubmitMethod{})
	registry.Register("faucet", &rpc_handlers.FaucetMethod{})

	// Listings
	registry.Register("listing_info", &rpc_handlers.ListingInfoMethod{})
	registry.Register("listings", &rpc_handlers.ListingsMethod{})
	registry.Register("derive_listing", &rpc_handlers.DeriveListingMethod{})
	registry.Register("quote", &rpc_handlers.QuoteMethod{})

	// Assets and balances
	registry.Register("balance_info", &rpc_handlers.BalanceInfoMethod{})
	registry.Register("asset_info", &rpc_handlers.AssetInfoMethod{})
	registry.Register("wallet_info", &rpc_handlers.WalletInfoMethod{})

	// History
	registry.Register("listing_history", &rpc_handlers.ListingHistoryMethod{})
	registry.Register("account_history", &rpc_handlers.AccountHistoryMethod{})
	registry.Register("invocation", &rpc_handlers.InvocationMethod{})
}
