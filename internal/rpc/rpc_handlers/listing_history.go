package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
)

// ListingHistoryMethod handles the listing_history RPC method: recorded
// invocations of one listing, newest first.
type ListingHistoryMethod struct{ guestMethod }

type listingHistoryParams struct {
	Listing string `json:"listing"`
	pageParams
}

func (m *ListingHistoryMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var request listingHistoryParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := requireAddress("listing", request.Listing)
	if rpcErr != nil {
		return nil, rpcErr
	}

	opts := request.options()
	invs, err := ledger.ListingHistory(ctx.Context, addr, opts)
	if err != nil {
		return nil, rpc_types.RpcErrorFromService(err)
	}
	response := historyPage("invocations", invs, opts)
	response["listing"] = addr.String()
	return response, nil
}
