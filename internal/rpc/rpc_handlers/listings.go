package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goListingd/internal/core/ledger/service"
	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
	"github.com/LeJamon/goListingd/internal/types"
)

// ListingsMethod handles the listings RPC method: a filtered, paged scan
// of every listing in address order.
type ListingsMethod struct{ guestMethod }

type listingsParams struct {
	Seller     string `json:"seller,omitempty"`
	SellAsset  string `json:"sell_asset,omitempty"`
	BuyAsset   string `json:"buy_asset,omitempty"`
	ActiveOnly bool   `json:"active_only,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Marker     string `json:"marker,omitempty"`
}

func (m *ListingsMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var request listingsParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if request.Limit < 0 {
		return nil, rpc_types.RpcErrorInvalidParams("Invalid field 'limit'.")
	}

	filter := service.ListingFilter{ActiveOnly: request.ActiveOnly, Limit: request.Limit}
	for _, f := range []struct {
		name  string
		value string
		dst   *types.Address
	}{
		{"seller", request.Seller, &filter.Seller},
		{"sell_asset", request.SellAsset, &filter.SellAsset},
		{"buy_asset", request.BuyAsset, &filter.BuyAsset},
		{"marker", request.Marker, &filter.Marker},
	} {
		addr, rpcErr := optionalAddress(f.name, f.value)
		if rpcErr != nil {
			return nil, rpcErr
		}
		*f.dst = addr
	}

	page, err := ledger.Listings(ctx.Context, filter)
	if err != nil {
		return nil, rpc_types.RpcErrorFromService(err)
	}

	response := map[string]interface{}{"listings": page.Listings}
	if page.Marker != nil {
		response["marker"] = page.Marker.String()
	}
	return response, nil
}
