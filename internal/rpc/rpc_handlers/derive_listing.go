package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goListingd/internal/core/ledger/service"
	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
)

// DeriveListingMethod handles the derive_listing RPC method. It computes
// the listing address of (seller, listing_id) and, given the sell asset,
// its custody balance address. Nothing needs to exist on the ledger.
type DeriveListingMethod struct{ guestMethod }

type deriveListingParams struct {
	Seller    string            `json:"seller"`
	ListingID *rpc_types.Amount `json:"listing_id"`
	SellAsset string            `json:"sell_asset,omitempty"`
}

func (m *DeriveListingMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var request deriveListingParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	seller, rpcErr := requireAddress("seller", request.Seller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if request.ListingID == nil {
		return nil, rpc_types.RpcErrorInvalidParams("Missing field 'listing_id'.")
	}
	sellAsset, rpcErr := optionalAddress("sell_asset", request.SellAsset)
	if rpcErr != nil {
		return nil, rpcErr
	}

	d, err := ledger.DeriveListing(seller, uint64(*request.ListingID))
	if err != nil {
		return nil, rpc_types.RpcErrorInternal(err.Error())
	}
	response := map[string]interface{}{
		"seller":     d.Seller.String(),
		"listing_id": d.ListingID,
		"listing":    d.Listing.String(),
		"bump":       d.Bump,
	}
	if !sellAsset.IsZero() {
		custody, err := service.Custody(d.Listing, sellAsset)
		if err != nil {
			return nil, rpc_types.RpcErrorInternal(err.Error())
		}
		response["custody_balance"] = custody.String()
	}
	return response, nil
}
