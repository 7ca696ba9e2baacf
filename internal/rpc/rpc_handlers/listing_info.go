package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goListingd/internal/core/tx/listing"
	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
)

// ListingInfoMethod handles the listing_info RPC method. The listing is
// named by address, or by seller and listing_id.
type ListingInfoMethod struct{ guestMethod }

type listingInfoParams struct {
	Listing   string            `json:"listing,omitempty"`
	Seller    string            `json:"seller,omitempty"`
	ListingID *rpc_types.Amount `json:"listing_id,omitempty"`
}

func (m *ListingInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var request listingInfoParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}

	var (
		info *listing.Info
		err  error
	)
	switch {
	case request.Listing != "":
		addr, rpcErr := requireAddress("listing", request.Listing)
		if rpcErr != nil {
			return nil, rpcErr
		}
		info, err = ledger.ListingInfo(addr)
	case request.Seller != "" && request.ListingID != nil:
		seller, rpcErr := requireAddress("seller", request.Seller)
		if rpcErr != nil {
			return nil, rpcErr
		}
		info, err = ledger.ListingBySeller(seller, uint64(*request.ListingID))
	default:
		return nil, rpc_types.RpcErrorInvalidParams("Provide 'listing', or 'seller' and 'listing_id'.")
	}
	if err != nil {
		return nil, rpc_types.RpcErrorFromService(err)
	}

	return map[string]interface{}{"listing": info}, nil
}
