package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
)

// AssetInfoMethod handles the asset_info RPC method
type AssetInfoMethod struct{ guestMethod }

type assetInfoParams struct {
	Asset string `json:"asset"`
}

func (m *AssetInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var request assetInfoParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := requireAddress("asset", request.Asset)
	if rpcErr != nil {
		return nil, rpcErr
	}

	info, err := ledger.Asset(addr)
	if err != nil {
		return nil, rpc_types.RpcErrorFromService(err)
	}
	return map[string]interface{}{"asset": info}, nil
}
