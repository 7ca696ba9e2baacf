package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goListingd/internal/core/ledger/service"
	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
)

// BalanceInfoMethod handles the balance_info RPC method. The balance is
// named by address, or by owner and asset for the associated balance.
type BalanceInfoMethod struct{ guestMethod }

type balanceInfoParams struct {
	Balance string `json:"balance,omitempty"`
	Owner   string `json:"owner,omitempty"`
	Asset   string `json:"asset,omitempty"`
}

func (m *BalanceInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var request balanceInfoParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}

	var (
		info *service.BalanceInfo
		err  error
	)
	switch {
	case request.Balance != "":
		addr, rpcErr := requireAddress("balance", request.Balance)
		if rpcErr != nil {
			return nil, rpcErr
		}
		info, err = ledger.Balance(addr)
	case request.Owner != "" && request.Asset != "":
		owner, rpcErr := requireAddress("owner", request.Owner)
		if rpcErr != nil {
			return nil, rpcErr
		}
		asset, rpcErr := requireAddress("asset", request.Asset)
		if rpcErr != nil {
			return nil, rpcErr
		}
		info, err = ledger.AssociatedBalance(owner, asset)
	default:
		return nil, rpc_types.RpcErrorInvalidParams("Provide 'balance', or 'owner' and 'asset'.")
	}
	if err != nil {
		return nil, rpc_types.RpcErrorFromService(err)
	}
	return map[string]interface{}{"balance": info}, nil
}
