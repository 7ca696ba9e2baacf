package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
)

// DefaultFaucetAmount is credited when the request names no amount.
const DefaultFaucetAmount = 10_000_000_000

// FaucetMethod handles the faucet RPC method. Standalone only.
type FaucetMethod struct{}

type faucetParams struct {
	Destination string           `json:"destination"`
	Amount      rpc_types.Amount `json:"amount,omitempty"`
}

func (m *FaucetMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if !ledger.IsStandalone() {
		return nil, rpc_types.RpcErrorNotStandalone()
	}

	var request faucetParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	dest, rpcErr := requireAddress("destination", request.Destination)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount := uint64(request.Amount)
	if amount == 0 {
		amount = DefaultFaucetAmount
	}

	res, err := ledger.Faucet(ctx.Context, dest, amount)
	if err != nil {
		return nil, rpc_types.RpcErrorFromService(err)
	}
	response := applyResponse(res)
	if lamports, err := ledger.Wallet(dest); err == nil {
		response["lamports"] = lamports
	}
	return response, nil
}

func (m *FaucetMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleAdmin
}

func (m *FaucetMethod) SupportedApiVersions() []int {
	return []int{rpc_types.ApiVersion1}
}
