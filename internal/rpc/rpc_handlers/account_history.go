package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
)

// AccountHistoryMethod handles the account_history RPC method: recorded
// invocations signed by an account, newest first.
type AccountHistoryMethod struct{ guestMethod }

type accountHistoryParams struct {
	Account string `json:"account"`
	pageParams
}

func (m *AccountHistoryMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var request accountHistoryParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := requireAddress("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}

	opts := request.options()
	invs, err := ledger.SignerHistory(ctx.Context, addr, opts)
	if err != nil {
		return nil, rpc_types.RpcErrorFromService(err)
	}
	response := historyPage("invocations", invs, opts)
	response["account"] = addr.String()
	return response, nil
}
