package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb"
)

// InvocationMethod handles the invocation RPC method: one recorded
// invocation by hash.
type InvocationMethod struct{ guestMethod }

type invocationParams struct {
	Hash string `json:"hash"`
}

func (m *InvocationMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var request invocationParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	hash, err := relationaldb.ParseHash(request.Hash)
	if err != nil {
		return nil, rpc_types.RpcErrorInvalidHash("Malformed 'hash'.")
	}

	inv, err := ledger.GetInvocation(ctx.Context, hash)
	if err != nil {
		return nil, rpc_types.RpcErrorFromService(err)
	}
	return map[string]interface{}{"invocation": inv}, nil
}
