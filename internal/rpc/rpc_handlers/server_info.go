package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
	"github.com/LeJamon/goListingd/internal/version"
)

// ServerInfoMethod handles the server_info RPC method
type ServerInfoMethod struct{ guestMethod }

func (m *ServerInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	info, err := ledger.ServerInfo(ctx.Context)
	if err != nil {
		return nil, rpc_types.RpcErrorFromService(err)
	}

	state := "full"
	if info.Standalone {
		state = "standalone"
	}
	return map[string]interface{}{
		"info":          info,
		"build_version": version.Version,
		"server_state":  state,
	}, nil
}
