package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
)

// WalletInfoMethod handles the wallet_info RPC method: the native balance
// of an account and the nonce its next envelope must carry. Unknown accounts
// hold nothing.
type WalletInfoMethod struct{ guestMethod }

type walletInfoParams struct {
	Account string `json:"account"`
}

func (m *WalletInfoMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var request walletInfoParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := requireAddress("account", request.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}

	lamports, err := ledger.Wallet(addr)
	if err != nil {
		return nil, rpc_types.RpcErrorFromService(err)
	}
	nonce, err := ledger.NextNonce(addr)
	if err != nil {
		return nil, rpc_types.RpcErrorFromService(err)
	}
	return map[string]interface{}{
		"account":    addr.String(),
		"lamports":   lamports,
		"next_nonce": nonce,
	}, nil
}
