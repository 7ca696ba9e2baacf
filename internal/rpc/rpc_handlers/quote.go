package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
)

// QuoteMethod handles the quote RPC method: the cost of buying amount
// units from a listing, without changing state.
type QuoteMethod struct{ guestMethod }

type quoteParams struct {
	Listing string           `json:"listing"`
	Amount  rpc_types.Amount `json:"amount"`
}

func (m *QuoteMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var request quoteParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := requireAddress("listing", request.Listing)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if request.Amount == 0 {
		return nil, rpc_types.RpcErrorInvalidParams("Field 'amount' must be positive.")
	}

	q, err := ledger.Quote(addr, uint64(request.Amount))
	if err != nil {
		return nil, rpc_types.RpcErrorFromService(err)
	}
	return map[string]interface{}{"quote": q}, nil
}
