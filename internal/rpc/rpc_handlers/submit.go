package rpc_handlers

import (
	"encoding/hex"
	"encoding/json"

	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/all"
	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
)

// SubmitMethod handles the submit RPC method. It applies a signed envelope
// and reports the engine result.
type SubmitMethod struct{ guestMethod }

type submitParams struct {
	Envelope *all.WireEnvelope `json:"envelope"`
}

func (m *SubmitMethod) Handle(ctx *rpc_types.RpcContext, params json.RawMessage) (interface{}, *rpc_types.RpcError) {
	ledger, rpcErr := ledgerService(ctx)
	if rpcErr != nil {
		return nil, rpcErr
	}

	var request submitParams
	if rpcErr := parseParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if request.Envelope == nil {
		return nil, rpc_types.RpcErrorInvalidParams("Missing field 'envelope'.")
	}

	env, err := all.FromWire(request.Envelope)
	if err != nil {
		return nil, rpc_types.RpcErrorInvalidInstruction(err.Error())
	}

	res, err := ledger.Submit(ctx.Context, env)
	if err != nil {
		return nil, rpc_types.RpcErrorFromService(err)
	}

	return applyResponse(res), nil
}

// applyResponse renders an engine result.
func applyResponse(res tx.ApplyResult) map[string]interface{} {
	response := map[string]interface{}{
		"engine_result":         res.Result.String(),
		"engine_result_code":    int(res.Result),
		"engine_result_message": res.Result.Message(),
		"applied":               res.Applied,
		"hash":                  hex.EncodeToString(res.Hash[:]),
	}
	if code, ok := res.Result.ProgramCode(); ok {
		response["program_error_code"] = code
	}
	if res.Metadata != nil {
		response["meta"] = res.Metadata
	}
	return response
}
