package rpc_handlers

import (
	"encoding/json"

	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb"
	"github.com/LeJamon/goListingd/internal/types"
)

// guestMethod carries the role and version answers shared by public methods.
type guestMethod struct{}

func (guestMethod) RequiredRole() rpc_types.Role {
	return rpc_types.RoleGuest
}

func (guestMethod) SupportedApiVersions() []int {
	return []int{rpc_types.ApiVersion1}
}

// ledgerService returns the ledger service of the request.
func ledgerService(ctx *rpc_types.RpcContext) (rpc_types.LedgerService, *rpc_types.RpcError) {
	if ctx.Services == nil || ctx.Services.Ledger == nil {
		return nil, rpc_types.RpcErrorInternal("Ledger service not available")
	}
	return ctx.Services.Ledger, nil
}

// parseParams decodes params into dst. Missing params leave dst untouched.
func parseParams(params json.RawMessage, dst interface{}) *rpc_types.RpcError {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return rpc_types.RpcErrorInvalidParams("Invalid parameters: " + err.Error())
	}
	return nil
}

// requireAddress parses a mandatory base58 address field.
func requireAddress(field, value string) (types.Address, *rpc_types.RpcError) {
	if value == "" {
		return types.Address{}, rpc_types.RpcErrorInvalidParams("Missing field '" + field + "'.")
	}
	addr, err := types.ParseAddress(value)
	if err != nil {
		return types.Address{}, rpc_types.RpcErrorActMalformed("Malformed '" + field + "': " + err.Error())
	}
	return addr, nil
}

// optionalAddress parses an address field that may be empty.
func optionalAddress(field, value string) (types.Address, *rpc_types.RpcError) {
	if value == "" {
		return types.Address{}, nil
	}
	return requireAddress(field, value)
}

// pageParams are the paging fields of history queries.
type pageParams struct {
	Limit  int   `json:"limit,omitempty"`
	Marker int64 `json:"marker,omitempty"`
}

func (p pageParams) options() relationaldb.PageOptions {
	return relationaldb.PageOptions{Limit: p.Limit, Before: p.Marker}
}

// historyPage renders invocations with a marker when more may follow.
func historyPage(key string, invs []relationaldb.Invocation, opts relationaldb.PageOptions) map[string]interface{} {
	resp := map[string]interface{}{key: invs}
	limit := opts.Limit
	if limit == 0 {
		limit = relationaldb.DefaultPageLimit
	}
	if len(invs) > 0 && len(invs) == limit {
		resp["marker"] = invs[len(invs)-1].ID
	}
	return resp
}
