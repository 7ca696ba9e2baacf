package rpc_types

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/LeJamon/goListingd/internal/core/ledger/service"
	"github.com/LeJamon/goListingd/internal/core/tx"
	"github.com/LeJamon/goListingd/internal/core/tx/listing"
	"github.com/LeJamon/goListingd/internal/storage/relationaldb"
	"github.com/LeJamon/goListingd/internal/types"
)

// API Version constants
const (
	ApiVersion1       = 1
	DefaultApiVersion = ApiVersion1
)

// Role-based access control
type Role int

const (
	RoleGuest Role = iota
	RoleAdmin
)

// RpcContext contains request-specific information
type RpcContext struct {
	Context    context.Context
	Role       Role
	ApiVersion int
	ClientIP   string
	Services   *ServiceContainer
}

// MethodHandler is implemented by every RPC method
type MethodHandler interface {
	Handle(ctx *RpcContext, params json.RawMessage) (interface{}, *RpcError)
	RequiredRole() Role
	SupportedApiVersions() []int
}

// MethodRegistry maps method names to handlers
type MethodRegistry struct {
	methods map[string]MethodHandler
}

func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{
		methods: make(map[string]MethodHandler),
	}
}

func (r *MethodRegistry) Register(name string, handler MethodHandler) {
	r.methods[name] = handler
}

func (r *MethodRegistry) Get(name string) (MethodHandler, bool) {
	handler, exists := r.methods[name]
	return handler, exists
}

func (r *MethodRegistry) List() []string {
	methods := make([]string, 0, len(r.methods))
	for name := range r.methods {
		methods = append(methods, name)
	}
	return methods
}

// ServiceContainer holds the services RPC handlers call into
type ServiceContainer struct {
	Ledger LedgerService
}

// LedgerService is the part of the ledger service exposed over RPC.
// *service.Service implements it.
type LedgerService interface {
	ProgramID() types.Address
	IsStandalone() bool
	Events() *service.EventPublisher

	Submit(ctx context.Context, env *tx.Envelope) (tx.ApplyResult, error)
	Faucet(ctx context.Context, dest types.Address, amount uint64) (tx.ApplyResult, error)

	ListingInfo(addr types.Address) (*listing.Info, error)
	ListingBySeller(seller types.Address, listingID uint64) (*listing.Info, error)
	Listings(ctx context.Context, f service.ListingFilter) (*service.ListingPage, error)
	DeriveListing(seller types.Address, listingID uint64) (*service.Derivation, error)
	Quote(addr types.Address, buyAmount uint64) (*listing.QuoteResult, error)

	Balance(addr types.Address) (*service.BalanceInfo, error)
	AssociatedBalance(owner, asset types.Address) (*service.BalanceInfo, error)
	Asset(addr types.Address) (*service.AssetInfo, error)
	Wallet(addr types.Address) (uint64, error)
	NextNonce(addr types.Address) (uint64, error)

	ListingHistory(ctx context.Context, addr types.Address, opts relationaldb.PageOptions) ([]relationaldb.Invocation, error)
	SignerHistory(ctx context.Context, addr types.Address, opts relationaldb.PageOptions) ([]relationaldb.Invocation, error)
	GetInvocation(ctx context.Context, hash relationaldb.Hash) (*relationaldb.Invocation, error)

	ServerInfo(ctx context.Context) (*service.ServerInfo, error)
}

// Amount is a uint64 accepted as a JSON number or a decimal string.
// Amounts above 2^53 lose precision as JSON numbers in most clients.
type Amount uint64

// UnmarshalJSON implements custom unmarshaling for Amount
func (a *Amount) UnmarshalJSON(data []byte) error {
	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		v, err := strconv.ParseUint(strVal, 10, 64)
		if err != nil {
			return fmt.Errorf("amount %q: %w", strVal, err)
		}
		*a = Amount(v)
		return nil
	}

	var numVal uint64
	if err := json.Unmarshal(data, &numVal); err == nil {
		*a = Amount(numVal)
		return nil
	}

	return fmt.Errorf("amount must be a number or string, got: %s", string(data))
}

// JSON-RPC request: {"method": "name", "params": [{...}]}
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
	ID     interface{}       `json:"id,omitempty"`
}

// WebSocketCommand is a command received on the websocket
type WebSocketCommand struct {
	Command    string
	ID         interface{}
	ApiVersion int
	Params     json.RawMessage
}

// WebSocketResponse represents a websocket API response
type WebSocketResponse struct {
	Status       string      `json:"status"`
	Type         string      `json:"type"`
	Result       interface{} `json:"result,omitempty"`
	ID           interface{} `json:"id,omitempty"`
	ApiVersion   int         `json:"api_version,omitempty"`
	Error        string      `json:"error,omitempty"`
	ErrorCode    int         `json:"error_code,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// SubscriptionType names an event stream
type SubscriptionType string

const (
	// SubInvocations delivers every applied invocation
	SubInvocations SubscriptionType = "invocations"
	// SubListings delivers invocations that touch a listing
	SubListings SubscriptionType = "listings"
)

// SubscriptionRequest is the body of subscribe and unsubscribe
type SubscriptionRequest struct {
	Streams  []SubscriptionType `json:"streams,omitempty"`
	Accounts []string           `json:"accounts,omitempty"`
}
