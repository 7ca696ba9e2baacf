package rpc

import (
	"net/http"

	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
)

// Endpoint paths
const (
	PathRPC       = "/"
	PathWebSocket = "/ws"
	PathMetrics   = "/metrics"
)

// HandlerConfig selects the endpoints served next to JSON-RPC.
type HandlerConfig struct {
	Services        *rpc_types.ServiceContainer
	MaxRequestBytes int64

	// Websocket enables PathWebSocket
	Websocket bool

	// Metrics is served on PathMetrics when set
	Metrics http.Handler

	Log logging.Logger
}

// Handler routes JSON-RPC, websocket and metrics requests.
type Handler struct {
	mux *http.ServeMux
	rpc *Server
	ws  *WebSocketServer
}

// NewHandler creates the HTTP handler of the RPC listener.
func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{
		mux: http.NewServeMux(),
		rpc: NewServer(cfg.Services, cfg.MaxRequestBytes, cfg.Log),
	}
	h.mux.Handle(PathRPC, h.rpc)
	if cfg.Websocket {
		h.ws = NewWebSocketServer(h.rpc.Registry(), cfg.Services, cfg.Log)
		h.mux.Handle(PathWebSocket, h.ws)
	}
	if cfg.Metrics != nil {
		h.mux.Handle(PathMetrics, cfg.Metrics)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Close drops every websocket connection. http.Server.Shutdown does not
// track hijacked connections.
func (h *Handler) Close() {
	if h.ws != nil {
		h.ws.Close()
	}
}
