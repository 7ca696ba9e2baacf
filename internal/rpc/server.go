package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
)

// DefaultMaxRequestBytes bounds a request body when none is configured.
const DefaultMaxRequestBytes = 1 << 20

// Server answers JSON-RPC over HTTP. A POST carries
// {"method": ..., "params": [{...}], "id": ...}; a GET runs the parameterless
// method named by ?command=, server_info by default.
type Server struct {
	registry *rpc_types.MethodRegistry
	services *rpc_types.ServiceContainer
	maxBody  int64
	log      logging.Logger
}

func NewServer(services *rpc_types.ServiceContainer, maxBody int64, log logging.Logger) *Server {
	if maxBody <= 0 {
		maxBody = DefaultMaxRequestBytes
	}
	if log == nil {
		log = logging.Disabled
	}
	s := &Server{
		registry: rpc_types.NewMethodRegistry(),
		services: services,
		maxBody:  maxBody,
		log:      log,
	}
	registerAllMethods(s.registry)
	return s
}

// Registry returns the method registry, shared with the websocket server.
func (s *Server) Registry() *rpc_types.MethodRegistry {
	return s.registry
}

// call is one decoded request.
type call struct {
	method string
	id     interface{}
	params json.RawMessage
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Content-Type", "application/json")

	var (
		c      call
		rpcErr *rpc_types.RpcError
	)
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet:
		c.method = r.URL.Query().Get("command")
		if c.method == "" {
			c.method = "server_info"
		}
	case http.MethodPost:
		c, rpcErr = s.decodeCall(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if rpcErr != nil {
		s.reply(w, c, nil, rpcErr)
		return
	}

	ctx := s.newContext(r)
	if v, ok := apiVersionOf(c.params); ok {
		ctx.ApiVersion = v
	}
	result, rpcErr := execute(s.registry, c.method, c.params, ctx, s.log)
	s.reply(w, c, result, rpcErr)
}

func (s *Server) decodeCall(w http.ResponseWriter, r *http.Request) (call, *rpc_types.RpcError) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return call{}, rpc_types.RpcErrorInvalidParams("Request body too large")
		}
		return call{}, rpc_types.RpcErrorInternal("Failed to read request body")
	}

	var req rpc_types.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return call{}, rpc_types.RpcErrorParse("Invalid JSON: " + err.Error())
	}
	c := call{method: req.Method, id: req.ID}
	if req.Method == "" {
		return c, rpc_types.RpcErrorMissingCommand()
	}
	// params is an array holding one object
	if len(req.Params) > 0 {
		c.params = req.Params[0]
	}
	return c, nil
}

func apiVersionOf(params json.RawMessage) (int, bool) {
	if params == nil {
		return 0, false
	}
	var versioned struct {
		ApiVersion *int `json:"api_version"`
	}
	if json.Unmarshal(params, &versioned) != nil || versioned.ApiVersion == nil {
		return 0, false
	}
	return *versioned.ApiVersion, true
}

func (s *Server) newContext(r *http.Request) *rpc_types.RpcContext {
	ip := getClientIP(r)
	return &rpc_types.RpcContext{
		Context:    r.Context(),
		Role:       roleFor(ip),
		ApiVersion: rpc_types.DefaultApiVersion,
		ClientIP:   ip,
		Services:   s.services,
	}
}

// execute runs method for both transports.
func execute(registry *rpc_types.MethodRegistry, method string, params json.RawMessage, ctx *rpc_types.RpcContext, log logging.Logger) (interface{}, *rpc_types.RpcError) {
	handler, ok := registry.Get(method)
	switch {
	case !ok:
		return nil, rpc_types.RpcErrorMethodNotFound(method)
	case ctx.Role < handler.RequiredRole():
		return nil, rpc_types.RpcErrorCommandUntrusted(method)
	}
	if versions := handler.SupportedApiVersions(); len(versions) > 0 && !slices.Contains(versions, ctx.ApiVersion) {
		return nil, rpc_types.RpcErrorInvalidApiVersion(strconv.Itoa(ctx.ApiVersion))
	}

	result, rpcErr := handler.Handle(ctx, params)
	if rpcErr != nil && rpcErr.Code == rpc_types.RpcINTERNAL {
		log.Errorf("RPC %s from %s failed: %s", method, ctx.ClientIP, rpcErr.Message)
	} else {
		log.Tracef("RPC %s from %s", method, ctx.ClientIP)
	}
	return result, rpcErr
}

type httpReply struct {
	Result interface{} `json:"result"`
	ID     interface{} `json:"id,omitempty"`
}

type errorResult struct {
	Status       string                 `json:"status"`
	Error        string                 `json:"error"`
	ErrorCode    int                    `json:"error_code"`
	ErrorMessage string                 `json:"error_message"`
	Request      map[string]interface{} `json:"request,omitempty"`
}

// reply writes the response. Failures are reported in result with status
// "error" and HTTP 200; a failed call echoes its params as request.
func (s *Server) reply(w http.ResponseWriter, c call, result interface{}, rpcErr *rpc_types.RpcError) {
	out := httpReply{ID: c.id}
	switch m, isMap := result.(map[string]interface{}); {
	case rpcErr != nil:
		e := errorResult{
			Status:       "error",
			Error:        rpcErr.ErrorString,
			ErrorCode:    rpcErr.Code,
			ErrorMessage: rpcErr.Message,
		}
		if c.method != "" {
			e.Request = map[string]interface{}{}
			if c.params != nil {
				_ = json.Unmarshal(c.params, &e.Request)
			}
			e.Request["command"] = c.method
		}
		out.Result = e
	case isMap:
		m["status"] = "success"
		out.Result = m
	default:
		out.Result = map[string]interface{}{"status": "success", "data": result}
	}

	data, err := json.Marshal(out)
	if err != nil {
		s.log.Errorf("Failed to marshal %s response: %v", c.method, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.log.Debugf("Failed to write %s response: %v", c.method, err)
	}
}

// roleFor grants admin methods to loopback clients only.
func roleFor(ip string) rpc_types.Role {
	if parsed := net.ParseIP(ip); parsed != nil && parsed.IsLoopback() {
		return rpc_types.RoleAdmin
	}
	return rpc_types.RoleGuest
}

// getClientIP returns the peer address. Forwarding headers are not trusted.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.Trim(r.RemoteAddr, "[]")
	}
	return host
}
