package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/LeJamon/goListingd/internal/core/ledger/service"
	"github.com/LeJamon/goListingd/internal/logging"
	"github.com/LeJamon/goListingd/internal/rpc/rpc_types"
	"github.com/LeJamon/goListingd/internal/types"
)

const (
	wsMaxMessageSize = 512 * 1024
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = 54 * time.Second
	wsWriteWait      = 10 * time.Second
	wsSendBuffer     = 256
)

// WebSocketServer handles websocket connections: RPC commands plus
// subscriptions to the invocation event stream.
type WebSocketServer struct {
	upgrader         websocket.Upgrader
	registry         *rpc_types.MethodRegistry
	services         *rpc_types.ServiceContainer
	connections      map[string]*WebSocketConnection
	connectionsMutex sync.RWMutex
	log              logging.Logger
}

// WebSocketConnection represents a single websocket connection
type WebSocketConnection struct {
	ID          string
	conn        *websocket.Conn
	sendChannel chan []byte
	ctx         context.Context
	cancel      context.CancelFunc
	clientIP    string

	mutex    sync.Mutex
	streams  map[rpc_types.SubscriptionType]bool
	accounts map[types.Address]bool
	sub      *service.Subscription
}

// NewWebSocketServer creates a websocket server sharing registry with the
// HTTP server.
func NewWebSocketServer(registry *rpc_types.MethodRegistry, services *rpc_types.ServiceContainer, log logging.Logger) *WebSocketServer {
	if log == nil {
		log = logging.Disabled
	}
	return &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		registry:    registry,
		services:    services,
		connections: make(map[string]*WebSocketConnection),
		log:         log,
	}
}

// ServeHTTP handles websocket upgrade requests
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.log.Debugf("WebSocket upgrade failed: %v", err)
		return
	}

	// The connection outlives the upgrade request.
	ctx, cancel := context.WithCancel(context.Background())
	wsConn := &WebSocketConnection{
		ID:          uuid.NewString(),
		conn:        conn,
		sendChannel: make(chan []byte, wsSendBuffer),
		ctx:         ctx,
		cancel:      cancel,
		clientIP:    getClientIP(r),
		streams:     make(map[rpc_types.SubscriptionType]bool),
		accounts:    make(map[types.Address]bool),
	}

	ws.connectionsMutex.Lock()
	ws.connections[wsConn.ID] = wsConn
	ws.connectionsMutex.Unlock()
	ws.log.Debugf("WebSocket connection %s opened from %s", wsConn.ID, wsConn.clientIP)

	go ws.handleConnection(wsConn)
	go ws.handleSend(wsConn)
}

// ConnectionCount returns the number of open connections.
func (ws *WebSocketServer) ConnectionCount() int {
	ws.connectionsMutex.RLock()
	defer ws.connectionsMutex.RUnlock()
	return len(ws.connections)
}

// Close closes every connection.
func (ws *WebSocketServer) Close() {
	ws.connectionsMutex.RLock()
	conns := make([]*WebSocketConnection, 0, len(ws.connections))
	for _, c := range ws.connections {
		conns = append(conns, c)
	}
	ws.connectionsMutex.RUnlock()
	for _, c := range conns {
		ws.closeConnection(c)
	}
}

// handleConnection reads messages until the connection fails
func (ws *WebSocketServer) handleConnection(wsConn *WebSocketConnection) {
	defer ws.closeConnection(wsConn)

	wsConn.conn.SetReadLimit(wsMaxMessageSize)
	_ = wsConn.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	wsConn.conn.SetPongHandler(func(string) error {
		return wsConn.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, message, err := wsConn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.log.Debugf("WebSocket %s read error: %v", wsConn.ID, err)
			}
			return
		}
		ws.handleMessage(wsConn, message)
	}
}

// handleSend writes queued messages and keepalive pings
func (ws *WebSocketServer) handleSend(wsConn *WebSocketConnection) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-wsConn.ctx.Done():
			return
		case <-ticker.C:
			_ = wsConn.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := wsConn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				ws.closeConnection(wsConn)
				return
			}
		case message := <-wsConn.sendChannel:
			_ = wsConn.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := wsConn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				ws.log.Debugf("WebSocket %s send failed: %v", wsConn.ID, err)
				ws.closeConnection(wsConn)
				return
			}
		}
	}
}

// handleMessage processes a single command. Params sit at the top level
// next to command and id.
func (ws *WebSocketServer) handleMessage(wsConn *WebSocketConnection, message []byte) {
	var cmdMap map[string]json.RawMessage
	if err := json.Unmarshal(message, &cmdMap); err != nil {
		ws.sendError(wsConn, rpc_types.RpcErrorParse("Invalid JSON: "+err.Error()), nil)
		return
	}

	cmd := rpc_types.WebSocketCommand{ApiVersion: rpc_types.DefaultApiVersion}
	if raw, ok := cmdMap["id"]; ok {
		_ = json.Unmarshal(raw, &cmd.ID)
	}
	if raw, ok := cmdMap["command"]; !ok || json.Unmarshal(raw, &cmd.Command) != nil || cmd.Command == "" {
		ws.sendError(wsConn, rpc_types.RpcErrorMissingCommand(), cmd.ID)
		return
	}
	if raw, ok := cmdMap["api_version"]; ok {
		_ = json.Unmarshal(raw, &cmd.ApiVersion)
	}
	delete(cmdMap, "command")
	delete(cmdMap, "id")
	delete(cmdMap, "api_version")
	if len(cmdMap) > 0 {
		cmd.Params, _ = json.Marshal(cmdMap)
	}

	ctx := &rpc_types.RpcContext{
		Context:    wsConn.ctx,
		Role:       roleFor(wsConn.clientIP),
		ApiVersion: cmd.ApiVersion,
		ClientIP:   wsConn.clientIP,
		Services:   ws.services,
	}

	switch cmd.Command {
	case "subscribe":
		ws.handleSubscribe(wsConn, ctx, cmd)
	case "unsubscribe":
		ws.handleUnsubscribe(wsConn, ctx, cmd)
	default:
		ws.handleRPCMethod(wsConn, ctx, cmd)
	}
}

// parseSubscription validates streams and accounts of a (un)subscribe.
func parseSubscription(params json.RawMessage) (rpc_types.SubscriptionRequest, []types.Address, *rpc_types.RpcError) {
	var request rpc_types.SubscriptionRequest
	if len(params) > 0 {
		if err := json.Unmarshal(params, &request); err != nil {
			return request, nil, rpc_types.RpcErrorInvalidParams("Invalid subscription parameters")
		}
	}
	for _, s := range request.Streams {
		if s != rpc_types.SubInvocations && s != rpc_types.SubListings {
			return request, nil, rpc_types.RpcErrorStreamMalformed("Unknown stream: " + string(s))
		}
	}
	accounts := make([]types.Address, 0, len(request.Accounts))
	for _, a := range request.Accounts {
		addr, err := types.ParseAddress(a)
		if err != nil {
			return request, nil, rpc_types.RpcErrorActMalformed("Malformed account: " + a)
		}
		accounts = append(accounts, addr)
	}
	if len(request.Streams) == 0 && len(accounts) == 0 {
		return request, nil, rpc_types.RpcErrorInvalidParams("Provide 'streams' or 'accounts'.")
	}
	return request, accounts, nil
}

// handleSubscribe processes subscribe commands
func (ws *WebSocketServer) handleSubscribe(wsConn *WebSocketConnection, ctx *rpc_types.RpcContext, cmd rpc_types.WebSocketCommand) {
	if ws.services == nil || ws.services.Ledger == nil {
		ws.sendError(wsConn, rpc_types.RpcErrorInternal("Ledger service not available"), cmd.ID)
		return
	}
	request, accounts, rpcErr := parseSubscription(cmd.Params)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}

	wsConn.mutex.Lock()
	for _, s := range request.Streams {
		wsConn.streams[s] = true
	}
	for _, a := range accounts {
		wsConn.accounts[a] = true
	}
	var started *service.Subscription
	if wsConn.sub == nil {
		wsConn.sub = ws.services.Ledger.Events().Subscribe()
		started = wsConn.sub
	}
	subscribed := wsConn.sub != nil
	wsConn.mutex.Unlock()

	if !subscribed {
		ws.sendError(wsConn, rpc_types.RpcErrorShutDown(), cmd.ID)
		return
	}
	if started != nil {
		go ws.forwardEvents(wsConn, started)
	}

	ws.sendResponse(wsConn, rpc_types.WebSocketResponse{
		Type:       "response",
		ID:         cmd.ID,
		Status:     "success",
		Result:     map[string]interface{}{},
		ApiVersion: ctx.ApiVersion,
	})
}

// handleUnsubscribe processes unsubscribe commands
func (ws *WebSocketServer) handleUnsubscribe(wsConn *WebSocketConnection, ctx *rpc_types.RpcContext, cmd rpc_types.WebSocketCommand) {
	request, accounts, rpcErr := parseSubscription(cmd.Params)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}

	wsConn.mutex.Lock()
	for _, s := range request.Streams {
		delete(wsConn.streams, s)
	}
	for _, a := range accounts {
		delete(wsConn.accounts, a)
	}
	var sub *service.Subscription
	if len(wsConn.streams) == 0 && len(wsConn.accounts) == 0 {
		sub, wsConn.sub = wsConn.sub, nil
	}
	wsConn.mutex.Unlock()

	if sub != nil {
		sub.Cancel()
	}

	ws.sendResponse(wsConn, rpc_types.WebSocketResponse{
		Type:       "response",
		ID:         cmd.ID,
		Status:     "success",
		Result:     map[string]interface{}{},
		ApiVersion: ctx.ApiVersion,
	})
}

// eventMessage is an event as pushed to subscribers
type eventMessage struct {
	Type       string         `json:"type"`
	Invocation *service.Event `json:"invocation"`
}

// forwardEvents pushes matching events until the subscription ends
func (ws *WebSocketServer) forwardEvents(wsConn *WebSocketConnection, sub *service.Subscription) {
	for ev := range sub.C {
		if !wsConn.wants(ev) {
			continue
		}
		data, err := json.Marshal(eventMessage{Type: "invocation", Invocation: ev})
		if err != nil {
			ws.log.Errorf("Failed to marshal event %s: %v", ev.Hash, err)
			continue
		}
		select {
		case wsConn.sendChannel <- data:
		case <-wsConn.ctx.Done():
			return
		default:
			ws.log.Debugf("Skipping event %s for slow WebSocket connection %s", ev.Hash, wsConn.ID)
		}
	}
}

// wants reports whether the connection's subscriptions select ev
func (c *WebSocketConnection) wants(ev *service.Event) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.streams[rpc_types.SubInvocations] {
		return true
	}
	if c.streams[rpc_types.SubListings] && ev.Listing != nil {
		return true
	}
	for addr := range c.accounts {
		if ev.Touches(addr) {
			return true
		}
	}
	return false
}

// handleRPCMethod processes regular RPC method calls over websocket
func (ws *WebSocketServer) handleRPCMethod(wsConn *WebSocketConnection, ctx *rpc_types.RpcContext, cmd rpc_types.WebSocketCommand) {
	result, rpcErr := execute(ws.registry, cmd.Command, cmd.Params, ctx, ws.log)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}
	ws.sendResponse(wsConn, rpc_types.WebSocketResponse{
		Type:       "response",
		ID:         cmd.ID,
		Status:     "success",
		Result:     result,
		ApiVersion: ctx.ApiVersion,
	})
}

// sendResponse queues a response
func (ws *WebSocketServer) sendResponse(wsConn *WebSocketConnection, response rpc_types.WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		ws.log.Errorf("Failed to marshal WebSocket response: %v", err)
		return
	}
	ws.enqueue(wsConn, data)
}

// sendError queues an error response with flat error fields
func (ws *WebSocketServer) sendError(wsConn *WebSocketConnection, rpcErr *rpc_types.RpcError, id interface{}) {
	ws.sendResponse(wsConn, rpc_types.WebSocketResponse{
		Type:         "response",
		Status:       "error",
		ID:           id,
		Error:        rpcErr.ErrorString,
		ErrorCode:    rpcErr.Code,
		ErrorMessage: rpcErr.Message,
	})
}

// enqueue hands data to the writer. A client that cannot keep up with
// command responses is disconnected.
func (ws *WebSocketServer) enqueue(wsConn *WebSocketConnection, data []byte) {
	select {
	case wsConn.sendChannel <- data:
	case <-wsConn.ctx.Done():
	default:
		ws.log.Warnf("WebSocket send channel full, closing connection %s", wsConn.ID)
		ws.closeConnection(wsConn)
	}
}

// closeConnection closes a websocket connection. It is safe to call more
// than once.
func (ws *WebSocketServer) closeConnection(wsConn *WebSocketConnection) {
	ws.connectionsMutex.Lock()
	_, open := ws.connections[wsConn.ID]
	delete(ws.connections, wsConn.ID)
	ws.connectionsMutex.Unlock()
	if !open {
		return
	}

	wsConn.cancel()

	wsConn.mutex.Lock()
	sub := wsConn.sub
	wsConn.sub = nil
	wsConn.mutex.Unlock()
	if sub != nil {
		sub.Cancel()
	}

	_ = wsConn.conn.Close()
	ws.log.Debugf("WebSocket connection %s closed", wsConn.ID)
}
