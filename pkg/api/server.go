// Package api exposes the engine's control surface to operator tooling
// over HTTP and WebSocket, speaking JSON-RPC in the Moonraker style so
// existing printer frontends can poll status and toggle the feature.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bricklayers/pkg/brick"
	"bricklayers/pkg/log"
	"bricklayers/pkg/metrics"
)

// Server serves the engine status and control operations.
type Server struct {
	engine   *brick.Engine
	registry *metrics.Registry
	log      *log.Logger

	httpServer *http.Server
	upgrader   websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// Config holds server configuration.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":7135".
	Addr string

	Engine   *brick.Engine
	Registry *metrics.Registry
	Logger   *log.Logger
}

// New creates a server. Registry and Logger may be nil.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.GetLogger("api")
	}
	s := &Server{
		engine:   cfg.Engine,
		registry: cfg.Registry,
		log:      logger,
		clients:  make(map[*websocket.Conn]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/jsonrpc", s.handleJSONRPC)
	mux.HandleFunc("/websocket", s.handleWebSocket)
	return mux
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info("api server listening on %s", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server and closes all WebSocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for c := range s.clients {
		c.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.engine.Status())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		http.Error(w, "metrics disabled", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprint(w, s.registry.Render())
}

// JSON-RPC plumbing.

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

const (
	rpcParseError     = -32700
	rpcMethodNotFound = -32601
	rpcInvalidParams  = -32602
	rpcInternalError  = -32603
)

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req rpcRequest
	resp := rpcResponse{JSONRPC: "2.0"}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp.Error = &rpcError{Code: rpcParseError, Message: "parse error"}
	} else {
		resp = s.dispatch(&req)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req rpcRequest
		var resp rpcResponse
		if err := json.Unmarshal(data, &req); err != nil {
			resp = rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: rpcParseError, Message: "parse error"}}
		} else {
			resp = s.dispatch(&req)
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

type setParameterParams struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (s *Server) dispatch(req *rpcRequest) rpcResponse {
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	switch req.Method {
	case "bricklayers.status":
		resp.Result = s.engine.Status()
	case "bricklayers.enable":
		s.engine.Enable()
		resp.Result = "ok"
	case "bricklayers.disable":
		s.engine.Disable()
		resp.Result = "ok"
	case "bricklayers.set_parameter":
		var p setParameterParams
		if req.Params == nil {
			resp.Error = &rpcError{Code: rpcInvalidParams, Message: "params required"}
			break
		}
		if err := json.Unmarshal(req.Params, &p); err != nil || p.Name == "" {
			resp.Error = &rpcError{Code: rpcInvalidParams, Message: "expected {name, value}"}
			break
		}
		if err := s.engine.SetParameter(p.Name, p.Value); err != nil {
			resp.Error = &rpcError{Code: rpcInternalError, Message: err.Error()}
			break
		}
		resp.Result = "ok"
	default:
		resp.Error = &rpcError{Code: rpcMethodNotFound, Message: "method not found: " + req.Method}
	}
	return resp
}
