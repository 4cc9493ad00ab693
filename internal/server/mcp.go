package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/ciforge/ciforge/internal/core"
	"github.com/ciforge/ciforge/internal/tool"
)

const protocolVersion = "2024-11-05"

// MCPServer serves newline-delimited JSON-RPC 2.0 over TCP. One goroutine per
// connection; requests on a connection are handled in order, and the
// connection context is cancelled when the peer goes away so in-flight
// subprocesses are killed rather than left running unobserved.
type MCPServer struct {
	addr       string
	dispatcher *Dispatcher
	logger     *slog.Logger
	version    string

	ln     net.Listener
	mu     sync.Mutex
	closed bool
}

func NewMCPServer(addr string, dispatcher *Dispatcher, logger *slog.Logger, version string) *MCPServer {
	return &MCPServer{addr: addr, dispatcher: dispatcher, logger: logger, version: version}
}

type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *MCPServer) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("mcp server starting", "addr", s.addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			s.logger.Error("mcp accept error", "err", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *MCPServer) Shutdown(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

// Addr returns the bound listener address, for tests that listen on :0.
func (s *MCPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *MCPServer) handleConn(conn net.Conn) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A dedicated reader goroutine keeps watching the socket while a call is
	// in flight, so a peer disconnect cancels the per-connection context
	// immediately instead of after the handler returns.
	lines := make(chan []byte)
	go func() {
		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		for scanner.Scan() {
			lines <- append([]byte(nil), scanner.Bytes()...)
		}
		cancel()
		close(lines)
	}()

	for line := range lines {
		if len(line) == 0 {
			continue
		}

		var req jsonRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(conn, jsonRPCResponse{
				JSONRPC: "2.0",
				ID:      nil,
				Error:   &rpcError{Code: -32700, Message: "parse error"},
			})
			continue
		}

		s.writeResponse(conn, s.handle(ctx, req))
	}
}

func (s *MCPServer) writeResponse(w io.Writer, resp jsonRPCResponse) {
	data, _ := json.Marshal(resp)
	data = append(data, '\n')
	w.Write(data)
}

func (s *MCPServer) handle(ctx context.Context, req jsonRPCRequest) jsonRPCResponse {
	base := jsonRPCResponse{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		base.Result = map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{"listChanged": false}},
			"serverInfo":      map[string]any{"name": "ciforge", "version": s.version},
		}
		return base

	case "tools/list":
		base.Result = map[string]any{"tools": s.dispatcher.Specs()}
		return base

	case "tools/call":
		return s.handleToolCall(ctx, req, base)

	default:
		base.Error = &rpcError{Code: -32601, Message: fmt.Sprintf("method not found: %s", req.Method)}
		return base
	}
}

type toolCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *MCPServer) handleToolCall(ctx context.Context, req jsonRPCRequest, base jsonRPCResponse) jsonRPCResponse {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		base.Error = &rpcError{Code: -32602, Message: "invalid params: " + err.Error()}
		return base
	}

	env, err := s.dispatcher.Call(ctx, tool.Request{Tool: params.Name, Arguments: params.Arguments})
	if err != nil {
		mapped := core.MapError(err, 400)
		base.Error = &rpcError{Code: -32602, Message: mapped.Code + ": " + mapped.Message}
		return base
	}

	base.Result = env
	return base
}
