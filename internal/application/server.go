package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"jira-mcp-server/internal/domain"
)

// ServerName is reported to clients during initialize.
const ServerName = "jira-mcp-server"

// Version is reported to clients during initialize. It is overridden at
// build time.
var Version = "dev"

const protocolVersion = "2024-11-05"

// Server is the MCP server. It reads requests from the transport, answers
// protocol methods itself and hands tool calls to the router.
type Server struct {
	transport domain.Transport
	router    *RequestRouter
	mapper    domain.ResponseMapper
	config    *domain.Config
	logger    zerolog.Logger

	done     chan struct{}
	doneOnce sync.Once
}

// NewServer creates a new MCP server instance.
func NewServer(
	transport domain.Transport,
	router *RequestRouter,
	config *domain.Config,
	logger zerolog.Logger,
) *Server {
	return &Server{
		transport: transport,
		router:    router,
		mapper:    domain.NewResponseMapper(),
		config:    config,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start starts the transport and processes requests in the background.
func (s *Server) Start(ctx context.Context) error {
	if err := s.transport.Start(ctx); err != nil {
		s.logger.Error().Err(err).Str("transport", s.config.Transport.Type).Msg("failed to start transport")
		return fmt.Errorf("failed to start transport: %w", err)
	}

	s.logger.Info().Str("transport", s.config.Transport.Type).Msg("server started")

	go s.processRequests(ctx)

	return nil
}

// Done is closed once the server stops processing requests, either because
// the context ended or because the transport closed (stdin reached EOF).
func (s *Server) Done() <-chan struct{} {
	return s.done
}

func (s *Server) processRequests(ctx context.Context) {
	defer s.doneOnce.Do(func() { close(s.done) })

	reqChan := s.transport.Receive()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("server shutting down")
			return
		case req, ok := <-reqChan:
			if !ok {
				s.logger.Info().Msg("transport closed")
				return
			}
			s.handleRequest(ctx, req)
		}
	}
}

// handleRequest processes a single JSON-RPC message. Notifications are
// handled but never answered.
func (s *Server) handleRequest(ctx context.Context, req *domain.Request) {
	log := s.logger.With().Str("method", req.Method).Interface("request_id", req.ID).Logger()
	log.Debug().Msg("received request")

	if err := validateRequest(req); err != nil {
		s.reply(req, nil, &domain.Error{Code: domain.InvalidRequest, Message: "Invalid Request", Data: err.Error()})
		return
	}

	var (
		result any
		rpcErr *domain.Error
	)

	switch req.Method {
	case "initialize":
		result = s.initializeResult()
	case "notifications/initialized", "notifications/cancelled":
		return
	case "ping":
		result = map[string]any{}
	case "tools/list":
		result = map[string]any{"tools": s.router.ListAllTools()}
	case "tools/call":
		result, rpcErr = s.handleToolsCall(ctx, req)
	default:
		rpcErr = &domain.Error{
			Code:    domain.MethodNotFound,
			Message: "Method not found",
			Data:    fmt.Sprintf("unknown method: %s", req.Method),
		}
	}

	if rpcErr != nil {
		log.Warn().Int("code", rpcErr.Code).Str("error", rpcErr.Message).Msg("request failed")
	}
	s.reply(req, result, rpcErr)
}

// reply sends the result or error for req unless req is a notification.
func (s *Server) reply(req *domain.Request, result any, rpcErr *domain.Error) {
	if req.IsNotification() {
		return
	}

	response := &domain.Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Session: req.Session,
	}
	if rpcErr != nil {
		response.Error = rpcErr
	} else {
		response.Result = result
	}

	if err := s.transport.Send(response); err != nil {
		s.logger.Error().Err(err).Interface("request_id", req.ID).Msg("failed to send response")
	}
}

func validateRequest(req *domain.Request) error {
	if req.JSONRPC != "2.0" {
		return fmt.Errorf("invalid jsonrpc version: %s", req.JSONRPC)
	}
	if req.Method == "" {
		return fmt.Errorf("method is required")
	}
	return nil
}

func (s *Server) initializeResult() map[string]any {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    ServerName,
			"version": Version,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req *domain.Request) (any, *domain.Error) {
	toolReq, err := parseToolRequest(req.Params)
	if err != nil {
		return nil, &domain.Error{Code: domain.InvalidParams, Message: "Invalid params", Data: err.Error()}
	}

	toolResp, err := s.router.Route(ctx, toolReq)
	if err != nil {
		s.logger.Error().Err(err).Str("tool", toolReq.Name).Msg("tool execution failed")
		return nil, s.mapper.MapError(err)
	}

	if toolResp.IsError {
		s.logger.Info().Str("tool", toolReq.Name).Msg("tool returned an error result")
	}
	return toolResp, nil
}

// parseToolRequest decodes the params of tools/call.
func parseToolRequest(params any) (*domain.ToolRequest, error) {
	if params == nil {
		return nil, fmt.Errorf("params is required for tools/call")
	}

	jsonData, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	var toolReq domain.ToolRequest
	if err := json.Unmarshal(jsonData, &toolReq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tool request: %w", err)
	}

	if toolReq.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if toolReq.Arguments == nil {
		toolReq.Arguments = make(map[string]any)
	}

	return &toolReq, nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.logger.Info().Msg("closing server")
	return s.transport.Close()
}
