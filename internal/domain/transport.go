package domain

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Transport defines the interface for MCP transport mechanisms.
// Implementations handle communication between MCP clients and the server
// using either stdio or HTTP transport.
type Transport interface {
	// Start begins listening for incoming MCP messages.
	Start(ctx context.Context) error

	// Send transmits a JSON-RPC response to the client.
	Send(response *Response) error

	// Receive returns a channel for incoming JSON-RPC requests.
	// The channel is closed when the transport is shut down.
	Receive() <-chan *Request

	// Close gracefully shuts down the transport.
	Close() error
}

// StdioTransport implements Transport using stdin/stdout for communication.
// It reads newline-delimited JSON-RPC messages from stdin and writes
// responses to stdout. Nothing else may be written to stdout.
type StdioTransport struct {
	reader  *bufio.Reader
	writer  *bufio.Writer
	reqChan chan *Request
	logger  zerolog.Logger
	mu      sync.Mutex
	closed  bool
}

// NewStdioTransport creates a StdioTransport on os.Stdin and os.Stdout.
func NewStdioTransport(logger zerolog.Logger) *StdioTransport {
	return NewStdioTransportWithIO(os.Stdin, os.Stdout, logger)
}

// NewStdioTransportWithIO creates a StdioTransport with custom IO streams.
func NewStdioTransportWithIO(reader io.Reader, writer io.Writer, logger zerolog.Logger) *StdioTransport {
	return &StdioTransport{
		reader:  bufio.NewReader(reader),
		writer:  bufio.NewWriter(writer),
		reqChan: make(chan *Request, 10),
		logger:  logger.With().Str("transport", "stdio").Logger(),
	}
}

// Start spawns the read loop.
func (t *StdioTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("transport is closed")
	}
	t.mu.Unlock()

	go t.readLoop(ctx)
	return nil
}

// readLoop reads lines until EOF or cancellation. A final line without a
// trailing newline is still processed.
func (t *StdioTransport) readLoop(ctx context.Context) {
	defer close(t.reqChan)

	for {
		if ctx.Err() != nil {
			return
		}

		line, err := t.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			t.logger.Error().Err(err).Msg("failed to read from stdin")
			return
		}
		eof := err != nil

		if trimmed := strings.TrimSpace(line); trimmed != "" {
			if !t.dispatch(ctx, trimmed) {
				return
			}
		}
		if eof {
			t.logger.Debug().Msg("stdin closed")
			return
		}
	}
}

// dispatch parses one line and queues the request. It returns false when
// the context ended while waiting on the queue.
func (t *StdioTransport) dispatch(ctx context.Context, line string) bool {
	var req Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		t.logger.Warn().Err(err).Msg("discarding malformed message")
		_ = t.Send(errorResponse(nil, ParseError, "Parse error", err.Error()))
		return true
	}

	if req.JSONRPC != "2.0" {
		_ = t.Send(errorResponse(req.ID, InvalidRequest, "Invalid Request", "invalid jsonrpc version"))
		return true
	}

	select {
	case t.reqChan <- &req:
		return true
	case <-ctx.Done():
		return false
	}
}

// Send writes a JSON-RPC response as a single line.
func (t *StdioTransport) Send(response *Response) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("transport is closed")
	}

	if response.JSONRPC == "" {
		response.JSONRPC = "2.0"
	}

	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	if _, err := t.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush response: %w", err)
	}

	return nil
}

// Receive returns the channel for incoming JSON-RPC requests.
func (t *StdioTransport) Receive() <-chan *Request {
	return t.reqChan
}

// Close marks the transport closed. The request channel is closed by the
// read loop.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	return nil
}

func errorResponse(id any, code int, message string, data any) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// HTTPTransport implements Transport using HTTP with SSE.
//
//	GET  /mcp                          opens an event stream; the first event names the message endpoint
//	POST /mcp/message?sessionId=<id>   submits one JSON-RPC message
//	GET  /healthz                      liveness probe
//
// Responses are delivered on the stream of the session that sent the request.
type HTTPTransport struct {
	host    string
	port    int
	engine  *gin.Engine
	server  *http.Server
	reqChan chan *Request
	logger  zerolog.Logger
	mu      sync.Mutex
	closed  bool

	sessions   map[string]*sseSession
	sessionsMu sync.RWMutex
}

type sseSession struct {
	id          string
	messageChan chan *Response
	done        chan struct{}
	closeOnce   sync.Once
}

func (s *sseSession) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// keepAliveInterval is how often an idle stream receives a comment line.
var keepAliveInterval = 30 * time.Second

// NewHTTPTransport creates a new HTTPTransport instance.
func NewHTTPTransport(host string, port int, logger zerolog.Logger) *HTTPTransport {
	t := &HTTPTransport{
		host:     host,
		port:     port,
		reqChan:  make(chan *Request, 10),
		logger:   logger.With().Str("transport", "http").Logger(),
		sessions: make(map[string]*sseSession),
	}
	t.engine = t.routes()
	return t
}

func (t *HTTPTransport) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), t.accessLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/mcp", t.handleSSE)
	r.POST("/mcp/message", t.handleMessage)
	return r
}

func (t *HTTPTransport) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		t.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// Handler exposes the router, mainly for httptest.
func (t *HTTPTransport) Handler() http.Handler {
	return t.engine
}

// Start begins the HTTP server.
func (t *HTTPTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return fmt.Errorf("transport is closed")
	}
	t.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", t.host, t.port),
		Handler:           t.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := t.server
	t.mu.Unlock()

	go func() {
		t.logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = t.Close()
	}()

	return nil
}

func (t *HTTPTransport) handleSSE(c *gin.Context) {
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	session := &sseSession{
		id:          uuid.NewString(),
		messageChan: make(chan *Response, 10),
		done:        make(chan struct{}),
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		c.String(http.StatusServiceUnavailable, "transport is closed")
		return
	}
	t.sessionsMu.Lock()
	t.sessions[session.id] = session
	t.sessionsMu.Unlock()
	t.mu.Unlock()

	log := t.logger.With().Str("session", session.id).Logger()
	defer func() {
		t.removeSession(session.id)
		session.close()
		log.Info().Msg("session closed")
	}()

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "event: endpoint\ndata: /mcp/message?sessionId=%s\n\n", session.id)
	w.Flush()
	log.Info().Msg("session established")

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-session.done:
			return
		case response := <-session.messageChan:
			data, err := json.Marshal(response)
			if err != nil {
				log.Error().Err(err).Msg("failed to marshal response")
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			w.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			w.Flush()
		}
	}
}

func (t *HTTPTransport) handleMessage(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.String(http.StatusBadRequest, "Missing sessionId parameter")
		return
	}

	t.sessionsMu.RLock()
	session, exists := t.sessions[sessionID]
	t.sessionsMu.RUnlock()
	if !exists {
		c.String(http.StatusBadRequest, "Invalid session")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "Failed to read request body")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		t.sendToSession(session, errorResponse(nil, ParseError, "Parse error", err.Error()))
		c.Status(http.StatusAccepted)
		return
	}
	if req.JSONRPC != "2.0" {
		t.sendToSession(session, errorResponse(req.ID, InvalidRequest, "Invalid Request", "invalid jsonrpc version"))
		c.Status(http.StatusAccepted)
		return
	}
	req.Session = sessionID

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		c.String(http.StatusServiceUnavailable, "transport is closed")
		return
	}

	select {
	case t.reqChan <- &req:
		c.Status(http.StatusAccepted)
	default:
		t.sendToSession(session, errorResponse(req.ID, InternalError, "Internal error", "request queue full"))
		c.Status(http.StatusServiceUnavailable)
	}
}

func (t *HTTPTransport) sendToSession(session *sseSession, response *Response) {
	select {
	case session.messageChan <- response:
	default:
		t.logger.Warn().Str("session", session.id).Msg("dropping response: session queue full")
	}
}

func (t *HTTPTransport) removeSession(id string) {
	t.sessionsMu.Lock()
	delete(t.sessions, id)
	t.sessionsMu.Unlock()
}

// Send delivers a response to the session named in response.Session, or to
// every open session when none is named.
func (t *HTTPTransport) Send(response *Response) error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return fmt.Errorf("transport is closed")
	}

	if response.JSONRPC == "" {
		response.JSONRPC = "2.0"
	}

	t.sessionsMu.RLock()
	defer t.sessionsMu.RUnlock()

	if response.Session != "" {
		session, ok := t.sessions[response.Session]
		if !ok {
			return fmt.Errorf("session %s not found", response.Session)
		}
		t.sendToSession(session, response)
		return nil
	}

	if len(t.sessions) == 0 {
		return fmt.Errorf("no active sessions")
	}
	for _, session := range t.sessions {
		t.sendToSession(session, response)
	}
	return nil
}

// Receive returns the channel for incoming JSON-RPC requests.
func (t *HTTPTransport) Receive() <-chan *Request {
	return t.reqChan
}

// Close ends every session and shuts the HTTP server down. The server is
// shut down after t.mu is released so in-flight message handlers can finish.
func (t *HTTPTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true

	t.sessionsMu.Lock()
	for _, session := range t.sessions {
		session.close()
	}
	t.sessions = make(map[string]*sseSession)
	t.sessionsMu.Unlock()

	close(t.reqChan)
	server := t.server
	t.mu.Unlock()

	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
