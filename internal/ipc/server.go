package ipc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/tessera/internal/action"
	"github.com/1broseidon/tessera/internal/runtimepath"
)

// Handler carries out IPC requests. Implementations serialize the calls
// into the compositor's event loop.
type Handler interface {
	Dispatch(ctx context.Context, a action.Action) error
	ListWorkspaces(ctx context.Context) ([]WorkspaceInfo, error)
	ListOutputs(ctx context.Context) ([]OutputInfo, error)
	Status(ctx context.Context) (StatusData, error)
	Reload(ctx context.Context) error
}

// ServerConfig configures a Server. Zero values select defaults.
type ServerConfig struct {
	SocketPath     string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	handler      Handler
	timeout      time.Duration
	logger       *slog.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
}

// NewServer creates a new IPC server
func NewServer(handler Handler, cfg ServerConfig) (*Server, error) {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Server{
		socketPath: socketPath,
		handler:    handler,
		timeout:    cfg.RequestTimeout,
		logger:     cfg.Logger.With("component", "ipc"),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	// Remove a stale socket left by a crashed compositor.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener
	s.shutdownMu.Lock()
	s.shuttingDown = false
	s.shutdownMu.Unlock()

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

// Serve runs the server until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return ctx.Err()
}

func (s *Server) String() string { return "ipc-server" }

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.conns.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer s.conns.Done()
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(s.timeout))
	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(CodeInvalidRequest, fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.send(conn, s.handleCommand(ctx, req))
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)
	switch req.Command {
	case CommandDispatch:
		return s.handleDispatch(ctx, req)
	case CommandListWorkspaces:
		workspaces, err := s.handler.ListWorkspaces(ctx)
		return s.reply(WorkspacesData{Workspaces: workspaces}, err)
	case CommandListOutputs:
		outputs, err := s.handler.ListOutputs(ctx)
		return s.reply(OutputsData{Outputs: outputs}, err)
	case CommandGetStatus:
		status, err := s.handler.Status(ctx)
		return s.reply(status, err)
	case CommandReload:
		s.logger.Info("IPC: received RELOAD")
		return s.reply(nil, s.handler.Reload(ctx))
	default:
		return NewErrorResponse(CodeUnknownCommand, fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleDispatch(ctx context.Context, req *Request) *Response {
	a, err := ParseDispatch(req.Payload)
	if err != nil {
		return ErrorResponseFor(err)
	}
	s.logger.Info("IPC: dispatch", "action", a.String())
	return s.reply(nil, s.handler.Dispatch(ctx, a))
}

func (s *Server) reply(data interface{}, err error) *Response {
	if err != nil {
		return ErrorResponseFor(err)
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(CodeInternal, err.Error())
	}
	return resp
}

func (s *Server) send(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
}
