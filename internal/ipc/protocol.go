package ipc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/1broseidon/tessera/internal/action"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandDispatch       CommandType = "DISPATCH"
	CommandListWorkspaces CommandType = "LIST_WORKSPACES"
	CommandListOutputs    CommandType = "LIST_OUTPUTS"
	CommandGetStatus      CommandType = "GET_STATUS"
	CommandReload         CommandType = "RELOAD"
)

// ErrorCode classifies an ERROR response.
type ErrorCode string

const (
	CodeInvalidRequest   ErrorCode = "invalid_request"
	CodeConfigUnreadable ErrorCode = "config_unreadable"
	CodeUnknownCommand   ErrorCode = "unknown_command"
	CodeUnavailable      ErrorCode = "unavailable"
	CodeInternal         ErrorCode = "internal"
)

var (
	// ErrConfigUnreadable wraps reload failures caused by the configuration
	// file. The previous configuration stays in effect.
	ErrConfigUnreadable = errors.New("configuration unreadable")
	// ErrInvalidRequest wraps requests that are well formed but cannot be
	// carried out as asked.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnavailable is returned when the compositor is not running its loop.
	ErrUnavailable = errors.New("compositor unavailable")
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
	Code   ErrorCode       `json:"code,omitempty"`
}

// DispatchPayload is the payload of DISPATCH.
type DispatchPayload = action.Action

// WindowInfo describes one window in LIST_WORKSPACES.
type WindowInfo struct {
	AppID    string `json:"app_id,omitempty"`
	Title    string `json:"title,omitempty"`
	Floating bool   `json:"floating"`
}

// WorkspaceInfo describes one workspace in LIST_WORKSPACES. Windows are
// listed in render order.
type WorkspaceInfo struct {
	Index   int          `json:"index"`
	Output  string       `json:"output,omitempty"`
	Active  bool         `json:"active"`
	Windows []WindowInfo `json:"windows"`
}

// WorkspacesData represents the data returned by LIST_WORKSPACES
type WorkspacesData struct {
	Workspaces []WorkspaceInfo `json:"workspaces"`
}

// OutputInfo represents information about a single output
type OutputInfo struct {
	Name      string `json:"name"`
	Make      string `json:"make,omitempty"`
	Model     string `json:"model,omitempty"`
	Enabled   bool   `json:"enabled"`
	Placed    bool   `json:"placed"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Refresh   int    `json:"refresh_mhz,omitempty"`
	Active    bool   `json:"active"`
	Workspace *int   `json:"workspace,omitempty"`
}

// OutputsData represents the data returned by LIST_OUTPUTS
type OutputsData struct {
	Outputs []OutputInfo `json:"outputs"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	SessionID       string `json:"session_id"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	ActiveOutput    string `json:"active_output,omitempty"`
	ActiveWorkspace *int   `json:"active_workspace,omitempty"`
	Workspaces      int    `json:"workspaces"`
	Windows         int    `json:"windows"`
	FocusedWindow   string `json:"focused_window,omitempty"`
	SessionActive   bool   `json:"session_active"`
	ConfigPath      string `json:"config_path,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(code ErrorCode, errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
		Code:   code,
	}
}

// ErrorResponseFor maps a handler error to a coded error response.
func ErrorResponseFor(err error) *Response {
	switch {
	case errors.Is(err, ErrConfigUnreadable):
		return NewErrorResponse(CodeConfigUnreadable, err.Error())
	case errors.Is(err, ErrInvalidRequest):
		return NewErrorResponse(CodeInvalidRequest, err.Error())
	case errors.Is(err, ErrUnavailable):
		return NewErrorResponse(CodeUnavailable, err.Error())
	default:
		return NewErrorResponse(CodeInternal, err.Error())
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.Command == "" {
		return nil, fmt.Errorf("failed to parse request: command is required")
	}
	return &req, nil
}

// ParseDispatch decodes and validates a DISPATCH payload.
func ParseDispatch(payload json.RawMessage) (action.Action, error) {
	var a action.Action
	if len(payload) == 0 {
		return a, fmt.Errorf("%w: dispatch requires an action payload", ErrInvalidRequest)
	}
	if err := json.Unmarshal(payload, &a); err != nil {
		return a, fmt.Errorf("%w: invalid dispatch payload: %v", ErrInvalidRequest, err)
	}
	if err := a.Validate(); err != nil {
		return a, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return a, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Error is the client-side form of an ERROR response.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("compositor error: %s", e.Message)
	}
	return fmt.Sprintf("compositor error (%s): %s", e.Code, e.Message)
}
