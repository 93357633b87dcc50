package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/tessera/internal/action"
	"github.com/1broseidon/tessera/internal/runtimepath"
)

// Client handles IPC communication with the compositor
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client for the default socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for an explicit socket path.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to compositor: %w (is tessera running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, &Error{Code: resp.Code, Message: resp.Error}
	}

	return &resp, nil
}

func (c *Client) query(cmd CommandType, out interface{}) error {
	resp, err := c.sendRequest(&Request{Command: cmd})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Dispatch asks the compositor to run an action.
func (c *Client) Dispatch(a action.Action) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal dispatch payload: %w", err)
	}
	_, err = c.sendRequest(&Request{Command: CommandDispatch, Payload: payload})
	return err
}

// ListWorkspaces retrieves every workspace ordered by index.
func (c *Client) ListWorkspaces() ([]WorkspaceInfo, error) {
	var data WorkspacesData
	if err := c.query(CommandListWorkspaces, &data); err != nil {
		return nil, err
	}
	return data.Workspaces, nil
}

// ListOutputs retrieves output information
func (c *Client) ListOutputs() ([]OutputInfo, error) {
	var data OutputsData
	if err := c.query(CommandListOutputs, &data); err != nil {
		return nil, err
	}
	return data.Outputs, nil
}

// GetStatus retrieves compositor status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.query(CommandGetStatus, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Reload sends a RELOAD command to the compositor
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// Ping checks if the compositor is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
