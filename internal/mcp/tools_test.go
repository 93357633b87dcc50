package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/1broseidon/tessera/internal/action"
	"github.com/1broseidon/tessera/internal/ipc"
)

type fakeClient struct {
	dispatched []action.Action
	err        error
}

func (c *fakeClient) Dispatch(a action.Action) error {
	if c.err != nil {
		return c.err
	}
	c.dispatched = append(c.dispatched, a)
	return nil
}

func (c *fakeClient) ListWorkspaces() ([]ipc.WorkspaceInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	return []ipc.WorkspaceInfo{{Index: 0, Output: "DP-1", Active: true}}, nil
}

func (c *fakeClient) ListOutputs() ([]ipc.OutputInfo, error) {
	return nil, c.err
}

func (c *fakeClient) GetStatus() (*ipc.StatusData, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &ipc.StatusData{SessionID: "s", Windows: 3}, nil
}

func intPtr(n int) *int { return &n }

func TestDispatchInputToAction(t *testing.T) {
	tests := []struct {
		name    string
		in      DispatchInput
		want    action.Action
		wantErr bool
	}{
		{"quit", DispatchInput{Action: "quit"}, action.Action{Kind: action.Quit}, false},
		{"switch", DispatchInput{Action: "switch-to-workspace", Workspace: intPtr(2)}, action.Action{Kind: action.SwitchToWorkspace, Workspace: 2}, false},
		{"switch without index", DispatchInput{Action: "switch-to-workspace"}, action.Action{}, true},
		{"spawn", DispatchInput{Action: "spawn", Command: []string{"foot"}}, action.Action{Kind: action.Spawn, Command: []string{"foot"}}, false},
		{"spawn without argv", DispatchInput{Action: "spawn"}, action.Action{}, true},
		{"unknown", DispatchInput{Action: "maximize"}, action.Action{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.toAction()
			if (err != nil) != tt.wantErr {
				t.Fatalf("toAction() err = %v, wantErr %v", err, tt.wantErr)
			}
			if got.String() != tt.want.String() {
				t.Fatalf("toAction() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHandleDispatch(t *testing.T) {
	client := &fakeClient{}
	s := NewServer(client, nil)

	_, out, err := s.handleDispatch(context.Background(), nil, DispatchInput{Action: "toggle-floating"})
	if err != nil {
		t.Fatalf("handleDispatch: %v", err)
	}
	if out.Dispatched != "toggle-floating" || len(client.dispatched) != 1 {
		t.Fatalf("unexpected result %+v, dispatched %+v", out, client.dispatched)
	}

	client.err = &ipc.Error{Code: ipc.CodeUnavailable, Message: "compositor unavailable"}
	_, _, err = s.handleDispatch(context.Background(), nil, DispatchInput{Action: "quit"})
	var ipcErr *ipc.Error
	if !errors.As(err, &ipcErr) || ipcErr.Code != ipc.CodeUnavailable {
		t.Fatalf("expected wrapped ipc error, got %v", err)
	}
}

func TestHandleQueries(t *testing.T) {
	client := &fakeClient{}
	s := NewServer(client, nil)
	ctx := context.Background()

	_, ws, err := s.handleListWorkspaces(ctx, nil, ListWorkspacesInput{})
	if err != nil || len(ws.Workspaces) != 1 || ws.Workspaces[0].Output != "DP-1" {
		t.Fatalf("list_workspaces = %+v, %v", ws, err)
	}

	_, outs, err := s.handleListOutputs(ctx, nil, ListOutputsInput{})
	if err != nil || outs.Outputs == nil || len(outs.Outputs) != 0 {
		t.Fatalf("list_outputs should return an empty list, got %+v, %v", outs, err)
	}

	_, status, err := s.handleStatus(ctx, nil, StatusInput{})
	if err != nil || status.Windows != 3 {
		t.Fatalf("get_status = %+v, %v", status, err)
	}

	client.err = errors.New("failed to connect to compositor")
	if _, _, err := s.handleListWorkspaces(ctx, nil, ListWorkspacesInput{}); err == nil {
		t.Fatalf("expected error when the compositor is unreachable")
	}
}
