package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/tessera/internal/action"
	"github.com/1broseidon/tessera/internal/ipc"
)

func (s *Server) handleListWorkspaces(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListWorkspacesInput) (*mcpsdk.CallToolResult, ListWorkspacesOutput, error) {
	workspaces, err := s.client.ListWorkspaces()
	if err != nil {
		return nil, ListWorkspacesOutput{}, fmt.Errorf("list workspaces: %w", err)
	}
	if workspaces == nil {
		workspaces = []ipc.WorkspaceInfo{}
	}
	return nil, ListWorkspacesOutput{Workspaces: workspaces}, nil
}

func (s *Server) handleListOutputs(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListOutputsInput) (*mcpsdk.CallToolResult, ListOutputsOutput, error) {
	outputs, err := s.client.ListOutputs()
	if err != nil {
		return nil, ListOutputsOutput{}, fmt.Errorf("list outputs: %w", err)
	}
	if outputs == nil {
		outputs = []ipc.OutputInfo{}
	}
	return nil, ListOutputsOutput{Outputs: outputs}, nil
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, ipc.StatusData, error) {
	status, err := s.client.GetStatus()
	if err != nil {
		return nil, ipc.StatusData{}, fmt.Errorf("get status: %w", err)
	}
	return nil, *status, nil
}

func (s *Server) handleDispatch(_ context.Context, _ *mcpsdk.CallToolRequest, args DispatchInput) (*mcpsdk.CallToolResult, DispatchOutput, error) {
	a, err := args.toAction()
	if err != nil {
		return nil, DispatchOutput{}, err
	}
	if err := s.client.Dispatch(a); err != nil {
		s.logger.Warn("mcp dispatch failed", "action", a.String(), "error", err)
		return nil, DispatchOutput{}, fmt.Errorf("dispatch %s: %w", a.Kind, err)
	}
	s.logger.Info("mcp dispatch", "action", a.String())
	return nil, DispatchOutput{Dispatched: a.String()}, nil
}

func (in DispatchInput) toAction() (action.Action, error) {
	a := action.Action{Kind: action.Kind(in.Action), Command: in.Command}
	if a.Kind == action.SwitchToWorkspace {
		if in.Workspace == nil {
			return action.Action{}, fmt.Errorf("switch-to-workspace requires workspace")
		}
		a.Workspace = *in.Workspace
	}
	if err := a.Validate(); err != nil {
		return action.Action{}, err
	}
	return a, nil
}
