package mcp

import "github.com/1broseidon/tessera/internal/ipc"

// ListWorkspacesInput is the input for the list_workspaces tool.
type ListWorkspacesInput struct{}

// ListWorkspacesOutput is the output for the list_workspaces tool.
type ListWorkspacesOutput struct {
	Workspaces []ipc.WorkspaceInfo `json:"workspaces"`
}

// ListOutputsInput is the input for the list_outputs tool.
type ListOutputsInput struct{}

// ListOutputsOutput is the output for the list_outputs tool.
type ListOutputsOutput struct {
	Outputs []ipc.OutputInfo `json:"outputs"`
}

// StatusInput is the input for the get_status tool.
type StatusInput struct{}

// DispatchInput is the input for the dispatch tool.
type DispatchInput struct {
	Action    string   `json:"action" jsonschema:"required,One of: quit, close-focused-window, switch-to-workspace, spawn, toggle-floating"`
	Workspace *int     `json:"workspace,omitempty" jsonschema:"Workspace index for switch-to-workspace"`
	Command   []string `json:"command,omitempty" jsonschema:"argv for spawn, e.g. [\"foot\", \"-e\", \"htop\"]"`
}

// DispatchOutput is the output for the dispatch tool.
type DispatchOutput struct {
	Dispatched string `json:"dispatched"`
}
