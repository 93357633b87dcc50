// Package action defines the user-triggerable commands shared by key
// bindings and the IPC control socket.
package action

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind names an action.
type Kind string

const (
	Quit              Kind = "quit"
	CloseFocused      Kind = "close-focused-window"
	SwitchToWorkspace Kind = "switch-to-workspace"
	Spawn             Kind = "spawn"
	ToggleFloating    Kind = "toggle-floating"
)

// Kinds lists every supported action in documentation order.
var Kinds = []Kind{Quit, CloseFocused, SwitchToWorkspace, Spawn, ToggleFloating}

// Action is a single dispatchable command. Workspace is used by
// switch-to-workspace and Command by spawn.
type Action struct {
	Kind      Kind     `json:"action" yaml:"action"`
	Workspace int      `json:"workspace,omitempty" yaml:"workspace,omitempty"`
	Command   []string `json:"command,omitempty" yaml:"command,omitempty"`
}

// Validate checks that the action carries the arguments its kind needs.
func (a Action) Validate() error {
	switch a.Kind {
	case Quit, CloseFocused, ToggleFloating:
		return nil
	case SwitchToWorkspace:
		if a.Workspace < 0 {
			return fmt.Errorf("workspace index must be >= 0")
		}
		return nil
	case Spawn:
		if len(a.Command) == 0 || strings.TrimSpace(a.Command[0]) == "" {
			return fmt.Errorf("spawn requires a command")
		}
		return nil
	case "":
		return fmt.Errorf("action is required")
	default:
		return fmt.Errorf("unknown action %q", a.Kind)
	}
}

func (a Action) String() string {
	switch a.Kind {
	case SwitchToWorkspace:
		return fmt.Sprintf("%s %d", a.Kind, a.Workspace)
	case Spawn:
		return fmt.Sprintf("%s %s", a.Kind, strings.Join(a.Command, " "))
	default:
		return string(a.Kind)
	}
}

// Parse builds an action from command-line style arguments, e.g.
// ["switch-to-workspace", "3"] or ["spawn", "foot", "-e", "htop"].
func Parse(args []string) (Action, error) {
	if len(args) == 0 {
		return Action{}, fmt.Errorf("action is required")
	}
	a := Action{Kind: Kind(args[0])}
	rest := args[1:]
	switch a.Kind {
	case SwitchToWorkspace:
		if len(rest) != 1 {
			return Action{}, fmt.Errorf("usage: %s <index>", a.Kind)
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return Action{}, fmt.Errorf("invalid workspace index %q: %w", rest[0], err)
		}
		a.Workspace = n
	case Spawn:
		a.Command = append([]string(nil), rest...)
	default:
		if len(rest) != 0 {
			return Action{}, fmt.Errorf("%s takes no arguments", a.Kind)
		}
	}
	if err := a.Validate(); err != nil {
		return Action{}, err
	}
	return a, nil
}
