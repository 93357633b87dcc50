package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/1broseidon/tessera/internal/action"
	"github.com/1broseidon/tessera/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runCompositor(os.Args[2:]))
	case "msg":
		os.Exit(runMsg(os.Args[2:]))
	case "workspaces":
		os.Exit(runWorkspaces(os.Args[2:]))
	case "outputs":
		os.Exit(runOutputs(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tessera <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Start the compositor (foreground)")
	fmt.Fprintln(w, "  msg <action>        Dispatch an action to the running compositor")
	fmt.Fprintln(w, "  workspaces          List workspaces and their windows")
	fmt.Fprintln(w, "  outputs             List outputs and their placement")
	fmt.Fprintln(w, "  status              Show compositor status")
	fmt.Fprintln(w, "  reload              Reload configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Actions:")
	for _, k := range action.Kinds {
		fmt.Fprintf(w, "  %s\n", k)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'tessera <command> --help' for command-specific options.")
}

// newFlagSet returns a flag set with the shared --socket flag.
func newFlagSet(name, usage string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "IPC socket path (default: $TESSERA_SOCKET or $XDG_RUNTIME_DIR/tessera.sock)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, usage)
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	return fs, socket
}

// parseFlags returns -1 when parsing succeeded, otherwise the exit code.
func parseFlags(fs *pflag.FlagSet, args []string) int {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	return -1
}

func clientFor(socket string) *ipc.Client {
	if socket != "" {
		return ipc.NewClientWithSocket(socket)
	}
	return ipc.NewClient()
}

// reportError prints err and maps IPC error codes to exit codes: 2 for
// rejected requests, 1 for everything else.
func reportError(err error) int {
	fmt.Fprintln(os.Stderr, err)
	var ipcErr *ipc.Error
	if errors.As(err, &ipcErr) && ipcErr.Code == ipc.CodeInvalidRequest {
		return 2
	}
	return 1
}

func runMsg(args []string) int {
	fs, socket := newFlagSet("msg", "Usage: tessera msg <action> [args...]\n\nExamples:\n  tessera msg switch-to-workspace 2\n  tessera msg spawn foot -e htop")
	fs.SetInterspersed(false)
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	a, err := action.Parse(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}
	if err := clientFor(*socket).Dispatch(a); err != nil {
		return reportError(err)
	}
	return 0
}

func runStatus(args []string) int {
	fs, socket := newFlagSet("status", "Usage: tessera status [--json]")
	asJSON := fs.Bool("json", false, "Print raw JSON")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := clientFor(*socket).GetStatus()
	if err != nil {
		return reportError(err)
	}
	if *asJSON {
		return printJSON(os.Stdout, status)
	}
	printStatus(os.Stdout, status)
	return 0
}

func printStatus(w io.Writer, status *ipc.StatusData) {
	fmt.Fprintf(w, "session:          %s\n", status.SessionID)
	fmt.Fprintf(w, "uptime_seconds:   %d\n", status.UptimeSeconds)
	fmt.Fprintf(w, "session_active:   %v\n", status.SessionActive)
	fmt.Fprintf(w, "active_output:    %s\n", orDash(status.ActiveOutput))
	if status.ActiveWorkspace != nil {
		fmt.Fprintf(w, "active_workspace: %d\n", *status.ActiveWorkspace)
	} else {
		fmt.Fprintf(w, "active_workspace: -\n")
	}
	fmt.Fprintf(w, "workspaces:       %d\n", status.Workspaces)
	fmt.Fprintf(w, "windows:          %d\n", status.Windows)
	fmt.Fprintf(w, "focused_window:   %s\n", orDash(status.FocusedWindow))
	fmt.Fprintf(w, "config:           %s\n", orDash(status.ConfigPath))
}

func runReload(args []string) int {
	fs, socket := newFlagSet("reload", "Usage: tessera reload\n\nAsk the compositor to re-read its configuration. The running\nconfiguration is kept when the file cannot be read.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if err := clientFor(*socket).Reload(); err != nil {
		return reportError(err)
	}
	fmt.Println("config: reloaded")
	return 0
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
