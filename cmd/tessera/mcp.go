package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/tessera/internal/logging"
	"github.com/1broseidon/tessera/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tessera mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'tessera mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	fs, socket := newFlagSet("serve", "Usage: tessera mcp serve [--socket PATH]\n\nStart the MCP server on stdio. Tool calls are forwarded to the running\ncompositor over its IPC socket.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	// stdout carries the protocol; logs go to stderr.
	if _, err := logging.Init("info"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	server := mcp.NewServer(clientFor(*socket), slog.Default().With("component", "mcp"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("mcp server failed", "error", err)
		return 1
	}
	return 0
}
