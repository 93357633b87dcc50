package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/tessera/internal/ipc"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Bold(true)
	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Bold(true)
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	cellStyle = lipgloss.NewStyle().PaddingRight(2)
)

func runWorkspaces(args []string) int {
	fs, socket := newFlagSet("workspaces", "Usage: tessera workspaces [--json]")
	asJSON := fs.Bool("json", false, "Print raw JSON")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	workspaces, err := clientFor(*socket).ListWorkspaces()
	if err != nil {
		return reportError(err)
	}
	if *asJSON || !isTerminal(os.Stdout) {
		return printJSON(os.Stdout, ipc.WorkspacesData{Workspaces: workspaces})
	}
	fmt.Fprintln(os.Stdout, renderWorkspaces(workspaces))
	return 0
}

func runOutputs(args []string) int {
	fs, socket := newFlagSet("outputs", "Usage: tessera outputs [--json]")
	asJSON := fs.Bool("json", false, "Print raw JSON")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	outputs, err := clientFor(*socket).ListOutputs()
	if err != nil {
		return reportError(err)
	}
	if *asJSON || !isTerminal(os.Stdout) {
		return printJSON(os.Stdout, ipc.OutputsData{Outputs: outputs})
	}
	fmt.Fprintln(os.Stdout, renderOutputs(outputs))
	return 0
}

func renderWorkspaces(workspaces []ipc.WorkspaceInfo) string {
	rows := [][]string{{"WS", "OUTPUT", "WINDOWS"}}
	active := make(map[int]bool, len(rows))
	for i, ws := range workspaces {
		var names []string
		for _, w := range ws.Windows {
			name := w.AppID
			if name == "" {
				name = "?"
			}
			if w.Floating {
				name += "*"
			}
			names = append(names, name)
		}
		windows := strings.Join(names, " ")
		if windows == "" {
			windows = "(empty)"
		}
		rows = append(rows, []string{strconv.Itoa(ws.Index), orDash(ws.Output), windows})
		active[i+1] = ws.Active
	}
	return renderTable(rows, active)
}

func renderOutputs(outputs []ipc.OutputInfo) string {
	rows := [][]string{{"NAME", "GEOMETRY", "REFRESH", "WS", "STATE"}}
	active := make(map[int]bool, len(outputs))
	for i, o := range outputs {
		geometry := "-"
		if o.Placed {
			geometry = fmt.Sprintf("%dx%d+%d+%d", o.Width, o.Height, o.X, o.Y)
		}
		refresh := "-"
		if o.Refresh > 0 {
			refresh = fmt.Sprintf("%.2fHz", float64(o.Refresh)/1000)
		}
		ws := "-"
		if o.Workspace != nil {
			ws = strconv.Itoa(*o.Workspace)
		}
		state := "enabled"
		if !o.Enabled {
			state = "disabled"
		}
		rows = append(rows, []string{o.Name, geometry, refresh, ws, state})
		active[i+1] = o.Active
	}
	return renderTable(rows, active)
}

// renderTable lays rows out in padded columns. Row 0 is the header;
// rows flagged in active are highlighted and the rest are dimmed.
func renderTable(rows [][]string, active map[int]bool) string {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows))
	for r, row := range rows {
		style := dimStyle
		switch {
		case r == 0:
			style = headerStyle
		case active[r]:
			style = activeStyle
		}
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cellStyle.Width(widths[i] + 2).Render(style.Render(cell))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func printJSON(w io.Writer, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
