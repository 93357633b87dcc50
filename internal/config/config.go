package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/1broseidon/tessera/internal/action"
	"github.com/1broseidon/tessera/internal/rules"
)

// Position is an explicit top-left placement in the global output space.
type Position struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// ModeConfig selects a preferred output mode. Refresh is in mHz; zero means any.
type ModeConfig struct {
	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
	Refresh int `yaml:"refresh,omitempty"`
}

// OutputConfig holds per-connector placement overrides.
type OutputConfig struct {
	Position *Position   `yaml:"position,omitempty"`
	Mode     *ModeConfig `yaml:"mode,omitempty"`
	Enabled  bool        `yaml:"enabled"`
}

// MatchConfig selects windows by regular expressions on app-id and title.
type MatchConfig struct {
	AppID string `yaml:"app_id,omitempty"`
	Title string `yaml:"title,omitempty"`
}

// WindowRule is one entry of the window_rules list.
type WindowRule struct {
	Match    MatchConfig `yaml:"match"`
	Floating *bool       `yaml:"floating,omitempty"`
	Opacity  *float32    `yaml:"opacity,omitempty"`
}

// FocusConfig tunes focus resolution.
type FocusConfig struct {
	// FloatingFallback returns the topmost floating window when nothing is
	// hit under the pointer.
	FloatingFallback bool `yaml:"floating_fallback"`
}

// Config is the effective configuration after defaults, includes and
// overrides have been applied.
type Config struct {
	LogLevel          string                   `yaml:"log_level"`
	Border            int                      `yaml:"border"`
	Focus             FocusConfig              `yaml:"focus"`
	Outputs           map[string]OutputConfig  `yaml:"outputs"`
	WindowRules       []WindowRule             `yaml:"window_rules"`
	Bindings          map[string]action.Action `yaml:"bindings"`
	ReconcileInterval time.Duration            `yaml:"reconcile_interval"`

	rules *rules.Table
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Border:   20,
		Focus: FocusConfig{
			FloatingFallback: true,
		},
		Outputs:     map[string]OutputConfig{},
		WindowRules: nil,
		Bindings: map[string]action.Action{
			"Mod4-Return":  {Kind: action.Spawn, Command: []string{"foot"}},
			"Mod4-q":       {Kind: action.CloseFocused},
			"Mod4-space":   {Kind: action.ToggleFloating},
			"Mod4-Shift-e": {Kind: action.Quit},
			"Mod4-1":       {Kind: action.SwitchToWorkspace, Workspace: 1},
			"Mod4-2":       {Kind: action.SwitchToWorkspace, Workspace: 2},
			"Mod4-3":       {Kind: action.SwitchToWorkspace, Workspace: 3},
			"Mod4-4":       {Kind: action.SwitchToWorkspace, Workspace: 4},
		},
		ReconcileInterval: 5 * time.Second,
	}
}

// Output returns the override for a connector. Outputs without an entry
// are enabled and auto-placed.
func (c *Config) Output(name string) OutputConfig {
	if c != nil {
		if oc, ok := c.Outputs[name]; ok {
			return oc
		}
	}
	return OutputConfig{Enabled: true}
}

// Rules returns the compiled window rule table.
func (c *Config) Rules() *rules.Table {
	if c == nil {
		return rules.NewTable()
	}
	if c.rules == nil {
		table, err := compileRules(c.WindowRules)
		if err != nil {
			return rules.NewTable()
		}
		c.rules = table
	}
	return c.rules
}

// BindingKeys returns binding key sequences in sorted order.
func (c *Config) BindingKeys() []string {
	keys := make([]string, 0, len(c.Bindings))
	for k := range c.Bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func compileRules(in []WindowRule) (*rules.Table, error) {
	out := make([]rules.Rule, 0, len(in))
	for i, wr := range in {
		m, err := rules.CompileMatch(wr.Match.AppID, wr.Match.Title)
		if err != nil {
			return nil, &ValidationError{Path: fmt.Sprintf("window_rules[%d].match", i), Err: err}
		}
		out = append(out, rules.Rule{
			Match:     m,
			Overrides: rules.Overrides{Floating: wr.Floating, Opacity: wr.Opacity},
		})
	}
	return rules.NewTable(out...), nil
}

// Validate checks the effective configuration and compiles the rule table.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.Border < 0 {
		return &ValidationError{Path: "border", Err: fmt.Errorf("border must be >= 0")}
	}
	if c.ReconcileInterval < 0 {
		return &ValidationError{Path: "reconcile_interval", Err: fmt.Errorf("reconcile_interval must be >= 0")}
	}

	for name, oc := range c.Outputs {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: "outputs", Err: fmt.Errorf("outputs contains an empty connector name")}
		}
		if oc.Mode != nil && (oc.Mode.Width <= 0 || oc.Mode.Height <= 0) {
			return &ValidationError{Path: "outputs." + name + ".mode", Err: fmt.Errorf("mode width and height must be > 0")}
		}
		if oc.Mode != nil && oc.Mode.Refresh < 0 {
			return &ValidationError{Path: "outputs." + name + ".mode", Err: fmt.Errorf("mode refresh must be >= 0")}
		}
	}

	for i, wr := range c.WindowRules {
		if wr.Floating == nil && wr.Opacity == nil {
			return &ValidationError{Path: fmt.Sprintf("window_rules[%d]", i), Err: fmt.Errorf("rule sets no overrides")}
		}
		if wr.Opacity != nil && (*wr.Opacity < 0 || *wr.Opacity > 1) {
			return &ValidationError{Path: fmt.Sprintf("window_rules[%d].opacity", i), Err: fmt.Errorf("opacity must be between 0 and 1")}
		}
	}
	table, err := compileRules(c.WindowRules)
	if err != nil {
		return err
	}
	c.rules = table

	for _, key := range c.BindingKeys() {
		if strings.TrimSpace(key) == "" {
			return &ValidationError{Path: "bindings", Err: fmt.Errorf("bindings contains an empty key sequence")}
		}
		if err := c.Bindings[key].Validate(); err != nil {
			return &ValidationError{Path: "bindings." + key, Err: err}
		}
	}
	return nil
}
