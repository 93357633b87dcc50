package config

import (
	"fmt"

	"github.com/1broseidon/tessera/internal/action"
	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawOutput struct {
	Position *Position   `yaml:"position"`
	Mode     *ModeConfig `yaml:"mode"`
	Enabled  *bool       `yaml:"enabled"`
}

type RawFocus struct {
	FloatingFallback *bool `yaml:"floating_fallback"`
}

// RawConfig mirrors the on-disk shape. Pointer fields distinguish "unset"
// from zero values so files can be layered.
type RawConfig struct {
	Include           IncludeList              `yaml:"include"`
	LogLevel          *string                  `yaml:"log_level"`
	Border            *int                     `yaml:"border"`
	Focus             *RawFocus                `yaml:"focus"`
	Outputs           map[string]RawOutput     `yaml:"outputs"`
	WindowRules       []WindowRule             `yaml:"window_rules"`
	Bindings          map[string]action.Action `yaml:"bindings"`
	ReconcileInterval *string                  `yaml:"reconcile_interval"`
}

// merge layers other over r. Window rules are concatenated so that rules
// from later files are declared after rules from earlier ones.
func (r RawConfig) merge(other RawConfig) RawConfig {
	out := r
	if other.LogLevel != nil {
		out.LogLevel = other.LogLevel
	}
	if other.Border != nil {
		out.Border = other.Border
	}
	if other.Focus != nil {
		focus := RawFocus{}
		if out.Focus != nil {
			focus = *out.Focus
		}
		if other.Focus.FloatingFallback != nil {
			focus.FloatingFallback = other.Focus.FloatingFallback
		}
		out.Focus = &focus
	}
	if other.ReconcileInterval != nil {
		out.ReconcileInterval = other.ReconcileInterval
	}

	if len(other.Outputs) > 0 {
		outputs := make(map[string]RawOutput, len(out.Outputs)+len(other.Outputs))
		for name, o := range out.Outputs {
			outputs[name] = o
		}
		for name, o := range other.Outputs {
			base := outputs[name]
			if o.Position != nil {
				base.Position = o.Position
			}
			if o.Mode != nil {
				base.Mode = o.Mode
			}
			if o.Enabled != nil {
				base.Enabled = o.Enabled
			}
			outputs[name] = base
		}
		out.Outputs = outputs
	}

	if len(other.WindowRules) > 0 {
		rules := make([]WindowRule, 0, len(out.WindowRules)+len(other.WindowRules))
		rules = append(rules, out.WindowRules...)
		rules = append(rules, other.WindowRules...)
		out.WindowRules = rules
	}

	if other.Bindings != nil {
		bindings := make(map[string]action.Action, len(out.Bindings)+len(other.Bindings))
		for k, v := range out.Bindings {
			bindings[k] = v
		}
		for k, v := range other.Bindings {
			bindings[k] = v
		}
		out.Bindings = bindings
	}
	return out
}
