package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	log_level
//	border
//	focus.floating_fallback
//	reconcile_interval
//	outputs.<connector>
//	outputs.<connector>.position
//	outputs.<connector>.mode
//	outputs.<connector>.enabled
//	window_rules
//	window_rules[<n>]
//	bindings
//	bindings.<keys>
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	if strings.HasPrefix(path, "bindings.") {
		return value, Source{Kind: SourceBuiltin, Name: "default bindings"}, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	head, rest, _ := strings.Cut(path, ".")
	switch {
	case head == "log_level" && rest == "":
		return cfg.LogLevel, nil
	case head == "border" && rest == "":
		return cfg.Border, nil
	case head == "reconcile_interval" && rest == "":
		return cfg.ReconcileInterval.String(), nil
	case head == "focus":
		switch rest {
		case "":
			return cfg.Focus, nil
		case "floating_fallback":
			return cfg.Focus.FloatingFallback, nil
		}
	case head == "outputs":
		if rest == "" {
			return cfg.Outputs, nil
		}
		name, field, _ := strings.Cut(rest, ".")
		oc, ok := cfg.Outputs[name]
		if !ok {
			return nil, fmt.Errorf("no output override for %q", name)
		}
		switch field {
		case "":
			return oc, nil
		case "position":
			return oc.Position, nil
		case "mode":
			return oc.Mode, nil
		case "enabled":
			return oc.Enabled, nil
		}
	case head == "bindings":
		if rest == "" {
			return cfg.Bindings, nil
		}
		a, ok := cfg.Bindings[rest]
		if !ok {
			return nil, fmt.Errorf("no binding for %q", rest)
		}
		return a.String(), nil
	case head == "window_rules" && rest == "":
		return cfg.WindowRules, nil
	case strings.HasPrefix(head, "window_rules[") && strings.HasSuffix(head, "]") && rest == "":
		idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(head, "window_rules["), "]"))
		if err != nil || idx < 0 || idx >= len(cfg.WindowRules) {
			return nil, fmt.Errorf("window rule index out of range: %s", path)
		}
		return cfg.WindowRules[idx], nil
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}
